package alloc

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cuemby/hearty/pkg/metadata"
)

func TestChoosePrefersFirstFreeSlot(t *testing.T) {
	var descriptors [metadata.NumBlocks]metadata.BlockDescriptor
	descriptors[0].IsUsed = true
	descriptors[0].SetPath("/a")

	got := Choose(&descriptors, "/b")
	assert.Equal(t, 1, got)
}

func TestChooseReusesExistingPathBlock(t *testing.T) {
	var descriptors [metadata.NumBlocks]metadata.BlockDescriptor
	descriptors[0].IsUsed = true
	descriptors[0].SetPath("/a")
	descriptors[1].IsUsed = true
	descriptors[1].SetPath("/b")

	// A repeat put to /b lands on its old block, not the first free slot
	// at index 2.
	got := Choose(&descriptors, "/b")
	assert.Equal(t, 1, got)
}

func TestChooseFallsBackToMatchingPathWhenFull(t *testing.T) {
	var descriptors [metadata.NumBlocks]metadata.BlockDescriptor
	for i := range descriptors {
		descriptors[i].IsUsed = true
		descriptors[i].SetPath("/other")
	}
	descriptors[5].SetPath("/target")

	got := Choose(&descriptors, "/target")
	assert.Equal(t, 5, got)
}

func TestChooseReturnsNoSlotWhenFullAndPathAbsent(t *testing.T) {
	var descriptors [metadata.NumBlocks]metadata.BlockDescriptor
	for i := range descriptors {
		descriptors[i].IsUsed = true
		descriptors[i].SetPath("/other")
	}

	got := Choose(&descriptors, "/missing")
	assert.Equal(t, NoSlot, got)
}
