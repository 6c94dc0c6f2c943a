package heartypb

// InitRequest asks the server to create store_name.
type InitRequest struct {
	StoreName string `json:"store_name"`
}

// InitResponse reports whether the store was created.
type InitResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// PutRequest writes file_content under file_path in store_name.
type PutRequest struct {
	StoreName   string `json:"store_name"`
	FilePath    string `json:"file_path"`
	FileContent []byte `json:"file_content"`
}

// PutResponse carries the assigned object id on success.
type PutResponse struct {
	Success bool   `json:"success"`
	FileID  string `json:"file_id"`
	Message string `json:"message"`
}

// GetRequest asks for the object identified by file_identifier in
// store_name. The server streams the reply back in BlockSize chunks.
type GetRequest struct {
	StoreName      string `json:"store_name"`
	FileIdentifier string `json:"file_identifier"`
}

// GetResponse is one chunk of a streamed Get reply.
type GetResponse struct {
	Success     bool   `json:"success"`
	FileContent []byte `json:"file_content"`
	Message     string `json:"message"`
}

// ListRequest takes no arguments.
type ListRequest struct{}

// ListResponse carries a human-readable, multi-line listing.
type ListResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// DestroyRequest asks the server to remove store_name entirely.
type DestroyRequest struct {
	StoreName string `json:"store_name"`
}

// DestroyResponse reports whether the store was removed.
type DestroyResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// CacheRequest asks the server to grant ownership of file_id to the
// caller. PeerAddress is the caller's eviction listener; the server
// records it as the owner address and dials it back when another client
// later demands the same object.
type CacheRequest struct {
	FileID      string `json:"file_id"`
	PeerAddress string `json:"peer_address"`
}

// CacheResponse reports whether ownership was granted.
type CacheResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// EvictRequest tells a client it must drop its copy of file_id.
type EvictRequest struct {
	FileID string `json:"file_id"`
}

// EvictResponse acknowledges the eviction.
type EvictResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
