package metrics

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

type componentState struct {
	Healthy bool
	Detail  string
	Updated time.Time
}

var health = struct {
	sync.RWMutex
	components map[string]componentState
	started    time.Time
}{
	components: make(map[string]componentState),
	started:    time.Now(),
}

// RegisterComponent records (or updates) a component's health. Handlers
// read the latest state, so a component flips the whole process unhealthy
// the moment it reports a failure.
func RegisterComponent(name string, healthy bool, detail string) {
	health.Lock()
	defer health.Unlock()
	health.components[name] = componentState{Healthy: healthy, Detail: detail, Updated: time.Now()}
}

type healthReport struct {
	Status     string            `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Components map[string]string `json:"components,omitempty"`
	Uptime     string            `json:"uptime,omitempty"`
}

func snapshot() healthReport {
	health.RLock()
	defer health.RUnlock()

	report := healthReport{
		Status:     "healthy",
		Timestamp:  time.Now(),
		Components: make(map[string]string, len(health.components)),
		Uptime:     time.Since(health.started).String(),
	}
	for name, c := range health.components {
		if c.Healthy {
			report.Components[name] = "healthy"
		} else {
			report.Status = "unhealthy"
			report.Components[name] = "unhealthy: " + c.Detail
		}
	}
	return report
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// HealthHandler serves /health: 200 while every registered component is
// healthy, 503 otherwise.
func HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := snapshot()
		code := http.StatusOK
		if report.Status != "healthy" {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, report)
	}
}

// ReadyHandler serves /ready: 200 once at least one component has
// registered and none reports unhealthy. Until startup registers its
// components the process answers 503, so a load balancer holds traffic
// back from a process still opening its listeners.
func ReadyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		health.RLock()
		report := healthReport{
			Status:     "ready",
			Timestamp:  time.Now(),
			Components: make(map[string]string, len(health.components)),
			Uptime:     time.Since(health.started).String(),
		}
		if len(health.components) == 0 {
			report.Status = "not_ready"
		}
		for name, c := range health.components {
			if c.Healthy {
				report.Components[name] = "ready"
			} else {
				report.Status = "not_ready"
				report.Components[name] = "not ready: " + c.Detail
			}
		}
		health.RUnlock()

		code := http.StatusOK
		if report.Status != "ready" {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, report)
	}
}

// LivenessHandler serves /live: it answers 200 whenever the process can,
// carrying only the uptime.
func LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "alive",
			"uptime": time.Since(health.started).String(),
		})
	}
}
