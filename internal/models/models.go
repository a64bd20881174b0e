package models

import (
	"fmt"
	"strings"
	"time"
)

const (
	MinPort = 1
	MaxPort = 65535

	DefaultTimeoutMS = 2000
)

type Liveness string

const (
	Reachable   Liveness = "Reachable"
	Unreachable Liveness = "Unreachable"
	Unknown     Liveness = "Unknown"
)

type ConnectionStatus string

const (
	StatusSuccess ConnectionStatus = "Success"
	StatusFailed  ConnectionStatus = "Failed"
)

// ValidationError reports malformed probe input. It is returned before any
// network activity takes place.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

type ProbeRequest struct {
	Target       string        `json:"target" example:"localhost"`
	Port         int           `json:"port" example:"80"`
	Timeout      time.Duration `json:"-"`
	SkipLiveness bool          `json:"skip_liveness,omitempty" example:"false"`
}

// Validate checks the request and fills in the default timeout when none was set.
func (r *ProbeRequest) Validate() error {
	r.Target = strings.TrimSpace(r.Target)
	if r.Target == "" {
		return &ValidationError{Field: "target", Reason: "must not be empty"}
	}
	if r.Port < MinPort || r.Port > MaxPort {
		return &ValidationError{Field: "port", Reason: fmt.Sprintf("%d is outside [%d, %d]", r.Port, MinPort, MaxPort)}
	}
	if r.Timeout < 0 {
		return &ValidationError{Field: "timeout", Reason: "must be positive"}
	}
	if r.Timeout == 0 {
		r.Timeout = DefaultTimeoutMS * time.Millisecond
	}
	return nil
}

type ProbeResult struct {
	Target           string           `json:"target" yaml:"target" example:"localhost"`
	HostReachable    Liveness         `json:"hostReachable" yaml:"hostReachable" example:"Reachable"`
	Port             int              `json:"port" yaml:"port" example:"80"`
	ConnectionStatus ConnectionStatus `json:"connectionStatus" yaml:"connectionStatus" example:"Success"`
	DurationMS       int64            `json:"duration_ms" yaml:"duration_ms" example:"12"`
	Error            string           `json:"error,omitempty" yaml:"error,omitempty" example:""`
	CheckedAt        time.Time        `json:"checked_at" yaml:"checked_at"`
}

func (r ProbeResult) Succeeded() bool {
	return r.ConnectionStatus == StatusSuccess
}

type Watch struct {
	ID              int    `json:"id" example:"1"`
	Target          string `json:"target" example:"db.internal"`
	Port            int    `json:"port" example:"5432"`
	TimeoutMS       int    `json:"timeout_ms" example:"2000"`
	IntervalSeconds int    `json:"interval_seconds" example:"60"`
	SkipLiveness    bool   `json:"skip_liveness" example:"false"`
	Enabled         bool   `json:"enabled" example:"true"`
}

func (w Watch) Request() ProbeRequest {
	return ProbeRequest{
		Target:       w.Target,
		Port:         w.Port,
		Timeout:      time.Duration(w.TimeoutMS) * time.Millisecond,
		SkipLiveness: w.SkipLiveness,
	}
}

type Record struct {
	ID      int    `json:"id" example:"1"`
	WatchID *int   `json:"watch_id,omitempty" example:"3"`
	BatchID string `json:"batch_id,omitempty" example:"5f0c6a0e-8d0c-4f5e-9a59-0f7c2b0b2a11"`
	ProbeResult
}

type ResultFilter struct {
	Target  string
	Port    int
	WatchID *int
	Limit   int
}

type LatencyStats struct {
	Min int64   `json:"min" example:"3"`
	Max int64   `json:"max" example:"480"`
	Avg float64 `json:"avg" example:"41.5"`
}

type StatsResponse struct {
	Target       string       `json:"target" example:"localhost"`
	Port         int          `json:"port" example:"80"`
	Total        int          `json:"total" example:"120"`
	SuccessCount int          `json:"success_count" example:"118"`
	FailureCount int          `json:"failure_count" example:"2"`
	SuccessRatio float64      `json:"success_ratio" example:"0.983"`
	Latency      LatencyStats `json:"latency"`
}

// Alert is raised when a target:port keeps failing and again once it recovers.
type Alert struct {
	Target     string           `json:"target"`
	Port       int              `json:"port"`
	Status     ConnectionStatus `json:"connectionStatus"`
	Failures   int              `json:"failures"`
	Recovered  bool             `json:"recovered"`
	Error      string           `json:"error,omitempty"`
	DurationMS int64            `json:"duration_ms"`
	CheckedAt  time.Time        `json:"checked_at"`
}
