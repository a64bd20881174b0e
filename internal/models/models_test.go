package models

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProbeRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     ProbeRequest
		field   string
		timeout time.Duration
	}{
		{name: "lowest port", req: ProbeRequest{Target: "localhost", Port: 1}, timeout: 2 * time.Second},
		{name: "highest port", req: ProbeRequest{Target: "localhost", Port: 65535, Timeout: time.Second}, timeout: time.Second},
		{name: "target trimmed", req: ProbeRequest{Target: "  example.com ", Port: 443}, timeout: 2 * time.Second},
		{name: "port zero", req: ProbeRequest{Target: "localhost", Port: 0}, field: "port"},
		{name: "port above range", req: ProbeRequest{Target: "localhost", Port: 65536}, field: "port"},
		{name: "missing target", req: ProbeRequest{Port: 22}, field: "target"},
		{name: "negative timeout", req: ProbeRequest{Target: "localhost", Port: 22, Timeout: -1}, field: "timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			err := req.Validate()
			if tt.field == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.timeout, req.Timeout)
				assert.NotContains(t, req.Target, " ")
				return
			}

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
			assert.Contains(t, verr.Error(), "invalid "+tt.field)
		})
	}
}

func TestWatch_Request(t *testing.T) {
	w := Watch{Target: "db.internal", Port: 5432, TimeoutMS: 750, SkipLiveness: true}
	req := w.Request()

	assert.Equal(t, "db.internal", req.Target)
	assert.Equal(t, 5432, req.Port)
	assert.Equal(t, 750*time.Millisecond, req.Timeout)
	assert.True(t, req.SkipLiveness)
}
