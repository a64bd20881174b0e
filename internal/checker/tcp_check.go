package checker

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/MimoJanra/PortPulse/internal/models"
)

// Prober runs single TCP connect attempts with an advisory liveness check
// alongside. A Prober holds no per-probe state and is safe for concurrent use.
type Prober struct {
	liveness LivenessChecker
	dialer   net.Dialer
}

func NewProber(liveness LivenessChecker) *Prober {
	if liveness == nil {
		liveness = NoopLiveness{}
	}
	return &Prober{liveness: liveness}
}

// Probe validates req and then makes exactly one connection attempt within
// req.Timeout. The only error it returns is a *models.ValidationError; network
// failures are reported through the result as StatusFailed.
func (p *Prober) Probe(ctx context.Context, req models.ProbeRequest) (models.ProbeResult, error) {
	if err := req.Validate(); err != nil {
		return models.ProbeResult{}, err
	}

	start := time.Now()
	address := net.JoinHostPort(req.Target, strconv.Itoa(req.Port))

	probeCtx, cancel := context.WithTimeout(ctx, req.Timeout)
	defer cancel()

	// Liveness gets its own context so a completed handshake can stop it early.
	livenessCtx, stopLiveness := context.WithCancel(probeCtx)
	defer stopLiveness()

	liveness := p.liveness
	if req.SkipLiveness {
		liveness = NoopLiveness{}
	}

	var (
		alive   models.Liveness
		dialErr error
	)

	// A plain Group: neither side may cancel the other on failure.
	var g errgroup.Group
	g.Go(func() error {
		alive = liveness.Check(livenessCtx, req.Target)
		return nil
	})
	g.Go(func() error {
		dialErr = p.connect(probeCtx, address)
		if dialErr == nil {
			stopLiveness()
		}
		return nil
	})
	_ = g.Wait()

	result := models.ProbeResult{
		Target:           req.Target,
		HostReachable:    alive,
		Port:             req.Port,
		ConnectionStatus: models.StatusSuccess,
		DurationMS:       time.Since(start).Milliseconds(),
		CheckedAt:        time.Now().UTC(),
	}

	if dialErr != nil {
		result.ConnectionStatus = models.StatusFailed
		result.Error = describeDialError(dialErr, req.Timeout)
		log.Debug().
			Str("address", address).
			Err(dialErr).
			Msg("tcp probe failed")
		return result, nil
	}

	result.HostReachable = models.Reachable
	return result, nil
}

func (p *Prober) connect(ctx context.Context, address string) error {
	conn, err := p.dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return err
	}
	defer func() {
		if err := conn.Close(); err != nil {
			log.Debug().Str("address", address).Err(err).Msg("failed to close probe connection")
		}
	}()
	return nil
}

func describeDialError(err error, timeout time.Duration) string {
	if isNetworkTimeout(err) {
		return fmt.Sprintf("TCP connection timed out after %s", timeout)
	}
	return fmt.Sprintf("TCP connection failed: %v", err)
}

func isNetworkTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}
