package checker

import (
	"context"
	"errors"
	"net"
	"runtime"
	"time"

	probing "github.com/prometheus-community/pro-bing"
	"github.com/rs/zerolog/log"

	"github.com/MimoJanra/PortPulse/internal/models"
)

// LivenessChecker reports whether a host answers at the network layer. The
// answer is advisory and must never fail the port probe itself.
type LivenessChecker interface {
	Check(ctx context.Context, host string) models.Liveness
}

type NoopLiveness struct{}

func (NoopLiveness) Check(context.Context, string) models.Liveness {
	return models.Unknown
}

type hostResolver interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

// ICMPLiveness sends a single echo request with pro-bing.
type ICMPLiveness struct {
	Privileged bool
	resolver   hostResolver
}

func NewICMPLiveness() *ICMPLiveness {
	return &ICMPLiveness{
		Privileged: runtime.GOOS == "windows",
		resolver:   net.DefaultResolver,
	}
}

func (l *ICMPLiveness) Check(ctx context.Context, host string) models.Liveness {
	addr, err := l.resolve(ctx, host)
	if err != nil {
		log.Debug().Str("host", host).Err(err).Msg("failed to resolve ping target")
		return models.Unknown
	}

	// The address is set up front so pro-bing does not do its own lookup,
	// which ignores ctx.
	pinger := probing.New(host)
	pinger.SetIPAddr(addr)
	if addr.IP.To4() != nil {
		pinger.SetNetwork("ip4")
	} else {
		pinger.SetNetwork("ip6")
	}
	pinger.Count = 1
	pinger.SetPrivileged(l.Privileged)
	if deadline, ok := ctx.Deadline(); ok {
		pinger.Timeout = time.Until(deadline)
	}

	err = pinger.RunWithContext(ctx)
	stats := pinger.Statistics()
	if stats.PacketsRecv > 0 {
		return models.Reachable
	}

	// Running out of time means nothing answered; any other error means the
	// check itself could not be made (usually missing ICMP socket permissions).
	if err != nil && ctx.Err() == nil {
		log.Debug().Str("host", host).Err(err).Msg("ping failed")
		return models.Unknown
	}
	return models.Unreachable
}

// resolve looks host up within ctx and prefers an IPv4 address.
func (l *ICMPLiveness) resolve(ctx context.Context, host string) (*net.IPAddr, error) {
	resolver := l.resolver
	if resolver == nil {
		resolver = net.DefaultResolver
	}

	addrs, err := resolver.LookupIPAddr(ctx, host)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(addrs) == 0 {
		return nil, errors.New("no addresses found")
	}

	for i := range addrs {
		if addrs[i].IP.To4() != nil {
			return &addrs[i], nil
		}
	}
	return &addrs[0], nil
}
