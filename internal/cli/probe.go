package cli

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/MimoJanra/PortPulse/internal/checker"
	"github.com/MimoJanra/PortPulse/internal/models"
)

func newProbeCmd(opts *options) *cobra.Command {
	var (
		timeoutMS int
		noPing    bool
		format    string
	)

	cmd := &cobra.Command{
		Use:     "probe <target> <port> [port...]",
		Aliases: []string{"test-port"},
		Short:   "Test whether a TCP port accepts connections",
		Long: `Attempts one TCP connection per port within the timeout and reports
target, hostReachable, port and connectionStatus.

The command exits 0 whether or not the port is reachable; it only fails on
invalid input.`,
		Example: `  portpulse probe localhost 80
  portpulse probe 192.0.2.1 9999 --timeout 500
  portpulse probe db.internal 22 5432 6379 --no-ping --format json`,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) == 0 {
				return &models.ValidationError{Field: "target", Reason: "is required"}
			}
			if len(args) == 1 {
				return &models.ValidationError{Field: "port", Reason: "is required"}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("timeout") {
				timeoutMS = opts.cfg.Probe.TimeoutMS
			}
			if timeoutMS <= 0 {
				return &models.ValidationError{Field: "timeout", Reason: "must be a positive number of milliseconds"}
			}
			format = strings.ToLower(format)
			if !validFormat(format) {
				return &models.ValidationError{Field: "format", Reason: fmt.Sprintf("%q is not one of table, json, yaml", format)}
			}

			reqs, err := buildRequests(args[0], args[1:], time.Duration(timeoutMS)*time.Millisecond, noPing)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			prober := checker.NewProber(opts.liveness(opts.cfg.Probe.Liveness && !noPing))

			var results []models.ProbeResult
			if len(reqs) == 1 {
				res, err := prober.Probe(ctx, reqs[0])
				if err != nil {
					return err
				}
				results = []models.ProbeResult{res}
			} else {
				pool := checker.NewWorkerPool(min(len(reqs), opts.cfg.Server.Workers), prober, nil)
				pool.Start()
				defer pool.Stop()

				results, err = pool.ProbeMany(ctx, reqs, "")
				if err != nil {
					return err
				}
			}

			return render(cmd.OutOrStdout(), format, results)
		},
	}

	cmd.Flags().IntVarP(&timeoutMS, "timeout", "t", models.DefaultTimeoutMS, "connect timeout in milliseconds")
	cmd.Flags().BoolVar(&noPing, "no-ping", false, "skip the ICMP liveness check")
	cmd.Flags().StringVarP(&format, "format", "o", formatTable, "output format: table|json|yaml")

	return cmd
}

// buildRequests validates every argument before any probe is sent.
func buildRequests(target string, ports []string, timeout time.Duration, noPing bool) ([]models.ProbeRequest, error) {
	reqs := make([]models.ProbeRequest, 0, len(ports))
	for _, raw := range ports {
		port, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return nil, &models.ValidationError{Field: "port", Reason: fmt.Sprintf("%q is not a number", raw)}
		}
		req := models.ProbeRequest{
			Target:       target,
			Port:         port,
			Timeout:      timeout,
			SkipLiveness: noPing,
		}
		if err := req.Validate(); err != nil {
			return nil, err
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}
