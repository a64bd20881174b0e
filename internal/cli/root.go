package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MimoJanra/PortPulse/internal/checker"
	"github.com/MimoJanra/PortPulse/internal/config"
	"github.com/MimoJanra/PortPulse/internal/logging"
	"github.com/MimoJanra/PortPulse/internal/models"
)

const (
	exitError   = 1
	exitInvalid = 2
)

type options struct {
	configFile string
	envFile    string
	v          *viper.Viper
	cfg        *config.Config

	newLiveness func() checker.LivenessChecker
}

func NewRootCmd() *cobra.Command {
	opts := &options{
		v: config.New(),
		newLiveness: func() checker.LivenessChecker {
			return checker.NewICMPLiveness()
		},
	}

	cmd := &cobra.Command{
		Use:   "portpulse",
		Short: "PortPulse - TCP port probing",
		Long: `PortPulse checks whether TCP endpoints accept connections within a bounded time,
reporting host liveness and port reachability as separate facts.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.load(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "config file (default is ./portpulse.yaml)")
	flags.StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	flags.String("log-level", "", "log level: debug|info|warn|error")
	_ = opts.v.BindPFlag("log.level", flags.Lookup("log-level"))

	cmd.AddCommand(newProbeCmd(opts))
	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func (o *options) load(cmd *cobra.Command) error {
	if err := config.LoadDotEnv(o.envFile); err != nil {
		return err
	}
	if err := config.ReadInConfig(o.v, o.configFile); err != nil {
		return err
	}
	cfg, err := config.Load(o.v)
	if err != nil {
		return err
	}
	o.cfg = cfg

	logging.Setup(cfg.Log.Level, cmd.ErrOrStderr())
	return nil
}

func (o *options) liveness(enabled bool) checker.LivenessChecker {
	if !enabled {
		return checker.NoopLiveness{}
	}
	return o.newLiveness()
}

// Execute runs the CLI and returns the process exit code. Only invalid input
// yields a non-zero code for probes; reachability never does.
func Execute(args []string) int {
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		return ExitCode(err)
	}
	return 0
}

func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		return exitInvalid
	}
	return exitError
}
