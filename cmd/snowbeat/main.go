package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"snowbeat/internal/app"
	"snowbeat/internal/config"
	"snowbeat/internal/database"
	"snowbeat/internal/database/snowflake"
	"snowbeat/internal/logging"
	"snowbeat/internal/output"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "snowbeat",
		Short: "Run a registered Snowflake query and emit the rows as JSON lines",
		Long: `snowbeat connects to a Snowflake account with keypair authentication,
executes one query from its fixed registry and prints every result row as
one JSON object on stdout, annotated with warehouse, account and execution
timestamp. Logs go to stderr so stdout stays machine-readable.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runProbe(cmd.Context(), v, os.Stdout, snowflake.New())
		},
	}

	flags := cmd.Flags()
	flags.String("user", "", "Snowflake username")
	flags.String("sf_keypair", "", "path to the private key PEM file")
	flags.String("account", "", "Snowflake account identifier")
	flags.String("warehouse", "", "Snowflake warehouse name")
	flags.String("sql_query", "", "registered query name to execute")
	flags.String("passphrase", "", "private key passphrase (if encrypted)")
	flags.String("log_level", "", "log level (debug, info, warn, error)")

	// Config file and environment fill in anything not given on the
	// command line.
	_ = v.BindPFlags(flags)
	_ = v.BindPFlag("logging.level", flags.Lookup("log_level"))

	return cmd
}

// runProbe is the whole pipeline for one invocation: load config, run the
// query, and on failure write the single error envelope to stdout.
func runProbe(ctx context.Context, v *viper.Viper, stdout io.Writer, driver database.Driver) error {
	cfg, err := config.Load(v)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}

	log := logging.New(cfg.Logging.Level)
	log.WithField("config", cfg.String()).Info("starting probe run")

	if err := cfg.Validate(); err != nil {
		log.WithError(err).Error("invalid configuration")
		_ = output.WriteError(stdout, app.TagExecutionFail, err.Error(), time.Now())
		return err
	}

	cfg.Passphrase = config.ResolvePassphrase(cfg)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc := app.NewService(driver, log)
	if err := svc.Run(ctx, cfg, stdout); err != nil {
		tag := app.Tag(err)
		log.WithError(err).WithField("error_tag", tag).Error("probe run failed")
		_ = output.WriteError(stdout, tag, err.Error(), time.Now())
		return err
	}

	log.Info("probe run completed")
	return nil
}
