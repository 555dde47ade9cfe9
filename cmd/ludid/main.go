package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"cosmossdk.io/log"
	"github.com/cometbft/cometbft/abci/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"ludimint/chain/internal/app"
)

const envPrefix = "LUDID"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "ludid",
		Short: "LUDIMINT tournament chain ABCI daemon",
		Long: "ludid serves the LUDIMINT commit-reveal tournament application " +
			"over ABCI for a CometBFT node.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			v.SetEnvPrefix(envPrefix)
			v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
			v.AutomaticEnv()
			return v.BindPFlags(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServer(v)
		},
	}

	cmd.Flags().String("home", ".ludid", "app home directory (state is stored under <home>/app)")
	cmd.Flags().String("addr", "tcp://127.0.0.1:26658", "ABCI listen address")
	cmd.Flags().String("transport", "socket", "ABCI transport (socket|grpc)")
	cmd.Flags().String("log-level", "info", "log level (debug|info|warn|error)")

	return cmd
}

func runServer(v *viper.Viper) error {
	logger, err := newLogger(v.GetString("log-level"))
	if err != nil {
		return err
	}

	a, err := app.New(v.GetString("home"), logger.With("module", "app"))
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}

	addr := v.GetString("addr")
	srv, err := server.NewServer(addr, v.GetString("transport"), a)
	if err != nil {
		return fmt.Errorf("create abci server: %w", err)
	}
	if err := srv.Start(); err != nil {
		return fmt.Errorf("start abci server: %w", err)
	}
	defer func() { _ = srv.Stop() }()

	logger.Info("abci server listening", "addr", addr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("shutting down")
	return nil
}

func newLogger(level string) (log.Logger, error) {
	opt, err := log.ParseLogLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}
	return log.NewLogger(os.Stderr, log.FilterOption(opt)), nil
}
