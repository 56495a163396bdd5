package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/inferloop/tabanon/internal/server"
	"github.com/inferloop/tabanon/pkg/constants"
)

type ServeOptions struct {
	Host        string
	Port        int
	MetricsPort int
	LogLevel    string
	LogFormat   string
}

func NewServeCmd() *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the anonymization HTTP API server",
		Long: `Start an HTTP server exposing the anonymization engine and the privacy
metric calculator, plus Prometheus metrics on a separate port.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts)
		},
	}

	// Add flags
	cmd.Flags().StringVar(&opts.Host, "host", constants.DefaultHost, "Listen host")
	cmd.Flags().IntVar(&opts.Port, "port", constants.DefaultPort, "Listen port")
	cmd.Flags().IntVar(&opts.MetricsPort, "metrics-port", constants.DefaultMetricsPort, "Prometheus metrics port")
	cmd.Flags().StringVar(&opts.LogLevel, "log-level", constants.DefaultLogLevel, "Log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&opts.LogFormat, "log-format", constants.DefaultLogFormat, "Log format (json, text)")

	viper.BindPFlag("server.host", cmd.Flags().Lookup("host"))
	viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	viper.BindPFlag("server.metrics_port", cmd.Flags().Lookup("metrics-port"))

	return cmd
}

func runServe(opts *ServeOptions) error {
	logger := setupLogger(opts.LogLevel, opts.LogFormat)

	logger.WithFields(logrus.Fields{
		"version": constants.AppVersion,
	}).Infof("Starting %s", constants.AppDescription)

	config := server.ConfigFromViper(viper.GetViper())

	srv, err := server.NewServer(config, logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	// Setup signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		if err := srv.Start(context.Background()); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("server failed: %w", err)
	case <-sigChan:
		logger.Info("Shutdown signal received")
	}

	return srv.Stop(context.Background())
}

func setupLogger(level, format string) *logrus.Logger {
	logger := logrus.New()

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	logger.SetLevel(parsed)

	if format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return logger
}
