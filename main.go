package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fielddb/fieldauth/internal/bootstrap"
	"github.com/fielddb/fieldauth/internal/config"
	"github.com/fielddb/fieldauth/internal/token"
	"github.com/fielddb/fieldauth/internal/version"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "fieldauth",
		Short:        "OAuth2 authorization server for fielddb corpora",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// no subcommand: serve
			return runServer(cmd.Context())
		},
	}

	root.AddCommand(
		newServerCmd(),
		newKeygenCmd(),
		newVersionCmd(),
	)
	return root
}

func newServerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "server",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServer(cmd.Context())
		},
	}
}

func runServer(ctx context.Context) error {
	cfg := config.Load()

	logger, err := bootstrap.NewLogger(cfg.Environment, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting",
		zap.String("app", version.App),
		zap.String("version", version.String()),
	)
	return bootstrap.Run(ctx, cfg, logger)
}

func newKeygenCmd() *cobra.Command {
	var (
		outDir string
		bits   int
	)
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate an RSA key pair for signing tokens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			privatePath, publicPath, err := token.WriteKeyPair(outDir, bits)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "private key: %s\npublic key:  %s\n", privatePath, publicPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&outDir, "out-dir", "keys", "directory to write private.pem and public.pem into")
	cmd.Flags().IntVar(&bits, "bits", 2048, "RSA modulus size")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			version.PrintVersion(cmd.OutOrStdout())
		},
	}
}
