package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/zeromicro/go-zero/core/logx"

	"github.com/finsightlab/finsight/internal/config"
	"github.com/finsightlab/finsight/internal/server"
	"github.com/finsightlab/finsight/internal/svc"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "finsight",
	Short: "Conversational financial analysis service",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP service",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "f", "etc/finsight.yaml", "config file path")
	rootCmd.AddCommand(serveCmd)
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func serve() error {
	// Secrets come from the environment; a local .env is a convenience, its
	// absence is not an error.
	_ = godotenv.Load()

	c, err := config.LoadFile(configFile)
	if err != nil {
		return fmt.Errorf("load config %s: %w", configFile, err)
	}
	if err := c.SetUp(); err != nil {
		return fmt.Errorf("logging setup: %w", err)
	}
	defer logx.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logx.Infof("received signal %v, shutting down", sig)
		cancel()
	}()

	svcCtx := svc.NewServiceContext(c)
	return server.Run(ctx, c, svcCtx)
}
