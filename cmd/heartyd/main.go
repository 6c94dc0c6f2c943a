// Command heartyd runs the store server: the block allocator, write-ahead
// log and metadata codec behind the gRPC surface and the single-owner
// coherence protocol.
package main

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"

	"github.com/cuemby/hearty/internal/heartypb"
	"github.com/cuemby/hearty/pkg/config"
	"github.com/cuemby/hearty/pkg/engine"
	"github.com/cuemby/hearty/pkg/log"
	"github.com/cuemby/hearty/pkg/metrics"
	"github.com/cuemby/hearty/pkg/rpcserver"
)

var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "heartyd",
	Short:   "heartyd serves the block-addressed object store",
	Version: Version,
	RunE:    runServe,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("heartyd version %s (%s)\n", Version, Commit))

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")
	rootCmd.Flags().String("config", "", "Path to a YAML config file")
	rootCmd.Flags().String("base-path", "", "Directory containing the numbered store directories")
	rootCmd.Flags().String("listen-addr", "", "gRPC listen address")
	rootCmd.Flags().String("metrics-addr", "", "HTTP listen address for /metrics and health endpoints")

	cobra.OnInitialize(initLogging)
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")
	log.Init(log.Config{Level: logLevel, JSONOutput: logJSON})
}

func runServe(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	basePath, _ := cmd.Flags().GetString("base-path")
	listenAddr, _ := cmd.Flags().GetString("listen-addr")
	metricsAddr, _ := cmd.Flags().GetString("metrics-addr")

	cfg, err := config.LoadServer(configPath, basePath, listenAddr, metricsAddr)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	eng := engine.New(cfg.BasePath)
	srv := rpcserver.New(eng)

	lis, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.ListenAddr, err)
	}

	grpcServer := grpc.NewServer()
	heartypb.RegisterHeartyStoreServer(grpcServer, srv)

	metrics.RegisterComponent("engine", true, "ready")
	metrics.RegisterComponent("rpc", false, "starting")

	errCh := make(chan error, 1)
	go func() {
		log.WithComponent("rpc").Info().Str("addr", cfg.ListenAddr).Msg("gRPC server listening")
		metrics.RegisterComponent("rpc", true, "ready")
		if err := grpcServer.Serve(lis); err != nil {
			errCh <- fmt.Errorf("gRPC server: %w", err)
		}
	}()

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.Handle("/health", metrics.HealthHandler())
	mux.Handle("/ready", metrics.ReadyHandler())
	mux.Handle("/live", metrics.LivenessHandler())
	metricsServer := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}

	go func() {
		log.WithComponent("metrics").Info().Str("addr", cfg.MetricsAddr).Msg("metrics server listening")
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("metrics server: %w", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		log.Info("shutting down")
	case err := <-errCh:
		fmt.Fprintf(os.Stderr, "%v\n", err)
	}

	grpcServer.GracefulStop()
	_ = metricsServer.Close()
	return nil
}
