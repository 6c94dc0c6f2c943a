// Command hearty-cache-agent is a long-lived process hosting the
// client-side write-back cache and eviction endpoint behind a single gRPC
// listener the CLI talks to. Every Cache call it makes to the store
// server advertises that listener's address, so the server can dial back
// into this process when another client demands ownership of an object it
// holds.
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
	"github.com/cuemby/hearty/pkg/client"
	"github.com/cuemby/hearty/pkg/config"
	"github.com/cuemby/hearty/pkg/log"
	"github.com/cuemby/hearty/pkg/metrics"
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
	Use:     "hearty-cache-agent",
	Short:   "hearty-cache-agent hosts the client write-back cache and eviction endpoint",
	Version: Version,
	RunE:    runAgent,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("hearty-cache-agent version %s (%s)\n", Version, Commit))

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")
	rootCmd.Flags().String("config", "", "Path to a YAML config file")
	rootCmd.Flags().String("server-addr", "", "Store server gRPC address")
	rootCmd.Flags().String("cache-dir", "", "Directory holding cached object content and the index")
	rootCmd.Flags().String("listen-addr", "", "Address this agent listens on, for both the CLI and the server's eviction dial-back")

	cobra.OnInitialize(initLogging)
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")
	log.Init(log.Config{Level: logLevel, JSONOutput: logJSON})
}

func runAgent(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	serverAddr, _ := cmd.Flags().GetString("server-addr")
	cacheDir, _ := cmd.Flags().GetString("cache-dir")
	listenAddr, _ := cmd.Flags().GetString("listen-addr")

	cfg, err := config.LoadCache(configPath, serverAddr, cacheDir, listenAddr)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = "127.0.0.1:2547"
	}

	lis, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.ListenAddr, err)
	}

	storeClient, err := client.Dial(cfg.ServerAddr, lis.Addr().String())
	if err != nil {
		return fmt.Errorf("dial store server %s: %w", cfg.ServerAddr, err)
	}
	defer storeClient.Close()

	cache, err := client.NewCache(cfg.CacheDir, cfg.MaxSize, storeClient)
	if err != nil {
		return fmt.Errorf("open cache at %s: %w", cfg.CacheDir, err)
	}

	evictionHandler := client.NewEvictionHandler(cache)
	localAgent := client.NewLocalAgent(storeClient, cache)

	grpcServer := grpc.NewServer()
	heartypb.RegisterHeartyStoreServer(grpcServer, localAgent)
	heartypb.RegisterEvictionServer(grpcServer, evictionHandler)

	metrics.RegisterComponent("cache", true, "ready")

	errCh := make(chan error, 1)
	go func() {
		agentLogger := log.WithComponent("cache-agent")
		agentLogger.Info().Str("addr", cfg.ListenAddr).Str("server", cfg.ServerAddr).Msg("cache agent listening")
		if err := grpcServer.Serve(lis); err != nil {
			errCh <- fmt.Errorf("cache agent server: %w", err)
		}
	}()

	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		mux.Handle("/health", metrics.HealthHandler())
		mux.Handle("/ready", metrics.ReadyHandler())
		mux.Handle("/live", metrics.LivenessHandler())
		metricsServer := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				errCh <- fmt.Errorf("metrics server: %w", err)
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		log.Info("shutting down")
	case err := <-errCh:
		fmt.Fprintf(os.Stderr, "%v\n", err)
	}

	grpcServer.GracefulStop()
	return nil
}
