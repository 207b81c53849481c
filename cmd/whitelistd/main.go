package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wtreehq/merkletree/pkg/config"
	"github.com/wtreehq/merkletree/pkg/health"
	"github.com/wtreehq/merkletree/pkg/kvstore"
	"github.com/wtreehq/merkletree/pkg/log"
	"github.com/wtreehq/merkletree/pkg/metrics"
	"github.com/wtreehq/merkletree/pkg/objectstore"
	"github.com/wtreehq/merkletree/pkg/treelifecycle"
	"github.com/wtreehq/merkletree/pkg/whitelist"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "whitelistd",
	Short:   "Off-chain whitelist-to-Merkle-tree service",
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"whitelistd version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")
	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "127.0.0.1:8080", "Address the read/write API listens on")
	serveCmd.Flags().String("metrics-addr", "127.0.0.1:9090", "Address the metrics and health endpoints listen on")
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")

	log.Init(log.Config{
		Level:      log.Level(logLevel),
		JSONOutput: logJSON,
	})
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the whitelist service",
	RunE: func(cmd *cobra.Command, args []string) error {
		apiAddr, _ := cmd.Flags().GetString("addr")
		metricsAddr, _ := cmd.Flags().GetString("metrics-addr")

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading configuration: %w", err)
		}

		ctx := context.Background()

		objStore, err := objectstore.New(ctx, cfg.BucketName)
		if err != nil {
			return fmt.Errorf("connecting to object store: %w", err)
		}

		rootsStore, err := kvstore.New(ctx, cfg.RootsTableName)
		if err != nil {
			return fmt.Errorf("connecting to roots table: %w", err)
		}

		proofsStore, err := kvstore.New(ctx, cfg.ProofsTableName)
		if err != nil {
			return fmt.Errorf("connecting to proofs table: %w", err)
		}

		orchestrator := treelifecycle.New(objStore, rootsStore, proofsStore)
		svc := whitelist.New(objStore, rootsStore, proofsStore)

		metrics.SetVersion(Version)

		monitor := health.NewMonitor()
		monitor.Register(health.NewDependencyChecker("objectstore", objStore.Ping), health.Config{
			Interval: 30 * time.Second,
			Timeout:  5 * time.Second,
			Retries:  3,
		})
		monitor.Register(health.NewDependencyChecker("kvstore-roots", rootsStore.Ping), health.Config{
			Interval: 30 * time.Second,
			Timeout:  5 * time.Second,
			Retries:  3,
		})
		monitor.Register(health.NewDependencyChecker("kvstore-proofs", proofsStore.Ping), health.Config{
			Interval: 30 * time.Second,
			Timeout:  5 * time.Second,
			Retries:  3,
		})
		monitor.Start()
		defer monitor.Stop()

		collector := metrics.NewCollector(svc)
		collector.Start()
		defer collector.Stop()

		mux := newAPIMux(cfg, orchestrator, svc)
		apiServer := &http.Server{Addr: apiAddr, Handler: mux}

		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", metrics.Handler())
		metricsMux.Handle("/healthz", metrics.HealthHandler())
		metricsMux.Handle("/readyz", metrics.ReadyHandler())
		metricsMux.Handle("/livez", metrics.LivenessHandler())
		metricsServer := &http.Server{Addr: metricsAddr, Handler: metricsMux}

		errCh := make(chan error, 2)
		go func() {
			if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				errCh <- fmt.Errorf("API server error: %w", err)
			}
		}()
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				errCh <- fmt.Errorf("metrics server error: %w", err)
			}
		}()

		log.Logger.Info().Str("addr", apiAddr).Str("metrics_addr", metricsAddr).Msg("whitelistd started")

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

		select {
		case <-sigCh:
			log.Info("shutting down")
		case err := <-errCh:
			log.Errorf("server error, shutting down", err)
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = apiServer.Shutdown(shutdownCtx)
		_ = metricsServer.Shutdown(shutdownCtx)

		return nil
	},
}

// writeJSONError maps an apperr.Kind-bearing error to a status code and
// a small JSON body. This is a thin example handler: the full
// route-level authorization and request-validation boundary is out of
// scope here.
func writeJSONError(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"errorCode": code,
		"message":   err.Error(),
	})
}
