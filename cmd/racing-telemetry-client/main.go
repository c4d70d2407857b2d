// Command racing-telemetry-client runs the collector loop, lap segmenter,
// analytics extractor, upload handlers, local cache, and livestream
// endpoints wired together onto one event bus. Flag layout and the
// -version handling mirror the teacher's cmd/radar/radar.go.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/SawyerCzupka/racing-coach-sub000/internal/analytics"
	"github.com/SawyerCzupka/racing-coach-sub000/internal/collector"
	"github.com/SawyerCzupka/racing-coach-sub000/internal/config"
	"github.com/SawyerCzupka/racing-coach-sub000/internal/eventbus"
	"github.com/SawyerCzupka/racing-coach-sub000/internal/lapsegment"
	"github.com/SawyerCzupka/racing-coach-sub000/internal/livestream"
	"github.com/SawyerCzupka/racing-coach-sub000/internal/monitoring"
	"github.com/SawyerCzupka/racing-coach-sub000/internal/session"
	"github.com/SawyerCzupka/racing-coach-sub000/internal/source"
	"github.com/SawyerCzupka/racing-coach-sub000/internal/store"
	"github.com/SawyerCzupka/racing-coach-sub000/internal/upload"
	"github.com/SawyerCzupka/racing-coach-sub000/internal/version"
)

var (
	configFile     = flag.String("config", config.DefaultConfigPath, "Path to JSON tuning configuration file")
	telemetryMode  = flag.String("mode", "", "Telemetry source mode: live or replay (overrides TELEMETRY_MODE/config)")
	replayFilePath = flag.String("replay-file", "", "Path to a recorded session file (replay mode)")
	replaySpeed    = flag.Float64("replay-speed", 0, "Replay playback speed multiplier (replay mode)")
	replayLoop     = flag.Bool("replay-loop", false, "Loop the replay file at EOF instead of disconnecting")
	uploadBaseURL  = flag.String("upload-url", "", "Racing-coach server base URL for lap/metrics uploads")
	storePath      = flag.String("store-path", "", "Path to the local sqlite cache")
	grpcListen     = flag.String("livestream-grpc-listen", "", "gRPC health service listen address")
	httpListen     = flag.String("livestream-http-listen", "", "HTTP admin/SSE listen address")
	versionFlag    = flag.Bool("version", false, "Print version information and exit")
)

func main() {
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if *versionFlag {
		fmt.Printf("racing-telemetry-client v%s (git SHA: %s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		os.Exit(0)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	applyFlagOverrides(cfg)

	if err := run(cfg); err != nil {
		log.Fatalf("racing-telemetry-client: %v", err)
	}
}

func applyFlagOverrides(cfg *config.Config) {
	if *telemetryMode != "" {
		cfg.TelemetryMode = telemetryMode
	}
	if *replayFilePath != "" {
		cfg.ReplayFilePath = replayFilePath
	}
	if *replaySpeed > 0 {
		cfg.ReplaySpeed = replaySpeed
	}
	if *replayLoop {
		cfg.ReplayLoop = replayLoop
	}
	if *uploadBaseURL != "" {
		cfg.UploadBaseURL = uploadBaseURL
	}
	if *storePath != "" {
		cfg.StorePath = storePath
	}
	if *grpcListen != "" {
		cfg.LivestreamGRPCListen = grpcListen
	}
	if *httpListen != "" {
		cfg.LivestreamHTTPListen = httpListen
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bus := eventbus.NewBus(eventbus.Config{
		QueueCapacity:   cfg.GetBusQueueCapacity(),
		Workers:         cfg.GetBusWorkers(),
		OverflowTimeout: cfg.GetBusOverflowTimeout(),
	})
	if err := bus.Start(); err != nil {
		return fmt.Errorf("start bus: %w", err)
	}
	defer bus.Stop()

	reg := session.NewRegistry()

	segmenter := lapsegment.New(lapsegment.Config{CompletionThreshold: cfg.GetLapCompletionThreshold()})
	bus.RegisterHandlers(segmenter.Handlers())

	extractor := analytics.NewExtractor(cfg.GetAnalyticsConfig())
	bus.RegisterHandlers(extractor.Handlers())

	if cfg.GetUploadBaseURL() != "" {
		uploader := upload.New(upload.Config{
			BaseURL:           cfg.GetUploadBaseURL(),
			PerAttemptTimeout: cfg.GetUploadTimeout(),
			MaxRetries:        cfg.GetUploadMaxRetries(),
		}, nil)
		bus.RegisterHandlers(uploader.Handlers())
	} else {
		monitoring.Logf("main: no upload_base_url configured; laps will only be cached locally")
	}

	db, err := store.Open(cfg.GetStorePath())
	if err != nil {
		return fmt.Errorf("open local cache: %w", err)
	}
	defer db.Close()
	bus.RegisterHandlers(store.NewArchiver(db).Handlers())
	bus.RegisterHandlers(store.NewPendingWriter(db).Handlers())

	health := livestream.NewHealthServer()
	bus.RegisterHandlers(health.Handlers())
	feed := livestream.NewFeed()
	bus.RegisterHandlers(feed.Handlers())

	stopLivestream, err := startLivestream(cfg, health, feed)
	if err != nil {
		return fmt.Errorf("start livestream: %w", err)
	}
	defer stopLivestream()

	src, err := buildSource(cfg)
	if err != nil {
		return fmt.Errorf("build telemetry source: %w", err)
	}

	c := collector.New(src, bus, reg)
	if err := c.Run(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("collector run: %w", err)
	}
	return nil
}

// buildSource constructs the configured source.Source. Live mode requires
// an SDKReader binding the iRacing shared-memory SDK — an external
// collaborator per spec.md §1 that this repository does not implement —
// so it fails clearly rather than silently falling back to replay.
func buildSource(cfg *config.Config) (source.Source, error) {
	mode := cfg.GetTelemetryMode()
	if mode == source.ModeLive {
		return nil, fmt.Errorf("live mode requires an SDKReader binding built against the iRacing SDK adapter (external collaborator, not part of this module); run with -mode=replay instead")
	}
	return source.New(source.Options{
		Mode:           mode,
		ReplayFilePath: cfg.GetReplayFilePath(),
		ReplaySpeed:    cfg.GetReplaySpeed(),
		ReplayLoop:     cfg.GetReplayLoop(),
	})
}

// startLivestream serves the gRPC health service and the HTTP admin/SSE
// mux in background goroutines, returning a function that shuts both down.
func startLivestream(cfg *config.Config, health *livestream.HealthServer, feed *livestream.Feed) (stop func(), err error) {
	lis, err := net.Listen("tcp", cfg.GetLivestreamGRPCListen())
	if err != nil {
		return nil, fmt.Errorf("listen grpc: %w", err)
	}
	grpcServer := grpc.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, health)
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			monitoring.Logf("livestream: grpc server: %v", err)
		}
	}()

	mux := http.NewServeMux()
	feed.AttachAdminRoutes(mux)
	httpServer := &http.Server{Addr: cfg.GetLivestreamHTTPListen(), Handler: mux}
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			monitoring.Logf("livestream: http server: %v", err)
		}
	}()

	return func() {
		grpcServer.GracefulStop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}, nil
}
