package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nav-telemetry/backend/internal/config"
	"github.com/nav-telemetry/backend/internal/device"
	"github.com/nav-telemetry/backend/internal/history"
	"github.com/nav-telemetry/backend/internal/metrics"
	"github.com/nav-telemetry/backend/internal/mock"
	"github.com/nav-telemetry/backend/internal/telemetry"
	"github.com/nav-telemetry/backend/internal/ws"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to config file")
	mockMode := flag.Bool("mock", false, "Replay simulated drives")
	scenario := flag.String("scenario", "", "Override the mock scenario")
	port := flag.Int("port", 0, "Override server port")
	debug := flag.Bool("debug", false, "Log telemetry diagnostics")
	genToken := flag.Bool("generate-token", false, "Print a random auth token and exit")
	flag.Parse()

	if *genToken {
		tok, err := config.GenerateToken()
		if err != nil {
			log.Fatalf("Failed to generate token: %v", err)
		}
		fmt.Println(tok)
		return
	}

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}
	if *mockMode {
		cfg.Mock.Enabled = true
	}
	if *scenario != "" {
		cfg.Mock.Scenario = *scenario
	}
	if *debug {
		cfg.Telemetry.Debug = true
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	broadcaster := ws.NewBroadcaster(nil, cfg.Server.Throttle, cfg.Server.SnapshotEvery, cfg.Server.MaxConnections)
	broadcaster.SetPrivacyFilter(cfg.Privacy.NewPrivacyFilter())

	reporters := metrics.Multi{broadcaster}
	var closers []func() error
	switch cfg.Sink.Kind {
	case config.SinkLog:
		reporters = append(reporters, metrics.LogReporter{})
	case config.SinkRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Sink.Redis.Addr,
			Password: cfg.Sink.Redis.Password,
			DB:       cfg.Sink.Redis.DB,
		})
		pingCtx, pingCancel := context.WithTimeout(ctx, 3*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			log.Printf("[redis] %s unreachable, events will be dropped until it is back: %v", cfg.Sink.Redis.Addr, err)
		}
		pingCancel()
		rr := metrics.NewRedisReporter(rdb, cfg.Sink.Redis.Channel, cfg.Sink.Redis.Keep)
		reporters = append(reporters, rr)
		closers = append(closers, rr.Close, rdb.Close)
	}

	var tracker *history.Tracker
	if cfg.History.Enabled {
		tracker, err = history.NewTracker(history.NewStore(cfg.History.Dir))
		if err != nil {
			log.Printf("[history] disabled: %v", err)
		} else {
			reporters = append(reporters, tracker)
		}
	}

	lifecycle := telemetry.NewLifecycleTracker()
	engine := cfg.Telemetry.LocationEngine
	if cfg.Mock.Enabled {
		engine = telemetry.ReplayLocationEngine
	}
	tel := telemetry.New(telemetry.Options{
		SDKIdentifier:  cfg.SDKIdentifier(),
		SDKVersion:     cfg.Telemetry.SDKVersion,
		LocationEngine: engine,
		BufferSize:     cfg.Telemetry.BufferSize,
		Debug:          cfg.Telemetry.Debug,
		Reporter:       reporters,
		Device:         device.NewHostProvider(cfg.Telemetry.DeviceRefresh),
		Lifecycle:      lifecycle,
	})
	broadcaster.SetSource(tel)
	go tel.Start(ctx)

	if cfg.Mock.Enabled {
		log.Printf("Starting in mock mode (%s)", cfg.Mock.Scenario)
		nav := mock.NewNavigator(cfg.Mock.Scenario, cfg.Mock.Tick, cfg.Mock.Seed, cfg.Mock.Loop)
		tel.Initialize(nav)
		nav.Start(ctx)
	} else {
		log.Println("No navigator attached; waiting for feedback and lifecycle calls only")
	}

	go watchSignals(ctx, cancel, *configPath, cfg, broadcaster)

	server := ws.NewServer(tel, broadcaster, lifecycle, cfg.Server.AllowedOrigins, cfg.Server.AuthToken)
	// The tracker outlives ctx so it still records the cancel event posted
	// while the telemetry shuts down.
	historyCtx, stopHistory := context.WithCancel(context.Background())
	defer stopHistory()
	historyDone := make(chan struct{})
	if tracker != nil {
		server.SetHistory(tracker)
		go func() {
			defer close(historyDone)
			tracker.Run(historyCtx)
		}()
	} else {
		close(historyDone)
	}
	if err := ws.ListenAndServe(ctx, cfg.Server.Host, cfg.Server.Port, server.Handler()); err != nil {
		log.Printf("Server error: %v", err)
		cancel()
	}

	tel.Wait(cfg.Telemetry.ShutdownTimeout)
	broadcaster.Stop()
	stopHistory()
	<-historyDone
	for _, c := range closers {
		if err := c(); err != nil {
			log.Printf("close: %v", err)
		}
	}
	log.Println("Shut down")
}

// watchSignals cancels ctx on SIGINT/SIGTERM and reloads the privacy
// settings on SIGHUP.
func watchSignals(ctx context.Context, cancel context.CancelFunc, path string, current *config.Config, b *ws.Broadcaster) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-sigCh:
			if sig != syscall.SIGHUP {
				log.Println("Shutting down...")
				cancel()
				return
			}
			next, err := config.Load(path)
			if err != nil {
				log.Printf("Config reload failed: %v", err)
				continue
			}
			for _, change := range config.Diff(current, next) {
				log.Printf("Config reload: %s", change)
			}
			b.SetPrivacyFilter(next.Privacy.NewPrivacyFilter())
			current = next
		}
	}
}
