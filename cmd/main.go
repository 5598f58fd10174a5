/*
Package main is the entry point of the GatherLocal client core.

It loads configuration, initializes the global logger, restores the persisted session,
starts the location probe and the state hub, wires the feed, event and checkout
controllers, serves the local bridge and shuts everything down on SIGINT or SIGTERM.
*/
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gatherlocal/internal/app/api"
	"gatherlocal/internal/app/checkout"
	"gatherlocal/internal/app/feed"
	"gatherlocal/internal/app/hub"
	"gatherlocal/internal/app/location"
	"gatherlocal/internal/app/mutation"
	"gatherlocal/internal/app/session"
	"gatherlocal/internal/app/storage"
	"gatherlocal/internal/clock"
	"gatherlocal/internal/configs"
	"gatherlocal/internal/handler"
	"gatherlocal/internal/pkg/logx"
)

func main() {
	// Load configuration from environment variables
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	logx.InitGlobalLogger(cfg.IsDevelopment())
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Str("api_root", cfg.APIRoot).
		Str("asset_host", cfg.AssetHost).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Msg("Configuration loaded successfully")

	// Create a context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Backend client and session
	client := api.NewClient(api.Options{
		BaseURL:   cfg.APIRoot,
		Timeout:   cfg.APITimeout,
		RateLimit: cfg.APIRateLimit,
		RateBurst: cfg.APIRateBurst,
	})

	persister, err := session.NewFilePersister(cfg.StateDir)
	if err != nil {
		logx.Fatal(err, "Failed to open session state directory", "state_dir", cfg.StateDir)
	}
	sessions := session.NewStore(persister, client, clock.NewSystem())
	client.UseTokens(sessions)
	restored := sessions.Restore()
	logx.Info("Session restored", "authenticated", restored.Authenticated)

	// State hub
	stateHub := hub.NewHub()
	go stateHub.Run()

	// Location probe
	probe := location.NewProbe(newLocator(cfg))

	// Feed
	feedCtrl := feed.NewController(client, nil, cfg.FeedRadiusKm, stateHub)

	sessions.Subscribe(func(s session.Snapshot) { stateHub.Broadcast(hub.TypeSession, s) })
	probe.Subscribe(func(s location.State) { stateHub.Broadcast(hub.TypeLocation, location.ViewOf(s)) })
	feedCtrl.Subscribe(func(s feed.Snapshot) { stateHub.Broadcast(hub.TypeFeed, s) })

	stateHub.SetInitData(func() any {
		return map[string]any{
			"session":  sessions.Snapshot(),
			"location": location.ViewOf(probe.State()),
			"feed":     feedCtrl.Snapshot(),
		}
	})

	go feedCtrl.Watch(ctx, probe)
	probe.Start(ctx)

	// Event mutations
	uploader, err := storage.NewUploader(storage.ServiceConfig{
		Host:                   cfg.AssetHost,
		CloudinaryCloudName:    cfg.CloudinaryCloudName,
		CloudinaryUploadPreset: cfg.CloudinaryUploadPreset,
		S3BucketName:           cfg.S3BucketName,
		S3Endpoint:             cfg.S3Endpoint,
		S3AccessKeyID:          cfg.S3AccessKeyID,
		S3SecretAccessKey:      cfg.S3SecretAccessKey,
		S3PublicBaseURL:        cfg.S3PublicBaseURL,
	})
	if err != nil {
		logx.Warn("Asset host unavailable; events with images cannot be created", "asset_host", cfg.AssetHost, "error", err.Error())
		uploader = nil
	}

	mutations := mutation.NewController(mutation.Deps{
		Backend:  client,
		Session:  sessions,
		Feed:     feedCtrl,
		Position: probe,
		Uploader: uploader,
		Notices:  stateHub,
	})

	// Checkout
	widget := hub.NewWidget(stateHub)
	checkoutCtrl := checkout.NewController(
		checkout.NewScriptLoader(cfg.PaymentScriptURL),
		client,
		widget,
		checkout.Options{MerchantName: cfg.MerchantName, ThemeColor: cfg.ThemeColor},
		stateHub,
	)
	checkoutCtrl.Subscribe(func(s checkout.Session) { stateHub.Broadcast(hub.TypeCheckout, s) })
	booker := checkout.NewBooker(client, checkoutCtrl)

	// Setup HTTP server and routes
	router, stopRouter := handler.Router(&handler.AppDeps{
		Config:   cfg,
		Session:  sessions,
		Location: probe,
		Feed:     feedCtrl,
		Events:   mutations,
		Bookings: booker,
		Checkout: widget,
		Stream:   stateHub,
		Notices:  stateHub,
	})
	defer stopRouter()

	serverAddr := fmt.Sprintf("127.0.0.1:%d", cfg.Port)
	// No WriteTimeout: booking requests stay open until the payment widget answers.
	server := &http.Server{
		Addr:        serverAddr,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	go func() {
		logx.Info(fmt.Sprintf("GatherLocal bridge starting on http://%s", serverAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logx.Fatal(err, "Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with a timeout of 5 seconds.
	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	feedCtrl.Close()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Error(err, "Server forced to shutdown")
	}

	stateHub.Stop()

	logx.Info("Client core gracefully stopped.")
}

// newLocator picks the position source: fixed device coordinates first, then the
// GeoIP service. Without either the probe reports geolocation as unsupported.
func newLocator(cfg *configs.AppConfig) location.Geolocator {
	switch {
	case cfg.DeviceLat != nil && cfg.DeviceLng != nil:
		return location.Fixed{Lat: *cfg.DeviceLat, Lng: *cfg.DeviceLng}
	case cfg.GeoIPURL != "":
		return location.IPLocator{URL: cfg.GeoIPURL, Client: &http.Client{Timeout: 10 * time.Second, Transport: &logx.Transport{}}}
	default:
		return nil
	}
}
