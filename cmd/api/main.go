package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/joho/godotenv"
	"recording-fulfillment-go/internal/auth"
	"recording-fulfillment-go/internal/config"
	"recording-fulfillment-go/internal/logger"
	"recording-fulfillment-go/internal/pipeline"
	"recording-fulfillment-go/internal/recording"
	"recording-fulfillment-go/internal/sentiment"
	"recording-fulfillment-go/internal/server"
	"recording-fulfillment-go/internal/speech"
	"recording-fulfillment-go/internal/store"
)

func main() {
	_ = godotenv.Load() // loads .env

	log := logger.New()
	log.WithField("service", "recording-fulfillment-go").Info("starting service")

	cfg := config.MustLoad()

	// Shared client for all remote calls. Zero timeout matches the platform
	// contract: hung upstreams are not cancelled.
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	ctx := context.Background()
	st, err := store.New(ctx, cfg.Region, cfg.Bucket)
	if err != nil {
		log.WithError(err).Fatal("failed to build artifact store")
	}

	// Wait for the bucket before taking webhooks; jobs have no retry, so a
	// store that is still coming up would fail every early job.
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 30 * time.Second
	if err := backoff.Retry(func() error { return st.Ready(ctx) }, bo); err != nil {
		log.WithError(err).Fatal("artifact store not reachable")
	}
	log.WithField("bucket", cfg.Bucket).Info("artifact store ready")

	p := pipeline.New(
		auth.NewProvider(httpClient, cfg.TokenURL, cfg.AppName, cfg.VendorName, cfg.AppSecret, cfg.GrantUsername, cfg.GrantPassword),
		recording.NewClient(httpClient, cfg.FileAPIVersion),
		speech.NewClient(httpClient, cfg.RecognizerURL, cfg.LanguageCode),
		sentiment.NewClient(httpClient, cfg.SentimentURL, cfg.LanguageCode),
		st,
		log,
	)
	srv := server.New(p, log)

	mux := http.NewServeMux()

	// health
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		log.WithRequest(r).Info("health check")
		fmt.Fprint(w, "ok")
	})

	mux.HandleFunc(cfg.WebhookPath, srv.Webhook)

	addr := fmt.Sprintf(":%s", cfg.Port)
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	log.WithField("addr", addr).Info("listening")
	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.WithError(err).Fatal("server terminated")
	}
}
