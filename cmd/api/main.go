package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/kielo-labs/kielo/internal/config"
	"github.com/kielo-labs/kielo/internal/dialog"
	"github.com/kielo-labs/kielo/internal/handler"
	"github.com/kielo-labs/kielo/internal/service/ai"
	"github.com/kielo-labs/kielo/internal/service/session"
	"github.com/kielo-labs/kielo/internal/service/speech"
	"github.com/kielo-labs/kielo/internal/service/vision"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	sessions := session.NewStore()

	deps := dialog.Deps{Sessions: sessions}

	if cfg.AI.Enabled() {
		aiService, err := ai.NewService(ctx, cfg.AI)
		if err != nil {
			log.Printf("warning: failed to initialize completion service: %v", err)
			log.Println("continuing without completion - check the ARK_* environment variables")
		} else {
			deps.Complete = aiService
			log.Println("completion service initialized successfully")
		}
	} else {
		log.Println("completion credentials not configured, chat modes will be degraded")
	}

	if cfg.Speech.Enabled {
		deps.Transcribe = speech.NewTranscriber(cfg.Speech)
		log.Println("transcription service initialized successfully")
	} else {
		log.Println("transcription credentials not configured, voice messages disabled")
	}

	if cfg.Vision.Enabled {
		deps.Caption = vision.NewCaptioner(cfg.Vision)
		deps.GenerateImage = vision.NewImageGenerator(cfg.Vision)
		deps.Fetch = vision.NewFetcher(cfg.Vision.Timeout)
		log.Println("vision services initialized successfully")
	} else {
		log.Println("vision credentials not configured, photo modes disabled")
	}

	orchestrator := dialog.New(deps, dialog.Options{
		TeacherName:      cfg.Bot.TeacherName,
		LearningLanguage: cfg.Bot.LearningLanguage,
	})

	router := handler.NewRouter(orchestrator, sessions)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("Kielo backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
