// Command dialogtester drives the dialogue orchestrator from stdin for
// manual testing against the real services. Type messages as the user
// would send them; lines starting with a slash are treated as commands.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/kielo-labs/kielo/internal/config"
	"github.com/kielo-labs/kielo/internal/dialog"
	"github.com/kielo-labs/kielo/internal/model/convo"
	"github.com/kielo-labs/kielo/internal/service/ai"
	"github.com/kielo-labs/kielo/internal/service/session"
	"github.com/kielo-labs/kielo/internal/service/speech"
	"github.com/kielo-labs/kielo/internal/service/vision"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if err := godotenv.Load(); err != nil {
		log.Printf("[WARN] no .env file, using system environment: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	if !cfg.AI.Enabled() {
		log.Fatal("completion credentials not configured, set the ARK_* environment variables")
	}

	ctx := context.Background()

	aiService, err := ai.NewService(ctx, cfg.AI)
	if err != nil {
		log.Fatalf("failed to initialize completion service: %v", err)
	}

	sessions := session.NewStore()
	deps := dialog.Deps{
		Sessions: sessions,
		Complete: aiService,
	}
	if cfg.Speech.Enabled {
		deps.Transcribe = speech.NewTranscriber(cfg.Speech)
	}
	if cfg.Vision.Enabled {
		deps.Caption = vision.NewCaptioner(cfg.Vision)
		deps.GenerateImage = vision.NewImageGenerator(cfg.Vision)
		deps.Fetch = vision.NewFetcher(cfg.Vision.Timeout)
	}

	orchestrator := dialog.New(deps, dialog.Options{
		TeacherName:      cfg.Bot.TeacherName,
		LearningLanguage: cfg.Bot.LearningLanguage,
	})

	sessionID := fmt.Sprintf("manual-%d", time.Now().UnixNano())
	fmt.Printf("session %s ready, type /start to begin (ctrl-d to exit)\n", sessionID)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		kind := convo.KindText
		if strings.HasPrefix(line, "/") {
			kind = convo.KindCommand
		}

		reply, err := orchestrator.HandleEvent(ctx, convo.Event{
			SessionID: sessionID,
			Kind:      kind,
			Text:      line,
		})
		if err != nil {
			log.Printf("turn failed: %v", err)
			continue
		}
		if reply == nil {
			fmt.Println("(ignored)")
			continue
		}

		fmt.Println(reply.Text)
		if reply.Image != nil && reply.Image.URL != "" {
			fmt.Printf("[image] %s\n", reply.Image.URL)
		}
		if len(reply.Keyboard) > 0 {
			fmt.Printf("[keyboard] %s\n", strings.Join(reply.Keyboard, " | "))
		}
	}
}
