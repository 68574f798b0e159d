package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"readingquest/internal/audio"
	"readingquest/internal/config"
	"readingquest/internal/database"
	"readingquest/internal/handlers"
	"readingquest/internal/llm"
	"readingquest/internal/repository"
	"readingquest/internal/security"
	"readingquest/internal/service"

	"github.com/google/uuid"
)

const (
	sweepInterval   = 5 * time.Minute
	keepAudioFiles  = 200
	catchRateLimit  = 60
	catchRateWindow = time.Minute
)

func main() {
	// Load configuration
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database with config (supports sqlite, postgres, mysql)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	log.Printf("Database connection established (type: %s)", cfg.DatabaseType)

	// Run migrations
	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Migrations completed successfully")

	// Load the stage catalogue
	catalog, err := config.LoadCatalog(cfg.StagesFile)
	if err != nil {
		log.Fatalf("Failed to load stage catalog: %v", err)
	}

	log.Printf("Catalog loaded: %d stages, %d fallback messages", len(catalog.Stages), len(catalog.FallbackMessages))

	provider := newTextProvider(ctx, cfg)

	// Parent notifications are optional
	emailService, err := service.NewEmailService(ctx, cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.ParentEmail, cfg.Debug)
	if err != nil {
		log.Printf("Warning: Failed to initialize email service: %v", err)
	}
	var notifier service.JournalNotifier
	if emailService != nil && emailService.IsEnabled() {
		notifier = emailService
	}

	journal := service.NewJournalService(newJournalStore(cfg, db), cfg.JournalKey, provider, notifier)
	journal.SetProviderTimeout(cfg.ProviderTimeout)

	opts := service.QuestOptions{
		Catalog:             catalog,
		Provider:            provider,
		Progress:            repository.NewProgressRepository(db),
		AnimationDuration:   cfg.AnimationDuration,
		CelebrationDuration: cfg.CelebrationDuration,
		JournalPromptDelay:  cfg.JournalPromptDelay,
		ProviderTimeout:     cfg.ProviderTimeout,
		ViewportWidth:       cfg.ViewportWidth,
		ViewportHeight:      cfg.ViewportHeight,
	}

	// Read-aloud audio is cached under the static directory
	audioDir := filepath.Join(cfg.StaticFilesPath, "audio")
	var tts *audio.TTSService
	if cfg.ReadAloud {
		tts = audio.NewTTSService(audioDir)
		opts.Speaker = tts
		if removed, err := tts.PruneAudioFiles(keepAudioFiles); err != nil {
			log.Printf("Warning: Failed to prune audio files: %v", err)
		} else if removed > 0 {
			log.Printf("Removed %d old audio files", removed)
		}
	}

	quests := service.NewQuestService(opts, journal)

	secret := cfg.SessionSecret
	if secret == "" {
		secret = uuid.New().String()
	}
	tokens := security.NewSessionTokens(secret, handlers.SessionTokenTTL)
	limiter := security.NewRateLimiter(ctx, catchRateLimit, catchRateWindow)

	// Setup routes
	mux := handlers.NewRouter(quests, tokens, limiter)

	// Static files
	if tts != nil {
		mux.Handle("GET /audio/", http.StripPrefix("/audio/", http.FileServer(http.Dir(audioDir))))
	}
	mux.Handle("GET /", http.FileServer(http.Dir(cfg.StaticFilesPath)))

	// Wrap with logging middleware
	handler := handlers.Logging(mux)

	// Start server
	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start background session cleanup
	go sweepIdleSessions(ctx, quests, cfg.SessionIdleTimeout)

	go func() {
		log.Printf("Server starting on http://localhost%s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	<-ctx.Done()

	log.Println("Server shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
	quests.Close()
}

// newTextProvider returns the Gemini provider, or the canned one when no key
// is configured or the client cannot be created
func newTextProvider(ctx context.Context, cfg *config.Config) service.TextProvider {
	if cfg.UseMockLLM {
		log.Println("Using canned text provider")
		return llm.NewCannedProvider()
	}

	provider, err := llm.NewGeminiProvider(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.ProviderTimeout)
	if err != nil {
		log.Printf("Warning: Failed to initialize Gemini provider, using canned messages: %v", err)
		return llm.NewCannedProvider()
	}

	log.Printf("Using Gemini text provider (model: %s)", cfg.GeminiModel)
	return provider
}

// newJournalStore picks the journal backend
func newJournalStore(cfg *config.Config, db *database.DB) repository.JournalStore {
	switch cfg.JournalBackend {
	case "disk":
		log.Printf("Journal stored on disk in %s", cfg.JournalDir)
		return repository.NewDiskJournalStore(cfg.JournalDir)
	case "memory":
		log.Println("Warning: journal is kept in memory and will not survive a restart")
		return repository.NewMemoryJournalStore()
	case "sql", "":
		return repository.NewSQLJournalStore(db)
	default:
		log.Printf("Warning: unknown journal backend %q, using the database", cfg.JournalBackend)
		return repository.NewSQLJournalStore(db)
	}
}

// sweepIdleSessions periodically removes sessions nobody has touched
func sweepIdleSessions(ctx context.Context, quests *service.QuestService, timeout time.Duration) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := quests.SweepIdle(now, timeout); n > 0 {
				log.Printf("Expired %d idle quest sessions", n)
			}
		}
	}
}
