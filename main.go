package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/attent-app/attent/api"
	"github.com/attent-app/attent/assistant"
	"github.com/attent-app/attent/config"
	"github.com/attent-app/attent/convstate"
	"github.com/attent-app/attent/db"
	"github.com/attent-app/attent/log"
	"github.com/attent-app/attent/notes"
	"github.com/attent-app/attent/search"
	"github.com/attent-app/attent/telegram"
	"github.com/attent-app/attent/vendors"
)

func main() {
	cfg := config.Load()
	log.Setup(cfg.IsDevelopment())

	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0755); err != nil {
		log.Fatal().Err(err).Msg("failed to create data directory")
	}

	// Database and stores
	database, err := db.Open(db.Config{Path: cfg.DatabasePath, LogQueries: cfg.DBLogQueries})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	log.Info().Str("path", cfg.DatabasePath).Msg("database initialized")

	taskStore := db.NewTaskStore(database)
	peopleStore := db.NewPeopleStore(database)
	projectStore := db.NewProjectStore(database)

	// Notes vault
	noteStore, err := notes.NewStore(cfg.NotesDir)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open notes vault")
	}

	// Knowledge search, optional
	var knowledge assistant.KnowledgeSearch
	var indexer *search.Indexer
	if cfg.MeiliHost != "" {
		searchClient, err := search.NewClient(search.Config{
			Host:   cfg.MeiliHost,
			APIKey: cfg.MeiliAPIKey,
			Index:  cfg.MeiliIndex,
		})
		if err != nil {
			log.Error().Err(err).Msg("Meilisearch unavailable, knowledge search disabled")
		} else {
			knowledge = &searchAdapter{client: searchClient}
			indexer = search.NewIndexer(noteStore.Dir(), searchClient)
			if err := indexer.Start(); err != nil {
				log.Error().Err(err).Msg("failed to start vault indexer")
				indexer = nil
			}
		}
	} else {
		log.Warn().Msg("MEILI_HOST not configured, knowledge search disabled")
	}

	// Language model providers
	primary, err := vendors.NewOpenAIClient(vendors.OpenAIConfig{
		APIKey:       cfg.OpenAIAPIKey,
		BaseURL:      cfg.OpenAIBaseURL,
		Model:        cfg.OpenAIModel,
		WhisperModel: cfg.WhisperModel,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize OpenAI")
	}

	providers := []assistant.TextService{assistant.NewOpenAITextService(primary)}
	if cfg.OpenAIFallbackModel != "" && cfg.OpenAIFallbackModel != cfg.OpenAIModel {
		fallback, err := vendors.NewOpenAIClient(vendors.OpenAIConfig{
			APIKey:       cfg.OpenAIAPIKey,
			BaseURL:      cfg.OpenAIBaseURL,
			Model:        cfg.OpenAIFallbackModel,
			WhisperModel: cfg.WhisperModel,
		})
		if err != nil {
			log.Error().Err(err).Msg("failed to initialize fallback model")
		} else {
			providers = append(providers, assistant.NewOpenAITextService(fallback))
		}
	}
	text := assistant.NewFallbackChain(providers...)

	// Conversation state
	states, err := convstate.New[assistant.PendingInteraction](cfg.ConversationStatePath, convstate.Options{
		TTL:        cfg.ConversationTTL,
		FlushDelay: cfg.FlushDelay,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load conversation state")
	}

	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	states.StartPruning(rootCtx, cfg.PruneInterval)

	// Assistant
	people := &entityAdapter{store: peopleStore}
	projects := &entityAdapter{store: projectStore}
	dispatcher := assistant.NewDispatcher(&taskStoreAdapter{store: taskStore}, noteStore, knowledge, people, projects)
	orchestrator := assistant.NewOrchestrator(states, text, dispatcher, people, projects)

	// Telegram bot, optional
	if cfg.TelegramBotToken != "" {
		channel := telegram.NewChannel(telegram.Config{
			BotToken:     cfg.TelegramBotToken,
			PollInterval: cfg.TelegramPollInterval,
			AllowedChats: cfg.TelegramAllowedChats,
		})
		bot := telegram.NewBot(channel, orchestrator, primary)
		go func() {
			if err := bot.Run(rootCtx); err != nil {
				log.Error().Err(err).Msg("telegram bot stopped")
			}
		}()
	} else {
		log.Warn().Msg("TELEGRAM_BOT_TOKEN not configured, bot disabled")
	}

	// HTTP server
	server := api.NewServer(api.Deps{
		Assistant: orchestrator,
		Tasks:     taskStore,
		People:    peopleStore,
		Projects:  projectStore,
	}, cfg.IsDevelopment())

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	go func() {
		if err := server.Start(addr); err != nil {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	cancel()

	if indexer != nil {
		indexer.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}

	// Flush pending conversation state before the process exits
	if err := states.Close(); err != nil {
		log.Error().Err(err).Msg("conversation state close error")
	}

	if err := database.Close(); err != nil {
		log.Error().Err(err).Msg("database close error")
	}

	log.Info().Msg("stopped")
}
