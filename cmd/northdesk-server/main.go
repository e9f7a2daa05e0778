package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"northdesk/internal/assistant"
	"northdesk/internal/config"
	"northdesk/internal/llm"
	"northdesk/internal/observability"
	"northdesk/internal/rag"
	serverhttp "northdesk/internal/server/http"
	"northdesk/internal/ticket"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "northdesk-server: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	obs, err := observability.New(cfg.Observability)
	if err != nil {
		return fmt.Errorf("init observability: %w", err)
	}
	logger := obs.Logger.With("component", "main")

	logger.Info("starting northdesk server",
		"llm_provider", cfg.LLM.Provider,
		"llm_model", cfg.LLM.Model,
		"api_key", observability.SanitizeAPIKey(cfg.LLM.APIKey),
		"store_path", cfg.Store.PersistPath,
		"port", cfg.Server.Port,
	)

	completer, err := llm.NewClient(cfg.LLM)
	if err != nil {
		return fmt.Errorf("init llm client: %w", err)
	}

	embedder, err := rag.NewEmbedder(cfg.Embedding)
	if err != nil {
		return fmt.Errorf("init embedder: %w", err)
	}

	store, err := rag.NewVectorStore(cfg.Store, embedder)
	if err != nil {
		return fmt.Errorf("init vector store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("close vector store", "error", err)
		}
	}()

	retriever := rag.NewRetriever(cfg.Retriever, store)
	chunker, err := rag.NewChunker(cfg.Chunker)
	if err != nil {
		return fmt.Errorf("init chunker: %w", err)
	}
	ingestor := rag.NewIngestor(chunker, store)

	tickets := ticket.NewMemoryTool()

	assistCfg := cfg.Assistant
	assistCfg.LLMProvider = cfg.LLM.Provider
	router := assistant.NewRouter(assistCfg, completer, retriever, tickets, obs)

	server := serverhttp.NewServer(serverhttp.Config{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		Debug:        cfg.Server.Debug,
	}, router, ingestor, obs)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)
	group.Go(server.Start)
	group.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		if err := obs.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutdown observability", "error", err)
		}
		return nil
	})

	if err := group.Wait(); err != nil {
		return err
	}

	logger.Info("server stopped")
	return nil
}
