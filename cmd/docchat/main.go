// Package main is the Doc Chat CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/docchat/docchat/internal/chat"
	"github.com/docchat/docchat/internal/chunker"
	"github.com/docchat/docchat/internal/config"
	"github.com/docchat/docchat/internal/embedding"
	"github.com/docchat/docchat/internal/extract"
	"github.com/docchat/docchat/internal/indexer"
	"github.com/docchat/docchat/internal/llm"
	"github.com/docchat/docchat/internal/loader"
	"github.com/docchat/docchat/internal/models"
	"github.com/docchat/docchat/internal/provider"
	"github.com/docchat/docchat/internal/server"
	"github.com/docchat/docchat/internal/session"
	"github.com/docchat/docchat/internal/storage"
	"github.com/docchat/docchat/internal/vector"
	"github.com/docchat/docchat/internal/watcher"
	"github.com/docchat/docchat/pkg/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/docchat/config.yaml"

// loadConfig loads config from path. When path is the default, a config.yaml in
// the current directory takes precedence so that "docchat server" from the
// project dir uses the project's config. Returns the config and the path that
// was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "ingest":
		runIngest()
	case "ask":
		runAsk()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("docchat version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Usage: docchat <command> [flags]

Commands:
  server    start the HTTP API (chat, upload, status)
  ingest    load the documents folder, embed, and build the vector index
  ask       send one question to a running server
  status    show corpus counts from a running server
  version   print the version
  help      print this help

Run "docchat <command> -h" for command flags.`)
}

// components holds the shared dependency graph behind the subcommands.
type components struct {
	Storage   *storage.SQLiteStorage
	Embedder  embedding.Embedder
	Generator llm.Generator
}

func (c *components) Close() {
	if c.Generator != nil {
		_ = c.Generator.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
}

// initializeComponents resolves the provider key and builds storage, embedder,
// and generator. A missing API key is a startup failure, never a lazy error.
func initializeComponents(cfg *config.Config) (*components, error) {
	apiKey, err := cfg.Provider.APIKey()
	if err != nil {
		return nil, err
	}
	client, err := provider.NewClient(provider.Config{
		BaseURL:    cfg.Provider.BaseURL,
		APIKey:     apiKey,
		Timeout:    time.Duration(cfg.Provider.TimeoutSeconds) * time.Second,
		MaxRetries: cfg.Provider.MaxRetries,
	})
	if err != nil {
		return nil, err
	}
	embedder, err := embedding.NewOpenAIEmbedder(client, cfg.Provider.EmbeddingModel, cfg.Provider.Dimensions)
	if err != nil {
		return nil, err
	}
	generator, err := llm.NewOpenAIGenerator(client, cfg.Provider.ChatModel, cfg.Provider.Temperature)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Storage.DatabasePath), 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, err
	}
	return &components{Storage: store, Embedder: embedder, Generator: generator}, nil
}

func newBuilder(cfg *config.Config, comps *components, logger *zap.Logger) (*indexer.Builder, error) {
	splitter, err := chunker.NewCharacterSplitter(cfg.Chunking.ChunkSize, cfg.Chunking.ChunkOverlap)
	if err != nil {
		return nil, err
	}
	ld := loader.New(extract.NewExtractor(),
		loader.WithMaxChars(cfg.Docs.MaxChars),
		loader.WithLogger(logger),
	)
	return indexer.NewBuilder(ld, splitter, comps.Embedder, comps.Storage, indexer.WithLogger(logger)), nil
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	watch := fs.Bool("watch", false, "rebuild the index when the docs folder changes")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	comps, err := initializeComponents(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer comps.Close()

	index, err := vector.NewMemoryIndex(cfg.Provider.EmbeddingModel, cfg.Provider.Dimensions)
	if err != nil {
		logger.Fatal("Failed to create index", zap.Error(err))
	}
	if err := index.Load(cfg.Storage.IndexPath); err != nil {
		logger.Fatal("Failed to load vector index; run \"docchat ingest\" first",
			zap.String("path", cfg.Storage.IndexPath), zap.Error(err))
	}
	logger.Info("vector index loaded", zap.Int("vectors", index.Size()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sessions := session.NewStore(
		time.Duration(cfg.Session.TTLMinutes)*time.Minute,
		cfg.Session.MaxSessions,
	)
	sessions.Start(ctx)

	retriever := chat.NewRetriever(comps.Embedder, index, comps.Storage, cfg.Retrieval.TopK)
	chatOpts := []chat.Option{chat.WithLogger(logger)}
	if cfg.Retrieval.LatestOnly {
		chatOpts = append(chatOpts, chat.WithLatestOnlyRetrieval())
	}
	chatSvc := chat.NewService(sessions, retriever, comps.Generator, chatOpts...)

	if *watch || cfg.Docs.Watch {
		builder, err := newBuilder(cfg, comps, logger)
		if err != nil {
			logger.Fatal("Failed to create index builder", zap.Error(err))
		}
		w := watcher.NewWatcher(cfg.Docs.Folder, func() {
			fresh, err := builder.Build(context.Background(), cfg.Docs.Folder)
			if err != nil {
				logger.Warn("watch rebuild failed", zap.Error(err))
				return
			}
			retriever.SetIndex(fresh)
			if err := fresh.Save(cfg.Storage.IndexPath); err != nil {
				logger.Warn("index save failed", zap.String("path", cfg.Storage.IndexPath), zap.Error(err))
			}
			logger.Info("index rebuilt", zap.Int("vectors", fresh.Size()))
		}, watcher.WithLogger(logger))
		if err := w.Start(ctx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		defer w.Stop()
	}

	srv := server.NewServer(chatSvc, retriever, comps.Storage, extract.NewExtractor(), cfg, logger)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
}

func runIngest() {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	folder := fs.String("folder", "", "documents folder (overrides config)")
	_ = fs.Parse(os.Args[2:])

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug || *debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	comps, err := initializeComponents(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer comps.Close()

	builder, err := newBuilder(cfg, comps, logger)
	if err != nil {
		logger.Fatal("Failed to create index builder", zap.Error(err))
	}
	docsFolder := cfg.Docs.Folder
	if *folder != "" {
		docsFolder = *folder
	}

	start := time.Now()
	index, err := builder.Build(context.Background(), docsFolder)
	if err != nil {
		logger.Fatal("Ingestion failed", zap.Error(err))
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Storage.IndexPath), 0o755); err != nil {
		logger.Fatal("Failed to create index directory", zap.Error(err))
	}
	if err := index.Save(cfg.Storage.IndexPath); err != nil {
		logger.Fatal("Failed to save index", zap.Error(err))
	}
	fmt.Printf("Ingested %s: %d vectors in %s\n", docsFolder, index.Size(), time.Since(start).Round(time.Millisecond))
}

func runAsk() {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8000", "server URL")
	sessionID := fs.String("session", "", "session id (defaults to a fresh one)")
	_ = fs.Parse(os.Args[2:])

	question := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if question == "" {
		fmt.Println("Usage: docchat ask [flags] <question>")
		os.Exit(1)
	}
	sid := *sessionID
	if sid == "" {
		sid = uuid.New().String()
	}

	body, err := json.Marshal(models.ChatRequest{Question: question})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ask failed: %v\n", err)
		os.Exit(1)
	}
	resp, err := http.Post(*serverURL+"/chat?session_id="+sid, "application/json", bytes.NewReader(body))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ask failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		fmt.Fprintf(os.Stderr, "Server returned %d: %s\n", resp.StatusCode, string(b))
		os.Exit(1)
	}
	var answer models.ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&answer); err != nil {
		fmt.Fprintf(os.Stderr, "Decode response: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(answer.Answer)
	if *sessionID == "" {
		fmt.Fprintf(os.Stderr, "(session %s; pass -session %s to continue this conversation)\n", sid, sid)
	}
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8000", "server URL")
	_ = fs.Parse(os.Args[2:])

	resp, err := http.Get(*serverURL + "/api/v1/status")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		fmt.Fprintf(os.Stderr, "Server returned %d: %s\n", resp.StatusCode, string(b))
		os.Exit(1)
	}
	var status struct {
		Documents       int64                  `json:"documents"`
		Chunks          int64                  `json:"chunks"`
		VectorIndexSize int                    `json:"vector_index_size"`
		Config          map[string]interface{} `json:"config"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		fmt.Fprintf(os.Stderr, "Decode response: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Documents:  %d\n", status.Documents)
	fmt.Printf("Chunks:     %d\n", status.Chunks)
	fmt.Printf("Vectors:    %d\n", status.VectorIndexSize)
	if len(status.Config) > 0 {
		fmt.Println("Config:")
		for _, key := range []string{"docs_folder", "chunk_size", "chunk_overlap", "embedding_model", "chat_model", "top_k"} {
			if v, ok := status.Config[key]; ok {
				fmt.Printf("  %-16s %v\n", key, v)
			}
		}
	}
}
