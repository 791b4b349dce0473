// Package main is the Ruiji CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/hyperjump/ruiji/internal/cli"
	"github.com/hyperjump/ruiji/internal/config"
	"github.com/hyperjump/ruiji/internal/corpus"
	"github.com/hyperjump/ruiji/internal/models"
	"github.com/hyperjump/ruiji/internal/server"
	"github.com/hyperjump/ruiji/internal/similarity"
	"github.com/hyperjump/ruiji/internal/spool"
	"github.com/hyperjump/ruiji/internal/storage"
	"github.com/hyperjump/ruiji/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/ruiji/config.yaml"

// loadConfig loads config from path. When path is the default, a config.yaml in
// the current directory wins (for development), then the RUIJI_CONFIG env var.
// Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if env := os.Getenv("RUIJI_CONFIG"); env != "" {
			path = env
		} else if cwd, err := os.Getwd(); err == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				path = fallback
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
	// A local .env may set RUIJI_CONFIG; missing files are fine.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "append":
		runAppend()
	case "list":
		runList()
	case "similar":
		runSimilar()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("ruiji version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (appends, queries, spool imports)")
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

	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		logger.Fatal("Failed to open corpus database", zap.Error(err))
	}
	defer store.Close()

	scorer := similarity.NewScorer(&cfg.Similarity)
	engine, err := corpus.NewEngine(store, scorer, &cfg.Corpus, logger)
	if err != nil {
		logger.Fatal("Failed to initialize corpus engine", zap.Error(err))
	}

	spoolCtx, spoolCancel := context.WithCancel(context.Background())
	defer spoolCancel()
	var spoolWatcher *spool.Watcher
	if len(cfg.Spool.Directories) > 0 {
		importer := spool.NewImporter(engine, logger)
		spoolWatcher = spool.NewWatcher(cfg.Spool.Directories, func(path string) {
			if _, err := importer.ImportFile(spoolCtx, path); err != nil {
				logger.Warn("spool import failed", zap.String("path", path), zap.Error(err))
			}
		}, logger)
		if err := spoolWatcher.Start(spoolCtx); err != nil {
			logger.Fatal("Failed to start spool watcher", zap.Error(err))
		}
		spoolWatcher.SyncExisting()
	}

	srv := server.NewServer(engine, &cfg.Server, logger, cfg)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	if spoolWatcher != nil {
		spoolWatcher.Stop()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Warn("server shutdown failed", zap.Error(err))
	}
}

func runAppend() {
	fs := flag.NewFlagSet("append", flag.ExitOnError)
	serverAddr := fs.String("server", "http://localhost:8091", "server address")
	file := fs.String("file", "", "JSON entry file (default: stdin)")
	_ = fs.Parse(os.Args[2:])

	var data []byte
	var err error
	if *file != "" {
		data, err = os.ReadFile(*file)
	} else {
		data, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		fmt.Printf("Failed to read entry: %v\n", err)
		os.Exit(1)
	}
	// Validate locally before shipping so malformed JSON fails fast.
	var input models.EntryInput
	if err := json.Unmarshal(data, &input); err != nil {
		fmt.Printf("Invalid entry JSON: %v\n", err)
		os.Exit(1)
	}

	body, status, err := doPost(*serverAddr+"/api/v1/corpus", data)
	if err != nil {
		fmt.Printf("Request failed: %v\n", err)
		os.Exit(1)
	}
	if status != http.StatusCreated {
		fmt.Printf("Append failed (%d): %s\n", status, strings.TrimSpace(string(body)))
		os.Exit(1)
	}
	fmt.Println(strings.TrimSpace(string(body)))
}

func runList() {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	serverAddr := fs.String("server", "http://localhost:8091", "server address")
	funcName := fs.String("func", "", "substring filter on funcName")
	limit := fs.Int("limit", 0, "page size (0 = server default)")
	offset := fs.Int("offset", 0, "page offset")
	perfectOnly := fs.Bool("perfect", false, "only fully-passing entries")
	minScore := fs.Float64("min-score", -1, "minimum score (inclusive)")
	maxScore := fs.Float64("max-score", -1, "maximum score (inclusive)")
	format := fs.String("format", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	listURL := *serverAddr + "/api/v1/corpus?" + listParams(*funcName, *limit, *offset, *perfectOnly, *minScore, *maxScore)
	body, status, err := doGet(listURL)
	if err != nil {
		fmt.Printf("Request failed: %v\n", err)
		os.Exit(1)
	}
	if status != http.StatusOK {
		fmt.Printf("List failed (%d): %s\n", status, strings.TrimSpace(string(body)))
		os.Exit(1)
	}
	var response models.ListResponse
	if err := json.Unmarshal(body, &response); err != nil {
		fmt.Printf("Failed to parse response: %v\n", err)
		os.Exit(1)
	}
	_ = cli.WriteListResults(os.Stdout, &response, cli.OutputFormat(*format))
}

// listParams builds the list query string. Negative score bounds mean unset.
func listParams(funcName string, limit, offset int, perfectOnly bool, minScore, maxScore float64) string {
	params := url.Values{}
	if funcName != "" {
		params.Set("func", funcName)
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		params.Set("offset", strconv.Itoa(offset))
	}
	if perfectOnly {
		params.Set("perfectOnly", "true")
	}
	if minScore >= 0 {
		params.Set("minScore", strconv.FormatFloat(minScore, 'f', -1, 64))
	}
	if maxScore >= 0 {
		params.Set("maxScore", strconv.FormatFloat(maxScore, 'f', -1, 64))
	}
	return params.Encode()
}

func runSimilar() {
	fs := flag.NewFlagSet("similar", flag.ExitOnError)
	serverAddr := fs.String("server", "http://localhost:8091", "server address")
	sigKey := fs.String("sig-key", "", "target normalized signature key")
	bow := fs.String("post-bow", "", "comma-separated post-condition tokens")
	limit := fs.Int("limit", 0, "max results (0 = server default)")
	format := fs.String("format", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	query := models.SimilarQuery{TargetSigKey: *sigKey, Limit: *limit}
	if *bow != "" {
		for _, tok := range strings.Split(*bow, ",") {
			if tok = strings.TrimSpace(tok); tok != "" {
				query.TargetPostBow = append(query.TargetPostBow, tok)
			}
		}
	}
	payload, _ := json.Marshal(&query)

	body, status, err := doPost(*serverAddr+"/api/v1/corpus/similar", payload)
	if err != nil {
		fmt.Printf("Request failed: %v\n", err)
		os.Exit(1)
	}
	if status != http.StatusOK {
		fmt.Printf("Similarity query failed (%d): %s\n", status, strings.TrimSpace(string(body)))
		os.Exit(1)
	}
	var response models.SimilarResponse
	if err := json.Unmarshal(body, &response); err != nil {
		fmt.Printf("Failed to parse response: %v\n", err)
		os.Exit(1)
	}
	_ = cli.WriteSimilarResults(os.Stdout, &response, cli.OutputFormat(*format))
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	serverAddr := fs.String("server", "http://localhost:8091", "server address")
	_ = fs.Parse(os.Args[2:])

	body, status, err := doGet(*serverAddr + "/api/v1/status")
	if err != nil {
		fmt.Printf("Request failed: %v\n", err)
		os.Exit(1)
	}
	if status != http.StatusOK {
		fmt.Printf("Status failed (%d): %s\n", status, strings.TrimSpace(string(body)))
		os.Exit(1)
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "", "  "); err != nil {
		fmt.Println(strings.TrimSpace(string(body)))
		return
	}
	fmt.Println(pretty.String())
}

func doGet(rawURL string) ([]byte, int, error) {
	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Get(rawURL)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	return body, resp.StatusCode, err
}

func doPost(rawURL string, payload []byte) ([]byte, int, error) {
	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Post(rawURL, "application/json", bytes.NewReader(payload))
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	return body, resp.StatusCode, err
}

func printUsage() {
	fmt.Println(`ruiji - synthesized-function corpus with similarity search

Usage:
  ruiji server [--config PATH] [--debug]     start the HTTP server
  ruiji append [--server URL] [--file PATH]  append an entry (JSON from file or stdin)
  ruiji list [--server URL] [--func NAME] [--limit N] [--offset N]
             [--perfect] [--min-score X] [--max-score X] [--format text|json]
  ruiji similar [--server URL] --sig-key KEY [--post-bow a,b,c]
             [--limit N] [--format text|json]
  ruiji status [--server URL]                show corpus statistics
  ruiji version                              print version
  ruiji help                                 show this help`)
}
