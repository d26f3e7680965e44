package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alexanderramin/dermaloop/internal/app"
	"github.com/alexanderramin/dermaloop/internal/cache"
	"github.com/alexanderramin/dermaloop/internal/catalog"
	"github.com/alexanderramin/dermaloop/internal/cli"
	"github.com/alexanderramin/dermaloop/internal/cli/formatter"
	"github.com/alexanderramin/dermaloop/internal/db"
	"github.com/alexanderramin/dermaloop/internal/intelligence"
	"github.com/alexanderramin/dermaloop/internal/llm"
	"github.com/alexanderramin/dermaloop/internal/logging"
	"github.com/alexanderramin/dermaloop/internal/reconcile"
	"github.com/alexanderramin/dermaloop/internal/repository"
	"github.com/alexanderramin/dermaloop/internal/rules"
	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env is normal; a broken one is not.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	log, err := logging.New(logging.LoadConfig())
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	// Determine data dir: env var or default ~/.dermaloop
	dataDir := os.Getenv("DERMALOOP_DATA_DIR")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("finding home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".dermaloop")
	}

	database, err := db.OpenDB(filepath.Join(dataDir, "dermaloop.db"))
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	engine := rules.NewEngine(rules.LoadConfig())
	catalogCfg := catalog.LoadConfig()
	products := catalog.NewClient(catalogCfg, catalog.NewSearchCache(catalogCfg.CacheTTL, time.Now), log)

	deps := app.Deps{
		Store: cache.NewRoutineCache(repository.NewFileKVStore(filepath.Join(dataDir, "cache"))),
		UoW:   db.NewSQLiteUnitOfWork(database),
		Now:   time.Now,
		Log:   log,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Wire intelligence services (only when LLM is enabled)
	llmCfg := llm.LoadConfig()
	if llmCfg.Enabled {
		gateway := newGateway(ctx, llmCfg, log)
		deps.Routines = intelligence.NewRoutineService(gateway, engine, log,
			intelligence.WithProducts(products, intelligence.DefaultProductLimit))
		deps.Analyzer = intelligence.NewAnalysisService(gateway, time.Now)
		deps.Chat = intelligence.NewChatService(gateway, time.Now)
	} else {
		log.Debug("llm disabled; set DERMALOOP_LLM_ENABLED=true to generate routines")
	}

	session := app.NewSession(deps)
	if err := session.Restore(ctx); err != nil {
		return err
	}

	fd := os.Stdout.Fd()
	formatter.SetPlain(!isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd))

	rootCmd := cli.NewRootCmd(&cli.App{
		Session:    session,
		Catalog:    products,
		Reconciler: reconcile.New(log),
		Rules:      engine,
		ReadImage:  os.ReadFile,
		Now:        time.Now,
	})
	return rootCmd.ExecuteContext(ctx)
}

func newGateway(ctx context.Context, cfg llm.LLMConfig, log *zap.Logger) llm.Gateway {
	var observer llm.Observer = llm.NoopObserver{}
	if cfg.LogCalls {
		observer = llm.NewLogObserver(log)
	}
	return llm.NewGatewayClient(cfg, llm.TokenSource(ctx, cfg), observer)
}
