package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/funnelbot/funnelbot/internal/api"
	"github.com/funnelbot/funnelbot/internal/funnel"
	"github.com/funnelbot/funnelbot/internal/genai"
	"github.com/funnelbot/funnelbot/internal/lockfile"
	"github.com/funnelbot/funnelbot/internal/recordlog"
	"github.com/funnelbot/funnelbot/internal/retrieval"
	"github.com/funnelbot/funnelbot/internal/store"
	"github.com/funnelbot/funnelbot/internal/util"
	"github.com/joho/godotenv"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for funnelbot state data
	DefaultStateDir = "/var/lib/funnelbot"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "funnelbot.db"
	// PaymentLogFileName is the append-only payment record log
	PaymentLogFileName = "ged_clients.json"
	// MeetingLogFileName is the append-only meeting record log
	MeetingLogFileName = "meetings.json"
)

func main() {
	initializeLogger()

	config := loadEnvironmentConfig()
	flags := parseCommandLineFlags(config)

	if err := ensureDirectoriesExist(flags); err != nil {
		slog.Error("Failed to create required directories", "error", err)
		os.Exit(1)
	}

	// One instance per state directory.
	lock, err := lockfile.AcquireLock(*flags.stateDir)
	if err != nil {
		slog.Error("Failed to acquire state directory lock", "error", err)
		os.Exit(1)
	}
	defer lock.Release()

	st, err := buildStore(flags)
	if err != nil {
		slog.Error("Failed to initialize store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	client, err := genai.NewClient(genai.WithAPIKey(*flags.openaiKey))
	if err != nil {
		slog.Error("Failed to initialize completion client", "error", err)
		os.Exit(1)
	}

	searcher, err := buildRetrieval(flags)
	if err != nil {
		slog.Error("Failed to initialize retrieval store", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *flags.ingestDir != "" {
		slog.Info("Ingesting product documents", "dir", *flags.ingestDir)
		if err := searcher.Ingest(ctx, *flags.ingestDir); err != nil {
			slog.Error("Ingestion failed", "error", err, "dir", *flags.ingestDir)
			os.Exit(1)
		}
	}

	classifier := buildClassifier(flags, client)
	paymentLogPath, meetingLogPath := recordLogPaths(*flags.stateDir)
	engine := funnel.NewEngine(
		funnel.NewStoreSessionManager(st),
		st,
		client,
		classifier,
		funnel.WithRetrieval(searcher),
		funnel.WithPaymentLog(recordlog.New(paymentLogPath)),
		funnel.WithMeetingLog(recordlog.New(meetingLogPath)),
	)

	var apiOpts []api.Option
	if *flags.apiAddr != "" {
		apiOpts = append(apiOpts, api.WithAddr(*flags.apiAddr))
	}
	server := api.NewServer(engine, apiOpts...)

	slog.Info("Bootstrapping funnelbot", "state_dir", *flags.stateDir, "dsn_set", *flags.dbDSN != "", "classifier", *flags.classifier)
	if err := server.Run(ctx); err != nil {
		slog.Error("funnelbot failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("funnelbot exited successfully")
}

// Config holds environment configuration
type Config struct {
	DatabaseURL string
	StateDir    string
	OpenAIKey   string
	APIAddr     string
	Classifier  string
	IngestDir   string
}

// Flags holds command line flag values
type Flags struct {
	stateDir   *string
	dbDSN      *string
	openaiKey  *string
	apiAddr    *string
	classifier *string
	ingestDir  *string
}

// initializeLogger sets up structured logging. FUNNELBOT_DEBUG enables
// debug-level output.
func initializeLogger() {
	level := slog.LevelInfo
	if util.ParseBoolEnv("FUNNELBOT_DEBUG", false) {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		StateDir:    os.Getenv("FUNNELBOT_STATE_DIR"),
		OpenAIKey:   os.Getenv("OPENAI_API_KEY"),
		APIAddr:     os.Getenv("API_ADDR"),
		Classifier:  os.Getenv("INTENT_CLASSIFIER"),
		IngestDir:   os.Getenv("RETRIEVAL_DIR"),
	}

	if config.StateDir == "" {
		config.StateDir = DefaultStateDir
		slog.Debug("No FUNNELBOT_STATE_DIR set, using default", "default_state_dir", config.StateDir)
	}

	// If no database URL is provided, default to SQLite in the state directory
	if config.DatabaseURL == "" {
		config.DatabaseURL = filepath.Join(config.StateDir, DefaultDBFileName)
		slog.Debug("No database DSN provided, defaulting to SQLite", "sqlite_path", config.DatabaseURL)
	}

	slog.Debug("environment variables loaded",
		"DATABASE_URL_SET", config.DatabaseURL != "",
		"FUNNELBOT_STATE_DIR", config.StateDir,
		"OPENAI_API_KEY_SET", config.OpenAIKey != "",
		"API_ADDR", config.APIAddr,
		"INTENT_CLASSIFIER", config.Classifier,
		"RETRIEVAL_DIR", config.IngestDir)

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		stateDir:   flag.String("state-dir", config.StateDir, "state directory for funnelbot data (overrides $FUNNELBOT_STATE_DIR)"),
		dbDSN:      flag.String("db-dsn", config.DatabaseURL, "database DSN: SQLite path or postgres:// URL (overrides $DATABASE_URL)"),
		openaiKey:  flag.String("openai-api-key", config.OpenAIKey, "OpenAI API key (overrides $OPENAI_API_KEY)"),
		apiAddr:    flag.String("api-addr", config.APIAddr, "API server address (overrides $API_ADDR)"),
		classifier: flag.String("classifier", config.Classifier, "intent classifier: keyword or delegated (overrides $INTENT_CLASSIFIER)"),
		ingestDir:  flag.String("ingest-dir", config.IngestDir, "directory of product documents to ingest at startup (overrides $RETRIEVAL_DIR)"),
	}

	flag.Parse()

	// Follow an overridden state directory with the default SQLite path.
	if *flags.dbDSN == config.DatabaseURL && config.DatabaseURL == filepath.Join(config.StateDir, DefaultDBFileName) && *flags.stateDir != config.StateDir {
		*flags.dbDSN = filepath.Join(*flags.stateDir, DefaultDBFileName)
		slog.Debug("Updated dbDSN based on state directory", "new_state_dir", *flags.stateDir)
	}

	return flags
}

// ensureDirectoriesExist creates necessary directories for file-based storage
func ensureDirectoriesExist(flags Flags) error {
	if err := os.MkdirAll(*flags.stateDir, 0755); err != nil {
		return err
	}
	if store.DetectDSNType(*flags.dbDSN) == "sqlite" {
		dbDir := filepath.Dir(*flags.dbDSN)
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			return err
		}
	}
	return nil
}

// buildStore selects the store backend from the DSN.
func buildStore(flags Flags) (store.Store, error) {
	if store.DetectDSNType(*flags.dbDSN) == "postgres" {
		slog.Debug("Detected PostgreSQL DSN, configuring PostgreSQL store")
		return store.NewPostgresStore(store.WithDSN(*flags.dbDSN))
	}
	slog.Debug("Detected SQLite DSN, configuring SQLite store", "db_path", *flags.dbDSN)
	return store.NewSQLiteStore(store.WithDSN(*flags.dbDSN))
}

// recordLogPaths returns the payment and meeting log locations under the
// state directory.
func recordLogPaths(stateDir string) (string, string) {
	return filepath.Join(stateDir, PaymentLogFileName), filepath.Join(stateDir, MeetingLogFileName)
}

// buildRetrieval opens the product snippet store under the state directory.
func buildRetrieval(flags Flags) (*retrieval.Store, error) {
	return retrieval.NewStore(
		retrieval.WithPath(filepath.Join(*flags.stateDir, "retrieval")),
		retrieval.WithAPIKey(*flags.openaiKey),
	)
}

// buildClassifier selects the stage classifier strategy.
func buildClassifier(flags Flags, client *genai.Client) funnel.IntentClassifier {
	if *flags.classifier == "delegated" {
		slog.Debug("Using delegated intent classifier")
		return funnel.NewDelegatedClassifier(client)
	}
	return funnel.NewKeywordClassifier()
}
