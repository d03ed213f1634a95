package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"github.com/verbo-studio/verbo/pkg/adapter"
	"github.com/verbo-studio/verbo/pkg/policy"
	"github.com/verbo-studio/verbo/pkg/repository"
	"github.com/verbo-studio/verbo/pkg/usecase/credential"
	"github.com/verbo-studio/verbo/pkg/usecase/generation"
	"github.com/verbo-studio/verbo/pkg/usecase/history"
	"github.com/verbo-studio/verbo/pkg/usecase/studio"
	"github.com/verbo-studio/verbo/pkg/utils/logging"
)

// config holds configuration values
type config struct {
	// Storage
	dataDir      string
	bucket       string
	bucketPrefix string

	// History in Firestore instead of the key-value storage
	firestoreProject  string
	firestoreDatabase string

	// Gemini
	apiKey string
	model  string

	// Extra Rego policies reviewing generated content
	policyDir string

	// Logging
	logLevel  string
	logFormat string
}

func defaultDataDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".verbo"
	}
	return filepath.Join(dir, "verbo")
}

// globalFlags returns common flags used across commands with destination config
func globalFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "data-dir",
			Usage:       "Directory holding history and API key",
			Value:       defaultDataDir(),
			Sources:     cli.EnvVars("VERBO_DATA_DIR"),
			Destination: &cfg.dataDir,
		},
		&cli.StringFlag{
			Name:        "bucket",
			Usage:       "Cloud Storage bucket holding history and API key instead of data-dir",
			Sources:     cli.EnvVars("VERBO_BUCKET"),
			Destination: &cfg.bucket,
		},
		&cli.StringFlag{
			Name:        "bucket-prefix",
			Usage:       "Object name prefix in the bucket",
			Value:       "verbo/",
			Sources:     cli.EnvVars("VERBO_BUCKET_PREFIX"),
			Destination: &cfg.bucketPrefix,
		},
		&cli.StringFlag{
			Name:        "firestore-project",
			Usage:       "Google Cloud project ID to keep history in Firestore",
			Sources:     cli.EnvVars("VERBO_FIRESTORE_PROJECT"),
			Destination: &cfg.firestoreProject,
		},
		&cli.StringFlag{
			Name:        "firestore-database",
			Usage:       "Firestore database ID",
			Value:       "(default)",
			Sources:     cli.EnvVars("VERBO_FIRESTORE_DATABASE"),
			Destination: &cfg.firestoreDatabase,
		},
		&cli.StringFlag{
			Name:        "policy-dir",
			Usage:       "Directory with extra Rego policies (package review) checked after generation",
			Sources:     cli.EnvVars("VERBO_POLICY_DIR"),
			Destination: &cfg.policyDir,
		},
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "warn",
			Sources:     cli.EnvVars("VERBO_LOG_LEVEL"),
			Destination: &cfg.logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "Log format (console, json)",
			Value:       logging.FormatConsole,
			Sources:     cli.EnvVars("VERBO_LOG_FORMAT"),
			Destination: &cfg.logFormat,
		},
	}
}

// llmFlags returns flags for Gemini configuration with destination config
func llmFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "api-key",
			Usage:       "Gemini API key, overrides the stored key",
			Sources:     cli.EnvVars("GEMINI_API_KEY"),
			Destination: &cfg.apiKey,
		},
		&cli.StringFlag{
			Name:        "model",
			Usage:       "Gemini model",
			Value:       adapter.DefaultGenerativeModel,
			Sources:     cli.EnvVars("VERBO_MODEL"),
			Destination: &cfg.model,
		},
	}
}

// setupLogger installs the logger as default and into ctx. Logs are written
// to w, which is stderr for every command.
func (cfg *config) setupLogger(ctx context.Context, w io.Writer) (context.Context, error) {
	if _, err := logging.ParseLevel(cfg.logLevel); err != nil {
		return ctx, err
	}
	switch cfg.logFormat {
	case logging.FormatConsole, logging.FormatJSON:
	default:
		return ctx, goerr.New("invalid log format", goerr.V("format", cfg.logFormat))
	}

	logger := logging.New(cfg.logLevel, w, logging.WithFormat(cfg.logFormat))
	logging.SetDefault(logger)
	return logging.With(ctx, logger), nil
}

// newStorage creates the key-value storage: a Cloud Storage bucket when
// configured, the local data directory otherwise
func (cfg *config) newStorage(ctx context.Context) (adapter.Storage, error) {
	if cfg.bucket != "" {
		storage, err := adapter.NewStorage(ctx, cfg.bucket, adapter.WithPrefix(cfg.bucketPrefix))
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create storage")
		}
		return storage, nil
	}

	storage, err := adapter.NewLocalStorage(cfg.dataDir)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create local storage")
	}
	return storage, nil
}

// newPersister returns the history persister and a function releasing it
func (cfg *config) newPersister(ctx context.Context, storage adapter.Storage) (history.Persister, func(), error) {
	if cfg.firestoreProject == "" {
		return history.NewBlobPersister(storage), func() {}, nil
	}

	repo, err := repository.New(ctx, cfg.firestoreProject, cfg.firestoreDatabase)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to create repository")
	}
	return repo, func() {
		if err := repo.Close(); err != nil {
			logging.From(ctx).Warn("failed to close repository", "error", err)
		}
	}, nil
}

// newGenerator creates the generation client for the configured model
func (cfg *config) newGenerator() *generation.Generator {
	return generation.New(adapter.NewGeminiFactory(adapter.WithGenerativeModel(cfg.model)))
}

// app is the wired set of components a command works with
type app struct {
	keys     *credential.Store
	history  *history.Store
	ctrl     *studio.Controller
	reviewer *policy.Reviewer
	closers  []func()
}

func (a *app) Close() {
	for _, closer := range a.closers {
		closer()
	}
}

// newApp wires storage, history, credential, policies and controller. The history is
// loaded before it returns.
func (cfg *config) newApp(ctx context.Context) (*app, error) {
	storage, err := cfg.newStorage(ctx)
	if err != nil {
		return nil, err
	}

	persister, release, err := cfg.newPersister(ctx, storage)
	if err != nil {
		return nil, err
	}

	reviewer, err := policy.New(ctx, policy.WithPolicyDir(cfg.policyDir))
	if err != nil {
		release()
		return nil, goerr.Wrap(err, "failed to load policies")
	}

	store := history.New(persister)
	store.Load(ctx)

	keys := credential.New(storage)
	source := credential.Chain{credential.Static(cfg.apiKey), keys}

	return &app{
		keys:     keys,
		history:  store,
		ctrl:     studio.New(cfg.newGenerator(), store, source),
		reviewer: reviewer,
		closers:  []func(){release},
	}, nil
}
