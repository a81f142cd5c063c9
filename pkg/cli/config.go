package cli

import (
	"context"
	"os"

	"github.com/m-mizutani/digitnote/pkg/adapter"
	"github.com/m-mizutani/digitnote/pkg/identity"
	"github.com/m-mizutani/digitnote/pkg/model"
	"github.com/m-mizutani/digitnote/pkg/recognizer"
	"github.com/m-mizutani/digitnote/pkg/repository"
	"github.com/m-mizutani/digitnote/pkg/usecase/recognition"
	"github.com/m-mizutani/digitnote/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// config holds configuration values
type config struct {
	// Logging
	logLevel  string
	logFormat string

	// Recognition
	mode           string
	geminiAPIKey   string
	geminiModel    string
	geminiProject  string
	geminiLocation string
	relayURL       string

	// Identity
	firebaseAPIKey string
	email          string
	password       string

	// Repository
	project  string
	database string
	memory   bool

	// Archive
	archiveBucket string
	archivePrefix string
}

// globalFlags returns common flags used across commands with destination config
func globalFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "info",
			Sources:     cli.EnvVars("DIGITNOTE_LOG_LEVEL"),
			Destination: &cfg.logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "Log format (console, json)",
			Value:       string(logging.FormatConsole),
			Sources:     cli.EnvVars("DIGITNOTE_LOG_FORMAT"),
			Destination: &cfg.logFormat,
		},
	}
}

// recognizerFlags returns flags that select and configure the recognition backend
func recognizerFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "mode",
			Usage:       "Recognition mode (direct, relay)",
			Value:       string(recognizer.ModeDirect),
			Sources:     cli.EnvVars("DIGITNOTE_MODE"),
			Destination: &cfg.mode,
		},
		&cli.StringFlag{
			Name:        "relay-url",
			Usage:       "Relay endpoint used in relay mode",
			Sources:     cli.EnvVars("DIGITNOTE_RELAY_URL"),
			Destination: &cfg.relayURL,
		},
	}
}

// geminiFlags returns flags for the Gemini model
func geminiFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "gemini-api-key",
			Usage:       "Gemini API key",
			Sources:     cli.EnvVars("GEMINI_API_KEY"),
			Destination: &cfg.geminiAPIKey,
		},
		&cli.StringFlag{
			Name:        "gemini-model",
			Usage:       "Gemini model name",
			Value:       adapter.DefaultGeminiModel,
			Sources:     cli.EnvVars("GEMINI_MODEL"),
			Destination: &cfg.geminiModel,
		},
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini on Vertex AI (used when no API key is set)",
			Sources:     cli.EnvVars("GEMINI_PROJECT_ID"),
			Destination: &cfg.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini on Vertex AI",
			Value:       "us-central1",
			Sources:     cli.EnvVars("GEMINI_LOCATION"),
			Destination: &cfg.geminiLocation,
		},
	}
}

// identityFlags returns flags for the identity provider
func identityFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "firebase-api-key",
			Usage:       "Web API key of the identity provider",
			Sources:     cli.EnvVars("FIREBASE_API_KEY"),
			Destination: &cfg.firebaseAPIKey,
		},
	}
}

// credentialFlags returns flags for commands that sign in non-interactively
func credentialFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "email",
			Aliases:     []string{"e"},
			Usage:       "Account email",
			Sources:     cli.EnvVars("DIGITNOTE_EMAIL"),
			Destination: &cfg.email,
		},
		&cli.StringFlag{
			Name:        "password",
			Usage:       "Account password",
			Sources:     cli.EnvVars("DIGITNOTE_PASSWORD"),
			Destination: &cfg.password,
		},
	}
}

// repositoryFlags returns flags for record persistence and the image archive
func repositoryFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "project",
			Aliases:     []string{"p"},
			Usage:       "Google Cloud project ID",
			Sources:     cli.EnvVars("GOOGLE_CLOUD_PROJECT"),
			Destination: &cfg.project,
		},
		&cli.StringFlag{
			Name:        "database",
			Aliases:     []string{"d"},
			Usage:       "Firestore database ID",
			Value:       "(default)",
			Sources:     cli.EnvVars("FIRESTORE_DATABASE_ID"),
			Destination: &cfg.database,
		},
		&cli.BoolFlag{
			Name:        "memory",
			Usage:       "Keep records in memory instead of Firestore",
			Sources:     cli.EnvVars("DIGITNOTE_MEMORY"),
			Destination: &cfg.memory,
		},
		&cli.StringFlag{
			Name:        "archive-bucket",
			Usage:       "Cloud Storage bucket for full-size originals (optional)",
			Sources:     cli.EnvVars("DIGITNOTE_ARCHIVE_BUCKET"),
			Destination: &cfg.archiveBucket,
		},
		&cli.StringFlag{
			Name:        "archive-prefix",
			Usage:       "Object name prefix inside the archive bucket",
			Sources:     cli.EnvVars("DIGITNOTE_ARCHIVE_PREFIX"),
			Destination: &cfg.archivePrefix,
		},
	}
}

// withLogger attaches the configured logger to ctx
func (cfg *config) withLogger(ctx context.Context) context.Context {
	logger := logging.NewWithFormat(cfg.logLevel, logging.Format(cfg.logFormat), os.Stderr)
	logging.SetDefault(logger)
	return logging.With(ctx, logger)
}

// newGemini creates a new Gemini adapter instance
func (cfg *config) newGemini(ctx context.Context) (adapter.Gemini, error) {
	opt := adapter.WithGenerativeModel(cfg.geminiModel)

	if cfg.geminiAPIKey != "" {
		return adapter.NewGemini(ctx, cfg.geminiAPIKey, opt)
	}
	if cfg.geminiProject != "" {
		if cfg.geminiLocation == "" {
			return nil, goerr.New("gemini-location is required")
		}
		return adapter.NewVertexGemini(ctx, cfg.geminiProject, cfg.geminiLocation, opt)
	}

	return nil, goerr.New("gemini-api-key or gemini-project is required")
}

// newRecognizer creates the recognizer selected by mode
func (cfg *config) newRecognizer(ctx context.Context) (recognizer.Recognizer, error) {
	mode := recognizer.Mode(cfg.mode)
	if !mode.Validate() {
		return nil, goerr.New("invalid mode", goerr.V("mode", cfg.mode))
	}

	switch mode {
	case recognizer.ModeRelay:
		if cfg.relayURL == "" {
			return nil, goerr.New("relay-url is required in relay mode")
		}
		return recognizer.NewRelay(cfg.relayURL), nil

	default:
		gemini, err := cfg.newGemini(ctx)
		if err != nil {
			return nil, err
		}
		return recognizer.NewDirect(gemini), nil
	}
}

// newRepository creates a new repository instance
func (cfg *config) newRepository(ctx context.Context) (repository.Repository, error) {
	if cfg.memory {
		logging.From(ctx).Warn("records are kept in memory and lost on exit")
		return repository.NewMemory(), nil
	}
	if cfg.project == "" {
		return nil, goerr.New("project is required")
	}
	if cfg.database == "" {
		return nil, goerr.New("database is required")
	}

	repo, err := repository.New(ctx, cfg.project, cfg.database)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create repository")
	}
	return repo, nil
}

// newStorage creates the archive Storage, or nil when no bucket is configured
func (cfg *config) newStorage(ctx context.Context) (adapter.Storage, error) {
	if cfg.archiveBucket == "" {
		return nil, nil
	}

	storage, err := adapter.NewStorage(ctx, cfg.archiveBucket, adapter.WithKeyPrefix(cfg.archivePrefix))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage", goerr.V("bucket", cfg.archiveBucket))
	}
	return storage, nil
}

// newManager creates the identity Manager backed by the provider's REST API
func (cfg *config) newManager(ctx context.Context) (*identity.Manager, error) {
	if cfg.firebaseAPIKey == "" {
		return nil, goerr.New("firebase-api-key is required")
	}

	toolkit, err := identity.NewToolkit(ctx, cfg.firebaseAPIKey)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create identity provider")
	}
	return identity.NewManager(toolkit), nil
}

// signIn signs in with the email and password flags
func (cfg *config) signIn(ctx context.Context, manager *identity.Manager) (*model.Session, error) {
	if cfg.email == "" || cfg.password == "" {
		return nil, goerr.New("email and password are required")
	}
	return manager.SignIn(ctx, cfg.email, cfg.password)
}

// newUseCase wires the recognition use case
func (cfg *config) newUseCase(ctx context.Context, needRecognizer bool) (*recognition.UseCase, error) {
	var rec recognizer.Recognizer
	if needRecognizer {
		r, err := cfg.newRecognizer(ctx)
		if err != nil {
			return nil, err
		}
		rec = r
	}

	repo, err := cfg.newRepository(ctx)
	if err != nil {
		return nil, err
	}

	var opts []recognition.Option
	storage, err := cfg.newStorage(ctx)
	if err != nil {
		return nil, err
	}
	if storage != nil {
		opts = append(opts, recognition.WithArchive(storage))
	}

	return recognition.New(rec, repo, opts...), nil
}
