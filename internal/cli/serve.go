package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/soyeahso/lexidrill/internal/config"
	"github.com/soyeahso/lexidrill/internal/gateway"
	"github.com/soyeahso/lexidrill/internal/llm"
	"github.com/soyeahso/lexidrill/internal/logging"
	"github.com/soyeahso/lexidrill/internal/ratelimit"
	"github.com/soyeahso/lexidrill/internal/store"
	"github.com/soyeahso/lexidrill/internal/tutor"
)

func newServeCmd() *cobra.Command {
	var (
		port int
		bind string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the tutor HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadValidConfig()
			if err != nil {
				return err
			}
			if port != 0 {
				cfg.Server.Port = port
			}
			if bind != "" {
				cfg.Server.Bind = bind
			}

			// Rebuild the logger now that the config is known; the flag
			// still wins over the file.
			level := logLevel
			if level == "" {
				level = cfg.Logging.Level
			}
			if cfg.Logging.Style == "json" {
				log = logging.New(os.Stderr, level)
			} else {
				log = logging.New(nil, level)
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			svc, db, err := buildService(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			if cfg.Retention.CleanupInServe {
				go svc.RunCleanupLoop(ctx,
					time.Duration(cfg.Retention.CleanupHours)*time.Hour,
					time.Duration(cfg.Retention.IdempotencyDays)*24*time.Hour,
					time.Duration(cfg.Retention.SessionDays)*24*time.Hour,
				)
			}

			srv := gateway.New(cfg.Server, svc, log)
			return srv.Start(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "override server port")
	cmd.Flags().StringVar(&bind, "bind", "", "override bind mode (loopback, lan, custom)")

	return cmd
}

func loadValidConfig() (config.Config, error) {
	cfg, err := config.Load(paths.Config)
	if err != nil {
		return cfg, err
	}

	issues := config.Validate(&cfg)
	if len(issues) > 0 {
		for _, issue := range issues {
			log.Error().Str("path", issue.Path).Msg(issue.Message)
		}
		return cfg, fmt.Errorf("config validation failed with %d issue(s)", len(issues))
	}
	return cfg, nil
}

// buildService opens the database and assembles the use-case service. The
// caller owns the returned DB handle.
func buildService(cfg config.Config) (*tutor.Service, *store.DB, error) {
	if err := paths.EnsureDirs(); err != nil {
		return nil, nil, fmt.Errorf("creating data directories: %w", err)
	}

	dbPath := cfg.Database.Path
	if dbPath == "" {
		dbPath = paths.DefaultDBPath()
	}
	db, err := store.Open(dbPath, log)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}

	client, err := buildLLMClient(cfg.LLM)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	log.Info().Str("provider", client.Name()).Msg("LLM provider configured")

	messages := store.NewMessageStore(db)
	svc := tutor.NewService(
		db,
		store.NewAssignmentStore(db),
		store.NewSessionStore(db, messages),
		messages,
		store.NewIdempotencyStore(db),
		ratelimit.New(),
		client,
		cfg.Teacher.Token,
		log,
	)
	return svc, db, nil
}

func buildLLMClient(cfg config.LLMConfig) (llm.Client, error) {
	switch cfg.Provider {
	case "ollama":
		return llm.NewOllamaClient(cfg.Ollama.BaseURL, cfg.Ollama.Model, cfg.MaxAttempts, log), nil
	case "gigachat":
		return llm.NewGigaChatClient(cfg.GigaChat.AuthKey, cfg.GigaChat.Scope, llm.GigaChatOptions{
			OAuthURL:    cfg.GigaChat.OAuthURL,
			APIURL:      cfg.GigaChat.APIURL,
			Model:       cfg.GigaChat.Model,
			MaxAttempts: cfg.MaxAttempts,
		}, log), nil
	case "mock":
		return &llm.MockClient{}, nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
