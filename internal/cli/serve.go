package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nanairo/memobot/internal/agent"
	"github.com/nanairo/memobot/internal/config"
	"github.com/nanairo/memobot/internal/llm"
	"github.com/nanairo/memobot/internal/slack"
	"github.com/nanairo/memobot/internal/store"
	"github.com/nanairo/memobot/internal/tools"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the Slack bot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Slack.BotToken == "" || cfg.Slack.AppToken == "" {
				return fmt.Errorf("slack.botToken and slack.appToken are required to serve")
			}
			if cfg.Anthropic.APIKey == "" {
				return fmt.Errorf("anthropic.apiKey is required to serve")
			}

			db, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			loop := buildLoop(cfg, db)

			api := slack.NewAPI(cfg.Slack.BotToken, cfg.Slack.AppToken, log)
			bot := slack.NewBot(api, func(ctx context.Context, text string) (string, error) {
				return loop.Run(ctx, text)
			}, log)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log.Info().Str("model", cfg.Anthropic.Model).Msg("starting bot")
			if err := bot.Run(ctx); err != nil && ctx.Err() == nil {
				return err
			}
			log.Info().Msg("shutting down")
			return nil
		},
	}
}

// loadConfig loads and validates the config file.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(paths.Config)
	if err != nil {
		return cfg, err
	}
	if issues := config.Validate(&cfg); len(issues) > 0 {
		for _, issue := range issues {
			log.Error().Str("path", issue.Path).Msg(issue.Message)
		}
		return cfg, fmt.Errorf("invalid config: %d issue(s)", len(issues))
	}
	return cfg, nil
}

// openDatabase opens the conversation database at the configured path.
func openDatabase(cfg config.Config) (*store.DB, error) {
	dbPath := cfg.Memory.Path
	if dbPath == "" {
		dbPath = paths.Database
	}
	return store.Open(dbPath, log)
}

// buildLoop assembles the agent loop over the given database.
func buildLoop(cfg config.Config, db *store.DB) *agent.Loop {
	conversations := store.NewConversationStore(db)
	dispatcher := tools.NewDispatcher(tools.NewRegistry(conversations), log)
	client := llm.NewClaudeClient(cfg.Anthropic.APIKey, cfg.Anthropic.Model)

	return agent.NewLoop(agent.Config{
		Model:       cfg.Anthropic.Model,
		MaxTokens:   cfg.Anthropic.MaxTokens,
		MaxRounds:   cfg.Agent.MaxRounds,
		Temperature: cfg.Agent.Temperature,
		ExtraPrompt: cfg.Agent.ExtraPrompt,
	}, client, dispatcher, log)
}
