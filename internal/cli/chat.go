package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/GeneralBots/botcoder/internal/config"
	"github.com/GeneralBots/botcoder/internal/executor"
	"github.com/GeneralBots/botcoder/internal/llm"
	"github.com/GeneralBots/botcoder/internal/llm/providers/ollama"
	"github.com/GeneralBots/botcoder/internal/llm/providers/openai"
	"github.com/GeneralBots/botcoder/internal/logging"
	"github.com/GeneralBots/botcoder/internal/observability"
	"github.com/GeneralBots/botcoder/internal/ratelimit"
	"github.com/GeneralBots/botcoder/internal/session"
	"github.com/GeneralBots/botcoder/internal/ui"
)

const defaultOpenAIBaseURL = "https://api.openai.com"

// NewChatCmd starts the interactive assistant loop. With a prompt argument it
// runs a single turn and exits, which keeps the command scriptable.
func NewChatCmd(opts *Options) *cobra.Command {
	var modelOverride string

	cmd := &cobra.Command{
		Use:   "chat [\"<prompt>\"]",
		Short: "Chat with the assistant about the configured project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if modelOverride != "" {
				cfg.Provider.Model = modelOverride
			}

			logger, err := logging.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck // best-effort

			metrics := startMetrics(cmd.Context(), cfg, logger)

			sess, err := buildSession(cfg, logger, metrics)
			if err != nil {
				return err
			}

			printer := ui.NewPrinter(cmd.OutOrStdout())

			if len(args) == 1 {
				return runTurn(cmd.Context(), sess, printer, args[0])
			}
			return runREPL(cmd.Context(), cfg, sess, printer)
		},
	}

	cmd.Flags().StringVar(&modelOverride, "model", "", "Override the configured model for this session")
	return cmd
}

// startMetrics launches the Prometheus endpoint when enabled. A nil return is
// safe; every Metrics method tolerates a nil receiver.
func startMetrics(ctx context.Context, cfg *config.Config, logger *zap.Logger) *observability.Metrics {
	if !cfg.Metrics.Enabled {
		return nil
	}
	metrics := observability.NewMetrics()
	go func() {
		if err := metrics.Serve(ctx, cfg.Metrics.Addr); err != nil {
			logger.Warn("metrics endpoint stopped", zap.Error(err))
		}
	}()
	return metrics
}

func buildSession(cfg *config.Config, logger *zap.Logger, metrics *observability.Metrics) (*session.Session, error) {
	provider, err := buildProvider(cfg)
	if err != nil {
		return nil, err
	}

	limiter := ratelimit.New(cfg.Limiter.TokensPerMinute, cfg.MinInterval())

	exec, err := executor.New(cfg.Project.Root, executor.Options{
		MaxFileBytes:   cfg.Tools.MaxFileBytes,
		CommandTimeout: cfg.CommandTimeout(),
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("init executor: %w", err)
	}

	return session.New(provider, limiter, exec, session.Options{
		Model:       cfg.Provider.Model,
		MaxTokens:   cfg.Provider.MaxTokens,
		Temperature: cfg.Provider.Temperature,
	}, logger, metrics), nil
}

func buildProvider(cfg *config.Config) (llm.Provider, error) {
	p := cfg.Provider
	switch strings.ToLower(strings.TrimSpace(p.Type)) {
	case "openai":
		base := p.BaseURL
		if base == "" {
			base = defaultOpenAIBaseURL
		}
		return openai.NewProvider("openai", base, p.APIKey, "", p.Timeout), nil
	case "azure":
		return openai.NewProvider("azure", p.BaseURL, p.APIKey, p.APIVersion, p.Timeout), nil
	case "ollama":
		base := p.BaseURL
		if base == "" {
			base = "http://localhost:11434"
		}
		return ollama.NewProvider("ollama", base, p.Timeout), nil
	default:
		return nil, fmt.Errorf("unsupported provider type %q", p.Type)
	}
}

func runREPL(ctx context.Context, cfg *config.Config, sess *session.Session, printer *ui.Printer) error {
	rl, err := readline.New("> ")
	if err != nil {
		return fmt.Errorf("init readline: %w", err)
	}
	defer rl.Close()

	printer.Welcome(cfg.Provider.Model, cfg.Project.Root)

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			if quit := handleCommand(input, sess, printer); quit {
				return nil
			}
			continue
		}

		if err := runTurn(ctx, sess, printer, input); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			printer.Error(err)
		}
	}
}

func runTurn(ctx context.Context, sess *session.Session, printer *ui.Printer, input string) error {
	report, err := sess.Turn(ctx, input)
	if err != nil {
		return err
	}

	printer.Assistant(report.Assistant)
	for _, w := range report.Warnings {
		printer.Info("warning (line %d): %s", w.Line, w.Message)
	}
	for _, o := range report.Outcomes {
		printer.Tool(o.Request)
		printer.Result(o.Result.Text(), o.Result.Err != nil)
	}
	return nil
}

// handleCommand dispatches a /slash command. Returns true when the loop
// should end.
func handleCommand(input string, sess *session.Session, printer *ui.Printer) bool {
	switch input {
	case "/exit", "/quit":
		return true
	case "/clear":
		sess.ClearHistory()
		printer.Info("history cleared")
	case "/history":
		hist := sess.History()
		if len(hist) == 0 {
			printer.Info("history is empty")
			break
		}
		for _, m := range hist {
			printer.Info("[%s] %s", m.Role, m.Content)
		}
		printer.Info("%d message(s), ~%d tokens in window, %d total",
			len(hist), sess.WindowTokens(), sess.TotalTokens())
	case "/help":
		printer.Info("/help     show this help")
		printer.Info("/history  print the conversation so far")
		printer.Info("/clear    forget the conversation")
		printer.Info("/exit     leave (also /quit)")
	default:
		printer.Info("unknown command %s, try /help", input)
	}
	return false
}
