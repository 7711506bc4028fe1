// Package session drives the conversation loop: prompt in, model response
// parsed into tool requests, requests executed in order, results appended
// back into history for the next turn.
package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/GeneralBots/botcoder/internal/executor"
	"github.com/GeneralBots/botcoder/internal/llm"
	"github.com/GeneralBots/botcoder/internal/observability"
	"github.com/GeneralBots/botcoder/internal/parser"
	"github.com/GeneralBots/botcoder/internal/ratelimit"
)

const (
	defaultMaxHistory = 40
	historyDropCount  = 20
)

// Options carries per-session model parameters.
type Options struct {
	Model       string
	MaxTokens   int
	Temperature float64
	// MaxHistory caps retained messages; older ones are dropped in bulk.
	// Zero means 40.
	MaxHistory int
}

// ToolOutcome pairs a request with its execution result, in batch order.
type ToolOutcome struct {
	Request parser.Request
	Result  executor.Result
}

// TurnReport is everything one turn produced.
type TurnReport struct {
	Assistant string
	Outcomes  []ToolOutcome
	Warnings  []parser.Warning
}

// Session owns conversation history and coordinates limiter, provider,
// parser, and executor for each turn. It is not safe for concurrent use;
// turns are strictly sequential.
type Session struct {
	id       string
	provider llm.Provider
	limiter  *ratelimit.Limiter
	exec     *executor.Executor
	opts     Options
	logger   *zap.Logger
	metrics  *observability.Metrics

	history []llm.ChatMessage

	// pause is the scheduling point for limiter-advised waits.
	pause func(ctx context.Context, d time.Duration) error
}

// New constructs a session. logger and metrics may be nil.
func New(provider llm.Provider, limiter *ratelimit.Limiter, exec *executor.Executor, opts Options, logger *zap.Logger, metrics *observability.Metrics) *Session {
	if opts.MaxHistory <= 0 {
		opts.MaxHistory = defaultMaxHistory
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		id:       uuid.NewString(),
		provider: provider,
		limiter:  limiter,
		exec:     exec,
		opts:     opts,
		logger:   logger,
		metrics:  metrics,
		pause:    sleepCtx,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// History returns a copy of the retained conversation.
func (s *Session) History() []llm.ChatMessage {
	out := make([]llm.ChatMessage, len(s.history))
	copy(out, s.history)
	return out
}

// ClearHistory drops the retained conversation.
func (s *Session) ClearHistory() {
	s.history = nil
}

// TotalTokens reports cumulative token usage recorded by the limiter.
func (s *Session) TotalTokens() int {
	return s.limiter.TotalTokens()
}

// WindowTokens reports token usage within the limiter's trailing window.
func (s *Session) WindowTokens() int {
	return s.limiter.WindowTokens()
}

// Turn runs one round trip: user input to model, parsed tool batch executed
// in order, results folded back into history. Per-request tool failures are
// reported in the outcomes, not returned as an error; only unrecoverable
// conditions (cancelled context, provider failure) are.
func (s *Session) Turn(ctx context.Context, input string) (TurnReport, error) {
	start := time.Now()

	s.history = append(s.history, llm.ChatMessage{Role: llm.RoleUser, Content: input})

	messages := make([]llm.ChatMessage, 0, len(s.history)+1)
	messages = append(messages, llm.ChatMessage{Role: llm.RoleSystem, Content: systemPrompt})
	messages = append(messages, s.history...)

	promptTokens := 0
	for _, m := range messages {
		promptTokens += EstimateTokens(m.Content)
	}

	if err := s.reserve(ctx, promptTokens); err != nil {
		s.metrics.RecordTurn("error", time.Since(start))
		return TurnReport{}, err
	}
	s.metrics.AddTokens("prompt", promptTokens)

	resp, err := s.provider.Chat(ctx, llm.ChatRequest{
		Model:       s.opts.Model,
		Messages:    messages,
		MaxTokens:   s.opts.MaxTokens,
		Temperature: s.opts.Temperature,
	})
	if err != nil {
		s.metrics.RecordTurn("error", time.Since(start))
		return TurnReport{}, fmt.Errorf("model request: %w", err)
	}

	content := FilterControlTokens(resp.Message.Content)

	completionTokens := resp.Usage.CompletionTokens
	if completionTokens == 0 {
		completionTokens = EstimateTokens(content)
	}
	s.limiter.Record(completionTokens)
	s.metrics.AddTokens("completion", completionTokens)

	requests, warnings := parser.Parse(content)
	s.metrics.RecordParseWarnings(len(warnings))
	for _, w := range warnings {
		s.logger.Warn("parse warning", zap.Int("line", w.Line), zap.String("message", w.Message))
	}

	s.history = append(s.history, llm.ChatMessage{Role: llm.RoleAssistant, Content: content})

	report := TurnReport{Assistant: content, Warnings: warnings}

	if len(requests) == 0 {
		s.truncateHistory()
		s.metrics.RecordTurn("chat", time.Since(start))
		return report, nil
	}

	results := make([]string, 0, len(requests))
	for _, req := range requests {
		res := s.exec.Execute(ctx, req)
		report.Outcomes = append(report.Outcomes, ToolOutcome{Request: req, Result: res})

		outcome := "ok"
		if res.Err != nil {
			outcome = "error"
		}
		s.metrics.RecordToolRun(req.Kind.String(), outcome)
		s.logger.Debug("tool executed",
			zap.String("tool", req.Kind.String()),
			zap.String("argument", req.Argument()),
			zap.String("outcome", outcome))

		results = append(results, fmt.Sprintf("Tool: %s\nResult:\n%s", req.Kind, res.Text()))
	}

	s.history = append(s.history, llm.ChatMessage{
		Role:    llm.RoleSystem,
		Content: "Tool Results:\n" + strings.Join(results, "\n\n"),
	})

	s.truncateHistory()
	s.metrics.RecordTurn("tools", time.Since(start))
	return report, nil
}

// reserve gates on the limiter, pausing for as long as it advises.
func (s *Session) reserve(ctx context.Context, tokens int) error {
	for {
		d := s.limiter.Reserve(tokens)
		if d.OK {
			return nil
		}
		s.logger.Info("rate limit reached, waiting",
			zap.Duration("wait", d.Wait),
			zap.Int("window_tokens", s.limiter.WindowTokens()))
		s.metrics.ObserveLimiterWait(d.Wait)
		if err := s.pause(ctx, d.Wait); err != nil {
			return err
		}
	}
}

func (s *Session) truncateHistory() {
	if len(s.history) <= s.opts.MaxHistory {
		return
	}
	drop := historyDropCount
	if half := s.opts.MaxHistory / 2; half < drop {
		drop = half
	}
	if drop < 1 {
		drop = 1
	}
	s.history = append(s.history[:0:0], s.history[drop:]...)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
