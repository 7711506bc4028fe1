// Package mock provides a test double for llm.Provider.
package mock

import (
	"context"

	"github.com/GeneralBots/botcoder/internal/llm"
)

// Provider is a test double implementing llm.Provider. Responses are served
// in order; when the list runs out the last one repeats.
type Provider struct {
	NameValue string
	ChatFn    func(ctx context.Context, req llm.ChatRequest) (llm.ChatResponse, error)
	Responses []string

	Calls []llm.ChatRequest
}

func (p *Provider) Name() string {
	if p.NameValue != "" {
		return p.NameValue
	}
	return "mock"
}

func (p *Provider) Chat(ctx context.Context, req llm.ChatRequest) (llm.ChatResponse, error) {
	p.Calls = append(p.Calls, req)

	if p.ChatFn != nil {
		return p.ChatFn(ctx, req)
	}

	content := "mock"
	if n := len(p.Responses); n > 0 {
		i := len(p.Calls) - 1
		if i >= n {
			i = n - 1
		}
		content = p.Responses[i]
	}

	return llm.ChatResponse{
		Message: llm.ChatMessage{
			Role:    llm.RoleAssistant,
			Content: content,
		},
		FinishReason: "stop",
		ProviderName: p.Name(),
		Model:        req.Model,
	}, nil
}
