package testutil

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/Veraticus/concierge/internal/invite"
	"github.com/Veraticus/concierge/internal/llm"
	"github.com/Veraticus/concierge/internal/model"
)

// FakeLLM answers completion requests from a script.
// Requests that carry a tool are answered by ToolResponder, the rest by TextResponder.
type FakeLLM struct {
	ToolResponder func(req llm.Request) (json.RawMessage, error)
	TextResponder func(req llm.Request) (string, error)
	requests      []llm.Request
	mu            sync.Mutex
}

// Complete implements llm.Client.
func (f *FakeLLM) Complete(_ context.Context, req llm.Request) (llm.Response, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if req.Tool != nil {
		if f.ToolResponder == nil {
			return llm.Response{}, errors.New("no tool responder configured")
		}
		args, err := f.ToolResponder(req)
		return llm.Response{ToolArguments: args}, err
	}
	if f.TextResponder == nil {
		return llm.Response{}, errors.New("no text responder configured")
	}
	text, err := f.TextResponder(req)
	return llm.Response{Content: text}, err
}

// Requests returns a copy of the requests received so far.
func (f *FakeLLM) Requests() []llm.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]llm.Request(nil), f.requests...)
}

// Calls returns the number of requests received so far.
func (f *FakeLLM) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

// SuggestionArgs encodes suggestions the way the suggest_partners tool returns them.
func SuggestionArgs(suggestions ...map[string]any) json.RawMessage {
	raw, _ := json.Marshal(map[string]any{"suggestions": suggestions})
	return raw
}

// FakeSearcher returns canned results per query.
type FakeSearcher struct {
	Results map[string][]model.SearchResult
	queries []string
	mu      sync.Mutex
}

// SearchAll implements discovery.WebSearcher.
func (f *FakeSearcher) SearchAll(_ context.Context, queries []string) []model.SearchResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, queries...)

	var out []model.SearchResult
	for _, q := range queries {
		out = append(out, f.Results[q]...)
	}
	return out
}

// Queries returns every query received so far.
func (f *FakeSearcher) Queries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}

// FakeInviter records invites and fails for the companies in Fail.
type FakeInviter struct {
	Fail map[string]error
	sent []invite.Request
	mu   sync.Mutex
}

// Send implements discovery.Inviter.
func (f *FakeInviter) Send(_ context.Context, r invite.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, r)
	if err := f.Fail[r.CompanyName]; err != nil {
		return "", err
	}
	return "https://invite.example.com/" + r.ContactEmail, nil
}

// Sent returns the invites received so far.
func (f *FakeInviter) Sent() []invite.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]invite.Request(nil), f.sent...)
}
