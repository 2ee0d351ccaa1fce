package voice

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"google.golang.org/genai"

	"github.com/ariavoice/aria/internal/apikeys"
)

// Model aliases keep older client-facing names working while the backend
// tracks the currently served Gemini models.
var modelAliases = map[string]string{
	"gemini-pro":          "gemini-1.5-pro",
	"gemini-1.5-flash-8b": "gemini-1.5-flash",
	"gemini-2.5-pro":      "gemini-1.5-pro",
	"gemini-2.5-flash":    "gemini-1.5-flash",
}

// ResolveModel maps a requested model name onto a served one.
func ResolveModel(model string) string {
	model = strings.TrimSpace(model)
	if model == "" {
		return "gemini-1.5-flash"
	}
	if resolved, ok := modelAliases[model]; ok {
		return resolved
	}
	return model
}

const emptyResponseText = "I'm having trouble generating a response right now. Please try again."

// cannedFinishText substitutes a spoken-friendly reply when generation was
// cut off by the model rather than completed.
func cannedFinishText(reason genai.FinishReason) (string, bool) {
	switch reason {
	case genai.FinishReasonSafety:
		return "I understand you're looking for a response, but I need to be careful about the content I generate. Could you rephrase your question?", true
	case genai.FinishReasonRecitation:
		return "I can't provide that specific response, but I'd be happy to help with a similar question phrased differently.", true
	case genai.FinishReasonOther:
		return "I'm having trouble generating a response right now. Could you try asking in a different way?", true
	}
	return "", false
}

// GeminiProvider generates replies through the Gemini API, caching one
// client per API key so runtime key changes take effect immediately.
type GeminiProvider struct {
	keys *apikeys.Resolver

	mu      sync.Mutex
	clients map[string]*genai.Client
}

func NewGeminiProvider(keys *apikeys.Resolver) *GeminiProvider {
	return &GeminiProvider{keys: keys, clients: make(map[string]*genai.Client)}
}

func (p *GeminiProvider) client(ctx context.Context, sessionID string) (*genai.Client, error) {
	key := p.keys.Key(apikeys.ServiceGemini, sessionID)
	if key == "" {
		return nil, fmt.Errorf("gemini: %w", ErrNotConfigured)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if client, ok := p.clients[key]; ok {
		return client, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: key, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	p.clients[key] = client
	return client, nil
}

func (p *GeminiProvider) Generate(ctx context.Context, sessionID, prompt, model string) (string, error) {
	client, err := p.client(ctx, sessionID)
	if err != nil {
		return "", err
	}

	resp, err := client.Models.GenerateContent(ctx, ResolveModel(model), genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("gemini: generate: %w", err)
	}

	var finish genai.FinishReason
	if len(resp.Candidates) > 0 {
		finish = resp.Candidates[0].FinishReason
	}
	if canned, ok := cannedFinishText(finish); ok {
		return canned, nil
	}
	if finish == genai.FinishReasonMaxTokens {
		log.Printf("gemini: response truncated at max tokens")
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return emptyResponseText, nil
	}
	return text, nil
}

func (p *GeminiProvider) Stream(ctx context.Context, sessionID, prompt, model string, onChunk func(string)) (string, error) {
	client, err := p.client(ctx, sessionID)
	if err != nil {
		return "", err
	}

	var full strings.Builder
	var finish genai.FinishReason
	for chunk, err := range client.Models.GenerateContentStream(ctx, ResolveModel(model), genai.Text(prompt), nil) {
		if err != nil {
			return "", fmt.Errorf("gemini: stream: %w", err)
		}
		if len(chunk.Candidates) > 0 && chunk.Candidates[0].FinishReason != "" {
			finish = chunk.Candidates[0].FinishReason
		}
		if text := chunk.Text(); text != "" {
			full.WriteString(text)
			if onChunk != nil {
				onChunk(text)
			}
		}
	}

	if canned, ok := cannedFinishText(finish); ok {
		if onChunk != nil {
			onChunk(canned)
		}
		return canned, nil
	}
	if finish == genai.FinishReasonMaxTokens {
		log.Printf("gemini: streamed response truncated at max tokens")
	}

	if strings.TrimSpace(full.String()) == "" {
		if onChunk != nil {
			onChunk(emptyResponseText)
		}
		return emptyResponseText, nil
	}
	return full.String(), nil
}
