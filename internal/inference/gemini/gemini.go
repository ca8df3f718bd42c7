// Package gemini scores narratives by asking a Gemini model for detail
// counts. It is a fallback for when no Triton server is available.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"google.golang.org/genai"

	"github.com/nguyentantai21042004/recall-scorer/internal/config"
	"github.com/nguyentantai21042004/recall-scorer/internal/inference"
	"github.com/nguyentantai21042004/recall-scorer/internal/logger"
)

const scorePrompt = `You are scoring autobiographical free-recall narratives with the Autobiographical Interview method.
For each numbered narrative below, count the number of %s details.
%s

Return ONLY a JSON array of %d numbers, one per narrative, in the same order. No prose.

%s`

var dimensionGuides = map[string]string{
	"internal": "Internal details belong to the central event: happenings, place, time, perceptual and emotion/thought details that are episodic and specific to it.",
	"external": "External details are everything else: semantic facts, events other than the central one, repetitions and metacognitive or editorial statements.",
}

// Generator produces text from a prompt. It exists so the key rotation
// loop can be replaced in tests.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type implBackend struct {
	gen    Generator
	logger logger.Logger
}

// New creates a Gemini backend that rotates through cfg.APIKeys.
func New(cfg config.GeminiConfig, l logger.Logger) inference.Backend {
	return NewWithClients(cfg, nil, l)
}

// NewWithClients is New with a custom client factory; nil uses genai.
func NewWithClients(cfg config.GeminiConfig, factory ClientFactory, l logger.Logger) inference.Backend {
	return NewWithGenerator(newKeyRotator(cfg.APIKeys, cfg.Model, factory, l), l)
}

// NewWithGenerator creates a backend on top of gen.
func NewWithGenerator(gen Generator, l logger.Logger) inference.Backend {
	return &implBackend{gen: gen, logger: l}
}

func (b *implBackend) Open(ctx context.Context, dim inference.Dimension) (inference.Session, error) {
	b.logger.Info(ctx, "Scoring %s details with Gemini", dim.Name)
	return &session{gen: b.gen, dimension: dim.Name}, nil
}

type session struct {
	gen       Generator
	dimension string
}

func (s *session) Score(ctx context.Context, texts []string) ([]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	out, err := s.gen.Generate(ctx, BuildPrompt(s.dimension, texts))
	if err != nil {
		return nil, err
	}
	return ParseScores(out, len(texts))
}

func (s *session) Close(ctx context.Context) error {
	s.gen = nil
	return nil
}

// BuildPrompt renders the batch prompt for a dimension.
func BuildPrompt(dimension string, texts []string) string {
	var b strings.Builder
	for i, t := range texts {
		fmt.Fprintf(&b, "[%d]\n%s\n\n", i+1, strings.TrimSpace(t))
	}
	return fmt.Sprintf(scorePrompt, dimension, dimensionGuides[dimension], len(texts), strings.TrimSpace(b.String()))
}

// ParseScores reads a JSON array of n numbers from a model reply. Code
// fences and surrounding prose are tolerated.
func ParseScores(reply string, n int) ([]float64, error) {
	start := strings.Index(reply, "[")
	end := strings.LastIndex(reply, "]")
	if start < 0 || end < start {
		return nil, fmt.Errorf("no JSON array in reply: %q", truncate(reply, 120))
	}

	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(reply[start:end+1]), &raw); err != nil {
		return nil, fmt.Errorf("decode reply: %w", err)
	}
	if len(raw) != n {
		return nil, fmt.Errorf("%w: got %d scores for %d texts", inference.ErrShapeMismatch, len(raw), n)
	}

	scores := make([]float64, n)
	for i, r := range raw {
		// numbers sometimes come back quoted
		v, err := strconv.ParseFloat(strings.Trim(string(r), `"`), 64)
		if err != nil {
			return nil, fmt.Errorf("score %d: %w", i, err)
		}
		scores[i] = v
	}
	return scores, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Models is the part of the genai client the backend uses.
type Models interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// ClientFactory builds a Models client for one API key.
type ClientFactory func(ctx context.Context, apiKey string) (Models, error)

func newGenAIModels(ctx context.Context, apiKey string) (Models, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return client.Models, nil
}

// keyRotator sends prompts with one API key at a time and moves to the next
// key when the current one is rate limited. Clients are built once per key.
type keyRotator struct {
	apiKeys    []string
	currentKey int
	clients    map[int]Models
	newClient  ClientFactory
	model      string
	logger     logger.Logger
}

func newKeyRotator(apiKeys []string, model string, factory ClientFactory, l logger.Logger) *keyRotator {
	if factory == nil {
		factory = newGenAIModels
	}
	return &keyRotator{
		apiKeys:   apiKeys,
		clients:   make(map[int]Models),
		newClient: factory,
		model:     model,
		logger:    l,
	}
}

func (k *keyRotator) Generate(ctx context.Context, prompt string) (string, error) {
	if len(k.apiKeys) == 0 {
		return "", fmt.Errorf("no Gemini API keys configured")
	}

	cfg := &genai.GenerateContentConfig{ResponseMIMEType: "application/json"}
	var lastErr error
	for range len(k.apiKeys) {
		models, err := k.client(ctx)
		if err != nil {
			lastErr = fmt.Errorf("create client for key %d: %w", k.currentKey+1, err)
			k.rotateKey()
			continue
		}

		result, err := models.GenerateContent(ctx, k.model, genai.Text(prompt), cfg)
		if err != nil {
			if !isRateLimited(err) {
				return "", fmt.Errorf("generate content: %w", err)
			}
			k.logger.Warn(ctx, "Key %d rate limited, rotating...", k.currentKey+1)
			lastErr = err
			k.rotateKey()
			continue
		}

		text := replyText(result)
		if text == "" {
			return "", fmt.Errorf("empty response from Gemini")
		}
		return text, nil
	}

	return "", fmt.Errorf("all API keys exhausted: %w", lastErr)
}

func (k *keyRotator) client(ctx context.Context) (Models, error) {
	if m, ok := k.clients[k.currentKey]; ok {
		return m, nil
	}
	m, err := k.newClient(ctx, k.apiKeys[k.currentKey])
	if err != nil {
		return nil, err
	}
	k.clients[k.currentKey] = m
	return m, nil
}

func (k *keyRotator) rotateKey() {
	k.currentKey = (k.currentKey + 1) % len(k.apiKeys)
}

func isRateLimited(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "429") || strings.Contains(msg, "quota") || strings.Contains(msg, "RESOURCE_EXHAUSTED")
}

// replyText concatenates the text parts of the first candidate.
func replyText(result *genai.GenerateContentResponse) string {
	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			b.WriteString(part.Text)
		}
	}
	return b.String()
}
