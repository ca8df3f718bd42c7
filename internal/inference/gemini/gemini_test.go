package gemini

import (
	"context"
	"errors"
	"strings"
	"testing"

	"google.golang.org/genai"

	"github.com/nguyentantai21042004/recall-scorer/internal/config"
	"github.com/nguyentantai21042004/recall-scorer/internal/inference"
	"github.com/nguyentantai21042004/recall-scorer/internal/logger"
)

type cannedGenerator struct {
	reply   string
	err     error
	prompts []string
}

func (g *cannedGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	return g.reply, g.err
}

func TestParseScores(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		n       int
		want    []float64
		wantErr bool
	}{
		{name: "plain array", reply: "[3, 0, 12.5]", n: 3, want: []float64{3, 0, 12.5}},
		{name: "code fence", reply: "```json\n[1,2]\n```", n: 2, want: []float64{1, 2}},
		{name: "quoted numbers", reply: `["4", "5"]`, n: 2, want: []float64{4, 5}},
		{name: "wrong length", reply: "[1,2,3]", n: 2, wantErr: true},
		{name: "no array", reply: "I cannot score these.", n: 1, wantErr: true},
		{name: "not numbers", reply: `["a"]`, n: 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseScores(tt.reply, tt.n)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseScores() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if len(got) != len(tt.want) {
				t.Fatalf("ParseScores() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("ParseScores()[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestParseScoresShapeMismatch(t *testing.T) {
	_, err := ParseScores("[1]", 2)
	if !errors.Is(err, inference.ErrShapeMismatch) {
		t.Errorf("ParseScores() error = %v, want ErrShapeMismatch", err)
	}
}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt("internal", []string{"  I walked to school. ", "We had cake."})
	for _, want := range []string{"internal details", "[1]\nI walked to school.", "[2]\nWe had cake.", "JSON array of 2 numbers", "central event"} {
		if !strings.Contains(p, want) {
			t.Errorf("BuildPrompt() missing %q:\n%s", want, p)
		}
	}
}

func TestSession(t *testing.T) {
	gen := &cannedGenerator{reply: "[7, 2]"}
	backend := NewWithGenerator(gen, logger.Discard())

	ctx := context.Background()
	sess, err := backend.Open(ctx, inference.Dimension{Name: "external"})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer sess.Close(ctx)

	got, err := sess.Score(ctx, []string{"a", "b"})
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if len(got) != 2 || got[0] != 7 || got[1] != 2 {
		t.Errorf("Score() = %v, want [7 2]", got)
	}
	if len(gen.prompts) != 1 || !strings.Contains(gen.prompts[0], "external details") {
		t.Errorf("prompts = %v", gen.prompts)
	}

	gen.err = errors.New("boom")
	if _, err := sess.Score(ctx, []string{"a"}); err == nil {
		t.Error("Score() should surface generator errors")
	}
}

// fakeModels answers with reply or fails with err and records each call.
type fakeModels struct {
	reply string
	err   error
	calls int
	cfgs  []*genai.GenerateContentConfig
}

func (m *fakeModels) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	m.calls++
	m.cfgs = append(m.cfgs, config)
	if m.err != nil {
		return nil, m.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: genai.NewContentFromText(m.reply, genai.RoleModel)}},
	}, nil
}

func factoryFor(models map[string]*fakeModels, built map[string]int) ClientFactory {
	return func(ctx context.Context, apiKey string) (Models, error) {
		built[apiKey]++
		m, ok := models[apiKey]
		if !ok {
			return nil, errors.New("invalid key")
		}
		return m, nil
	}
}

func TestKeyRotatorWithoutKeys(t *testing.T) {
	k := newKeyRotator(nil, "gemini-2.5-flash", nil, logger.Discard())
	if _, err := k.Generate(context.Background(), "x"); err == nil {
		t.Error("Generate() without keys should fail")
	}
}

func TestKeyRotatorRotatesOnRateLimit(t *testing.T) {
	limited := &fakeModels{err: errors.New("Error 429, Message: Resource has been exhausted, Status: RESOURCE_EXHAUSTED")}
	healthy := &fakeModels{reply: "[1, 2]"}
	built := map[string]int{}
	k := newKeyRotator([]string{"key-a", "key-b"}, "gemini-2.5-flash",
		factoryFor(map[string]*fakeModels{"key-a": limited, "key-b": healthy}, built), logger.Discard())

	ctx := context.Background()
	got, err := k.Generate(ctx, "score these")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got != "[1, 2]" {
		t.Errorf("Generate() = %q, want [1, 2]", got)
	}
	if limited.calls != 1 || healthy.calls != 1 {
		t.Errorf("calls = %d/%d, want 1/1", limited.calls, healthy.calls)
	}
	if healthy.cfgs[0] == nil || healthy.cfgs[0].ResponseMIMEType != "application/json" {
		t.Errorf("config = %+v, want JSON response type", healthy.cfgs[0])
	}

	// the working key stays current and its client is reused
	if _, err := k.Generate(ctx, "again"); err != nil {
		t.Fatalf("second Generate() error = %v", err)
	}
	if limited.calls != 1 || healthy.calls != 2 {
		t.Errorf("calls after second prompt = %d/%d, want 1/2", limited.calls, healthy.calls)
	}
	if built["key-b"] != 1 {
		t.Errorf("client for key-b built %d times, want 1", built["key-b"])
	}
}

func TestKeyRotatorErrors(t *testing.T) {
	tests := []struct {
		name      string
		models    map[string]*fakeModels
		wantErr   string
		wantCalls int
	}{
		{
			name: "all keys exhausted",
			models: map[string]*fakeModels{
				"key-a": {err: errors.New("429 quota exceeded")},
				"key-b": {err: errors.New("429 quota exceeded")},
			},
			wantErr:   "all API keys exhausted",
			wantCalls: 2,
		},
		{
			name: "other errors stop at once",
			models: map[string]*fakeModels{
				"key-a": {err: errors.New("400 invalid argument")},
				"key-b": {reply: "[1]"},
			},
			wantErr:   "generate content",
			wantCalls: 1,
		},
		{
			name: "empty reply",
			models: map[string]*fakeModels{
				"key-a": {reply: ""},
				"key-b": {reply: "[1]"},
			},
			wantErr:   "empty response",
			wantCalls: 1,
		},
		{
			name: "bad key falls through",
			models: map[string]*fakeModels{
				"key-b": {err: errors.New("RESOURCE_EXHAUSTED")},
			},
			wantErr:   "all API keys exhausted",
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k := newKeyRotator([]string{"key-a", "key-b"}, "m", factoryFor(tt.models, map[string]int{}), logger.Discard())
			_, err := k.Generate(context.Background(), "x")
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Generate() error = %v, want %q", err, tt.wantErr)
			}
			calls := 0
			for _, m := range tt.models {
				calls += m.calls
			}
			if calls != tt.wantCalls {
				t.Errorf("GenerateContent calls = %d, want %d", calls, tt.wantCalls)
			}
		})
	}
}

func TestBackendWithClients(t *testing.T) {
	built := map[string]int{}
	backend := NewWithClients(config.GeminiConfig{Model: "m", APIKeys: []string{"key-a"}},
		factoryFor(map[string]*fakeModels{"key-a": {reply: "```json\n[4]\n```"}}, built), logger.Discard())

	ctx := context.Background()
	sess, err := backend.Open(ctx, inference.Dimension{Name: "internal"})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer sess.Close(ctx)

	got, err := sess.Score(ctx, []string{"one narrative"})
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if len(got) != 1 || got[0] != 4 {
		t.Errorf("Score() = %v, want [4]", got)
	}
}
