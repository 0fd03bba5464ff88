package imagegen

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type mockProvider struct {
	name      string
	available bool
	result    Result
	hang      bool
	panics    bool

	mu      sync.Mutex
	calls   int
	prompts []string
}

func (m *mockProvider) Name() string    { return m.name }
func (m *mockProvider) Available() bool { return m.available }

func (m *mockProvider) Generate(ctx context.Context, prompt string, cocktailID uint) Result {
	m.mu.Lock()
	m.calls++
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	if m.panics {
		panic("boom")
	}
	if m.hang {
		// Ignores ctx on purpose.
		time.Sleep(time.Second)
	}
	return m.result
}

func (m *mockProvider) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

var testCocktail = Cocktail{
	ID:          42,
	Name:        "Soleil Couchant",
	Ingredients: []string{"4 cl rhum blanc", "jus d'ananas"},
	Description: "tropical sunset",
}

func TestGenerateImage_FallsThroughToLocal(t *testing.T) {
	cloudA := &mockProvider{name: "cloudA", available: false}
	cloudB := &mockProvider{name: "cloudB", available: true, result: failed(ReasonTransport, "connection refused")}
	localC := &mockProvider{name: "localC", available: true, result: succeeded("/img/42.png")}

	o := NewOrchestrator([]Provider{cloudA, cloudB, localC}, "/images/default.webp", time.Second, zap.NewNop())
	out := o.GenerateImage(context.Background(), testCocktail)

	assert.Equal(t, "/img/42.png", out.Ref)
	assert.Equal(t, "localC", out.Provider)
	assert.False(t, out.Default)

	assert.Equal(t, 0, cloudA.callCount())
	assert.Equal(t, 1, cloudB.callCount())
	assert.Equal(t, 1, localC.callCount())

	assert.Len(t, out.Attempts, 3)
	assert.Equal(t, ReasonUnavailable, out.Attempts[0].Reason)
	assert.Equal(t, ReasonTransport, out.Attempts[1].Reason)
	assert.True(t, out.Attempts[2].Success)

	// The prompt is built once and shared by every provider.
	expected := BuildPrompt(testCocktail)
	assert.Equal(t, []string{expected}, cloudB.prompts)
	assert.Equal(t, []string{expected}, localC.prompts)
}

func TestGenerateImage_StopsAtFirstSuccess(t *testing.T) {
	first := &mockProvider{name: "first", available: true, result: succeeded("https://cdn/1.png")}
	second := &mockProvider{name: "second", available: true, result: succeeded("https://cdn/2.png")}

	o := NewOrchestrator([]Provider{first, second}, "/default.webp", time.Second, zap.NewNop())
	out := o.GenerateImage(context.Background(), testCocktail)

	assert.Equal(t, "https://cdn/1.png", out.Ref)
	assert.Equal(t, 0, second.callCount())
	assert.Len(t, out.Attempts, 1)
}

func TestGenerateImage_EmptyChain(t *testing.T) {
	o := NewOrchestrator(nil, "/images/default.webp", time.Second, zap.NewNop())
	out := o.GenerateImage(context.Background(), testCocktail)

	assert.Equal(t, "/images/default.webp", out.Ref)
	assert.True(t, out.Default)
	assert.Empty(t, out.Provider)
	assert.Empty(t, out.Attempts)
}

func TestGenerateImage_AllFail(t *testing.T) {
	providers := []Provider{
		&mockProvider{name: "a", available: true, result: failed(ReasonQuota, "status 401")},
		&mockProvider{name: "b", available: true, result: failed(ReasonResponse, "no image")},
		&mockProvider{name: "c", available: true, panics: true},
		&mockProvider{name: "d", available: true, result: Result{Success: true}},
	}

	o := NewOrchestrator(providers, "/images/default.webp", time.Second, zap.NewNop())
	out := o.GenerateImage(context.Background(), testCocktail)

	assert.True(t, out.Default)
	assert.Equal(t, "/images/default.webp", out.Ref)
	assert.Len(t, out.Attempts, 4)
	assert.Equal(t, ReasonQuota, out.Attempts[0].Reason)
	assert.Equal(t, ReasonResponse, out.Attempts[1].Reason)
	assert.Equal(t, ReasonResponse, out.Attempts[2].Reason)
	assert.Contains(t, out.Attempts[2].Detail, "panicked")
	// Success without a reference counts as malformed.
	assert.False(t, out.Attempts[3].Success)
	assert.Equal(t, ReasonResponse, out.Attempts[3].Reason)
}

func TestGenerateImage_LatencyBound(t *testing.T) {
	timeout := 50 * time.Millisecond
	providers := []Provider{
		&mockProvider{name: "slow1", available: true, hang: true, result: succeeded("/late1.png")},
		&mockProvider{name: "slow2", available: true, hang: true, result: succeeded("/late2.png")},
	}

	o := NewOrchestrator(providers, "/images/default.webp", timeout, zap.NewNop())

	start := time.Now()
	out := o.GenerateImage(context.Background(), testCocktail)
	elapsed := time.Since(start)

	assert.True(t, out.Default)
	assert.Less(t, elapsed, 2*timeout+200*time.Millisecond)
	for _, a := range out.Attempts {
		assert.Equal(t, ReasonTransport, a.Reason)
	}
}

func TestGenerateImage_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := &mockProvider{name: "a", available: true, result: succeeded("/a.png")}
	o := NewOrchestrator([]Provider{p}, "/images/default.webp", time.Second, zap.NewNop())
	out := o.GenerateImage(ctx, testCocktail)

	assert.True(t, out.Default)
	assert.Equal(t, 0, p.callCount())
	assert.Len(t, out.Attempts, 1)
	assert.Equal(t, ReasonSkipped, out.Attempts[0].Reason)
}

func TestStatus(t *testing.T) {
	providers := []Provider{
		&mockProvider{name: "mistral", available: false},
		&mockProvider{name: "stablediffusion", available: true},
	}
	o := NewOrchestrator(providers, "/d.webp", 30*time.Second, nil)

	assert.Equal(t, []ProviderStatus{
		{Name: "mistral", Priority: 1, Available: false},
		{Name: "stablediffusion", Priority: 2, Available: true},
	}, o.Status())
	assert.Equal(t, 30*time.Second, o.Timeout())
	assert.Equal(t, "/d.webp", o.DefaultRef())
}

func TestResultErr(t *testing.T) {
	assert.NoError(t, succeeded("/x.png").Err())
	assert.ErrorIs(t, failed(ReasonQuota, "status 429").Err(), ErrQuota)
	assert.ErrorIs(t, failed(ReasonTransport, "timeout").Err(), ErrTransport)
	assert.ErrorIs(t, unavailable("openai").Err(), ErrUnavailable)
	assert.ErrorIs(t, failed(ReasonResponse, "bad json").Err(), ErrResponse)
}

func TestCredentialPresent(t *testing.T) {
	tests := []struct {
		value    string
		expected bool
	}{
		{"", false},
		{"   ", false},
		{"your_mistral_api_key", false},
		{"CHANGEME", false},
		{"<token>", false},
		{"sk-live-123", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, credentialPresent(tt.value), tt.value)
	}
}
