package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"mixologue-backend/config"
	"mixologue-backend/internal/utils"

	"go.uber.org/zap"
)

var (
	ErrMissingAPIKey      = errors.New("MISTRAL_API_KEY is not configured")
	ErrEmptyRequest       = errors.New("cocktail request is empty")
	ErrLLMUnavailable     = errors.New("cocktail generator is unavailable")
	ErrInvalidLLMResponse = errors.New("cocktail generator returned an invalid recipe")
)

const mistralMaxAttempts = 3

const mixologistSystemPrompt = `Tu es un mixologue expert et créatif travaillant dans un bar à cocktails haut de gamme à Metz.
Ton rôle est de créer des cocktails originaux et personnalisés selon les demandes des clients.

Pour chaque demande, tu dois générer une fiche cocktail complète au format JSON strict suivant :
{
  "name": "Nom créatif et original du cocktail",
  "ingredients": [
    "Quantité précise + Ingrédient 1",
    "Quantité précise + Ingrédient 2"
  ],
  "description": "Histoire courte et engageante du cocktail (2-3 phrases max)",
  "music_ambiance": "Suggestion d'ambiance musicale adaptée au cocktail",
  "image_prompt": "Prompt détaillé en anglais pour générer une photo du cocktail"
}

Règles :
1. Le nom doit être original et évocateur.
2. Les ingrédients incluent des quantités précises (cl, ml, traits).
3. L'ambiance musicale correspond à l'esprit du cocktail.
4. Réponds UNIQUEMENT en JSON valide, sans texte supplémentaire.
5. Sois créatif mais réaliste dans les associations d'ingrédients.`

// GeneratedCocktail is the recipe returned by the LLM before it is stored.
type GeneratedCocktail struct {
	Name          string   `json:"name"`
	Ingredients   []string `json:"ingredients"`
	Description   string   `json:"description"`
	MusicAmbiance string   `json:"music_ambiance"`
	ImagePrompt   string   `json:"image_prompt"`
}

// CocktailGenerator turns a free-text request into a recipe.
type CocktailGenerator interface {
	GenerateCocktail(ctx context.Context, userRequest string) (*GeneratedCocktail, error)
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	TopP        float64       `json:"top_p"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// MistralService calls the Mistral chat-completions endpoint.
type MistralService struct {
	apiKey     string
	model      string
	baseURL    string
	client     *http.Client
	log        *zap.Logger
	retryDelay time.Duration
}

func NewMistralService(cfg *config.Config, log *zap.Logger) (*MistralService, error) {
	if strings.TrimSpace(cfg.MistralAPIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &MistralService{
		apiKey:     cfg.MistralAPIKey,
		model:      cfg.MistralModel,
		baseURL:    strings.TrimRight(cfg.MistralBaseURL, "/"),
		client:     utils.NewHTTPClient(cfg.MistralTimeout, log.Named("mistral.http")),
		log:        log,
		retryDelay: time.Second,
	}, nil
}

func (s *MistralService) Model() string { return s.model }

func (s *MistralService) GenerateCocktail(ctx context.Context, userRequest string) (*GeneratedCocktail, error) {
	userRequest = strings.TrimSpace(userRequest)
	if userRequest == "" {
		return nil, ErrEmptyRequest
	}

	s.log.Info("Generating cocktail", zap.String("request", truncateRunes(userRequest, 100)))

	content, err := s.complete(ctx, []chatMessage{
		{Role: "system", Content: mixologistSystemPrompt},
		{Role: "user", Content: fmt.Sprintf("Demande du client : %q\n\nCrée un cocktail personnalisé qui répond parfaitement à cette demande.\nRéponds uniquement avec le JSON de la fiche cocktail.", userRequest)},
	}, 0.8, 1000)
	if err != nil {
		return nil, err
	}

	cocktail, err := parseCocktail(content)
	if err != nil {
		s.log.Error("Failed to parse LLM answer", zap.Error(err), zap.String("content", truncateRunes(content, 200)))
		return nil, err
	}

	s.log.Info("Cocktail generated", zap.String("name", cocktail.Name))
	return cocktail, nil
}

// TestConnection sends a minimal prompt and reports whether the API answered.
func (s *MistralService) TestConnection(ctx context.Context) error {
	_, err := s.complete(ctx, []chatMessage{
		{Role: "user", Content: `Réponds simplement "OK" pour tester la connexion.`},
	}, 0, 5)
	return err
}

// complete runs the chat completion with up to three attempts. Transport
// errors and 429 are retried; 401 and other statuses are not.
func (s *MistralService) complete(ctx context.Context, messages []chatMessage, temperature float64, maxTokens int) (string, error) {
	payload, err := json.Marshal(chatCompletionRequest{
		Model:       s.model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
		TopP:        0.9,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= mistralMaxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return "", fmt.Errorf("%w: %v", ErrLLMUnavailable, ctx.Err())
			case <-time.After(s.retryDelay * time.Duration(attempt-1)):
			}
		}

		s.log.Debug("Calling Mistral", zap.Int("attempt", attempt), zap.Int("max_attempts", mistralMaxAttempts))
		content, retry, err := s.do(ctx, payload)
		if err == nil {
			return content, nil
		}
		lastErr = err
		if !retry {
			break
		}
		s.log.Warn("Mistral call failed, retrying", zap.Int("attempt", attempt), zap.Error(err))
	}

	s.log.Error("Mistral call failed", zap.Error(lastErr))
	return "", lastErr
}

func (s *MistralService) do(ctx context.Context, payload []byte) (content string, retry bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.apiKey))

	resp, err := s.client.Do(req)
	if err != nil {
		return "", ctx.Err() == nil, fmt.Errorf("%w: %v", ErrLLMUnavailable, err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", true, fmt.Errorf("%w: %v", ErrLLMUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", true, fmt.Errorf("%w: rate limited", ErrLLMUnavailable)
	case resp.StatusCode == http.StatusUnauthorized:
		return "", false, fmt.Errorf("%w: invalid API key", ErrLLMUnavailable)
	default:
		return "", false, fmt.Errorf("%w: status %d", ErrLLMUnavailable, resp.StatusCode)
	}

	var completion chatCompletionResponse
	if err := json.Unmarshal(bodyBytes, &completion); err != nil {
		return "", false, fmt.Errorf("%w: %v", ErrInvalidLLMResponse, err)
	}
	if len(completion.Choices) == 0 {
		return "", false, fmt.Errorf("%w: no choices", ErrInvalidLLMResponse)
	}
	return completion.Choices[0].Message.Content, false, nil
}

func parseCocktail(content string) (*GeneratedCocktail, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLLMResponse, err)
	}
	for _, field := range []string{"name", "ingredients", "description", "music_ambiance"} {
		if _, ok := raw[field]; !ok {
			return nil, fmt.Errorf("%w: missing field %s", ErrInvalidLLMResponse, field)
		}
	}

	var cocktail GeneratedCocktail
	if err := json.Unmarshal([]byte(content), &cocktail); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLLMResponse, err)
	}
	if strings.TrimSpace(cocktail.Name) == "" {
		return nil, fmt.Errorf("%w: empty name", ErrInvalidLLMResponse)
	}
	if cocktail.Ingredients == nil {
		return nil, fmt.Errorf("%w: ingredients must be a list", ErrInvalidLLMResponse)
	}
	if strings.TrimSpace(cocktail.ImagePrompt) == "" {
		cocktail.ImagePrompt = defaultImagePrompt(cocktail.Name)
	}
	return &cocktail, nil
}

func defaultImagePrompt(name string) string {
	return fmt.Sprintf("Professional photo of the %q cocktail in an elegant glass, dim bar lighting, blurred background, gastronomic style, hyper-realistic, 4K, aesthetic composition", name)
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
