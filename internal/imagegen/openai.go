package imagegen

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// OpenAIProvider calls an OpenAI-compatible images/generations endpoint.
// Hosted URLs are returned as-is; inline base64 images are stored first.
type OpenAIProvider struct {
	APIKey  string
	BaseURL string
	Model   string
	Size    string
	Client  *http.Client
	Store   AssetSaver
}

type openAIImageRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	N      int    `json:"n"`
	Size   string `json:"size,omitempty"`
}

type openAIImageResponse struct {
	Data []struct {
		URL     string `json:"url"`
		B64JSON string `json:"b64_json"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (p *OpenAIProvider) Name() string { return "openai" }

func (p *OpenAIProvider) Available() bool {
	return credentialPresent(p.APIKey) && p.BaseURL != ""
}

func (p *OpenAIProvider) Generate(ctx context.Context, prompt string, cocktailID uint) Result {
	if !p.Available() {
		return unavailable(p.Name())
	}

	payload, err := json.Marshal(openAIImageRequest{
		Model:  p.Model,
		Prompt: prompt,
		N:      1,
		Size:   p.Size,
	})
	if err != nil {
		return failed(ReasonResponse, "failed to marshal request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(p.BaseURL, "/")+"/images/generations", bytes.NewReader(payload))
	if err != nil {
		return failed(ReasonResponse, "failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", p.APIKey))

	resp, err := p.Client.Do(req)
	if err != nil {
		return transportFailure(err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return transportFailure(err)
	}
	if resp.StatusCode != http.StatusOK {
		return statusFailure(resp.StatusCode, bodyBytes)
	}

	var imgResp openAIImageResponse
	if err := json.Unmarshal(bodyBytes, &imgResp); err != nil {
		return failed(ReasonResponse, "failed to decode response: %v", err)
	}
	if imgResp.Error != nil {
		return failed(ReasonResponse, "provider error: %s", imgResp.Error.Message)
	}
	if len(imgResp.Data) == 0 {
		return failed(ReasonResponse, "no image in response")
	}

	image := imgResp.Data[0]
	if strings.HasPrefix(image.URL, "http://") || strings.HasPrefix(image.URL, "https://") {
		return succeeded(image.URL)
	}
	if image.B64JSON == "" {
		return failed(ReasonResponse, "image has neither url nor b64_json")
	}
	if p.Store == nil {
		return failed(ReasonResponse, "inline image returned but no asset store configured")
	}

	data, err := base64.StdEncoding.DecodeString(image.B64JSON)
	if err != nil {
		return failed(ReasonResponse, "invalid base64 image: %v", err)
	}
	ref, err := p.Store.Save(ctx, assetName("openai", cocktailID, ".png"), data, "image/png")
	if err != nil {
		return failed(ReasonResponse, "failed to store image: %v", err)
	}
	return succeeded(ref)
}
