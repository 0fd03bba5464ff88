package imagegen

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/disintegration/imaging"
)

const (
	sdMaxPromptLength = 500
	sdNegativePrompt  = "blurry, low quality, distorted, ugly, bad anatomy, text, watermark"
	sdSteps           = 25
	sdGuidance        = 7.5
	sdSize            = 512
)

// StableDiffusionProvider renders on a local AUTOMATIC1111-compatible server.
type StableDiffusionProvider struct {
	BaseURL string
	Client  *http.Client
	Store   AssetSaver
}

type sdRequest struct {
	Prompt         string  `json:"prompt"`
	NegativePrompt string  `json:"negative_prompt"`
	Steps          int     `json:"steps"`
	CFGScale       float64 `json:"cfg_scale"`
	Width          int     `json:"width"`
	Height         int     `json:"height"`
	BatchSize      int     `json:"batch_size"`
}

type sdResponse struct {
	Images []string `json:"images"`
}

func (p *StableDiffusionProvider) Name() string { return "stablediffusion" }

func (p *StableDiffusionProvider) Available() bool {
	return strings.TrimSpace(p.BaseURL) != "" && p.Store != nil
}

func (p *StableDiffusionProvider) Generate(ctx context.Context, prompt string, cocktailID uint) Result {
	if !p.Available() {
		return unavailable(p.Name())
	}

	if utf8.RuneCountInString(prompt) > sdMaxPromptLength {
		prompt = string([]rune(prompt)[:sdMaxPromptLength])
	}

	payload, err := json.Marshal(sdRequest{
		Prompt:         prompt,
		NegativePrompt: sdNegativePrompt,
		Steps:          sdSteps,
		CFGScale:       sdGuidance,
		Width:          sdSize,
		Height:         sdSize,
		BatchSize:      1,
	})
	if err != nil {
		return failed(ReasonResponse, "failed to marshal request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(p.BaseURL, "/")+"/sdapi/v1/txt2img", bytes.NewReader(payload))
	if err != nil {
		return failed(ReasonResponse, "failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

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

	var sdResp sdResponse
	if err := json.Unmarshal(bodyBytes, &sdResp); err != nil {
		return failed(ReasonResponse, "failed to decode response: %v", err)
	}
	if len(sdResp.Images) == 0 || sdResp.Images[0] == "" {
		return failed(ReasonResponse, "no image in response")
	}

	encoded := sdResp.Images[0]
	// Some builds prefix the payload with a data URI header.
	if i := strings.Index(encoded, ","); i >= 0 && strings.HasPrefix(encoded, "data:") {
		encoded = encoded[i+1:]
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return failed(ReasonResponse, "invalid base64 image: %v", err)
	}

	img, err := imaging.Decode(bytes.NewReader(raw))
	if err != nil {
		return failed(ReasonResponse, "undecodable image: %v", err)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return failed(ReasonResponse, "failed to encode image: %v", err)
	}

	ref, err := p.Store.Save(ctx, assetName("local", cocktailID, ".png"), buf.Bytes(), "image/png")
	if err != nil {
		return failed(ReasonResponse, "failed to store image: %v", err)
	}
	return succeeded(ref)
}
