package imagegen

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
)

// AssetSaver persists generated image bytes and returns a reference that can
// be stored and served without the provider.
type AssetSaver interface {
	Save(ctx context.Context, name string, data []byte, contentType string) (string, error)
}

// MistralProvider generates images through the Mistral Agents API: it creates
// an agent with the image_generation tool, asks it for an image, then downloads
// the produced file and stores it locally.
type MistralProvider struct {
	APIKey  string
	BaseURL string
	Model   string
	Client  *http.Client
	Store   AssetSaver
}

type mistralAgentRequest struct {
	Model          string                 `json:"model"`
	Name           string                 `json:"name"`
	Description    string                 `json:"description"`
	Instructions   string                 `json:"instructions"`
	Tools          []map[string]string    `json:"tools"`
	CompletionArgs map[string]interface{} `json:"completion_args"`
}

type mistralConversationRequest struct {
	AgentID string `json:"agent_id"`
	Inputs  string `json:"inputs"`
}

type mistralConversationResponse struct {
	Outputs []struct {
		Type    string `json:"type"`
		Content []struct {
			Type   string `json:"type"`
			Tool   string `json:"tool"`
			FileID string `json:"file_id"`
		} `json:"content"`
	} `json:"outputs"`
}

func (p *MistralProvider) Name() string { return "mistral" }

func (p *MistralProvider) Available() bool {
	return credentialPresent(p.APIKey) && p.Store != nil
}

func (p *MistralProvider) Generate(ctx context.Context, prompt string, cocktailID uint) Result {
	if !p.Available() {
		return unavailable(p.Name())
	}
	if strings.TrimSpace(prompt) == "" {
		return failed(ReasonResponse, "empty prompt")
	}

	agent := mistralAgentRequest{
		Model:        p.Model,
		Name:         "Image Generation Agent",
		Description:  "Agent used to generate cocktail pictures.",
		Instructions: "Use the image generation tool to create cocktail pictures from the descriptions you receive.",
		Tools:        []map[string]string{{"type": "image_generation"}},
		CompletionArgs: map[string]interface{}{
			"temperature": 0.3,
			"top_p":       0.95,
		},
	}
	var agentResp struct {
		ID string `json:"id"`
	}
	if res, ok := p.postJSON(ctx, "/agents", agent, &agentResp); !ok {
		return res
	}
	if agentResp.ID == "" {
		return failed(ReasonResponse, "agent id missing from response")
	}

	conversation := mistralConversationRequest{
		AgentID: agentResp.ID,
		Inputs:  "Generate a cocktail picture based on this description: " + prompt,
	}
	var convResp mistralConversationResponse
	if res, ok := p.postJSON(ctx, "/conversations", conversation, &convResp); !ok {
		return res
	}

	fileID := ""
	for _, output := range convResp.Outputs {
		if output.Type != "message.output" {
			continue
		}
		for _, chunk := range output.Content {
			if chunk.Type == "tool_file" && chunk.Tool == "image_generation" && chunk.FileID != "" {
				fileID = chunk.FileID
				break
			}
		}
		if fileID != "" {
			break
		}
	}
	if fileID == "" {
		return failed(ReasonResponse, "no generated file in conversation outputs")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url("/files/"+fileID+"/download"), nil)
	if err != nil {
		return failed(ReasonResponse, "failed to create download request: %v", err)
	}
	p.authorize(req)
	resp, err := p.Client.Do(req)
	if err != nil {
		return transportFailure(err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return transportFailure(err)
	}
	if resp.StatusCode != http.StatusOK {
		return statusFailure(resp.StatusCode, data)
	}
	if len(data) == 0 {
		return failed(ReasonResponse, "downloaded file is empty")
	}

	ref, err := p.Store.Save(ctx, assetName(p.Name(), cocktailID, ".png"), data, "image/png")
	if err != nil {
		return failed(ReasonResponse, "failed to store image: %v", err)
	}
	return succeeded(ref)
}

// postJSON sends body and decodes a 200/201 answer into out. ok is false when
// res holds a failure.
func (p *MistralProvider) postJSON(ctx context.Context, path string, body interface{}, out interface{}) (res Result, ok bool) {
	payload, err := json.Marshal(body)
	if err != nil {
		return failed(ReasonResponse, "failed to marshal request: %v", err), false
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url(path), bytes.NewReader(payload))
	if err != nil {
		return failed(ReasonResponse, "failed to create request: %v", err), false
	}
	p.authorize(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.Client.Do(req)
	if err != nil {
		return transportFailure(err), false
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return transportFailure(err), false
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return statusFailure(resp.StatusCode, bodyBytes), false
	}
	if err := json.Unmarshal(bodyBytes, out); err != nil {
		return failed(ReasonResponse, "failed to decode %s response: %v", path, err), false
	}
	return Result{}, true
}

func (p *MistralProvider) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+p.APIKey)
	req.Header.Set("Accept", "application/json")
}

func (p *MistralProvider) url(path string) string {
	return strings.TrimRight(p.BaseURL, "/") + path
}
