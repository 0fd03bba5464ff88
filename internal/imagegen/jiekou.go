package imagegen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// JiekouProvider drives a jiekou.ai style asynchronous task API: the prompt is
// submitted, then the task is polled until it reaches a terminal status or the
// context deadline passes. The result URL is returned as-is.
type JiekouProvider struct {
	APIKey           string
	SubmitURL        string
	QueryURLTemplate string
	PollInterval     time.Duration
	Client           *http.Client
}

func (p *JiekouProvider) Name() string { return "jiekou" }

func (p *JiekouProvider) Available() bool {
	return credentialPresent(p.APIKey) && p.SubmitURL != ""
}

func (p *JiekouProvider) Generate(ctx context.Context, prompt string, cocktailID uint) Result {
	if !p.Available() {
		return unavailable(p.Name())
	}

	payload, err := json.Marshal(map[string]interface{}{
		"prompt":    prompt,
		"image_num": 1,
		"width":     1024,
		"height":    1024,
	})
	if err != nil {
		return failed(ReasonResponse, "failed to marshal request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.SubmitURL, bytes.NewReader(payload))
	if err != nil {
		return failed(ReasonResponse, "failed to create request: %v", err)
	}
	p.authorize(req)

	respData, res, ok := p.doJSON(req)
	if !ok {
		return res
	}

	remoteTaskID := extractTaskID(respData)
	if remoteTaskID == "" {
		return failed(ReasonResponse, "could not find task_id in response")
	}

	queryURL := ""
	if d, ok := respData["data"].(map[string]interface{}); ok {
		queryURL, _ = d["query_url"].(string)
	}
	if queryURL == "" {
		queryURL = p.QueryURLTemplate
		if strings.Contains(queryURL, "%s") {
			queryURL = fmt.Sprintf(queryURL, remoteTaskID)
		}
	}
	if queryURL == "" {
		return failed(ReasonResponse, "no query_url for task %s and no query URL template configured", remoteTaskID)
	}

	interval := p.PollInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return failed(ReasonTransport, "task %s still running: %v", remoteTaskID, ctx.Err())
		case <-ticker.C:
			statusReq, err := http.NewRequestWithContext(ctx, http.MethodGet, queryURL, nil)
			if err != nil {
				return failed(ReasonResponse, "failed to create status request: %v", err)
			}
			p.authorize(statusReq)

			statusData, res, ok := p.doJSON(statusReq)
			if !ok {
				return res
			}

			taskInfo := statusData
			if t, ok := statusData["task"].(map[string]interface{}); ok {
				taskInfo = t
			} else if d, ok := statusData["data"].(map[string]interface{}); ok {
				taskInfo = d
			}

			statusVal, _ := taskInfo["status"].(string)
			switch strings.ToUpper(statusVal) {
			case "TASK_STATUS_SUCCEED", "SUCCESS", "COMPLETED", "SUCCEEDED":
				if url := extractImageURL(statusData, taskInfo); url != "" {
					return succeeded(url)
				}
				return failed(ReasonResponse, "task %s completed without an image url", remoteTaskID)
			case "TASK_STATUS_FAILED", "FAILED", "ERROR":
				reason, _ := taskInfo["reason"].(string)
				return failed(ReasonResponse, "remote task failed: %s (status: %s)", reason, statusVal)
			}
		}
	}
}

// doJSON executes req and decodes a JSON object. ok is false when res holds a
// failure.
func (p *JiekouProvider) doJSON(req *http.Request) (data map[string]interface{}, res Result, ok bool) {
	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, transportFailure(err), false
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportFailure(err), false
	}
	if resp.StatusCode >= 400 {
		return nil, statusFailure(resp.StatusCode, bodyBytes), false
	}
	if err := json.Unmarshal(bodyBytes, &data); err != nil {
		return nil, failed(ReasonResponse, "failed to decode response: %v", err), false
	}
	return data, Result{}, true
}

func (p *JiekouProvider) authorize(req *http.Request) {
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", p.APIKey))
	req.Header.Set("Content-Type", "application/json")
}

func extractTaskID(respData map[string]interface{}) string {
	candidates := []map[string]interface{}{respData}
	if d, ok := respData["data"].(map[string]interface{}); ok {
		candidates = []map[string]interface{}{d, respData}
	}
	for _, m := range candidates {
		for _, key := range []string{"id", "task_id"} {
			switch id := m[key].(type) {
			case string:
				if id != "" {
					return id
				}
			case float64:
				return fmt.Sprintf("%.0f", id)
			}
		}
	}
	if idStr, ok := respData["data"].(string); ok {
		return idStr
	}
	return ""
}

func extractImageURL(statusData, taskInfo map[string]interface{}) string {
	if images, ok := statusData["images"].([]interface{}); ok && len(images) > 0 {
		if img, ok := images[0].(map[string]interface{}); ok {
			if url, ok := img["image_url"].(string); ok && url != "" {
				return url
			}
		}
	}
	for _, key := range []string{"url", "image_url", "file_url", "result_url", "output"} {
		if url, ok := taskInfo[key].(string); ok && url != "" {
			return url
		}
	}
	return ""
}
