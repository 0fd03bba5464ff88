package utils

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestSanitizePrompt(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		err      error
	}{
		{"plain", "  un cocktail d'été  ", "un cocktail d'été", nil},
		{"html stripped", "<b>rhum</b> et <script>alert(1)</script>menthe", "rhum et menthe", nil},
		{"too short after strip", "<i>ab</i>", "", ErrPromptTooShort},
		{"too long", strings.Repeat("é", MaxPromptLength+1), "", ErrPromptTooLong},
		{"control char", "rhum\x00menthe", "", ErrPromptForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizePrompt(tt.input)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

type sampleRequest struct {
	CocktailID uint `json:"cocktail_id" binding:"required,gt=0"`
}

func TestBindAndValidate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	RegisterJSONTagNames()

	tests := []struct {
		name          string
		body          string
		ok            bool
		expectedField string
	}{
		{"valid", `{"cocktail_id": 3}`, true, ""},
		{"missing", `{}`, false, "cocktail_id"},
		{"wrong type", `{"cocktail_id": "three"}`, false, "cocktail_id"},
		{"malformed", `{`, false, "body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request, _ = http.NewRequest(http.MethodPost, "/", bytes.NewBufferString(tt.body))
			c.Request.Header.Set("Content-Type", "application/json")

			var req sampleRequest
			assert.Equal(t, tt.ok, BindAndValidate(c, &req))
			if tt.ok {
				return
			}

			assert.Equal(t, http.StatusBadRequest, w.Code)
			var resp struct {
				Data ValidationErrorData `json:"data"`
			}
			json.Unmarshal(w.Body.Bytes(), &resp)
			assert.Equal(t, tt.expectedField, resp.Data.Errors[0].Field)
		})
	}
}

func TestLoggingTransport_RestoresBodies(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.Write(body)
	}))
	defer server.Close()

	client := NewHTTPClient(0, zap.NewNop())
	resp, err := client.Post(server.URL, "application/json", bytes.NewBufferString(`{"a":1}`))
	assert.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, `{"a":1}`, string(body))
}

func TestDescribeBody(t *testing.T) {
	assert.Equal(t, "empty", describeBody("text/plain", nil))
	assert.Contains(t, describeBody("image/png", []byte("\x89PNG\r\n\x1a\n")), "binary (image/png, 8 bytes)")
	assert.True(t, strings.HasSuffix(describeBody("text/plain", bytes.Repeat([]byte("a"), maxLoggedBody+5)), "...(truncated)"))
}
