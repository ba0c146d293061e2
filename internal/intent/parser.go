package intent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/calendav/assistant-backend/internal/config"
	"github.com/calendav/assistant-backend/internal/model"
)

// Parser turns free-form user text into a structured Command by calling a
// DeepSeek-compatible chat-completions API. Upstream failures are never
// raised to the caller: they come back as an "error" action so the transport
// layer can render a user-facing message.
type Parser struct {
	logger     *zap.SugaredLogger
	httpClient *http.Client
	apiKey     string
	baseURL    string
	model      string
}

func NewParser(logger *zap.SugaredLogger) (*Parser, error) {
	if config.DeepSeekAPIKey() == "" {
		return nil, errors.New("intent: DEEPSEEK_API_KEY is not set")
	}

	return &Parser{
		logger:     logger,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		apiKey:     config.DeepSeekAPIKey(),
		baseURL:    config.DeepSeekBaseURL(),
		model:      config.DeepSeekModel(),
	}, nil
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []Message      `json:"messages"`
	Temperature    float64        `json:"temperature"`
	MaxTokens      int            `json:"max_tokens"`
	ResponseFormat *reponseFormat `json:"response_format,omitempty"`
}

type reponseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

// ParseCommand parses one natural-language calendar request.
func (p *Parser) ParseCommand(ctx context.Context, text string, cctx *Context) *Command {
	if cctx == nil {
		cctx = &Context{}
	}
	now := cctx.CurrentTime
	if now.IsZero() {
		now = time.Now()
	}

	messages := []Message{{Role: "system", Content: systemPrompt(now)}}
	messages = append(messages, cctx.History...)
	messages = append(messages, Message{Role: "user", Content: userPrompt(text, cctx)})

	content, err := p.complete(ctx, &chatRequest{
		Model:          p.model,
		Messages:       messages,
		Temperature:    0.1,
		MaxTokens:      2000,
		ResponseFormat: &reponseFormat{Type: "json_object"},
	})
	if err != nil {
		p.logger.Errorw("intent request failed", "err", err)
		return &Command{
			Action:      ActionError,
			Error:       err.Error(),
			Explanation: "could not reach the language model",
		}
	}

	cmd := &Command{}
	if err := json.Unmarshal([]byte(content), cmd); err != nil {
		p.logger.Errorw("intent response is not valid JSON", "err", err, "content", content)
		return &Command{
			Action:      ActionError,
			Error:       "response parse failed",
			Explanation: "the language model returned malformed data",
		}
	}

	p.logger.Infow("parsed command", "action", cmd.Action, "confidence", cmd.Confidence)
	return cmd
}

// Summarize produces a short natural-language summary of a listing. On any
// failure it falls back to a plain count so listings still render.
func (p *Parser) Summarize(ctx context.Context, events []*model.Event) string {
	if len(events) == 0 {
		return "No events found."
	}

	fallback := fmt.Sprintf("Found %d events.", len(events))

	content, err := p.complete(ctx, &chatRequest{
		Model: p.model,
		Messages: []Message{
			{Role: "system", Content: "You are a friendly calendar assistant. Summarize the user's events naturally and concisely."},
			{Role: "user", Content: summaryPrompt(events)},
		},
		Temperature: 0.7,
		MaxTokens:   500,
	})
	if err != nil {
		p.logger.Errorw("summary request failed", "err", err)
		return fallback
	}

	return content
}

func (p *Parser) complete(ctx context.Context, payload *chatRequest) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("call completions API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("completions API status %d: %s", resp.StatusCode, data)
	}

	parsed := &chatResponse{}
	if err := json.NewDecoder(resp.Body).Decode(parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("completions API returned no choices")
	}

	return parsed.Choices[0].Message.Content, nil
}
