package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
)

// OpenAIProvider talks to any OpenAI-compatible HTTP API: chat completions in
// JSON mode, audio transcription and speech.
//
// WHY oauth2 FOR AN API KEY?
// The API takes the key as a bearer token. oauth2.StaticTokenSource plus
// oauth2.NewClient gives an *http.Client that sets the Authorization header
// on every request, so none of the request builders below handle the key.
type OpenAIProvider struct {
	client             *http.Client
	baseURL            string
	model              string
	temperature        float64
	maxTokens          int
	transcriptionModel string
	speechModel        string
	speechVoice        string
}

// OpenAIOptions configures an OpenAIProvider.
type OpenAIOptions struct {
	APIKey             string
	BaseURL            string
	Model              string
	Temperature        float64
	MaxTokens          int
	TranscriptionModel string
	SpeechModel        string
	SpeechVoice        string
}

// NewOpenAIProvider builds a provider whose HTTP client authenticates with
// opts.APIKey.
func NewOpenAIProvider(opts OpenAIOptions) *OpenAIProvider {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.APIKey, TokenType: "Bearer"})
	return &OpenAIProvider{
		client:             oauth2.NewClient(context.Background(), ts),
		baseURL:            strings.TrimRight(opts.BaseURL, "/"),
		model:              opts.Model,
		temperature:        opts.Temperature,
		maxTokens:          opts.MaxTokens,
		transcriptionModel: opts.TranscriptionModel,
		speechModel:        opts.SpeechModel,
		speechVoice:        opts.SpeechVoice,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature"`
	MaxTokens      int           `json:"max_tokens,omitempty"`
	ResponseFormat struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends one chat completion in JSON mode and returns the message
// content.
func (p *OpenAIProvider) Complete(ctx context.Context, system, prompt string) (string, error) {
	req := chatRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
		Temperature: p.temperature,
		MaxTokens:   p.maxTokens,
	}
	req.ResponseFormat.Type = "json_object"

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("openai: marshal request: %w", err)
	}

	resp, err := p.post(ctx, "/chat/completions", "application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("openai: decode chat response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("openai: chat response has no choices")
	}
	return out.Choices[0].Message.Content, nil
}

// Transcribe uploads audio as multipart form data.
func (p *OpenAIProvider) Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("model", p.transcriptionModel); err != nil {
		return "", fmt.Errorf("openai: build transcription form: %w", err)
	}
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("openai: build transcription form: %w", err)
	}
	if _, err := io.Copy(fw, audio); err != nil {
		return "", fmt.Errorf("openai: read audio: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("openai: build transcription form: %w", err)
	}

	resp, err := p.post(ctx, "/audio/transcriptions", mw.FormDataContentType(), &buf)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("openai: decode transcription: %w", err)
	}
	return out.Text, nil
}

// Speak returns the mp3 body of a speech request. The caller closes it.
func (p *OpenAIProvider) Speak(ctx context.Context, text string) (io.ReadCloser, error) {
	body, err := json.Marshal(map[string]string{
		"model":           p.speechModel,
		"voice":           p.speechVoice,
		"input":           text,
		"response_format": "mp3",
	})
	if err != nil {
		return nil, fmt.Errorf("openai: marshal speech request: %w", err)
	}

	resp, err := p.post(ctx, "/audio/speech", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// post sends a request and turns any non-2xx status into an error carrying
// the start of the response body.
func (p *OpenAIProvider) post(ctx context.Context, path, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("openai: build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai: %s: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("openai: %s: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	return resp, nil
}
