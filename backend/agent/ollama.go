// Copyright (C) 2025 efchat.net <tj@efchat.net>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package agent

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultOllamaURL   = "http://localhost:11434"
	DefaultModel       = "llama3.2"
	DefaultTimeout     = 60 * time.Second
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 2048

	healthTimeout = 5 * time.Second
)

// OllamaConfig configures an OllamaClient. A nil Temperature selects
// DefaultTemperature; zero is a valid setting.
type OllamaConfig struct {
	BaseURL     string
	Model       string
	Timeout     time.Duration
	Temperature *float64
	MaxTokens   int
	HTTPClient  *http.Client
}

// OllamaClient talks to an Ollama server on the clinic network.
type OllamaClient struct {
	baseURL     string
	model       string
	timeout     time.Duration
	temperature float64
	maxTokens   int
	http        *http.Client
	logger      *slog.Logger
}

var _ StreamingBridge = (*OllamaClient)(nil)

func NewOllamaClient(cfg OllamaConfig) *OllamaClient {
	c := &OllamaClient{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		model:       cfg.Model,
		timeout:     cfg.Timeout,
		temperature: DefaultTemperature,
		maxTokens:   cfg.MaxTokens,
		http:        cfg.HTTPClient,
		logger:      slog.Default(),
	}
	if c.baseURL == "" {
		c.baseURL = DefaultOllamaURL
	}
	if c.model == "" {
		c.model = DefaultModel
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if cfg.Temperature != nil {
		c.temperature = *cfg.Temperature
	}
	if c.maxTokens <= 0 {
		c.maxTokens = DefaultMaxTokens
	}
	if c.http == nil {
		c.http = &http.Client{}
	}
	return c
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

type ollamaChatRequest struct {
	Model    string        `json:"model"`
	Messages []Turn        `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  ollamaOptions `json:"options"`
}

type ollamaChatResponse struct {
	Model   string `json:"model"`
	Message *Turn  `json:"message"`
	Done    bool   `json:"done"`
	Error   string `json:"error,omitempty"`
}

func (c *OllamaClient) chatRequest(req Request, stream bool) ollamaChatRequest {
	messages := make([]Turn, 0, len(req.PriorTurns)+2)
	if req.SystemPrompt != "" {
		messages = append(messages, Turn{Role: RoleSystem, Content: req.SystemPrompt})
	}
	messages = append(messages, req.PriorTurns...)
	messages = append(messages, Turn{Role: RoleUser, Content: req.Message})

	out := ollamaChatRequest{
		Model:    c.model,
		Messages: messages,
		Stream:   stream,
		Options:  ollamaOptions{Temperature: c.temperature, NumPredict: c.maxTokens},
	}
	if req.Model != "" {
		out.Model = req.Model
	}
	if req.Temperature != nil {
		out.Options.Temperature = *req.Temperature
	}
	if req.MaxTokens != nil {
		out.Options.NumPredict = *req.MaxTokens
	}
	return out
}

func (c *OllamaClient) post(ctx context.Context, path string, body any) (*http.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("ollama: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(text)))
	}
	return resp, nil
}

// Complete sends the conversation and waits for the whole reply, bounded
// by the configured timeout.
func (c *OllamaClient) Complete(ctx context.Context, req Request) (*Reply, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.post(ctx, "/api/chat", c.chatRequest(req, false))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("ollama: %s", out.Error)
	}
	if out.Message == nil || strings.TrimSpace(out.Message.Content) == "" {
		return nil, ErrMalformedResponse
	}

	return &Reply{
		Text:     out.Message.Content,
		Model:    out.Model,
		Duration: time.Since(start),
	}, nil
}

// Stream starts a streaming chat. The timeout covers the whole stream;
// closing the stream abandons the request.
func (c *OllamaClient) Stream(ctx context.Context, req Request) (*ChunkStream, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)

	resp, err := c.post(ctx, "/api/chat", c.chatRequest(req, true))
	if err != nil {
		cancel()
		return nil, err
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	next := func() (Chunk, error) {
		for scanner.Scan() {
			line := bytes.TrimSpace(scanner.Bytes())
			if len(line) == 0 {
				continue
			}
			var event ollamaChatResponse
			if err := json.Unmarshal(line, &event); err != nil {
				c.logger.Debug("Skipping malformed stream line", "error", err)
				continue
			}
			if event.Error != "" {
				return Chunk{}, fmt.Errorf("ollama: %s", event.Error)
			}
			chunk := Chunk{Done: event.Done}
			if event.Message != nil {
				chunk.Text = event.Message.Content
			}
			return chunk, nil
		}
		if err := scanner.Err(); err != nil {
			return Chunk{}, err
		}
		return Chunk{}, io.EOF
	}

	return NewChunkStream(next, closerFunc(func() error {
		cancel()
		return resp.Body.Close()
	})), nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

type ModelDetails struct {
	Format            string `json:"format"`
	Family            string `json:"family"`
	ParameterSize     string `json:"parameter_size"`
	QuantizationLevel string `json:"quantization_level"`
}

type ModelInfo struct {
	Name       string        `json:"name"`
	ModifiedAt string        `json:"modified_at"`
	Size       int64         `json:"size"`
	Digest     string        `json:"digest"`
	Details    *ModelDetails `json:"details,omitempty"`
}

type HealthStatus struct {
	Available bool     `json:"available"`
	Models    []string `json:"models,omitempty"`
	Error     string   `json:"error,omitempty"`
}

// Models lists the models installed on the server.
func (c *OllamaClient) Models(ctx context.Context) ([]ModelInfo, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama: HTTP %d", resp.StatusCode)
	}

	var out struct {
		Models []ModelInfo `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return out.Models, nil
}

// Health probes the server. It never returns an error; failures are
// reported in the status.
func (c *OllamaClient) Health(ctx context.Context) HealthStatus {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	models, err := c.Models(ctx)
	if err != nil {
		c.logger.Warn("Ollama health check failed", "error", err)
		return HealthStatus{Error: err.Error()}
	}

	names := make([]string, 0, len(models))
	for _, m := range models {
		names = append(names, m.Name)
	}
	return HealthStatus{Available: true, Models: names}
}
