// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Clinvault Authors

package adapter

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
)

// ollamaBaseURL is pinned to loopback and never configurable. The security
// boundary with the model service is the host operating system; the URL pin
// prevents accidental egress.
const ollamaBaseURL = "http://127.0.0.1:11434"

// allowedModels is the compile-time model allowlist.
var allowedModels = map[string]bool{
	"qwen2.5:7b-instruct": true,
	"qwen2.5:7b":          true,
	"gemma2:9b-it":        true,
	"gemma2:9b":           true,
	"llama3.2:3b":         true,
	"mistral:7b":          true,
	"mistral:7b-instruct": true,
}

// defaultTimeout bounds requests when the caller's context carries no
// deadline.
const defaultTimeout = 60 * time.Second

// OllamaClient is the production [LLM] over the local Ollama HTTP API.
// No prompt or response content is ever logged.
type OllamaClient struct {
	client *resty.Client
}

// NewOllamaClient constructs the client against the pinned loopback URL.
// The URL is validated even though it is a constant, so a future edit that
// breaks the loopback pin fails immediately at startup.
func NewOllamaClient() (*OllamaClient, error) {
	if err := ValidateLoopbackURL(ollamaBaseURL); err != nil {
		return nil, err
	}
	client := resty.New().
		SetBaseURL(ollamaBaseURL).
		SetTimeout(defaultTimeout)
	return &OllamaClient{client: client}, nil
}

// ValidateLoopbackURL rejects any URL whose host is neither the literal
// "localhost" nor an IP address whose loopback predicate is true.
func ValidateLoopbackURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: invalid url: %w", ErrNotAvailable, err)
	}
	host := parsed.Hostname()
	if host == "" {
		return fmt.Errorf("%w: no host in url", ErrNotAvailable)
	}
	if host == "localhost" {
		return nil
	}
	if ip := net.ParseIP(host); ip != nil && ip.IsLoopback() {
		return nil
	}
	return fmt.Errorf("%w: url host must be loopback, got %s", ErrNotAvailable, host)
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Available implements [LLM].
func (o *OllamaClient) Available(ctx context.Context) bool {
	resp, err := o.client.R().SetContext(ctx).Get("/api/tags")
	return err == nil && resp.IsSuccess()
}

// Generate implements [LLM]. The caller's context deadline is honored; on
// expiry the call fails with ErrTimeout.
func (o *OllamaClient) Generate(ctx context.Context, model, prompt string) (string, error) {
	if !allowedModels[model] {
		return "", fmt.Errorf("%w: %s", ErrModelNotAllowed, model)
	}

	var out generateResponse
	resp, err := o.client.R().
		SetContext(ctx).
		SetBody(generateRequest{Model: model, Prompt: prompt, Stream: false}).
		SetResult(&out).
		Post("/api/generate")
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", ErrTimeout
		}
		return "", fmt.Errorf("%w: %w", ErrNotAvailable, err)
	}
	if !resp.IsSuccess() {
		return "", fmt.Errorf("%w: status %d", ErrNotAvailable, resp.StatusCode())
	}
	if out.Response == "" {
		return "", ErrInvalidResponse
	}
	return out.Response, nil
}

// PolishText implements [LLM]. The input is already de-identified; the
// instruction constrains the model to phrasing only.
func (o *OllamaClient) PolishText(ctx context.Context, deidentified string) (string, error) {
	prompt := "Rewrite the following de-identified clinical text for clarity and flow. " +
		"Do not add facts, names, dates, or identifiers. Keep every [REDACTED-*] token exactly as written.\n\n" +
		deidentified
	return o.Generate(ctx, "qwen2.5:7b-instruct", prompt)
}
