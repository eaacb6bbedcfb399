package fixer

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// promptMaxLines bounds how much file content is sent to the model.
const promptMaxLines = 200

const fixPromptTemplate = `You are a senior Python engineer. Your job is to produce the MINIMAL fix for a specific bug.

## Repository Context
File: %s
Bug Type: %s
Error Message:
%s

## Current File Content (first %d lines)
` + "```python\n%s\n```" + `

## Instructions
1. Identify the EXACT line(s) causing the error.
2. Return ONLY the corrected file content - no explanation, no markdown, no extra text.
3. Make the smallest possible change. Do NOT refactor.
4. If the bug is an unused import, delete that import line ONLY.
5. If it's a missing module, add the correct import at the top.
6. If it's an indentation error, fix only those lines.
7. Output must be valid Python.

Return ONLY the complete corrected file content.`

var fenceRe = regexp.MustCompile("(?m)^```(?:python)?\n?")

// completionClient is the slice of the OpenAI client the strategy needs.
type completionClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// GenerativeStrategy asks an external model for the corrected file and
// accepts the reply verbatim (minus markdown fences).
type GenerativeStrategy struct {
	client completionClient
	model  string
	log    *slog.Logger
}

// NewGenerativeStrategy creates a strategy backed by the OpenAI API.
func NewGenerativeStrategy(apiKey, model string, log *slog.Logger) *GenerativeStrategy {
	return &GenerativeStrategy{
		client: openai.NewClient(apiKey),
		model:  model,
		log:    log,
	}
}

// Name implements Strategy.
func (s *GenerativeStrategy) Name() string { return "generative" }

// ProduceCandidate implements Strategy. Any API failure degrades to "no
// candidate" so the pipeline falls through to the heuristic strategy.
func (s *GenerativeStrategy) ProduceCandidate(ctx context.Context, req CandidateRequest) (string, error) {
	lines := strings.Split(req.Content, "\n")
	if len(lines) > promptMaxLines {
		lines = lines[:promptMaxLines]
	}
	truncated := strings.Join(lines, "\n")

	message := req.Message
	if len(message) > 500 {
		message = message[:500]
	}

	prompt := fmt.Sprintf(fixPromptTemplate, req.RelPath, req.Category, message, promptMaxLines, truncated)

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: "You fix Python code bugs with minimal diffs."},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		s.log.Error("fix generation call failed", "file", req.RelPath, "error", err)
		return "", nil
	}
	if len(resp.Choices) == 0 {
		s.log.Warn("fix generation returned no choices", "file", req.RelPath)
		return "", nil
	}

	fixed := fenceRe.ReplaceAllString(resp.Choices[0].Message.Content, "")
	fixed = strings.TrimSpace(fixed)
	if fixed == "" {
		return "", nil
	}
	return fixed + "\n", nil
}
