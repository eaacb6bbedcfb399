package fixer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sashabaranov/go-openai"

	"fixplane/internal/logger"
	"fixplane/internal/repair"
)

type fakeCompletion struct {
	reply  string
	err    error
	prompt string
}

func (f *fakeCompletion) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.prompt = req.Messages[len(req.Messages)-1].Content
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: f.reply}},
		},
	}, nil
}

func newTestGenerative(client completionClient) *GenerativeStrategy {
	return &GenerativeStrategy{client: client, model: "gpt-4o-mini", log: logger.New()}
}

func TestGenerative_StripsMarkdownFences(t *testing.T) {
	fake := &fakeCompletion{reply: "```python\nx = 2\n```"}
	s := newTestGenerative(fake)

	got, err := s.ProduceCandidate(context.Background(), CandidateRequest{
		RelPath:  "app.py",
		Content:  "x = 1\n",
		Category: repair.BugLogic,
		Message:  "AssertionError",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "x = 2\n" {
		t.Errorf("expected fences stripped, got %q", got)
	}
}

func TestGenerative_APIFailureYieldsNoCandidate(t *testing.T) {
	s := newTestGenerative(&fakeCompletion{err: errors.New("rate limited")})

	got, err := s.ProduceCandidate(context.Background(), CandidateRequest{
		RelPath: "app.py", Content: "x = 1\n", Category: repair.BugLogic, Message: "boom",
	})
	if err != nil {
		t.Fatalf("API failure must degrade, not error: %v", err)
	}
	if got != "" {
		t.Errorf("expected no candidate, got %q", got)
	}
}

func TestGenerative_EmptyReplyYieldsNoCandidate(t *testing.T) {
	s := newTestGenerative(&fakeCompletion{reply: "```\n\n```"})

	got, _ := s.ProduceCandidate(context.Background(), CandidateRequest{
		RelPath: "app.py", Content: "x = 1\n", Category: repair.BugLogic, Message: "boom",
	})
	if got != "" {
		t.Errorf("expected no candidate for empty reply, got %q", got)
	}
}

func TestGenerative_PromptTruncatesLongFiles(t *testing.T) {
	fake := &fakeCompletion{reply: "ok"}
	s := newTestGenerative(fake)

	var b strings.Builder
	for i := 0; i < 400; i++ {
		b.WriteString("line\n")
	}

	_, _ = s.ProduceCandidate(context.Background(), CandidateRequest{
		RelPath:  "big.py",
		Content:  b.String(),
		Category: repair.BugSyntax,
		Message:  "SyntaxError",
	})

	if count := strings.Count(fake.prompt, "line\n"); count > promptMaxLines {
		t.Errorf("expected at most %d content lines in prompt, got %d", promptMaxLines, count)
	}
	if !strings.Contains(fake.prompt, "File: big.py") {
		t.Error("expected file path in prompt")
	}
	if !strings.Contains(fake.prompt, "Bug Type: SYNTAX") {
		t.Error("expected category in prompt")
	}
}
