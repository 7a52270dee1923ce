package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"google.golang.org/genai"

	"github.com/tasky-app/tasky/internal/api"
	"github.com/tasky-app/tasky/internal/model"
)

var ErrNoTasksFound = errors.New("server: no tasks found in text")

// Extractor turns free-form text into task drafts.
type Extractor interface {
	Extract(ctx context.Context, text string) ([]api.ExtractedTask, error)
}

const extractPrompt = `Extract actionable to-do items from the text below.
Respond with a JSON object of the form {"tasks": [{"title": "...", "description": "..."}]}.
Titles must be short imperative phrases under 100 characters; put any
detail into the description. Respond with JSON only.

Text:
%s`

type GeminiExtractor struct {
	client *genai.Client
	model  string
}

func NewGeminiExtractor(ctx context.Context, apiKey, model string) (*GeminiExtractor, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("server: create gemini client: %w", err)
	}
	return &GeminiExtractor{client: client, model: model}, nil
}

func (g *GeminiExtractor) Extract(ctx context.Context, text string) ([]api.ExtractedTask, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model,
		genai.Text(fmt.Sprintf(extractPrompt, text)),
		&genai.GenerateContentConfig{ResponseMIMEType: "application/json"},
	)
	if err != nil {
		return nil, fmt.Errorf("server: gemini call: %w", err)
	}

	var parsed api.ExtractResponse
	if err := json.Unmarshal([]byte(resp.Text()), &parsed); err != nil {
		return nil, fmt.Errorf("server: parse gemini response: %w", err)
	}
	out := make([]api.ExtractedTask, 0, len(parsed.Tasks))
	for _, t := range parsed.Tasks {
		t.Title = clampTitle(strings.TrimSpace(t.Title))
		if t.Title == "" {
			continue
		}
		out = append(out, t)
	}
	if len(out) == 0 {
		return nil, ErrNoTasksFound
	}
	return out, nil
}

// heuristicExtractor is the no-API fallback: each non-empty line becomes
// a task, with bullets and numbering stripped and "title: detail" lines
// split into title and description.
type heuristicExtractor struct{}

func (heuristicExtractor) Extract(_ context.Context, text string) ([]api.ExtractedTask, error) {
	out := make([]api.ExtractedTask, 0)
	for _, line := range strings.Split(text, "\n") {
		line = stripBullet(strings.TrimSpace(line))
		if line == "" {
			continue
		}
		title, desc := line, ""
		if head, tail, found := strings.Cut(line, ": "); found && head != "" {
			title, desc = head, strings.TrimSpace(tail)
		}
		out = append(out, api.ExtractedTask{Title: clampTitle(title), Description: desc})
	}
	if len(out) == 0 {
		return nil, ErrNoTasksFound
	}
	return out, nil
}

func stripBullet(line string) string {
	for _, prefix := range []string{"- ", "* ", "• ", "+ "} {
		if rest, found := strings.CutPrefix(line, prefix); found {
			return strings.TrimSpace(rest)
		}
	}
	// Numbered lists: "1. buy milk", "12) call back".
	for i, r := range line {
		if r >= '0' && r <= '9' {
			continue
		}
		if i > 0 && (r == '.' || r == ')') {
			return strings.TrimSpace(line[i+1:])
		}
		break
	}
	return line
}

// clampTitle cuts oversized titles at the last rune boundary within the
// byte limit so multibyte input never yields invalid UTF-8.
func clampTitle(title string) string {
	if len(title) <= model.MaxTitleLen {
		return title
	}
	cut := model.MaxTitleLen
	for cut > 0 && !utf8.RuneStart(title[cut]) {
		cut--
	}
	return title[:cut]
}
