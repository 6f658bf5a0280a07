package index

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/tmc/langchaingo/llms"

	"github.com/dharsanguruparan/RagDrop/internal/model"
	"github.com/dharsanguruparan/RagDrop/internal/ports"
)

const (
	// ExcerptLimit is how much document text the summary prompt carries.
	ExcerptLimit = 5000

	NoSummary     = "No summary available"
	SummaryFailed = "Summary generation failed"
)

const summaryPrompt = `Analyze this document and provide:
1. A concise 3-line summary (max %d characters)
2. 2-6 relevant keywords

Document name: %s

Document content:
%s

Format your response as:
SUMMARY: [your summary here]
KEYWORDS: [keyword1, keyword2, keyword3, ...]
`

// Summarize asks the summary model for a short summary and keywords. It never
// fails: errors and empty output yield a placeholder with Failed set.
func (g *Gateway) Summarize(ctx context.Context, excerpt, displayName string) ports.Summary {
	if g.summarizer == nil {
		return failedSummary(SummaryFailed)
	}
	prompt := fmt.Sprintf(summaryPrompt, model.MaxSummaryLength, displayName, truncate(excerpt, ExcerptLimit))
	resp, err := g.summarizer.GenerateContent(ctx, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}, llms.WithTemperature(0.2))
	if err != nil {
		g.log.Warn("Summary generation failed", "name", displayName, "error", err)
		return failedSummary(SummaryFailed)
	}
	var text string
	if resp != nil && len(resp.Choices) > 0 && resp.Choices[0] != nil {
		text = resp.Choices[0].Content
	}
	if isBlank(text) {
		return failedSummary(NoSummary)
	}
	return ParseSummary(text)
}

// ParseSummary reads the SUMMARY:/KEYWORDS: lines of a model response. With no
// summary line the start of the raw text is used instead.
func ParseSummary(text string) ports.Summary {
	var (
		summary  string
		keywords = []string{}
	)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(strings.ReplaceAll(line, "**", ""))
		switch {
		case strings.HasPrefix(line, "SUMMARY:"):
			summary = strings.TrimSpace(strings.TrimPrefix(line, "SUMMARY:"))
		case strings.HasPrefix(line, "KEYWORDS:"):
			keywords = splitKeywords(strings.TrimPrefix(line, "KEYWORDS:"))
		}
	}
	if summary == "" {
		summary = strings.TrimSpace(truncate(strings.TrimSpace(text), model.MaxSummaryLength))
	}
	if len(keywords) > model.MaxKeywords {
		keywords = keywords[:model.MaxKeywords]
	}
	return ports.Summary{
		Text:     truncate(summary, model.MaxSummaryLength),
		Keywords: keywords,
	}
}

func splitKeywords(s string) []string {
	out := []string{}
	for _, k := range strings.Split(s, ",") {
		k = strings.TrimSpace(strings.Trim(strings.TrimSpace(k), "[]"))
		if k != "" {
			out = append(out, k)
		}
	}
	return out
}

func failedSummary(text string) ports.Summary {
	return ports.Summary{Text: text, Keywords: []string{}, Failed: true}
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
