package agent

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/asynkron/termbench/internal/provider"
)

const (
	summaryPrefix      = "[summary]"
	summarySnippetSize = 160
)

// ContextBudget tracks the token budget a message history is compacted
// against, adapted from the teacher's context_budget.go to the model-id
// keys this module's providers actually serve.
type ContextBudget struct {
	MaxTokens          int
	CompactWhenPercent float64
}

func (b ContextBudget) normalizedPercent() float64 {
	percent := b.CompactWhenPercent
	if percent > 1 {
		percent /= 100
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 1 {
		percent = 1
	}
	return percent
}

func (b ContextBudget) triggerTokens() int {
	if b.MaxTokens <= 0 {
		return 0
	}
	percent := b.normalizedPercent()
	if percent <= 0 {
		return 0
	}
	threshold := int(math.Ceil(percent * float64(b.MaxTokens)))
	if threshold < 1 {
		threshold = 1
	}
	if threshold > b.MaxTokens {
		threshold = b.MaxTokens
	}
	return threshold
}

// DefaultModelContextBudgets gives sane budgets for the models this module
// ships adapters for.
var DefaultModelContextBudgets = map[string]ContextBudget{
	"claude-sonnet-4-5-20250929": {MaxTokens: 200000, CompactWhenPercent: 0.85},
	"claude-opus-4-1-20250805":   {MaxTokens: 200000, CompactWhenPercent: 0.85},
	"gpt-4.1":                    {MaxTokens: 128000, CompactWhenPercent: 0.85},
	"gpt-4o":                     {MaxTokens: 128000, CompactWhenPercent: 0.85},
}

// CompactIfNeeded estimates token usage for history and, if it crosses
// budget's trigger threshold, summarizes the oldest eligible messages in
// place until usage drops below the limit or no further progress is
// possible. Returns the (possibly unmodified) history and the number of
// messages it summarized.
func CompactIfNeeded(history []provider.Message, budget ContextBudget) ([]provider.Message, int) {
	limit := budget.triggerTokens()
	if limit <= 0 {
		return history, 0
	}

	total, per := estimateHistoryTokens(history)
	if total <= limit {
		return history, 0
	}

	const maxIterations = 10
	summarized := make([]bool, len(history))
	compactedCount := 0

	for iteration := 0; iteration < maxIterations && total > limit; iteration++ {
		changed := false
		for i := range history {
			if total <= limit {
				break
			}
			if summarized[i] {
				continue
			}
			summary := synthesizeSummary(history[i])
			summaryTokens := estimateMessageTokens(summary)

			total -= per[i]
			per[i] = summaryTokens
			total += summaryTokens

			history[i] = summary
			summarized[i] = true
			compactedCount++
			changed = true
		}
		if !changed {
			break
		}
	}

	return history, compactedCount
}

func estimateHistoryTokens(history []provider.Message) (int, []int) {
	per := make([]int, len(history))
	var sum int
	for i, m := range history {
		tokens := estimateMessageTokens(m)
		per[i] = tokens
		sum += tokens
	}
	return sum, per
}

func estimateMessageTokens(m provider.Message) int {
	const baseOverhead = 4
	total := baseOverhead + estimateStringTokens(string(m.Role))
	for _, b := range m.Content {
		total += baseOverhead
		total += estimateStringTokens(b.Text)
		total += estimateStringTokens(b.ToolName)
		total += estimateStringTokens(string(b.ToolInput))
		total += estimateStringTokens(b.ToolResult)
	}
	return total
}

func estimateStringTokens(value string) int {
	if value == "" {
		return 0
	}
	runes := utf8.RuneCountInString(value)
	tokens := int(math.Ceil(float64(runes) / 4))
	if tokens < 1 {
		tokens = 1
	}
	return tokens
}

func synthesizeSummary(m provider.Message) provider.Message {
	var text strings.Builder
	for _, b := range m.Content {
		switch b.Kind {
		case provider.BlockText:
			text.WriteString(b.Text)
		case provider.BlockToolResult:
			text.WriteString(b.ToolResult)
		case provider.BlockToolUse:
			fmt.Fprintf(&text, "[called %s]", b.ToolName)
		}
	}
	snippet := compactSnippet(text.String())
	label := strings.ToLower(string(m.Role))
	content := fmt.Sprintf("%s %s recap: %s", summaryPrefix, label, snippet)
	if snippet == "" {
		content = fmt.Sprintf("%s conversation context compressed.", summaryPrefix)
	}
	return provider.Message{Role: m.Role, Content: []provider.ContentBlock{provider.TextBlock(content)}}
}

func compactSnippet(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return ""
	}
	trimmed = strings.Join(strings.Fields(trimmed), " ")
	runes := []rune(trimmed)
	if len(runes) <= summarySnippetSize {
		return trimmed
	}
	return string(runes[:summarySnippetSize]) + "…"
}
