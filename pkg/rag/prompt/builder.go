package prompt

import (
	"strings"
	"unicode/utf8"
)

const (
	// Delimiter separates retrieved chunks inside the context block.
	Delimiter = "\n\n---\n\n"

	DefaultBudget = 12000

	noContext = "(no relevant context was found)"
)

// GroundedBuilder builds the answer prompt from ranked chunks. Budget caps
// the context block in characters.
type GroundedBuilder struct {
	budget int
}

func NewGroundedBuilder(budget int) *GroundedBuilder {
	if budget <= 0 {
		budget = DefaultBudget
	}
	return &GroundedBuilder{budget: budget}
}

// Build renders the prompt. chunks must be ordered most relevant first.
// It returns the prompt and how many chunks made it into the context.
func (b *GroundedBuilder) Build(query string, chunks []string) (string, int) {
	context, used := b.fitContext(chunks)

	var prompt strings.Builder
	b.writeTask(&prompt)
	b.writeContext(&prompt, context)
	b.writeUserQuery(&prompt, query)
	return prompt.String(), used
}

// fitContext keeps chunks in rank order until the budget runs out. The first
// chunk that does not fit is cut to the remaining room; everything ranked
// after it is dropped.
func (b *GroundedBuilder) fitContext(chunks []string) (string, int) {
	var parts []string
	remaining := b.budget
	delim := utf8.RuneCountInString(Delimiter)

	for _, chunk := range chunks {
		if len(parts) > 0 {
			remaining -= delim
		}
		if remaining <= 0 {
			break
		}
		n := utf8.RuneCountInString(chunk)
		if n > remaining {
			parts = append(parts, truncateRunes(chunk, remaining))
			break
		}
		parts = append(parts, chunk)
		remaining -= n
	}
	return strings.Join(parts, Delimiter), len(parts)
}

func truncateRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

func (b *GroundedBuilder) writeTask(prompt *strings.Builder) {
	prompt.WriteString("<task>\n")
	prompt.WriteString("You are a helpful customer support agent.\n")
	prompt.WriteString("Use the following CONTEXT from our knowledge base to answer the User Question.\n")
	prompt.WriteString("Answer only from the context. If the answer is not in the context, politely say you don't know.\n")
	prompt.WriteString("</task>\n\n")
}

func (b *GroundedBuilder) writeContext(prompt *strings.Builder, context string) {
	prompt.WriteString("<context>\n")
	if context == "" {
		prompt.WriteString(noContext)
	} else {
		prompt.WriteString(context)
	}
	prompt.WriteString("\n</context>\n\n")
}

func (b *GroundedBuilder) writeUserQuery(prompt *strings.Builder, query string) {
	prompt.WriteString("User Question: ")
	prompt.WriteString(query)
	prompt.WriteString("\n")
}
