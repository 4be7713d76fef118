package prompt

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestBuildJoinsChunksInRankOrder(t *testing.T) {
	b := NewGroundedBuilder(0)
	p, used := b.Build("How long do refunds take?", []string{"Refunds take 5 days.", "Shipping is free."})

	assert.Equal(t, 2, used)
	assert.Contains(t, p, "Refunds take 5 days."+Delimiter+"Shipping is free.")
	assert.Contains(t, p, "User Question: How long do refunds take?")
	assert.Contains(t, p, "say you don't know")
}

func TestBuildWithEmptyContextStillInstructs(t *testing.T) {
	p, used := NewGroundedBuilder(100).Build("Where is my order?", nil)

	assert.Zero(t, used)
	assert.Contains(t, p, noContext)
	assert.Contains(t, p, "If the answer is not in the context, politely say you don't know.")
	assert.Contains(t, p, "User Question: Where is my order?")
}

func TestBudgetTrimsLowestRankedFirst(t *testing.T) {
	first := strings.Repeat("a", 40)
	second := strings.Repeat("b", 40)
	third := strings.Repeat("c", 40)
	delim := utf8.RuneCountInString(Delimiter)

	tests := []struct {
		name     string
		budget   int
		wantUsed int
		wantCtx  string
	}{
		{"all fit", 120 + 2*delim, 3, first + Delimiter + second + Delimiter + third},
		{"last trimmed", 100 + 2*delim, 3, first + Delimiter + second + Delimiter + strings.Repeat("c", 20)},
		{"last dropped", 80 + delim, 2, first + Delimiter + second},
		{"first cut", 25, 1, strings.Repeat("a", 25)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, used := NewGroundedBuilder(tt.budget).fitContext([]string{first, second, third})
			assert.Equal(t, tt.wantUsed, used)
			assert.Equal(t, tt.wantCtx, ctx)
		})
	}
}

func TestTruncateRunesIsRuneSafe(t *testing.T) {
	assert.Equal(t, "hé", truncateRunes("héllo", 2))
	assert.Equal(t, "ok", truncateRunes("ok", 5))
}
