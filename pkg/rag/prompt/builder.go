package prompt

import (
	"fmt"
	"strings"

	"curriculum-rag-be/pkg/llm"
)

const contextSeparator = "\n\n"

// GroundedBuilder builds a two-message chat that constrains the model to the
// retrieved excerpts.
type GroundedBuilder struct {
	systemPrompt string
	userTemplate string
	maxContext   int
}

// NewGroundedBuilder takes a user template with two %s verbs: the context
// block, then the question. maxContext caps the context block in runes; zero
// means unbounded.
func NewGroundedBuilder(systemPrompt, userTemplate string, maxContext int) *GroundedBuilder {
	return &GroundedBuilder{
		systemPrompt: systemPrompt,
		userTemplate: userTemplate,
		maxContext:   maxContext,
	}
}

// JoinContext concatenates excerpts in ranked order with blank lines. Whole
// excerpts that would overflow the cap are dropped; the first is always kept.
func (b *GroundedBuilder) JoinContext(excerpts []string) string {
	var sb strings.Builder
	used := 0
	for _, excerpt := range excerpts {
		excerpt = strings.TrimSpace(excerpt)
		if excerpt == "" {
			continue
		}
		size := len([]rune(excerpt))
		if used > 0 {
			size += len(contextSeparator)
		}
		if b.maxContext > 0 && used > 0 && used+size > b.maxContext {
			break
		}
		if used > 0 {
			sb.WriteString(contextSeparator)
		}
		sb.WriteString(excerpt)
		used += size
	}
	return sb.String()
}

func (b *GroundedBuilder) Build(excerpts []string, question string) []llm.Message {
	return []llm.Message{
		{Role: llm.RoleSystem, Content: b.systemPrompt},
		{Role: llm.RoleUser, Content: fmt.Sprintf(b.userTemplate, b.JoinContext(excerpts), strings.TrimSpace(question))},
	}
}
