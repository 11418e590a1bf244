// Package prompt turns retrieved chunks and a question into chat messages.
package prompt

import (
	"context"
	"fmt"
	"strings"

	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/resumeqa/resumeqa/internal/domain/chunk"
)

// DefaultOwner names the resume owner when none is configured.
const DefaultOwner = "the candidate"

const systemTemplate = `You are a helpful assistant answering questions about {owner}'s resume and career.
Use ONLY the following retrieved context (from the full resume and/or FAQ Q&A) to answer.
When the context includes a "Question: ... Answer: ..." block that matches the user's question, prefer that answer.
If the context does not contain enough information, say so briefly and answer from common sense where reasonable.
Keep answers concise and professional. If the question is off-topic or inappropriate, politely redirect to resume-related topics.`

const userTemplate = "Context from resume and FAQ:\n{context}\n\nQuestion: {question}"

// Assembler formats the fixed system instruction and the user turn.
// Safe for concurrent use.
type Assembler struct {
	owner    string
	template *einoprompt.DefaultChatTemplate
}

// New creates an Assembler for owner. An empty owner falls back to
// DefaultOwner.
func New(owner string) *Assembler {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		owner = DefaultOwner
	}
	return &Assembler{
		owner: owner,
		template: einoprompt.FromMessages(schema.FString,
			schema.SystemMessage(systemTemplate),
			schema.UserMessage(userTemplate),
		),
	}
}

// Assemble returns the system and user messages. Chunk texts are joined by a
// blank line in retrieval order; nothing is truncated.
func (a *Assembler) Assemble(ctx context.Context, chunks []chunk.Chunk, question string) ([]*schema.Message, error) {
	msgs, err := a.template.Format(ctx, map[string]any{
		"owner":    a.owner,
		"context":  JoinContext(chunks),
		"question": question,
	})
	if err != nil {
		return nil, fmt.Errorf("format prompt: %w", err)
	}
	return msgs, nil
}

// JoinContext concatenates chunk texts separated by a blank line.
func JoinContext(chunks []chunk.Chunk) string {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text()
	}
	return strings.Join(texts, "\n\n")
}
