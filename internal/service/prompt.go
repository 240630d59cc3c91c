package service

import (
	"strings"

	"ragqa/internal/domain"
)

const qaTemplate = `Use the following pieces of context to answer the question at the end. If you don't know the answer, just say that you don't know, don't try to make up an answer.

{context}

Question: {question}
Helpful Answer:`

// RenderPrompt stuffs the retrieved chunks and the question into the QA template.
func RenderPrompt(sources []domain.SearchResult, question string) string {
	texts := make([]string, len(sources))
	for i, s := range sources {
		texts[i] = s.Chunk.Text
	}
	r := strings.NewReplacer("{context}", strings.Join(texts, "\n\n"), "{question}", question)
	return r.Replace(qaTemplate)
}
