package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"localcoder/internal/client"
	"localcoder/internal/config"
	"localcoder/internal/docs"
	"localcoder/internal/logging"
)

// Chatter sends chat requests to a model; *client.OllamaClient satisfies it.
type Chatter interface {
	Chat(ctx context.Context, req client.ChatRequest) (string, error)
}

const condensePrompt = `Given the following conversation and a follow up question, rephrase the follow up question to be a standalone question, in its original language.

Chat History:
%s
Follow Up Input: %s
Standalone question:`

const answerPrompt = `Use the following pieces of context to answer the question at the end. If you don't know the answer, just say that you don't know, don't try to make up an answer.

%s

Question: %s
Helpful Answer:`

// Exchange is one question and its answer.
type Exchange struct {
	Question string
	Answer   string
}

// Answer is a reply and the chunks it was grounded on.
type Answer struct {
	Text    string
	Sources []docs.Document
}

// Chain is a conversational retrieval chain: it rewrites follow-up
// questions into standalone ones, retrieves the closest chunks and answers
// from them, remembering every exchange.
type Chain struct {
	chat        Chatter
	embedder    Embedder
	store       VectorStore
	model       string
	temperature float32
	k           int

	mu      sync.Mutex
	history []Exchange
}

// ChainConfig configures a Chain.
type ChainConfig struct {
	Model       string
	Temperature float32
	TopK        int
}

// NewChain creates a chain over store.
func NewChain(chat Chatter, embedder Embedder, store VectorStore, cfg ChainConfig) *Chain {
	if cfg.TopK <= 0 {
		cfg.TopK = config.DefaultTopK
	}
	return &Chain{
		chat:        chat,
		embedder:    embedder,
		store:       store,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		k:           cfg.TopK,
	}
}

// Model returns the chat model answering questions.
func (c *Chain) Model() string { return c.model }

// Ask answers question using the indexed documents.
func (c *Chain) Ask(ctx context.Context, question string) (string, error) {
	answer, err := c.Query(ctx, question)
	if err != nil {
		return "", err
	}
	return answer.Text, nil
}

// Query answers question and reports the retrieved chunks.
func (c *Chain) Query(ctx context.Context, question string) (*Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, errors.New("question is empty")
	}

	history := c.History()
	standalone := question
	if len(history) > 0 {
		rewritten, err := c.complete(ctx, fmt.Sprintf(condensePrompt, formatHistory(history), question))
		if err != nil {
			return nil, fmt.Errorf("condense question: %w", err)
		}
		if rewritten = strings.TrimSpace(rewritten); rewritten != "" {
			standalone = rewritten
		}
	}

	vecs, err := c.embedder.Embed(ctx, []string{standalone})
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("embed question: got %d vectors", len(vecs))
	}

	hits, err := c.store.Search(ctx, vecs[0], c.k)
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}

	sources := make([]docs.Document, len(hits))
	contexts := make([]string, len(hits))
	for i, h := range hits {
		sources[i] = h.Doc
		contexts[i] = h.Doc.Content
	}

	text, err := c.complete(ctx, fmt.Sprintf(answerPrompt, strings.Join(contexts, "\n\n"), standalone))
	if err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)

	c.mu.Lock()
	c.history = append(c.history, Exchange{Question: question, Answer: text})
	c.mu.Unlock()

	logging.Debug("document question answered", "model", c.model, "chunks", len(hits),
		"condensed", standalone != question)
	return &Answer{Text: text, Sources: sources}, nil
}

func (c *Chain) complete(ctx context.Context, prompt string) (string, error) {
	return c.chat.Chat(ctx, client.ChatRequest{
		Model:       c.model,
		Messages:    []client.Message{{Role: "user", Content: prompt}},
		Temperature: c.temperature,
	})
}

func formatHistory(history []Exchange) string {
	lines := make([]string, 0, 2*len(history))
	for _, ex := range history {
		lines = append(lines, "Human: "+ex.Question, "Assistant: "+ex.Answer)
	}
	return strings.Join(lines, "\n")
}

// History returns a copy of the remembered exchanges.
func (c *Chain) History() []Exchange {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Exchange(nil), c.history...)
}

// Reset forgets the conversation but keeps the index.
func (c *Chain) Reset() {
	c.mu.Lock()
	c.history = nil
	c.mu.Unlock()
}

// Close releases the vector store.
func (c *Chain) Close() error {
	return c.store.Close()
}
