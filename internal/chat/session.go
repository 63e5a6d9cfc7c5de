package chat

import (
	"context"
	"sync"
	"time"

	"localcoder/internal/extract"
	"localcoder/internal/prompts"

	"github.com/google/uuid"
)

// DocumentQA answers questions over indexed documents.
type DocumentQA interface {
	Ask(ctx context.Context, question string) (string, error)
	Close() error
}

// Session is one browser user's conversation state.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu         sync.RWMutex
	lastUsed   time.Time
	history    History
	outputType prompts.OutputType
	result     *extract.Result
	qa         DocumentQA
	qaHistory  History
}

// NewSession creates an empty session with a random ID.
func NewSession() *Session {
	now := time.Now()
	return &Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
		lastUsed:  now,
	}
}

// Touch records activity on the session.
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastUsed = time.Now()
	s.mu.Unlock()
}

// LastUsed returns the time of the latest activity.
func (s *Session) LastUsed() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUsed
}

// History returns a copy of the chat history.
func (s *Session) History() History {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append(History(nil), s.history...)
}

// AppendTurn adds a completed exchange to the history.
func (s *Session) AppendTurn(t Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, t)
	s.lastUsed = time.Now()
}

// Result returns the latest generated code, if any.
func (s *Session) Result() (extract.Result, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.result == nil {
		return extract.Result{}, false
	}
	res := *s.result
	res.Files = res.Files.Clone()
	return res, true
}

// SetResult stores the latest generated code.
func (s *Session) SetResult(res extract.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res.Files = res.Files.Clone()
	s.result = &res
	s.outputType = res.OutputType
}

// OutputType returns the output type of the latest generated code.
func (s *Session) OutputType() prompts.OutputType {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.outputType
}

// Clear resets the chat history and generated code. Indexed documents stay.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = nil
	s.result = nil
	s.outputType = ""
}

// SetDocumentQA replaces the document QA chain, closing the previous one.
func (s *Session) SetDocumentQA(qa DocumentQA) {
	s.mu.Lock()
	prev := s.qa
	s.qa = qa
	s.qaHistory = nil
	s.mu.Unlock()

	if prev != nil {
		_ = prev.Close()
	}
}

// DocumentQA returns the session's document QA chain, or nil.
func (s *Session) DocumentQA() DocumentQA {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.qa
}

// AppendQATurn records a document question and its answer.
func (s *Session) AppendQATurn(t Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.qaHistory = append(s.qaHistory, t)
}

// QAHistory returns a copy of the document QA transcript.
func (s *Session) QAHistory() History {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append(History(nil), s.qaHistory...)
}

// Close releases resources held by the session.
func (s *Session) Close() error {
	s.mu.Lock()
	qa := s.qa
	s.qa = nil
	s.mu.Unlock()

	if qa != nil {
		return qa.Close()
	}
	return nil
}
