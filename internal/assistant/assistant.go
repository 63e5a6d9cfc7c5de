// Package assistant ties the model, prompts, output parsing and patching
// together into the code-generation flows behind the UI and CLI.
package assistant

import (
	"context"
	"errors"
	"strings"
	"time"

	"localcoder/internal/chat"
	"localcoder/internal/client"
	"localcoder/internal/extract"
	"localcoder/internal/logging"
	"localcoder/internal/ocr"
	"localcoder/internal/patch"
	"localcoder/internal/prompts"
	"localcoder/internal/webfetch"
	"localcoder/internal/websearch"
)

// Chatter sends a chat request to a model.
type Chatter interface {
	Chat(ctx context.Context, req client.ChatRequest) (string, error)
}

// PageFetcher downloads a web page for redesign.
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string) (*webfetch.Page, error)
}

// ImageTurn is the user side of a turn recorded for an image request.
const ImageTurn = "(image)"

// ErrNoFetcher is returned when a redesign is requested without a page fetcher.
var ErrNoFetcher = errors.New("page fetching is not configured")

var errNoBlocks = errors.New("no complete SEARCH/REPLACE block in the reply")

// Request is one generation request from the user.
type Request struct {
	Message      string             `json:"message"`
	Model        string             `json:"model"`
	Temperature  float32            `json:"temperature"`
	OutputType   prompts.OutputType `json:"output_type"`
	EnableSearch bool               `json:"enable_search"`
}

// PatchSummary describes a follow-up reply that was applied as a patch.
type PatchSummary struct {
	Applied int      `json:"applied"`
	Failed  []string `json:"failed,omitempty"`
	Changed []string `json:"changed,omitempty"`
	// Error is set when the reply could not be read as a patch; the code
	// is left as it was.
	Error string `json:"error,omitempty"`
}

// Response is the state of the session after a request.
type Response struct {
	Reply    string         `json:"reply"`
	Result   extract.Result `json:"result"`
	Preview  string         `json:"preview,omitempty"` // HTML output only
	Patch    *PatchSummary  `json:"patch,omitempty"`
	Messages []chat.Message `json:"messages"`
	Failed   bool           `json:"failed,omitempty"`
}

// Assistant runs generation flows against a chat session.
type Assistant struct {
	chat     Chatter
	searcher *websearch.Searcher
	ocr      ocr.Extractor
	fetcher  PageFetcher
}

// Option configures an Assistant.
type Option func(*Assistant)

// WithSearcher enables web search augmentation.
func WithSearcher(s *websearch.Searcher) Option {
	return func(a *Assistant) { a.searcher = s }
}

// WithOCR sets the engine used for image flows.
func WithOCR(e ocr.Extractor) Option {
	return func(a *Assistant) { a.ocr = e }
}

// WithFetcher sets the page fetcher used for redesigns.
func WithFetcher(f PageFetcher) Option {
	return func(a *Assistant) { a.fetcher = f }
}

// New creates an Assistant that talks to the model through c.
func New(c Chatter, opts ...Option) *Assistant {
	a := &Assistant{chat: c}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// SearchEnabled reports whether a search provider is configured.
func (a *Assistant) SearchEnabled() bool {
	return a.searcher.Enabled()
}

// Generate answers a chat message. When the session already holds HTML or
// transformers.js code of the requested type, the model is asked for
// SEARCH/REPLACE edits and the reply is applied to that code.
func (a *Assistant) Generate(ctx context.Context, s *chat.Session, req Request) Response {
	if strings.TrimSpace(req.Message) == "" {
		return a.Snapshot(s)
	}
	return a.generate(ctx, s, req, true)
}

func (a *Assistant) generate(ctx context.Context, s *chat.Session, req Request, allowFollowUp bool) Response {
	if req.OutputType == "" {
		req.OutputType = prompts.HTML
	}
	withSearch := req.EnableSearch && a.searcher.Enabled()

	system := prompts.SystemPrompt(req.OutputType, withSearch)
	message := req.Message

	prev, hasPrev := s.Result()
	followUp := allowFollowUp && hasPrev && prev.OutputType == req.OutputType && strings.TrimSpace(prev.Code) != ""
	if followUp {
		if p, ok := prompts.FollowUpPrompt(req.OutputType); ok {
			system = p
			message = prompts.FollowUpMessage(req.Message, prev.Code)
		} else {
			followUp = false
		}
	}

	if withSearch {
		message = a.searcher.Augment(ctx, message)
	}

	messages := chat.ToMessages(s.History(), system)
	messages = append(messages, client.Message{Role: chat.RoleUser, Content: message})

	start := time.Now()
	reply, err := a.chat.Chat(ctx, client.ChatRequest{
		Model:       req.Model,
		Messages:    messages,
		Temperature: req.Temperature,
	})
	if err != nil {
		logging.Warn("generation failed", "model", req.Model, "error", err)
		reply = "Error: " + err.Error()
		s.AppendTurn(chat.Turn{User: message, Assistant: reply})
		resp := a.Snapshot(s)
		resp.Reply = reply
		resp.Failed = true
		return resp
	}
	s.AppendTurn(chat.Turn{User: message, Assistant: reply})

	var summary *PatchSummary
	var res extract.Result
	if followUp && patch.HasSearchMarker(reply) {
		res, summary = applyFollowUp(prev, reply)
	}
	if summary == nil {
		res = extract.Process(req.OutputType, reply)
	}
	s.SetResult(res)

	logging.Info("generation completed",
		"model", req.Model,
		"output_type", string(req.OutputType),
		"follow_up", followUp,
		"patched", summary != nil,
		"duration", time.Since(start))

	resp := a.Snapshot(s)
	resp.Reply = reply
	resp.Patch = summary
	return resp
}

// applyFollowUp applies the SEARCH/REPLACE blocks in reply to prev. A reply
// that cannot be read as a patch leaves prev unchanged and is reported in
// the summary.
func applyFollowUp(prev extract.Result, reply string) (extract.Result, *PatchSummary) {
	blocks, err := patch.Parse(reply)
	if err == nil && len(blocks) == 0 {
		err = errNoBlocks
	}
	if err != nil {
		logging.Warn("follow-up reply is not a valid patch, keeping the current code", "error", err)
		return prev, &PatchSummary{Error: err.Error()}
	}

	summary := &PatchSummary{}
	if prev.OutputType == prompts.HTML {
		applied, err := patch.Apply(prev.Code, blocks)
		if err != nil {
			logging.Warn("patch failed", "error", err)
			return prev, &PatchSummary{Error: err.Error()}
		}
		summary.Applied = applied.Applied
		summary.Failed = failures(applied.Failed)
		if applied.Content != prev.Code {
			summary.Changed = []string{extract.IndexHTML}
		}
		return extract.FromFiles(prev.OutputType, extract.Files{extract.IndexHTML: applied.Content}), summary
	}

	applied, err := patch.ApplyFiles(prev.Files, blocks)
	if err != nil {
		logging.Warn("patch failed", "error", err)
		return prev, &PatchSummary{Error: err.Error()}
	}
	summary.Applied = applied.Applied
	summary.Failed = failures(applied.Failed)
	summary.Changed = applied.Changed
	return extract.FromFiles(prev.OutputType, applied.Files), summary
}

func failures(fs []patch.Failure) []string {
	if len(fs) == 0 {
		return nil
	}
	out := make([]string, len(fs))
	for i, f := range fs {
		out[i] = f.String()
	}
	return out
}

// ExtractText runs OCR on an image. Failures come back as text starting
// with "Error" or "OCR error".
func (a *Assistant) ExtractText(ctx context.Context, image []byte) string {
	return ocr.Text(ctx, a.ocr, image)
}

// GenerateFromImage builds a page from the text found in an image. OCR
// failures are recorded in the chat instead of calling the model.
func (a *Assistant) GenerateFromImage(ctx context.Context, s *chat.Session, image []byte, req Request) Response {
	extracted := a.ExtractText(ctx, image)
	if ocr.IsError(extracted) {
		s.AppendTurn(chat.Turn{User: ImageTurn, Assistant: extracted})
		resp := a.Snapshot(s)
		resp.Reply = extracted
		resp.Failed = true
		return resp
	}

	req.Message = prompts.ImageToCodePrompt(extracted)
	return a.generate(ctx, s, req, false)
}

// Redesign fetches a web page and asks the model for a modern version of it.
func (a *Assistant) Redesign(ctx context.Context, s *chat.Session, pageURL string, req Request) Response {
	var page *webfetch.Page
	err := ErrNoFetcher
	if a.fetcher != nil {
		page, err = a.fetcher.Fetch(ctx, pageURL)
	}
	if err != nil {
		logging.Warn("redesign fetch failed", "url", pageURL, "error", err)
		reply := "Error: " + err.Error()
		s.AppendTurn(chat.Turn{User: "Redesign " + pageURL, Assistant: reply})
		resp := a.Snapshot(s)
		resp.Reply = reply
		resp.Failed = true
		return resp
	}

	req.Message = prompts.RedesignPrompt(page.URL, page.Title, page.HTML, page.Text)
	return a.generate(ctx, s, req, false)
}

// Clear resets the session's chat and code.
func (a *Assistant) Clear(s *chat.Session) Response {
	s.Clear()
	return a.Snapshot(s)
}

// Snapshot reports the session's current state without changing it.
func (a *Assistant) Snapshot(s *chat.Session) Response {
	resp := Response{Messages: chat.ChatbotMessages(s.History())}
	if res, ok := s.Result(); ok {
		resp.Result = res
		if res.OutputType == prompts.HTML && res.Code != "" {
			resp.Preview = res.Code
		}
	}
	return resp
}
