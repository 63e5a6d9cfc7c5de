// Package ocr extracts text from uploaded images.
package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/exec"
	"strings"

	"localcoder/internal/client"
	"localcoder/internal/config"
	"localcoder/internal/logging"
)

var (
	// ErrUnsupportedImage is returned for data that is not a supported image.
	ErrUnsupportedImage = errors.New("unsupported image type")

	// ErrEngineUnavailable is returned when the OCR engine cannot run.
	ErrEngineUnavailable = errors.New("OCR engine unavailable")
)

// Extractor turns an image into text.
type Extractor interface {
	Name() string
	Extract(ctx context.Context, image []byte) (string, error)
}

// Chatter sends chat requests to a model; *client.OllamaClient satisfies it.
type Chatter interface {
	Chat(ctx context.Context, req client.ChatRequest) (string, error)
}

// New builds the extractor selected by cfg. The vision engine needs chat.
func New(cfg config.OCRConfig, chat Chatter) (Extractor, error) {
	switch cfg.Engine {
	case "", "tesseract":
		return &Tesseract{Binary: cfg.Binary, Language: cfg.Language}, nil
	case "vision":
		if chat == nil {
			return nil, fmt.Errorf("%w: vision engine needs a model client", ErrEngineUnavailable)
		}
		return &Vision{Client: chat, Model: cfg.VisionModel}, nil
	}
	return nil, fmt.Errorf("unknown OCR engine %q", cfg.Engine)
}

var supportedTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
	"image/bmp":  true,
	"image/tiff": true,
}

// DetectImageType sniffs the MIME type of image and rejects anything that is
// not a supported raster image.
func DetectImageType(image []byte) (string, error) {
	if len(image) == 0 {
		return "", fmt.Errorf("%w: empty file", ErrUnsupportedImage)
	}
	// http.DetectContentType does not know TIFF
	if bytes.HasPrefix(image, []byte("II*\x00")) || bytes.HasPrefix(image, []byte("MM\x00*")) {
		return "image/tiff", nil
	}

	mime := http.DetectContentType(image)
	if !supportedTypes[mime] {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedImage, mime)
	}
	return mime, nil
}

// Tesseract runs the tesseract binary, feeding the image on stdin.
type Tesseract struct {
	Binary   string
	Language string
}

func (t *Tesseract) Name() string { return "tesseract" }

func (t *Tesseract) Extract(ctx context.Context, image []byte) (string, error) {
	if _, err := DetectImageType(image); err != nil {
		return "", err
	}

	binary := t.Binary
	if binary == "" {
		binary = "tesseract"
	}
	args := []string{"stdin", "stdout"}
	if t.Language != "" {
		args = append(args, "-l", t.Language)
	}

	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Stdin = bytes.NewReader(image)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", fmt.Errorf("%w: %s not found in PATH, install tesseract-ocr", ErrEngineUnavailable, binary)
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("%s: %w: %s", binary, err, msg)
		}
		return "", fmt.Errorf("%s: %w", binary, err)
	}
	return strings.TrimSpace(stdout.String()), nil
}

const visionPrompt = "Transcribe all text visible in this image, including button labels, " +
	"menu items and headings. Keep the reading order and put each block of text on its own line. " +
	"Reply with the text only."

// Vision asks a multimodal model to transcribe the image.
type Vision struct {
	Client Chatter
	Model  string
}

func (v *Vision) Name() string { return "vision" }

func (v *Vision) Extract(ctx context.Context, image []byte) (string, error) {
	if _, err := DetectImageType(image); err != nil {
		return "", err
	}

	reply, err := v.Client.Chat(ctx, client.ChatRequest{
		Model: v.Model,
		Messages: []client.Message{
			{Role: "user", Content: visionPrompt, Images: [][]byte{image}},
		},
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(reply), nil
}

// Text runs e and renders failures as chat-ready messages. Unusable input or
// a missing engine reads "Error: ...", extraction failures "OCR error: ...".
// An empty image yields "".
func Text(ctx context.Context, e Extractor, image []byte) string {
	if len(image) == 0 {
		return ""
	}
	if e == nil {
		return "Error: no OCR engine configured."
	}

	text, err := e.Extract(ctx, image)
	switch {
	case err == nil:
		logging.Debug("ocr completed", "engine", e.Name(), "chars", len(text))
		return text
	case errors.Is(err, ErrUnsupportedImage), errors.Is(err, ErrEngineUnavailable):
		logging.Warn("ocr unavailable", "engine", e.Name(), "error", err)
		return "Error: " + err.Error()
	default:
		logging.Warn("ocr failed", "engine", e.Name(), "error", err)
		return "OCR error: " + err.Error()
	}
}

// IsError reports whether s is a failure message produced by Text.
func IsError(s string) bool {
	return strings.HasPrefix(s, "Error") || strings.HasPrefix(s, "OCR error")
}
