package ui

import (
	"context"
	"errors"
	"strings"
	"testing"

	"localcoder/internal/client"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpinnerModelQuitsWhenWorkIsDone(t *testing.T) {
	m := newSpinnerModel("Generating")
	assert.Contains(t, m.View(), "Generating")

	boom := errors.New("boom")
	next, cmd := m.Update(workDoneMsg{err: boom})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	final := next.(spinnerModel)
	assert.True(t, final.done)
	assert.ErrorIs(t, final.err, boom)
	assert.Empty(t, final.View())
}

func TestSpinnerModelCtrlC(t *testing.T) {
	next, cmd := newSpinnerModel("x").Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.ErrorIs(t, next.(spinnerModel).err, ErrInterrupted)
}

func TestSpinnerModelTicks(t *testing.T) {
	m := newSpinnerModel("x")
	_, cmd := m.Update(spinner.TickMsg{ID: m.spinner.ID()})
	assert.NotNil(t, cmd)
}

func TestRunWithSpinnerWithoutTerminal(t *testing.T) {
	// go test does not attach stderr to a terminal
	called := false
	err := RunWithSpinner(context.Background(), "x", func(ctx context.Context) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)
}

func TestRenderMarkdown(t *testing.T) {
	out := RenderMarkdown("# Title\n\nSome **bold** text.", 0)
	assert.Contains(t, out, "Title")
	assert.Contains(t, out, "bold")
}

func TestFormatModels(t *testing.T) {
	out := FormatModels([]client.ModelInfo{
		{Name: "CodeLlama 7B", ID: "codellama:7b", Description: "code"},
		{Name: "Llava 7B", ID: "llava:7b", SupportsVision: true},
	}, "llava:7b")

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[1], "codellama:7b")
	assert.Contains(t, lines[3], "llava:7b")
	assert.Contains(t, lines[3], "(vision)")
	assert.Contains(t, lines[3], "*")
}
