package client

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcileKeepsInstalledPredefined(t *testing.T) {
	got := Reconcile(PredefinedModels, []string{"llava:7b", "codellama:7b", "phi3:mini"})

	ids := make([]string, 0, len(got))
	for _, m := range got {
		ids = append(ids, m.ID)
	}
	// Catalog order first, then unknown installed models
	assert.Equal(t, []string{"codellama:7b", "llava:7b", "phi3:mini"}, ids)
	assert.True(t, got[1].SupportsVision)
	assert.Equal(t, "Phi3 Mini", got[2].Name)
	assert.Equal(t, "phi3:mini model", got[2].Description)
}

func TestReconcileSynthesizesWhenNoneMatch(t *testing.T) {
	got := Reconcile(PredefinedModels, []string{"llama3.2-vision:11b", "qwen2.5:7b"})
	require.Len(t, got, 2)
	assert.Equal(t, "Llama3.2-Vision 11B", got[0].Name)
	assert.True(t, got[0].SupportsVision)
	assert.False(t, got[1].SupportsVision)
}

func TestReconcileNothingInstalled(t *testing.T) {
	assert.Equal(t, PredefinedModels, Reconcile(PredefinedModels, nil))
}

func TestDefaultModel(t *testing.T) {
	installed := []string{"codellama:7b", "mistral:7b", "qwen2.5:7b"}

	assert.Equal(t, "codellama:7b", DefaultModel(installed, "codellama:7b"))
	assert.Equal(t, "qwen2.5:7b", DefaultModel(installed, "not-installed"))
	assert.Equal(t, "phi3:mini", DefaultModel([]string{"phi3:mini"}, ""))
	assert.Equal(t, "", DefaultModel(nil, "codellama:7b"))
}

func TestParseOllamaList(t *testing.T) {
	out := []byte(`NAME                ID              SIZE      MODIFIED
codellama:7b        8fdf8f752f6e    3.8 GB    2 weeks ago
llava:13b           0d0eb4d7f485    8.0 GB    3 days ago

`)
	assert.Equal(t, []string{"codellama:7b", "llava:13b"}, parseOllamaList(out))
}

func TestListInstalledFallsBackToCLI(t *testing.T) {
	orig := runOllamaList
	t.Cleanup(func() { runOllamaList = orig })
	runOllamaList = func(ctx context.Context) ([]byte, error) {
		return []byte("NAME ID SIZE MODIFIED\nmistral:7b abc 4GB now\n"), nil
	}

	c, err := NewOllamaClient(OllamaConfig{BaseURL: "http://127.0.0.1:1"})
	require.NoError(t, err)

	models, err := c.ListInstalled(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"mistral:7b"}, models)

	runOllamaList = func(ctx context.Context) ([]byte, error) {
		return nil, errors.New("ollama: not found")
	}
	_, err = c.ListInstalled(context.Background())
	assert.Error(t, err)
}

func TestGetModelProfile(t *testing.T) {
	p := GetModelProfile("qwen2.5-coder:7b")
	assert.Equal(t, "qwen", p.Family)
	assert.True(t, p.IsCoding)
	assert.True(t, p.IsSmall)

	assert.True(t, GetModelProfile("llava:13b").SupportsVision)
	assert.False(t, GetModelProfile("llava:13b").IsSmall)

	unknown := GetModelProfile("my-vision-model")
	assert.Equal(t, "unknown", unknown.Family)
	assert.True(t, unknown.SupportsVision)
}
