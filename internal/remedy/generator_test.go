package remedy

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/remedyd/internal/llm"
)

func TestGenerate(t *testing.T) {
	completer := &fakeCompleter{responses: []string{
		"```yaml\n- hosts: node7\n  tasks:\n    - name: clean disk\n```",
	}}
	generator := NewGenerator(completer, nil)

	doc, err := generator.Generate(context.Background(), "disk full on node7")
	require.NoError(t, err)

	assert.Equal(t, SourceGenerated, doc.Source)
	assert.True(t, strings.HasPrefix(doc.Content, "---\n"))
	assert.NotContains(t, doc.Content, "```")
	assert.Contains(t, doc.Content, "clean disk")

	require.Len(t, completer.calls, 1)
	assert.Contains(t, completer.calls[0].user, "disk full on node7")
	assert.Contains(t, completer.calls[0].system, "Ansible")
	assert.Empty(t, completer.calls[0].assistant)
}

func TestGenerate_ProviderFailure(t *testing.T) {
	completer := &fakeCompleter{err: &llm.GenerationError{Err: errors.New("rate limited")}}
	generator := NewGenerator(completer, nil)

	_, err := generator.Generate(context.Background(), "disk full")
	require.Error(t, err)

	var generationErr *llm.GenerationError
	assert.ErrorAs(t, err, &generationErr)
}
