package mail

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileAgentWritesMessage(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	agent, err := NewFileAgent(dir)
	require.NoError(t, err)

	err = agent.Send(context.Background(), "alice@example.com", "Hello", "body text")
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	content, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	assert.Contains(t, string(content), "To: alice@example.com")
	assert.Contains(t, string(content), "Subject: Hello")
	assert.Contains(t, string(content), "body text")
}

func TestFileAgentDistinctFiles(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	agent, err := NewFileAgent(dir)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, agent.Send(context.Background(), "a@example.com", "s", "b"))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestFileAgentHonorsContext(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	agent, err := NewFileAgent(dir)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = agent.Send(ctx, "a@example.com", "s", "b")
	assert.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
