package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordDecision(t *testing.T) {
	m := newTestManager(t)

	d, err := m.RecordDecision("use sqlite", "single writer, no server")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(d.ID, "dec-"))
	assert.Equal(t, "use sqlite", d.Title)

	_, err = m.RecordDecision("  ", "")
	var inputErr InputError
	require.ErrorAs(t, err, &inputErr)

	decisions, err := m.ListDecisions()
	require.NoError(t, err)
	require.Len(t, decisions, 1)
	assert.Equal(t, d.ID, decisions[0].ID)
}

func TestAddMemoryValidatesPriority(t *testing.T) {
	m := newTestManager(t)

	var inputErr InputError
	_, err := m.AddMemory("x", -1, true)
	require.ErrorAs(t, err, &inputErr)
	assert.Equal(t, "priority", inputErr.Field)

	_, err = m.AddMemory("x", 101, true)
	require.ErrorAs(t, err, &inputErr)

	mem, err := m.AddMemory("always run linters", 100, true)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(mem.ID, "mem-"))
	assert.Equal(t, 100, mem.Priority)
}

func TestListMemoriesSortedAndFiltered(t *testing.T) {
	m := newTestManager(t)

	low, err := m.AddMemory("style guide", 10, true)
	require.NoError(t, err)
	high, err := m.AddMemory("never force-push", 90, true)
	require.NoError(t, err)
	disabled, err := m.AddMemory("old convention", 50, false)
	require.NoError(t, err)

	all, err := m.ListMemories(false)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, high.ID, all[0].ID)
	assert.Equal(t, disabled.ID, all[1].ID)
	assert.Equal(t, low.ID, all[2].ID)

	enabled, err := m.ListMemories(true)
	require.NoError(t, err)
	require.Len(t, enabled, 2)
	assert.Equal(t, high.ID, enabled[0].ID)
	assert.Equal(t, low.ID, enabled[1].ID)
}

func TestUpdateMemory(t *testing.T) {
	m := newTestManager(t)
	mem, err := m.AddMemory("draft", 20, true)
	require.NoError(t, err)

	content := "final wording"
	priority := 80
	enabled := false
	got, err := m.UpdateMemory(mem.ID, MemoryUpdate{
		Content:  &content,
		Priority: &priority,
		Enabled:  &enabled,
	})
	require.NoError(t, err)
	assert.Equal(t, content, got.Content)
	assert.Equal(t, 80, got.Priority)
	assert.False(t, got.Enabled)

	bad := 200
	_, err = m.UpdateMemory(mem.ID, MemoryUpdate{Priority: &bad})
	var inputErr InputError
	require.ErrorAs(t, err, &inputErr)

	_, err = m.UpdateMemory("mem-zzzzzzzz", MemoryUpdate{})
	var notFound NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "memory", notFound.Kind)
}

func TestRemoveMemory(t *testing.T) {
	m := newTestManager(t)
	mem, err := m.AddMemory("temp", 1, true)
	require.NoError(t, err)

	require.NoError(t, m.RemoveMemory(mem.ID))

	err = m.RemoveMemory(mem.ID)
	var notFound NotFoundError
	require.ErrorAs(t, err, &notFound)
}
