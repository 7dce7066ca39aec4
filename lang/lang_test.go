package lang

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestTSubstitutesPlaceholders(t *testing.T) {
	got := T("ticket_created", "channel", "12345")
	assert.Equal(t, "Ticket created: <#12345>", got)
}

func TestTMissingKeyMarker(t *testing.T) {
	assert.Equal(t, "{no_such_key}", T("no_such_key"))
}

func TestLoadOverridesAndFallsBack(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lang.yml")
	require.NoError(t, os.WriteFile(path, []byte("ticket_closed: \"Done and dusted.\"\n"), 0644))

	Load(path, zap.NewNop())
	t.Cleanup(func() {
		mu.Lock()
		messages = defaults()
		mu.Unlock()
	})

	assert.Equal(t, "Done and dusted.", T("ticket_closed"))
	// Keys absent from the file keep their built-in text.
	assert.Equal(t, "Ticket created: <#1>", T("ticket_created", "channel", "1"))
}

func TestLoadBadFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lang.yml")
	require.NoError(t, os.WriteFile(path, []byte(":\n  - not a flat map"), 0644))

	Load(path, zap.NewNop())
	assert.Equal(t, "This ticket is already closed.", T("ticket_already_closed"))
}
