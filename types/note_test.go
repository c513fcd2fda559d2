package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeIcon(t *testing.T) {
	assert.Equal(t, "camera", NormalizeIcon("camera"))
	assert.Equal(t, "chat", NormalizeIcon(" chat "))
	assert.Equal(t, DefaultIcon, NormalizeIcon(""))
	assert.Equal(t, DefaultIcon, NormalizeIcon("Camera"))
	assert.Equal(t, DefaultIcon, NormalizeIcon("rocket"))
}

func TestBuildTagIndex(t *testing.T) {
	assert.Equal(t, "", BuildTagIndex(nil))
	assert.Equal(t, "\x1fhome\x1fweekly shop\x1f", BuildTagIndex([]string{"Home", "Weekly Shop"}))
}

func TestNotePatchDeletedAt(t *testing.T) {
	var absent NotePatch
	require.NoError(t, json.Unmarshal([]byte(`{"title":"x"}`), &absent))
	assert.False(t, absent.DeletedAt.Set)

	var null NotePatch
	require.NoError(t, json.Unmarshal([]byte(`{"deletedAt":null}`), &null))
	assert.True(t, null.DeletedAt.Set)
	assert.Nil(t, null.DeletedAt.Time)

	var stamped NotePatch
	require.NoError(t, json.Unmarshal([]byte(`{"deletedAt":"2025-01-02T03:04:05Z"}`), &stamped))
	require.NotNil(t, stamped.DeletedAt.Time)
	assert.True(t, stamped.DeletedAt.Time.Equal(time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)))

	out, err := json.Marshal(NotePatch{Title: Ptr("x")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"x"}`, string(out))
}

func TestNoteJSONHidesOwner(t *testing.T) {
	out, err := json.Marshal(Note{ID: "n1", Owner: "42", TagIndex: "\x1fa\x1f"})
	require.NoError(t, err)
	assert.NotContains(t, string(out), "42")
	assert.NotContains(t, string(out), "owner")
	assert.Contains(t, string(out), `"deletedAt":null`)
}
