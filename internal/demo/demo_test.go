package demo

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildActs_UniqueStepNames(t *testing.T) {
	seen := map[string]bool{}
	for i, act := range BuildActs() {
		require.Equal(t, i+1, act.Number)
		require.NotEmpty(t, act.Steps, act.Name)
		for _, step := range act.Steps {
			require.NotNil(t, step.Fn, step.Name)
			require.False(t, seen[step.Name], "duplicate step %s", step.Name)
			seen[step.Name] = true
		}
	}
}

func TestParseLastJSON(t *testing.T) {
	m, err := parseLastJSON("noise\n{\"success\":true,\"data\":{\"block\":{\"id\":\"b1\"}}}\n")
	require.NoError(t, err)
	require.Equal(t, "b1", getStr(m, "data", "block", "id"))
	require.Empty(t, getStr(m, "data", "missing", "id"))

	m, err = parseLastJSON("")
	require.NoError(t, err)
	require.Nil(t, m)

	_, err = parseLastJSON("not json")
	require.Error(t, err)
}

func TestMustSuccess(t *testing.T) {
	require.Error(t, mustSuccess(nil, ""))
	require.Error(t, mustSuccess(map[string]any{"success": false}, "{}"))
	require.NoError(t, mustSuccess(map[string]any{"success": true}, "{}"))
}

func TestIDs(t *testing.T) {
	list := []any{
		map[string]any{"id": "a"},
		map[string]any{"name": "skip"},
		"junk",
		map[string]any{"id": "b"},
	}
	require.Equal(t, []string{"a", "b"}, ids(list))
}

func TestRunner_PlainOutputWithoutTerminal(t *testing.T) {
	var buf bytes.Buffer
	r := NewRunner("nowpanel", "db", "ui.yaml", &buf, true)
	require.False(t, r.color)

	r.printAct(1, "Seeding")
	r.printDetail("id=%s", "b1")
	require.Contains(t, buf.String(), "=== Act 1: Seeding ===")
	require.Contains(t, buf.String(), "id=b1")
	require.NotContains(t, buf.String(), "\x1b[")
}
