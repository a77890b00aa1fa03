package output

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dotcommander/nowpanel/internal/models"
)

// models.RecoverableError must satisfy the local interface.
var _ recoverableError = (models.RecoverableError)(nil)

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()

	original := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w
	defer func() { os.Stdout = original }()

	fn()

	require.NoError(t, w.Close())

	b, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	return string(b)
}

func TestSuccessAndError(t *testing.T) {
	s := Success(map[string]string{"k": "v"})
	require.Equal(t, "v1", s.SchemaVersion)
	require.True(t, s.Success)
	require.NotNil(t, s.Data)
	require.Empty(t, s.Error)

	e := Error(errors.New("boom"))
	require.Equal(t, "v1", e.SchemaVersion)
	require.False(t, e.Success)
	require.Nil(t, e.Data)
	require.Equal(t, "boom", e.Error)
	require.Empty(t, e.ErrorCode)
	require.Nil(t, e.ErrorContext)
}

func TestPrintWith_CompactAndPretty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintWith(Config{Writer: &buf}, map[string]string{"hello": "world"}))
	require.Equal(t, "{\"hello\":\"world\"}\n", buf.String())

	buf.Reset()
	require.NoError(t, PrintWith(Config{Writer: &buf, Pretty: true}, map[string]string{"hello": "world"}))
	require.True(t, strings.HasPrefix(buf.String(), "{\n"))
	require.Contains(t, buf.String(), "\n  \"hello\": \"world\"\n")
}

func TestPrint_PrettyFromEnv(t *testing.T) {
	for _, value := range []string{"1", "true"} {
		t.Run(value, func(t *testing.T) {
			t.Setenv("NOWPANEL_PRETTY_JSON", value)
			out := captureStdout(t, func() {
				require.NoError(t, Print(map[string]string{"hello": "world"}))
			})
			require.True(t, strings.HasPrefix(out, "{\n"))
		})
	}

	t.Run("unset", func(t *testing.T) {
		t.Setenv("NOWPANEL_PRETTY_JSON", "")
		out := captureStdout(t, func() {
			require.NoError(t, Print(map[string]string{"hello": "world"}))
		})
		require.Equal(t, "{\"hello\":\"world\"}\n", out)
	})
}

func TestPrintSuccessAndPrintError(t *testing.T) {
	t.Setenv("NOWPANEL_PRETTY_JSON", "")

	successOut := captureStdout(t, func() {
		require.NoError(t, PrintSuccess(map[string]int{"count": 2}))
	})
	require.Contains(t, successOut, "\"success\":true")
	require.Contains(t, successOut, "\"count\":2")

	errorOut := captureStdout(t, func() {
		require.NoError(t, PrintError(errors.New("bad things")))
	})
	require.Contains(t, errorOut, "\"success\":false")
	require.Contains(t, errorOut, "\"error\":\"bad things\"")
	require.NotContains(t, errorOut, "error_code")
}

func TestError_StructuredErrors(t *testing.T) {
	t.Run("invalid input", func(t *testing.T) {
		resp := Error(&models.InvalidInputError{Field: "duration", Value: "soonish", Hint: "try 2h or tomorrow"})
		require.Equal(t, "INVALID_INPUT", resp.ErrorCode)
		require.Equal(t, map[string]string{"field": "duration", "value": "soonish"}, resp.ErrorContext)
		require.Equal(t, "try 2h or tomorrow", resp.SuggestedAction)
	})

	t.Run("wrapped block not found", func(t *testing.T) {
		err := fmt.Errorf("snooze: %w", &models.BlockNotFoundError{ID: "b1"})
		resp := Error(err)
		require.Equal(t, "BLOCK_NOT_FOUND", resp.ErrorCode)
		require.Equal(t, "b1", resp.ErrorContext["block_id"])

		var buf bytes.Buffer
		require.NoError(t, PrintWith(Config{Writer: &buf}, resp))
		require.Contains(t, buf.String(), `"error_code":"BLOCK_NOT_FOUND"`)
		require.Contains(t, buf.String(), `"suggested_action":`)
	})
}
