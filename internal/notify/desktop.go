package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"unicode/utf8"
)

const disableDesktopEnv = "NOWPANEL_DISABLE_DESKTOP_NOTIFY"

// maxFieldBytes caps title and body before they reach the helper binary.
const maxFieldBytes = 1024

// Desktop raises an OS notification through a helper CLI:
// `osascript` on macOS, `notify-send` elsewhere.
type Desktop struct {
	command string
	args    func(title, body string) []string
}

// NewDesktop resolves the helper for goos ("" = the running OS) and checks
// that it is on PATH.
func NewDesktop(goos string) (*Desktop, error) {
	if strings.TrimSpace(os.Getenv(disableDesktopEnv)) != "" {
		return nil, fmt.Errorf("desktop notifications disabled by %s", disableDesktopEnv)
	}
	d := resolveDesktop(goos)
	if _, err := exec.LookPath(d.command); err != nil {
		return nil, fmt.Errorf("notification helper %q not found in PATH: %w", d.command, err)
	}
	return d, nil
}

func resolveDesktop(goos string) *Desktop {
	if goos == "" {
		goos = runtime.GOOS
	}
	if goos == "darwin" {
		return &Desktop{
			command: "osascript",
			args: func(title, body string) []string {
				script := fmt.Sprintf("display notification %s with title %s", appleQuote(body), appleQuote(title))
				return []string{"-e", script}
			},
		}
	}
	return &Desktop{
		command: "notify-send",
		args: func(title, body string) []string {
			return []string{"--app-name=nowpanel", "--", title, body}
		},
	}
}

// appleQuote renders s as an AppleScript string literal.
func appleQuote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}

func sanitizeField(s string) (string, error) {
	if strings.ContainsRune(s, 0) {
		return "", errors.New("notification text contains null byte")
	}
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > maxFieldBytes {
		cut := maxFieldBytes
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut]
	}
	return s, nil
}

// limitedWriter caps writes at maxBytes, silently discarding overflow.
type limitedWriter struct {
	buf      bytes.Buffer
	maxBytes int
}

func (w *limitedWriter) Write(p []byte) (int, error) {
	originalLen := len(p)
	remaining := w.maxBytes - w.buf.Len()
	if remaining <= 0 {
		return originalLen, nil
	}
	if len(p) > remaining {
		p = p[:remaining]
	}
	w.buf.Write(p)
	return originalLen, nil
}

// Notify runs the helper and waits for it.
func (d *Desktop) Notify(ctx context.Context, n Notification) error {
	title, err := sanitizeField(n.Title)
	if err != nil {
		return err
	}
	body, err := sanitizeField(n.Body)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context expired before exec: %w", err)
	}

	cmd := exec.CommandContext(ctx, d.command, d.args(title, body)...) //nolint:gosec // G204: helper resolved at construction, args are sanitized text
	stderrW := &limitedWriter{maxBytes: 4096}
	cmd.Stderr = stderrW
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s failed: %w (stderr: %s)", d.command, err, strings.TrimSpace(stderrW.buf.String()))
	}
	return nil
}

// Command returns the helper binary name.
func (d *Desktop) Command() string { return d.command }
