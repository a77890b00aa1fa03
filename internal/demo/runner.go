// Package demo implements the standalone colorized demo harness for nowpanel.
package demo

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Runner holds the demo execution state.
type Runner struct {
	binPath string
	dbPath  string
	uiPath  string
	out     io.Writer
	color   bool
	fast    bool
}

// NewRunner creates a new demo runner. binPath is resolved to an absolute
// path; dbPath and uiPath are passed to every invocation.
func NewRunner(binPath, dbPath, uiPath string, out io.Writer, fast bool) *Runner {
	useColor := false
	if f, ok := out.(*os.File); ok {
		useColor = isatty.IsTerminal(f.Fd())
	}
	if abs, err := filepath.Abs(binPath); err == nil {
		binPath = abs
	}
	return &Runner{
		binPath: binPath,
		dbPath:  dbPath,
		uiPath:  uiPath,
		out:     out,
		color:   useColor,
		fast:    fast,
	}
}

func (r *Runner) paint(attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if r.color {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}

// printAct prints an act header.
func (r *Runner) printAct(number int, name string) {
	if r.color {
		r.paint(color.Bold, color.BgBlue, color.FgWhite).Fprintf(r.out, "\n  Act %d: %s  \n", number, name)
		return
	}
	fmt.Fprintf(r.out, "\n=== Act %d: %s ===\n", number, name)
}

// printNarration prints narration lines.
func (r *Runner) printNarration(lines []string) {
	for _, line := range lines {
		fmt.Fprintf(r.out, "  %s\n", r.paint(color.FgWhite).Sprint(line))
	}
	fmt.Fprintln(r.out)
}

// printStep prints a step name.
func (r *Runner) printStep(name string) {
	c := r.paint(color.Bold, color.FgCyan)
	fmt.Fprintf(r.out, "  %s %s\n", c.Sprint("*"), c.Sprint(name))
}

// printCommand prints the command being run.
func (r *Runner) printCommand(args []string) {
	fmt.Fprintf(r.out, "    %s\n", r.paint(color.Faint).Sprint("$ nowpanel "+strings.Join(args, " ")))
}

func (r *Runner) printPass() {
	fmt.Fprintf(r.out, "    %s\n", r.paint(color.FgGreen).Sprint("ok"))
}

func (r *Runner) printFail(err error) {
	c := r.paint(color.FgRed)
	fmt.Fprintf(r.out, "    %s %s\n", c.Sprint("FAIL"), c.Sprint(err.Error()))
}

// printDetail prints a detail line.
func (r *Runner) printDetail(format string, args ...any) {
	fmt.Fprintf(r.out, "      %s\n", r.paint(color.Faint).Sprintf(format, args...))
}

// printInsight prints a post-step insight.
func (r *Runner) printInsight(msg string) {
	if msg == "" {
		return
	}
	fmt.Fprintf(r.out, "    %s\n", r.paint(color.Faint, color.FgWhite).Sprint("> "+msg))
}

// parseLastJSON parses the last valid JSON line from multi-line output.
func parseLastJSON(raw string) (map[string]any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	lines := strings.Split(raw, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err == nil {
			return m, nil
		}
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, fmt.Errorf("parse JSON: %w (output: %s)", err, raw)
	}
	return m, nil
}

// run executes nowpanel with the demo store and UI state file.
func (r *Runner) run(stdin string, args ...string) (map[string]any, string, error) {
	fullArgs := append([]string{"--db-path", r.dbPath, "--ui-state", r.uiPath}, args...)
	r.printCommand(args)
	cmd := exec.Command(r.binPath, fullArgs...)
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	_ = cmd.Run()
	raw := strings.TrimSpace(stdout.String())
	if raw == "" {
		return nil, raw, nil
	}
	m, err := parseLastJSON(raw)
	if err != nil {
		return nil, raw, err
	}
	return m, raw, nil
}

// nowpanel runs a command and requires success.
func (r *Runner) nowpanel(args ...string) (map[string]any, error) {
	m, raw, err := r.run("", args...)
	if err != nil {
		return nil, err
	}
	if err := mustSuccess(m, raw); err != nil {
		return nil, err
	}
	return m, nil
}

// nowpanelRaw runs a command that prints plain text.
func (r *Runner) nowpanelRaw(args ...string) string {
	fullArgs := append([]string{"--db-path", r.dbPath, "--ui-state", r.uiPath}, args...)
	r.printCommand(args)
	cmd := exec.Command(r.binPath, fullArgs...)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	_ = cmd.Run()
	return strings.TrimRight(stdout.String(), "\n")
}

// mustSuccess returns an error if success != true.
func mustSuccess(m map[string]any, raw string) error {
	if m == nil {
		return fmt.Errorf("nil response (raw: %s)", raw)
	}
	if m["success"] != true {
		return fmt.Errorf("success=false: %s", raw)
	}
	return nil
}

// get walks nested objects by key.
func get(m map[string]any, keys ...string) any {
	var cur any = m
	for _, k := range keys {
		mm, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = mm[k]
	}
	return cur
}

// getStr extracts a nested string field from the parsed JSON.
func getStr(m map[string]any, keys ...string) string {
	s, _ := get(m, keys...).(string)
	return s
}

// getList extracts a nested array field from the parsed JSON.
func getList(m map[string]any, keys ...string) []any {
	l, _ := get(m, keys...).([]any)
	return l
}

// RunAll runs all acts in order, returning pass/fail counts.
func (r *Runner) RunAll(continueOnError bool) (passed, failed int) {
	ctx := &DemoContext{}

	for _, act := range BuildActs() {
		r.printAct(act.Number, act.Name)
		r.printNarration(act.Narration)

		for _, step := range act.Steps {
			r.printStep(step.Name)
			if err := step.Fn(r, ctx); err != nil {
				r.printFail(err)
				failed++
				if !continueOnError {
					fmt.Fprintf(r.out, "\n%s\n", r.paint(color.FgRed, color.Bold).Sprint("Stopped on first failure. Use --continue-on-error to proceed."))
					return passed, failed
				}
				continue
			}
			r.printPass()
			r.printInsight(step.Insight)
			passed++
			if !r.fast {
				time.Sleep(time.Second)
			}
		}
	}

	return passed, failed
}
