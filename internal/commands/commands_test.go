package commands

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cli struct {
	t      *testing.T
	dbPath string
	uiPath string
}

func setupCLI(t *testing.T) *cli {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("NOWPANEL_PRETTY_JSON", "")
	t.Setenv("NOWPANEL_DESKTOP_NOTIFY", "false")
	dir := t.TempDir()
	return &cli{
		t:      t,
		dbPath: filepath.Join(dir, "nowpanel.db"),
		uiPath: filepath.Join(dir, "ui-state.yaml"),
	}
}

// run executes the root command and returns stdout.
func (c *cli) run(args ...string) (string, error) {
	c.t.Helper()

	original := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(c.t, err)
	os.Stdout = w

	done := make(chan []byte)
	go func() {
		b, _ := io.ReadAll(r)
		done <- b
	}()

	root := newRootCmd("test", nil)
	root.SetArgs(append([]string{"--db-path", c.dbPath, "--ui-state", c.uiPath}, args...))
	runErr := root.Execute()

	os.Stdout = original
	require.NoError(c.t, w.Close())
	out := <-done
	require.NoError(c.t, r.Close())
	return string(out), runErr
}

// ok runs a command that must succeed and decodes its data payload.
func (c *cli) ok(args ...string) map[string]any {
	c.t.Helper()
	out, err := c.run(args...)
	require.NoError(c.t, err, out)
	var resp struct {
		Success bool           `json:"success"`
		Data    map[string]any `json:"data"`
	}
	require.NoError(c.t, json.Unmarshal([]byte(lastLine(out)), &resp), out)
	require.True(c.t, resp.Success, out)
	return resp.Data
}

func (c *cli) add(args ...string) string {
	c.t.Helper()
	data := c.ok(append([]string{"add"}, args...)...)
	block, _ := data["block"].(map[string]any)
	id, _ := block["id"].(string)
	require.NotEmpty(c.t, id)
	return id
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return lines[len(lines)-1]
}

func listIDs(v any) []string {
	list, _ := v.([]any)
	out := make([]string, 0, len(list))
	for _, it := range list {
		m, _ := it.(map[string]any)
		if id, ok := m["id"].(string); ok {
			out = append(out, id)
		}
	}
	return out
}

func TestRootCmd_HasExpectedSubcommands(t *testing.T) {
	root := newRootCmd("test", nil)
	for _, name := range []string{
		"add", "show", "pages", "nav", "now", "waiting", "today", "snoozed", "snapshot",
		"board", "css", "watch", "snooze", "unsnooze", "priority", "complete", "estimate", "push", "status",
	} {
		sub, _, err := root.Find([]string{name})
		require.NoError(t, err)
		require.Equal(t, name, sub.Name())
	}
}

func TestAddCmd_ValidationErrorsBeforeDB(t *testing.T) {
	t.Setenv("NOWPANEL_PRETTY_JSON", "")

	cmd := NewAddCmd()
	err := cmd.RunE(cmd, nil)
	require.Error(t, err)
	require.IsType(t, printedError{}, err)

	cmd = NewAddCmd()
	require.NoError(t, cmd.Flags().Set("text", "TODO x"))
	require.NoError(t, cmd.Flags().Set("page", "P"))
	require.NoError(t, cmd.Flags().Set("journal", "true"))
	err = cmd.RunE(cmd, nil)
	require.IsType(t, printedError{}, err)

	cmd = NewAddCmd()
	require.NoError(t, cmd.Flags().Set("text", "TODO x"))
	require.NoError(t, cmd.Flags().Set("page", "P"))
	require.NoError(t, cmd.Flags().Set("prop", "novalue"))
	err = cmd.RunE(cmd, nil)
	require.IsType(t, printedError{}, err)
}

func TestAddAndShow_PageTree(t *testing.T) {
	c := setupCLI(t)
	parent := c.add("--page", "Project X", "--text", "Ship v2")
	child := c.add("--parent", parent, "--text", "NOW [#A] Write report", "--prop", "estimatedTime=30")

	data := c.ok("show", "--page", "Project X")
	blocks, _ := data["blocks"].([]any)
	require.Len(t, blocks, 1)
	root, _ := blocks[0].(map[string]any)
	assert.Equal(t, parent, root["id"])
	assert.Equal(t, []string{child}, listIDs(root["children"]))

	data = c.ok("show", "--id", child)
	block, _ := data["block"].(map[string]any)
	assert.Equal(t, "NOW [#A] Write report", block["text"])
	ann, _ := block["annotations"].(map[string]any)
	assert.EqualValues(t, 30, ann["estimatedTime"])

	pages := c.ok("pages")
	assert.Len(t, pages["pages"], 1)
}

func TestShow_UnknownBlockPrintsStructuredError(t *testing.T) {
	c := setupCLI(t)
	out, err := c.run("show", "--id", "missing")
	require.Error(t, err)
	require.IsType(t, printedError{}, err)
	assert.Contains(t, out, `"error_code":"BLOCK_NOT_FOUND"`)
}

func TestViews_NowWaitingToday(t *testing.T) {
	c := setupCLI(t)
	parent := c.add("--page", "Project X", "--text", "Ship v2")
	report := c.add("--parent", parent, "--text", "NOW [#B] Write report")
	urgent := c.add("--parent", parent, "--text", "DOING [#A] Fix outage")
	vendor := c.add("--page", "Project X", "--text", "WAITING Vendor reply")
	c.add("--journal", "--text", "TODO Review PR")
	c.add("--journal", "--text", "(("+report+"))")

	now := c.ok("now")
	assert.Equal(t, []string{urgent, report}, listIDs(now["tasks"]))
	assert.Equal(t, false, now["loading"])
	tasks, _ := now["tasks"].([]any)
	first, _ := tasks[0].(map[string]any)
	assert.Equal(t, "Ship v2", first["parent_text"])

	waiting := c.ok("waiting")
	assert.Equal(t, []string{vendor}, listIDs(waiting["tasks"]))

	today := c.ok("today")
	groups, _ := today["groups"].(map[string]any)
	assert.Equal(t, []string{report}, listIDs(groups["now"]))
	assert.Len(t, groups["todo_later"], 1)
}

func TestSnoozeFlow_PendingCSSAndEditing(t *testing.T) {
	c := setupCLI(t)
	bank := c.add("--page", "Project X", "--text", "TODO Call the bank")
	other := c.add("--page", "Project X", "--text", "TODO Other")

	data := c.ok("snooze", bank, "2h")
	assert.True(t, strings.HasPrefix(data["label"].(string), "in "), data["label"])

	snoozed := c.ok("snoozed")
	groups, _ := snoozed["groups"].(map[string]any)
	assert.Equal(t, []string{bank}, listIDs(groups["pending"]))

	// Not rendered yet: the default route is today's journal.
	css := c.ok("css")
	assert.Empty(t, css["hidden_ids"])

	c.ok("nav", "page", "Project X")
	css = c.ok("css")
	assert.Equal(t, []any{bank}, css["hidden_ids"])
	assert.Contains(t, css["css"], `.ls-block[blockid="`+bank+`"]`)
	assert.NotContains(t, css["css"], other)

	c.ok("nav", "edit", bank)
	css = c.ok("css")
	assert.Empty(t, css["hidden_ids"])

	c.ok("nav", "edit", "--clear")
	c.ok("unsnooze", bank)
	snoozed = c.ok("snoozed")
	groups, _ = snoozed["groups"].(map[string]any)
	assert.Empty(t, groups["pending"])
}

func TestSnooze_InvalidInput(t *testing.T) {
	c := setupCLI(t)
	id := c.add("--page", "P", "--text", "TODO x")

	out, err := c.run("snooze", id, "whenever")
	require.Error(t, err)
	assert.Contains(t, out, `"error_code":"INVALID_INPUT"`)
	assert.Contains(t, out, `"field":"duration"`)

	out, err = c.run("snooze", id)
	require.Error(t, err)
	assert.Contains(t, out, `"success":false`)

	out, err = c.run("snooze", id, "--until", "2000-01-01T00:00:00Z")
	require.Error(t, err)
	assert.Contains(t, out, `"field":"snooze_until"`)
}

func TestSnoozed_ExpiredAnnotationsResurface(t *testing.T) {
	c := setupCLI(t)
	id := c.add("--page", "P", "--text", "TODO Renew domain",
		"--prop", "snoozedUntil=2020-01-01T00:00:00Z",
		"--prop", "snoozedAt=2019-12-31T00:00:00Z",
	)
	data := c.ok("snoozed")
	groups, _ := data["groups"].(map[string]any)
	assert.Equal(t, []string{id}, listIDs(groups["resurfaced"]))
	assert.EqualValues(t, 1, data["unread_count"])
}

func TestActions_PriorityEstimateComplete(t *testing.T) {
	c := setupCLI(t)
	id := c.add("--page", "P", "--text", "NOW Write report\n:LOGBOOK:\nCLOCK: [2024-01-19 Fri 09:00:00]\n:END:")

	c.ok("priority", id, "a")
	block, _ := c.ok("show", "--id", id)["block"].(map[string]any)
	assert.True(t, strings.HasPrefix(block["text"].(string), "NOW [#A] Write report"))

	c.ok("priority", id, "none")
	block, _ = c.ok("show", "--id", id)["block"].(map[string]any)
	assert.True(t, strings.HasPrefix(block["text"].(string), "NOW Write report"))

	out, err := c.run("priority", id, "Z")
	require.Error(t, err)
	assert.Contains(t, out, "INVALID_INPUT")

	est := c.ok("estimate", id, "1h30m")
	assert.EqualValues(t, 90, est["minutes"])
	c.ok("estimate", id, "--clear")

	c.ok("complete", id)
	block, _ = c.ok("show", "--id", id)["block"].(map[string]any)
	text := block["text"].(string)
	assert.True(t, strings.HasPrefix(text, "DONE Write report"), text)
	assert.Contains(t, text, "--[")
	assert.Empty(t, c.ok("now")["tasks"])
}

func TestNav_SidePanel(t *testing.T) {
	c := setupCLI(t)
	data := c.ok("nav", "side", "--open-page", "Inbox", "--open-block", "b1")
	assert.Len(t, data["side_panel"], 2)

	data = c.ok("nav", "side", "--open-page", "Inbox")
	assert.Len(t, data["side_panel"], 2)

	data = c.ok("nav", "side", "--close", "b1")
	assert.Len(t, data["side_panel"], 1)

	data = c.ok("nav", "side", "--clear")
	assert.Empty(t, data["side_panel"])

	c.ok("nav", "format", "yyyy-MM-dd")
	data = c.ok("nav", "show")
	assert.Equal(t, "yyyy-MM-dd", data["date_format"])

	_, err := c.run("nav", "side")
	require.Error(t, err)
}

func TestPush_SubscribeListRemove(t *testing.T) {
	c := setupCLI(t)
	c.ok("push", "subscribe", "--json", `{"endpoint":"https://push.example/1","keys":{"p256dh":"pk","auth":"ak"}}`)
	c.ok("push", "subscribe", "--endpoint", "https://push.example/2", "--p256dh", "pk2", "--auth", "ak2")

	subs := c.ok("push", "list")
	assert.Len(t, subs["subscriptions"], 2)

	removed := c.ok("push", "remove", "https://push.example/1")
	assert.Equal(t, true, removed["removed"])
	removed = c.ok("push", "remove", "https://push.example/1")
	assert.Equal(t, false, removed["removed"])

	_, err := c.run("push", "subscribe", "--endpoint", "https://push.example/3")
	require.Error(t, err)

	keys := c.ok("push", "keys")
	assert.NotEmpty(t, keys["vapid_public_key"])
	assert.NotEmpty(t, keys["vapid_private_key"])
}

func TestStatus_ReportsSchemaAndCounts(t *testing.T) {
	c := setupCLI(t)
	c.add("--page", "P", "--text", "TODO x")

	data := c.ok("status")
	assert.Equal(t, data["latest_schema"], data["schema_version"])
	assert.EqualValues(t, 1, data["pages"])
	assert.EqualValues(t, 1, data["blocks"])
	assert.Equal(t, c.dbPath, data["db_path"])
}

func TestStatus_SchemaMode(t *testing.T) {
	c := setupCLI(t)
	data := c.ok("status", "--schema")
	cmds, _ := data["commands"].([]any)

	byName := map[string]map[string]any{}
	for _, it := range cmds {
		m, _ := it.(map[string]any)
		byName[m["command"].(string)] = m
	}
	add, ok := byName["nowpanel add"]
	require.True(t, ok)
	assert.Equal(t, true, add["mutates"])
	args, _ := add["args_schema"].(map[string]any)
	assert.Equal(t, []any{"text"}, args["required"])

	_, ok = byName["nowpanel push"]
	assert.False(t, ok, "command groups are not listed")
	_, ok = byName["nowpanel push list"]
	assert.True(t, ok)
}

func TestParseProps(t *testing.T) {
	props, err := parseProps([]string{"estimatedTime=45", "owner=sam", "note=a=b"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"estimatedTime": 45, "owner": "sam", "note": "a=b"}, props)

	props, err = parseProps(nil)
	require.NoError(t, err)
	assert.Nil(t, props)

	_, err = parseProps([]string{"=x"})
	require.Error(t, err)
}
