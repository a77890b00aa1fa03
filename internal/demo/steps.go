package demo

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

const projectPage = "Project X"

func clockStamp(t time.Time) string {
	return t.Format("2006-01-02 Mon 15:04:05")
}

func ids(list []any) []string {
	out := make([]string, 0, len(list))
	for _, it := range list {
		if m, ok := it.(map[string]any); ok {
			if id, ok := m["id"].(string); ok {
				out = append(out, id)
			}
		}
	}
	return out
}

func (r *Runner) addBlock(args ...string) (string, error) {
	m, err := r.nowpanel(append([]string{"add"}, args...)...)
	if err != nil {
		return "", err
	}
	id := getStr(m, "data", "block", "id")
	if id == "" {
		return "", fmt.Errorf("add returned no block id")
	}
	return id, nil
}

// Act I: Seeding The Outliner

func stepStatus(r *Runner, ctx *DemoContext) error {
	m, err := r.nowpanel("status")
	if err != nil {
		return err
	}
	current, _ := get(m, "data", "schema_version").(float64)
	latest, _ := get(m, "data", "latest_schema").(float64)
	if current == 0 || current != latest {
		return fmt.Errorf("schema not migrated: %v of %v", current, latest)
	}
	r.printDetail("Schema version %v", current)
	return nil
}

func stepSeedProject(r *Runner, ctx *DemoContext) error {
	parent, err := r.addBlock("--page", projectPage, "--text", "Ship v2")
	if err != nil {
		return err
	}
	ctx.ProjectID = parent

	now := time.Now()
	report := fmt.Sprintf("NOW [#A] Write report\n:LOGBOOK:\nCLOCK: [%s]\n:END:", clockStamp(now.Add(-25*time.Minute)))
	if ctx.ReportID, err = r.addBlock("--parent", parent, "--text", report); err != nil {
		return err
	}
	vendor := fmt.Sprintf("WAITING Vendor reply\nSCHEDULED: <%s>", now.AddDate(0, 0, 2).Format("2006-01-02 Mon"))
	if ctx.VendorID, err = r.addBlock("--parent", parent, "--text", vendor); err != nil {
		return err
	}
	if ctx.BankID, err = r.addBlock("--parent", parent, "--text", "TODO Call the bank"); err != nil {
		return err
	}
	r.printDetail("Parent=%s Report=%s Vendor=%s Bank=%s", parent, ctx.ReportID, ctx.VendorID, ctx.BankID)
	return nil
}

func stepSeedJournal(r *Runner, ctx *DemoContext) error {
	for _, text := range []string{"TODO Review PR", "LATER Plan sprint", "((" + ctx.ReportID + "))"} {
		id, err := r.addBlock("--journal", "--text", text)
		if err != nil {
			return err
		}
		ctx.JournalIDs = append(ctx.JournalIDs, id)
	}
	r.printDetail("Journal blocks: %s", strings.Join(ctx.JournalIDs, ", "))
	return nil
}

// Act II: Reading The Panel

func stepNowView(r *Runner, ctx *DemoContext) error {
	m, err := r.nowpanel("now")
	if err != nil {
		return err
	}
	tasks := getList(m, "data", "tasks")
	if got := ids(tasks); !slices.Equal(got, []string{ctx.ReportID}) {
		return fmt.Errorf("now view: want [%s], got %v", ctx.ReportID, got)
	}
	first, _ := tasks[0].(map[string]any)
	if first["parent_text"] != "Ship v2" {
		return fmt.Errorf("now view: parent_text = %v", first["parent_text"])
	}
	r.printDetail("Running for %vms under %q", first["elapsed_ms"], first["parent_text"])
	return nil
}

func stepWaitingView(r *Runner, ctx *DemoContext) error {
	m, err := r.nowpanel("waiting")
	if err != nil {
		return err
	}
	tasks := getList(m, "data", "tasks")
	if got := ids(tasks); !slices.Equal(got, []string{ctx.VendorID}) {
		return fmt.Errorf("waiting view: want [%s], got %v", ctx.VendorID, got)
	}
	first, _ := tasks[0].(map[string]any)
	r.printDetail("Scheduled %v", first["schedule_label"])
	return nil
}

func stepTodayView(r *Runner, ctx *DemoContext) error {
	m, err := r.nowpanel("today")
	if err != nil {
		return err
	}
	now := getList(m, "data", "groups", "now")
	later := getList(m, "data", "groups", "todo_later")
	if got := ids(now); !slices.Contains(got, ctx.ReportID) {
		return fmt.Errorf("today view: referenced task missing from now group: %v", got)
	}
	if len(later) != 2 {
		return fmt.Errorf("today view: want 2 todo/later tasks, got %d", len(later))
	}
	r.printDetail("now=%d todo_later=%d", len(now), len(later))
	return nil
}

func stepBoard(r *Runner, ctx *DemoContext) error {
	out := r.nowpanelRaw("board", "--no-color")
	if !strings.Contains(out, "NOW (1)") || !strings.Contains(out, "Write report") {
		return fmt.Errorf("board missing NOW section:\n%s", out)
	}
	for _, line := range strings.Split(out, "\n") {
		r.printDetail("%s", line)
	}
	return nil
}

// Act III: Snoozing

func stepSnoozeTask(r *Runner, ctx *DemoContext) error {
	m, err := r.nowpanel("snooze", ctx.BankID, "2h")
	if err != nil {
		return err
	}
	r.printDetail("Snoozed until %s (%s)", getStr(m, "data", "snooze_until"), getStr(m, "data", "label"))

	s, err := r.nowpanel("snoozed")
	if err != nil {
		return err
	}
	if got := ids(getList(s, "data", "groups", "pending")); !slices.Equal(got, []string{ctx.BankID}) {
		return fmt.Errorf("snoozed view: want pending [%s], got %v", ctx.BankID, got)
	}
	return nil
}

func stepRejectBadDuration(r *Runner, ctx *DemoContext) error {
	m, raw, err := r.run("", "snooze", ctx.BankID, "whenever")
	if err != nil {
		return err
	}
	if m == nil || m["success"] != false || m["error_code"] != "INVALID_INPUT" {
		return fmt.Errorf("expected INVALID_INPUT, got %s", raw)
	}
	r.printDetail("%s", getStr(m, "suggested_action"))
	return nil
}

func stepHideCSS(r *Runner, ctx *DemoContext) error {
	if _, err := r.nowpanel("nav", "page", projectPage); err != nil {
		return err
	}
	m, err := r.nowpanel("css")
	if err != nil {
		return err
	}
	hidden := getList(m, "data", "hidden_ids")
	if len(hidden) != 1 || hidden[0] != ctx.BankID {
		return fmt.Errorf("css: want [%s] hidden, got %v", ctx.BankID, hidden)
	}
	r.printDetail("%s", strings.ReplaceAll(getStr(m, "data", "css"), "\n", " "))

	if _, err := r.nowpanel("nav", "edit", ctx.BankID); err != nil {
		return err
	}
	m, err = r.nowpanel("css")
	if err != nil {
		return err
	}
	if hidden := getList(m, "data", "hidden_ids"); len(hidden) != 0 {
		return fmt.Errorf("css: editing block must stay visible, got %v", hidden)
	}
	_, err = r.nowpanel("nav", "edit", "--clear")
	return err
}

func stepResurfaced(r *Runner, ctx *DemoContext) error {
	now := time.Now().UTC()
	id, err := r.addBlock("--page", projectPage, "--text", "TODO Renew domain",
		"--prop", "snoozedUntil="+now.Add(-time.Hour).Format(time.RFC3339),
		"--prop", "snoozedAt="+now.Add(-24*time.Hour).Format(time.RFC3339),
	)
	if err != nil {
		return err
	}
	ctx.ExpiredID = id

	m, err := r.nowpanel("snoozed")
	if err != nil {
		return err
	}
	resurfaced := getList(m, "data", "groups", "resurfaced")
	if got := ids(resurfaced); !slices.Equal(got, []string{id}) {
		return fmt.Errorf("snoozed view: want resurfaced [%s], got %v", id, got)
	}
	first, _ := resurfaced[0].(map[string]any)
	r.printDetail("%v, unread=%v", first["label"], get(m, "data", "unread_count"))
	return nil
}

// Act IV: Finishing Work

func stepPrioritize(r *Runner, ctx *DemoContext) error {
	if _, err := r.nowpanel("priority", ctx.VendorID, "B"); err != nil {
		return err
	}
	m, err := r.nowpanel("show", "--id", ctx.VendorID)
	if err != nil {
		return err
	}
	text := getStr(m, "data", "block", "text")
	if !strings.HasPrefix(text, "WAITING [#B] Vendor reply") {
		return fmt.Errorf("priority not applied: %q", text)
	}
	r.printDetail("%s", strings.SplitN(text, "\n", 2)[0])
	return nil
}

func stepEstimate(r *Runner, ctx *DemoContext) error {
	m, err := r.nowpanel("estimate", ctx.ReportID, "1h30m")
	if err != nil {
		return err
	}
	if minutes, _ := get(m, "data", "minutes").(float64); minutes != 90 {
		return fmt.Errorf("estimate: want 90 minutes, got %v", minutes)
	}
	r.printDetail("Estimated 90 minutes")
	return nil
}

func stepComplete(r *Runner, ctx *DemoContext) error {
	if _, err := r.nowpanel("complete", ctx.ReportID); err != nil {
		return err
	}
	m, err := r.nowpanel("now")
	if err != nil {
		return err
	}
	if tasks := getList(m, "data", "tasks"); len(tasks) != 0 {
		return fmt.Errorf("now view should be empty, got %d tasks", len(tasks))
	}
	s, err := r.nowpanel("show", "--id", ctx.ReportID)
	if err != nil {
		return err
	}
	text := getStr(s, "data", "block", "text")
	if !strings.HasPrefix(text, "DONE") || !strings.Contains(text, "--[") {
		return fmt.Errorf("complete: clock not closed: %q", text)
	}
	r.printDetail("%s", strings.ReplaceAll(text, "\n", " | "))
	return nil
}
