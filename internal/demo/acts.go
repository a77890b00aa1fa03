package demo

// DemoContext holds shared state passed between steps.
type DemoContext struct {
	ProjectID  string
	ReportID   string
	VendorID   string
	BankID     string
	ExpiredID  string
	JournalIDs []string
}

// StepFunc is a function that runs a single demo step.
type StepFunc func(r *Runner, ctx *DemoContext) error

// Step represents a single named step within an act.
type Step struct {
	Name    string
	Fn      StepFunc
	Insight string
}

// Act represents a named act with narration and steps.
type Act struct {
	Number    int
	Name      string
	Narration []string
	Steps     []Step
}

// BuildActs returns all acts with their steps.
func BuildActs() []Act {
	return []Act{
		{
			Number: 1,
			Name:   "Seeding The Outliner",
			Narration: []string{
				"Write a project page and today's journal into the block store.",
				"Markers, priorities, schedules and clocks live in plain block text.",
			},
			Steps: []Step{
				{Name: "status", Fn: stepStatus, Insight: "The store migrates itself on first open; status reports the schema version."},
				{Name: "seed_project", Fn: stepSeedProject, Insight: "Tasks nest under a parent block; the parent becomes their context line."},
				{Name: "seed_journal", Fn: stepSeedJournal, Insight: "Today's journal holds new tasks and a ((reference)) to one that lives elsewhere."},
			},
		},
		{
			Number: 2,
			Name:   "Reading The Panel",
			Narration: []string{
				"Every view reads the same snapshot, built by one aggregation cycle.",
			},
			Steps: []Step{
				{Name: "now_view", Fn: stepNowView, Insight: "NOW tasks sort by priority, then by how long their clock has been running."},
				{Name: "waiting_view", Fn: stepWaitingView, Insight: "Scheduled waits come first, soonest due first, with a relative label."},
				{Name: "today_view", Fn: stepTodayView, Insight: "The referenced task is expanded in place and flagged as a reference."},
				{Name: "board", Fn: stepBoard, Insight: "The board renders all four lists for humans."},
			},
		},
		{
			Number: 3,
			Name:   "Snoozing",
			Narration: []string{
				"Snoozed tasks disappear from the page until their time comes.",
			},
			Steps: []Step{
				{Name: "snooze_task", Fn: stepSnoozeTask, Insight: "The snooze is two block annotations; the text is untouched."},
				{Name: "reject_bad_duration", Fn: stepRejectBadDuration, Insight: "Input that does not parse is an error, never a silent default."},
				{Name: "hide_css", Fn: stepHideCSS, Insight: "Only rendered blocks are hidden, and never the one being edited."},
				{Name: "resurfaced", Fn: stepResurfaced, Insight: "An expired snooze resurfaces first and counts as unread until seen."},
			},
		},
		{
			Number: 4,
			Name:   "Finishing Work",
			Narration: []string{
				"Actions edit the block text and let the next cycle pick the change up.",
			},
			Steps: []Step{
				{Name: "prioritize", Fn: stepPrioritize, Insight: "The [#A]/[#B]/[#C] tag is rewritten in place."},
				{Name: "estimate", Fn: stepEstimate, Insight: "Estimates are stored in minutes on the block."},
				{Name: "complete", Fn: stepComplete, Insight: "DONE closes the running clock; the task leaves the NOW list."},
			},
		},
	}
}
