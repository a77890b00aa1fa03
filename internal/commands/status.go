package commands

import (
	"runtime"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/dotcommander/nowpanel/internal/app"
	"github.com/dotcommander/nowpanel/internal/notify"
	"github.com/dotcommander/nowpanel/internal/output"
	"github.com/dotcommander/nowpanel/internal/store"
)

// NewStatusCmd creates the status command. Pass the root command so --schema
// can collect command schemas.
func NewStatusCmd(root *cobra.Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show store, configuration and notifier status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			schemaMode, _ := cmd.Flags().GetBool("schema")
			if schemaMode {
				return runSchemaMode(root)
			}
			return runDefaultStatus(cmd)
		},
	}
	cmd.Flags().Bool("schema", false, "Show command argument schemas")
	return cmd
}

type runtimeStatus struct {
	FastInterval   string `json:"fast_interval"`
	MediumInterval string `json:"medium_interval"`
	SlowInterval   string `json:"slow_interval"`
	SafetyDelay    string `json:"safety_delay"`
	GracePeriod    string `json:"grace_period"`
	CallTimeout    string `json:"call_timeout"`
	DateFormat     string `json:"date_format"`
	HideDone       bool   `json:"hide_done"`
}

type notifierStatus struct {
	Desktop       bool   `json:"desktop"`
	DesktopHelper string `json:"desktop_helper,omitempty"`
	DesktopError  string `json:"desktop_error,omitempty"`
	WebPush       bool   `json:"web_push"`
	Subscriptions int    `json:"subscriptions"`
}

func runDefaultStatus(cmd *cobra.Command) error {
	settings, err := app.LoadSettings()
	if err != nil {
		return cmdErr(err)
	}
	dbPath, err := app.GetDBPath()
	if err != nil {
		return cmdErr(err)
	}
	uiPath, err := app.GetUIStatePath()
	if err != nil {
		return cmdErr(err)
	}
	rt := app.RuntimeFrom(settings)

	type resp struct {
		DBPath        string         `json:"db_path"`
		UIStatePath   string         `json:"ui_state_path"`
		SchemaVersion int64          `json:"schema_version"`
		LatestSchema  int64          `json:"latest_schema"`
		Pages         int            `json:"pages"`
		Blocks        int            `json:"blocks"`
		Runtime       runtimeStatus  `json:"runtime"`
		Notifiers     notifierStatus `json:"notifiers"`
	}
	out := resp{
		DBPath:      dbPath,
		UIStatePath: uiPath,
		Runtime: runtimeStatus{
			FastInterval:   rt.FastInterval.String(),
			MediumInterval: rt.MediumInterval.String(),
			SlowInterval:   rt.SlowInterval.String(),
			SafetyDelay:    rt.SafetyDelay.String(),
			GracePeriod:    rt.GracePeriod.String(),
			CallTimeout:    rt.CallTimeout.String(),
			DateFormat:     rt.DateFormat,
			HideDone:       rt.HideDone,
		},
		Notifiers: notifierStatus{
			Desktop: settings.Notifications.Desktop,
			WebPush: settings.Notifications.WebPush.Enabled(),
		},
	}
	if out.Notifiers.Desktop {
		if d, err := notify.NewDesktop(runtime.GOOS); err != nil {
			out.Notifiers.DesktopError = err.Error()
		} else {
			out.Notifiers.DesktopHelper = d.Command()
		}
	}

	if err := withDB(func(db *DB) error {
		ctx := cmdContext(cmd)
		current, latest, err := store.SchemaVersion(db)
		if err != nil {
			return err
		}
		out.SchemaVersion, out.LatestSchema = current, latest

		pages, err := store.ListPages(ctx, db)
		if err != nil {
			return err
		}
		out.Pages = len(pages)
		for _, p := range pages {
			out.Blocks += p.Blocks
		}

		subs, err := store.ListPushSubscriptions(ctx, db)
		if err != nil {
			return err
		}
		out.Notifiers.Subscriptions = len(subs)
		return nil
	}); err != nil {
		return err
	}
	return output.PrintSuccess(out)
}

type commandArgSchema struct {
	Command     string         `json:"command"`
	Description string         `json:"description,omitempty"`
	Mutates     bool           `json:"mutates,omitempty"`
	ArgsSchema  map[string]any `json:"args_schema"`
}

func runSchemaMode(root *cobra.Command) error {
	var schemas []commandArgSchema
	collectCommandSchemas(root, root, &schemas)
	type resp struct {
		Commands []commandArgSchema `json:"commands"`
	}
	return output.PrintSuccess(resp{Commands: schemas})
}

func collectCommandSchemas(root, cmd *cobra.Command, out *[]commandArgSchema) {
	if cmd != root && !cmd.Hidden && cmd.Runnable() {
		*out = append(*out, buildCommandSchema(cmd))
	}
	for _, child := range cmd.Commands() {
		collectCommandSchemas(root, child, out)
	}
}

func buildCommandSchema(cmd *cobra.Command) commandArgSchema {
	properties := map[string]any{}
	required := make([]string, 0)
	seen := map[string]bool{}

	addFlag := func(f *pflag.Flag) {
		if f.Hidden || seen[f.Name] {
			return
		}
		seen[f.Name] = true

		flagSchema := map[string]any{
			"type":        normalizeFlagType(f.Value.Type()),
			"description": f.Usage,
		}
		if f.DefValue != "" && f.DefValue != "[]" {
			flagSchema["default"] = typedFlagDefault(f.Value.Type(), f.DefValue)
		}
		if f.Value.Type() == "stringArray" {
			flagSchema["items"] = map[string]string{"type": "string"}
		}
		properties[f.Name] = flagSchema

		if isRequiredFlag(f) {
			required = append(required, f.Name)
		}
	}

	cmd.InheritedFlags().VisitAll(addFlag)
	cmd.NonInheritedFlags().VisitAll(addFlag)

	argsSchema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		argsSchema["required"] = required
	}

	return commandArgSchema{
		Command:     cmd.CommandPath(),
		Description: cmd.Short,
		Mutates:     cmd.Annotations["mutates"] == "true",
		ArgsSchema:  argsSchema,
	}
}

func normalizeFlagType(flagType string) string {
	switch flagType {
	case "int", "int64", "int32", "uint", "uint64", "uint32":
		return "integer"
	case "bool":
		return "boolean"
	case "stringArray", "stringSlice":
		return "array"
	default:
		return "string"
	}
}

func typedFlagDefault(flagType, raw string) any {
	switch flagType {
	case "bool":
		if v, err := strconv.ParseBool(raw); err == nil {
			return v
		}
	case "int", "int64", "int32", "uint", "uint64", "uint32":
		if v, err := strconv.Atoi(raw); err == nil {
			return v
		}
	}
	return raw
}

func isRequiredFlag(f *pflag.Flag) bool {
	if vals, ok := f.Annotations[cobra.BashCompOneRequiredFlag]; ok && len(vals) > 0 && vals[0] == "true" {
		return true
	}
	return strings.Contains(strings.ToLower(f.Usage), "(required)")
}
