// Command demo runs a colorized, self-contained walkthrough of nowpanel.
// It shells out to the nowpanel binary against a throwaway block store.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/dotcommander/nowpanel/internal/demo"
)

func main() {
	var binPath string
	var continueOnError bool
	var fast bool
	flag.StringVar(&binPath, "bin", "", "Path to nowpanel binary (default: builds from source)")
	flag.BoolVar(&continueOnError, "continue-on-error", false, "Continue after step failures")
	flag.BoolVar(&fast, "fast", false, "Skip the pause after each successful step")
	flag.Parse()

	if binPath == "" {
		tmpDir, err := os.MkdirTemp("", "nowpanel-demo-bin-*")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create temp dir: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = os.RemoveAll(tmpDir) }()

		binPath = filepath.Join(tmpDir, "nowpanel")
		fmt.Fprintln(os.Stderr, "Building nowpanel binary...")
		buildCmd := exec.Command("go", "build", "-o", binPath, "./cmd/nowpanel")
		buildCmd.Stdout = os.Stderr
		buildCmd.Stderr = os.Stderr
		if err := buildCmd.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to build nowpanel: %v\n", err)
			os.Exit(1)
		}
	}

	dataDir, err := os.MkdirTemp("", "nowpanel-demo-db-*")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create data dir: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = os.RemoveAll(dataDir) }()

	r := demo.NewRunner(binPath,
		filepath.Join(dataDir, "nowpanel-demo.db"),
		filepath.Join(dataDir, "ui-state.yaml"),
		os.Stdout, fast)
	passed, failed := r.RunAll(continueOnError)

	_, _ = fmt.Fprintf(os.Stdout, "\n%d passed, %d failed, %d total\n", passed, failed, passed+failed)
	if failed > 0 {
		os.Exit(1)
	}
}
