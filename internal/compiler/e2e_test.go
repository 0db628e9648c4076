package compiler

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"golang.org/x/tools/txtar"
)

// End-to-end scenarios: compile a fixture's source, run the resulting
// executable, and compare its stdout. Skipped entirely when the host has no
// `as`/`ld`, since these golden archives exercise the real toolchain rather
// than a mock.
func TestScenarios(t *testing.T) {
	if _, err := exec.LookPath("as"); err != nil {
		t.Skip("as not found on PATH, skipping toolchain-backed scenario tests")
	}
	if _, err := exec.LookPath("ld"); err != nil {
		t.Skip("ld not found on PATH, skipping toolchain-backed scenario tests")
	}

	archives, err := filepath.Glob("testdata/*.txtar")
	if err != nil {
		t.Fatalf("globbing fixtures: %v", err)
	}
	if len(archives) == 0 {
		t.Fatal("no scenario fixtures found under testdata/")
	}

	for _, path := range archives {
		path := path
		t.Run(filepath.Base(path), func(t *testing.T) {
			archive, err := txtar.ParseFile(path)
			if err != nil {
				t.Fatalf("parsing archive: %v", err)
			}

			var input, want []byte
			for _, f := range archive.Files {
				switch f.Name {
				case "input.tiny":
					input = f.Data
				case "output":
					want = f.Data
				}
			}
			if input == nil || want == nil {
				t.Fatalf("archive %s missing input.tiny or output section", path)
			}

			program, err := Compile(path, string(input), Options{})
			if err != nil {
				t.Fatalf("compile failed: %v", err)
			}

			dir := t.TempDir()
			exePath := filepath.Join(dir, "program")
			if err := os.WriteFile(exePath, program, 0o755); err != nil {
				t.Fatalf("writing executable: %v", err)
			}

			var stdout bytes.Buffer
			cmd := exec.Command(exePath)
			cmd.Stdout = &stdout
			if err := cmd.Run(); err != nil {
				t.Fatalf("running compiled program: %v", err)
			}

			if stdout.String() != string(want) {
				t.Errorf("stdout = %q, want %q", stdout.String(), string(want))
			}
		})
	}
}
