// Package assemble drives the external `as`/`ld`/`cc` toolchain that turns
// AT&T assembly text into a linked executable.
package assemble

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Options controls how the program assembly is linked against the stdlib.
type Options struct {
	// LinkWithC omits the stdlib's _start and links via `cc` instead of
	// `ld`, so the C runtime supplies program entry.
	LinkWithC bool
	// ExtraLibraries are passed to the linker as -l<name>.
	ExtraLibraries []string
	// Workdir, if set, is used instead of a private temporary directory
	// and is not removed afterward.
	Workdir string
}

// Assemble invokes the toolchain and returns the resulting executable's
// bytes. All intermediate files live in a private directory that is removed
// before this function returns, unless Options.Workdir overrides that.
func Assemble(assemblyCode string, opts Options) ([]byte, error) {
	workdir := opts.Workdir
	if workdir == "" {
		dir, err := os.MkdirTemp("", "tinylangc_")
		if err != nil {
			return nil, errors.Wrap(err, "creating assembler working directory")
		}
		defer os.RemoveAll(dir)
		workdir = dir
	}

	stdlibAsm := filepath.Join(workdir, "stdlib.s")
	stdlibObj := filepath.Join(workdir, "stdlib.o")
	programAsm := filepath.Join(workdir, "program.s")
	programObj := filepath.Join(workdir, "program.o")
	outputFile := filepath.Join(workdir, "a.out")

	finalStdlib := stdlibAsmCode
	if opts.LinkWithC {
		var err error
		finalStdlib, err = dropStartSymbol(stdlibAsmCode)
		if err != nil {
			return nil, err
		}
	}

	if err := os.WriteFile(stdlibAsm, []byte(finalStdlib), 0o644); err != nil {
		return nil, errors.Wrap(err, "writing stdlib assembly")
	}
	if err := os.WriteFile(programAsm, []byte(assemblyCode), 0o644); err != nil {
		return nil, errors.Wrap(err, "writing program assembly")
	}

	if err := run("as", "-g", "-o", stdlibObj, stdlibAsm); err != nil {
		return nil, errors.Wrap(err, "assembling stdlib")
	}
	if err := run("as", "-g", "-o", programObj, programAsm); err != nil {
		return nil, errors.Wrap(err, "assembling program")
	}

	linkerFlags := []string{"-static"}
	for _, lib := range opts.ExtraLibraries {
		linkerFlags = append(linkerFlags, "-l"+lib)
	}

	if opts.LinkWithC {
		args := append([]string{"-o", outputFile}, linkerFlags...)
		args = append(args, stdlibObj, programObj)
		if err := run("cc", args...); err != nil {
			return nil, errors.Wrap(err, "linking with cc")
		}
	} else {
		args := append([]string{"-o", outputFile}, linkerFlags...)
		args = append(args, stdlibObj, programObj)
		if err := run("ld", args...); err != nil {
			return nil, errors.Wrap(err, "linking with ld")
		}
	}

	out, err := os.ReadFile(outputFile)
	if err != nil {
		return nil, errors.Wrap(err, "reading linked executable")
	}
	return out, nil
}

func run(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return errors.Wrapf(err, "%s %s: %s", name, strings.Join(args, " "), strings.TrimSpace(string(out)))
	}
	return nil
}

// dropStartSymbol removes the `_start` definition from the stdlib assembly,
// bounded by the "# BEGIN START" / "# END START" markers, so the C runtime
// can supply program entry instead.
func dropStartSymbol(code string) (string, error) {
	before, rest, ok := strings.Cut(code, "# BEGIN START")
	if !ok {
		return "", errors.New("stdlib assembly missing BEGIN START marker")
	}
	_, after, ok := strings.Cut(rest, "# END START")
	if !ok {
		return "", errors.New("stdlib assembly missing END START marker")
	}
	return before + after, nil
}
