// Command tinylangc compiles programs to static x86-64 ELF executables, or
// serves compiles over a TCP socket.
package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"tinylang/internal/buildcache"
	"tinylang/internal/compiler"
	"tinylang/internal/server"
)

const version = "0.1.0"

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	cmd := args[0]
	switch cmd {
	case "--help", "-h", "help":
		usage()
	case "--version", "-v", "version":
		fmt.Println("tinylangc " + version)
	case "compile":
		if err := runCompile(args[1:]); err != nil {
			fatal(err)
		}
	case "serve":
		if err := runServe(args[1:]); err != nil {
			fatal(err)
		}
	default:
		fmt.Fprintf(os.Stderr, "tinylangc: unknown command %q\n", cmd)
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println(`usage:
  tinylangc compile [--output=PATH] [--link-c] [INPUT]
  tinylangc serve [--host=HOST] [--port=PORT]

With no INPUT, compile reads source from stdin.`)
}

func fatal(err error) {
	if isatty.IsTerminal(os.Stderr.Fd()) {
		fmt.Fprintf(os.Stderr, "\x1b[31merror:\x1b[0m %v\n", err)
	} else {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
	os.Exit(1)
}

func runCompile(args []string) error {
	output := ""
	linkWithC := false
	var input string

	for _, arg := range args {
		switch {
		case arg == "--link-c":
			linkWithC = true
		case strings.HasPrefix(arg, "--output="):
			output = strings.TrimPrefix(arg, "--output=")
		case strings.HasPrefix(arg, "--"):
			return fmt.Errorf("unknown flag %q", arg)
		default:
			input = arg
		}
	}

	if output == "" {
		return fmt.Errorf("--output=PATH is required")
	}

	var source []byte
	var err error
	file := "<stdin>"
	if input == "" {
		source, err = io.ReadAll(os.Stdin)
	} else {
		source, err = os.ReadFile(input)
		file = input
	}
	if err != nil {
		return fmt.Errorf("reading source: %w", err)
	}

	program, err := compiler.Compile(file, string(source), compiler.Options{LinkWithC: linkWithC})
	if err != nil {
		return err
	}

	if err := os.WriteFile(output, program, 0o755); err != nil {
		return fmt.Errorf("writing %s: %w", output, err)
	}

	fmt.Printf("wrote %s (%s)\n", output, humanize.Bytes(uint64(len(program))))
	return nil
}

func runServe(args []string) error {
	host := "127.0.0.1"
	port := 3000
	linkWithC := false
	cachePath := ""

	for _, arg := range args {
		switch {
		case arg == "--link-c":
			linkWithC = true
		case strings.HasPrefix(arg, "--host="):
			host = strings.TrimPrefix(arg, "--host=")
		case strings.HasPrefix(arg, "--port="):
			p, err := strconv.Atoi(strings.TrimPrefix(arg, "--port="))
			if err != nil {
				return fmt.Errorf("invalid --port: %w", err)
			}
			port = p
		case strings.HasPrefix(arg, "--cache="):
			cachePath = strings.TrimPrefix(arg, "--cache=")
		case strings.HasPrefix(arg, "--"):
			return fmt.Errorf("unknown flag %q", arg)
		}
	}

	var cache *buildcache.Cache
	if cachePath != "" {
		c, err := buildcache.Open(cachePath)
		if err != nil {
			return err
		}
		defer c.Close()
		cache = c
	}

	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := server.Listen(addr)
	if err != nil {
		return err
	}
	defer ln.Close()

	log.Printf("tinylangc listening on %s", addr)
	srv := server.New(compiler.Options{LinkWithC: linkWithC}, cache)
	return srv.Serve(ln)
}
