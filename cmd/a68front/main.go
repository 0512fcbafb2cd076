// cmd/a68front/main.go
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/mattn/go-isatty"

	"a68front/internal/diag"
	"a68front/internal/diagsink"
	"a68front/internal/program"
	"a68front/internal/source"
	"a68front/internal/treedump"
)

const VERSION = "0.1.0"

var commandAliases = map[string]string{
	"c": "check",
	"t": "tree",
	"v": "version",
	"h": "help",
}

// colorize wraps a severity label in its ANSI color when stderr is a
// real terminal; piped/redirected output (CI logs, --export-db runs)
// stays plain.
func colorize(sev diag.Severity) string {
	label := sev.String()
	if !isatty.IsTerminal(os.Stderr.Fd()) {
		return label
	}
	switch sev {
	case diag.Error, diag.SyntaxError:
		return "\x1b[31m" + label + "\x1b[0m"
	case diag.Warning:
		return "\x1b[33m" + label + "\x1b[0m"
	default:
		return label
	}
}

func main() {
	os.Exit(run(os.Args[1:]))
}

// run is main's body, factored out so a testscript harness can drive
// it in-process without a subprocess per scenario.
func run(args []string) int {
	if len(args) == 0 {
		showUsage()
		return 0
	}

	cmd := args[0]
	if alias, ok := commandAliases[cmd]; ok {
		cmd = alias
	}

	switch cmd {
	case "--help", "-h", "help":
		showUsage()
		return 0
	case "--version", "-v", "version":
		fmt.Println("a68front version " + VERSION)
		return 0
	case "check":
		return runCheck(args[1:], false)
	case "tree":
		return runCheck(args[1:], true)
	default:
		fmt.Fprintf(os.Stderr, "a68front: unknown command %q\n\n", args[0])
		showUsage()
		return 1
	}
}

func showUsage() {
	fmt.Println(`a68front — an Algol 68 front end

Usage:
  a68front check <file> [--export-db dsn]   run phases A-M, report diagnostics
  a68front tree <file>                      run phases A-M, print the annotated tree
  a68front version
  a68front help

--export-db writes this run's diagnostics to a sqlite3 database under a
fresh run ID, for the kind of cross-run querying a plain stderr stream
can't support.

Aliases: c=check, t=tree, v=version, h=help`)
}

func runCheck(args []string, showTree bool) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "a68front: expected a source file")
		return 1
	}
	filename := args[0]
	var exportDSN string
	for i := 1; i < len(args)-1; i++ {
		if args[i] == "--export-db" {
			exportDSN = args[i+1]
		}
	}

	src, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "a68front: %v\n", err)
		return 1
	}

	start := time.Now()
	p := program.New(program.Config{Stropping: source.UpperStropping})
	runErr := p.Compile(src, filename, source.OSReader{})
	elapsed := time.Since(start)

	for _, d := range p.Sink.All() {
		fmt.Fprintf(os.Stderr, "%s (%s)\n", d.String(), colorize(d.Severity))
	}

	if exportDSN != "" {
		runID := uuid.NewString()
		if exportErr := exportDiagnostics(exportDSN, runID, p.Sink); exportErr != nil {
			fmt.Fprintf(os.Stderr, "a68front: --export-db: %v\n", exportErr)
		} else {
			fmt.Fprintf(os.Stderr, "a68front: exported run %s to %s\n", runID, exportDSN)
		}
	}

	fmt.Fprintf(os.Stderr, "a68front: compiled %s bytes in %s\n", humanize.Comma(int64(len(src))), elapsed.Round(time.Microsecond))

	if runErr != nil {
		if aborted, ok := runErr.(*diag.PhaseAborted); ok {
			fmt.Fprintf(os.Stderr, "a68front: %s\n", aborted.Error())
		} else {
			fmt.Fprintf(os.Stderr, "a68front: %v\n", runErr)
		}
		return 1
	}

	if showTree {
		fmt.Println(treedump.Sprint(p.Tree, p.Modes, p.Tags, p.Root, treedump.Options{ShowModes: true, ShowTags: true}))
	}

	if p.Sink.ErrorCount() > 0 {
		return 1
	}
	return 0
}

func exportDiagnostics(dsn, runID string, sink *diag.Sink) error {
	e, err := diagsink.Open("sqlite3", dsn)
	if err != nil {
		return err
	}
	defer e.Close()
	return e.Export(runID, sink)
}
