package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/peterh/liner"

	nexus "github.com/nexus-flow/nexus"
)

const (
	appName     = "nexus"
	historyFile = ".nexus_history"
	promptMain  = "nx> "
	promptCont  = "... "
)

var (
	errColor  = color.New(color.FgRed)
	valColor  = color.New(color.FgBlue)
	infoColor = color.New(color.FgGreen)
	banner    = fmt.Sprintf("Nexus %s REPL\nCtrl+C cancels input, Ctrl+D exits. Type :quit to exit.", nexus.Version)
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cmd := os.Args[1]
	switch cmd {
	case "run":
		os.Exit(cmdRun(os.Args[2:]))
	case "repl":
		os.Exit(cmdRepl(os.Args[2:]))
	case "tokens":
		os.Exit(cmdTokens(os.Args[2:]))
	case "ast":
		os.Exit(cmdAST(os.Args[2:]))
	case "version":
		fmt.Println(nexus.Version)
	case "-h", "--help", "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "%s: unknown command %q\n", appName, cmd)
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Printf(`Nexus %s

Usage:
  %s run <file.nexus>       Run a script.
  %s repl                   Start the REPL.
  %s tokens <file.nexus>    Print the token stream (debug view).
  %s ast <file.nexus>       Print the parsed tree (debug view).
  %s version                Print the engine version.

`, nexus.Version, appName, appName, appName, appName, appName)
}

// newInterpreterFor builds an interpreter, applying a nexus.toml found at
// or above the script path (or the working directory for the REPL).
func newInterpreterFor(scriptPath string) (*nexus.Interpreter, error) {
	ip, err := nexus.NewInterpreter()
	if err != nil {
		return nil, err
	}
	start := scriptPath
	if start == "" {
		start = "."
	}
	if p := nexus.FindConfigFile(start); p != "" {
		cfg, err := nexus.LoadConfig(p)
		if err != nil {
			return nil, err
		}
		cfg.Apply(ip)
		color.NoColor = color.NoColor || !cfg.Output.Color
	}
	return ip, nil
}

// -----------------------------------------------------------------------------
// run
// -----------------------------------------------------------------------------

func cmdRun(args []string) int {
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "usage: %s run <file.nexus>\n", appName)
		return 2
	}
	file := args[0]

	src, err := os.ReadFile(file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: cannot read %s: %v\n", appName, file, err)
		return 1
	}

	ip, err := newInterpreterFor(file)
	if err != nil {
		errColor.Fprintln(os.Stderr, err.Error())
		return 1
	}

	res := ip.Run(fileAbsOrOrig(file), string(src))
	if res.Err != nil {
		errColor.Fprintln(os.Stderr, res.Err.Error())
		return 1
	}
	return 0
}

func fileAbsOrOrig(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

// -----------------------------------------------------------------------------
// repl
// -----------------------------------------------------------------------------

func cmdRepl(_ []string) int {
	fmt.Println(banner)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigc)
	go func() {
		<-sigc
		ln.Close()
		os.Exit(130)
	}()

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	ip, err := newInterpreterFor("")
	if err != nil {
		errColor.Fprintln(os.Stderr, err.Error())
		return 1
	}

	for {
		code, ok := readByParseProbe(ln, promptMain, promptCont)
		if !ok {
			fmt.Println()
			break
		}

		trimmed := strings.TrimSpace(code)
		if strings.HasPrefix(trimmed, ":") {
			switch strings.ToLower(trimmed) {
			case ":quit":
				return 0
			default:
				infoColor.Println("unknown command. Type :quit to exit.")
			}
			continue
		}
		if trimmed == "" {
			continue
		}

		v, err := ip.EvalPersistentSource(code)
		if err != nil {
			errColor.Fprintln(os.Stderr, err.Error())
			continue
		}
		valColor.Println(nexus.FormatValue(v))
		ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))
	}

	return 0
}

// readByParseProbe collects lines until the buffer parses, or fails with an
// error that is not just premature end of input.
func readByParseProbe(ln *liner.State, prompt, cont string) (string, bool) {
	var b strings.Builder

	for {
		var line string
		var err error
		if b.Len() == 0 {
			line, err = ln.Prompt(prompt)
		} else {
			line, err = ln.Prompt(cont)
		}
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if err != nil {
			return "", true
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		_, _, perr := nexus.ParseSExprInteractiveWithSpans(src)
		if perr == nil {
			return src, true
		}
		if nexus.IsIncomplete(perr) {
			continue
		}
		return src, true
	}
}

// -----------------------------------------------------------------------------
// debug views
// -----------------------------------------------------------------------------

func cmdTokens(args []string) int {
	return debugView(args, "tokens", nexus.DebugTokens)
}

func cmdAST(args []string) int {
	return debugView(args, "ast", nexus.DebugAST)
}

func debugView(args []string, name string, view func(string) (string, error)) int {
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "usage: %s %s <file.nexus>\n", appName, name)
		return 2
	}
	src, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: cannot read %s: %v\n", appName, args[0], err)
		return 1
	}
	out, err := view(string(src))
	if err != nil {
		errColor.Fprintln(os.Stderr, err.Error())
		return 1
	}
	fmt.Print(out)
	return 0
}
