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

	"github.com/peterh/liner"

	"github.com/relaylog/cfglex"
	"github.com/relaylog/cfglex/internal/demogrammar"
	"github.com/relaylog/cfglex/token"
)

const (
	appName     = "cfglex-repl"
	historyFile = ".cfglex_history"
	prompt      = "cfglex> "
)

var banner = "cfglex REPL\nCtrl+C cancels input, Ctrl+D exits. Type :quit to exit."

func red(s string) string { return "\x1b[31m" + s + "\x1b[0m" }

func main() {
	os.Exit(run())
}

func run() int {
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

	cfg := cfglex.NewConfig()

	for {
		line, ok := readLine(ln)
		if !ok {
			fmt.Println()
			break
		}

		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, ":") {
			switch strings.ToLower(trimmed) {
			case ":quit":
				return 0
			default:
				fmt.Printf("unknown command. Type :quit to exit.\n")
			}
			continue
		}

		if e := lexOneLine(cfg, line); e != nil {
			fmt.Fprintln(os.Stderr, red(e.Error()))
		}
		ln.AppendHistory(line)
	}

	return 0
}

func readLine(ln *liner.State) (string, bool) {
	line, err := ln.Prompt(prompt)
	if errors.Is(err, io.EOF) {
		return "", false
	}
	if errors.Is(err, liner.ErrPromptAborted) {
		// Ctrl+C: drop the current input and prompt again.
		return "", true
	}
	if err != nil {
		return "", false
	}
	return line, true
}

func lexOneLine(cfg *cfglex.Config, line string) error {
	f := cfglex.NewFacade(cfg, demogrammar.Grammar{})
	if e := f.IncludeBuffer("<repl>", []byte(line)); e != nil {
		return e
	}
	for {
		tok, e := f.Next()
		if e != nil {
			return e
		}
		if tok.Type() == token.EoiType {
			break
		}
		fmt.Printf("  %v %q\n", tok.Type(), tok.Text())
	}
	for _, d := range f.Diagnostics().Items() {
		fmt.Fprintln(os.Stderr, d.String())
	}
	return f.Close()
}
