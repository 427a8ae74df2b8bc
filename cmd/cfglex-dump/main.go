package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/relaylog/cfglex"
	"github.com/relaylog/cfglex/internal/demogrammar"
	"github.com/relaylog/cfglex/token"
)

func main() {
	var showEcho, showTokens bool
	flag.BoolVar(&showEcho, "echo", false, "also print the reconstructed input, after the token stream and diagnostics")
	flag.BoolVar(&showTokens, "tokens", true, "print one line per token")
	flag.Parse()
	args := flag.Args()

	if len(args) != 1 {
		printHelp()
	}

	cfg := cfglex.NewConfig()
	f := cfglex.NewFacade(cfg, demogrammar.Grammar{})
	if e := f.IncludeFile(args[0]); e != nil {
		fmt.Printf("error: %s\n", e.Error())
		os.Exit(2)
	}

	for {
		tok, e := f.Next()
		if e != nil {
			fmt.Printf("error: %s\n", e.Error())
			os.Exit(2)
		}
		if tok.Type() == token.EoiType {
			break
		}
		if showTokens {
			fmt.Printf("%s:%d:%d: %v %q\n", tok.SourceName(), tok.Line(), tok.Col(), tok.Type(), tok.Text())
		}
	}

	for _, d := range f.Diagnostics().Items() {
		fmt.Fprintln(os.Stderr, d.String())
	}

	if showEcho {
		fmt.Print(f.Echo())
	}

	if e := f.Close(); e != nil {
		fmt.Printf("error: %s\n", e.Error())
		os.Exit(2)
	}

	if f.Diagnostics().HasErrors() {
		os.Exit(2)
	}
}

func printHelp() {
	fmt.Println("Usage is  cfglex-dump [-echo] [-tokens] conf_file")
	flag.PrintDefaults()
	os.Exit(1)
}
