package main

import (
	"fmt"
	"log"
	"os"

	"github.com/loopcontext/tscat/internal/config"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("tscat: ")

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}
	project, err := config.Load(os.Getenv("TSCAT_CONFIG"))
	if err != nil {
		config.Exitf("tscat: %v", err)
	}

	sub := os.Args[1]
	args := os.Args[2:]
	switch sub {
	case "extract":
		err = runExtract(parseExtractFlags(args, project), os.Stdout)
	case "update":
		err = runUpdate(parseUpdateFlags(args, project))
	case "check":
		err = runCheck(parseCheckFlags(args, project), os.Stdout)
	case "stats":
		err = runStats(parseStatsFlags(args, project), os.Stdout)
	case "export":
		err = runExport(parseExportFlags(args), os.Stdout)
	case "store":
		err = runStore(args, project, os.Stdout)
	case "lookup":
		err = runLookup(parseLookupFlags(args, project), os.Stdout)
	case "help", "-h", "--help":
		usage()
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "tscat: unknown subcommand %q\n", sub)
		usage()
		os.Exit(1)
	}
	if err != nil {
		config.Exitf("tscat: %v", err)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `tscat - Qt Linguist catalog tool

usage: tscat <command> [options] [paths]

commands:
  extract    Build a template catalog from Translate calls and tscat.Def literals.
  update     Merge a template into translation catalogs (lupdate rules).
  check      Validate catalogs; exits non-zero on errors.
  stats      Show per-catalog message counts.
  export     Render a catalog as yaml or csv.
  store      Import catalogs into, list or query the translation memory.
  lookup     Resolve one message the way the runtime translator does.

Defaults come from tscat.yaml (or $TSCAT_CONFIG) and TSCAT_* variables.
Use 'tscat <command> -h' for command-specific flags.
`)
}
