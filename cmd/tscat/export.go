package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/loopcontext/tscat"
	"github.com/loopcontext/tscat/internal/export"
)

type exportConfig struct {
	catalog string
	format  string
	out     string
}

func parseExportFlags(args []string) *exportConfig {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: tscat export -format yaml|csv [-out file] catalog\n\nFlags:\n")
		fs.PrintDefaults()
	}
	var cfg exportConfig
	fs.StringVar(&cfg.format, "format", "yaml", "Export format (yaml or csv).")
	fs.StringVar(&cfg.out, "out", "", "Output file. Default stdout.")
	_ = fs.Parse(args)
	cfg.catalog = fs.Arg(0)
	return &cfg
}

func runExport(cfg *exportConfig, stdout io.Writer) error {
	if cfg.catalog == "" {
		return fmt.Errorf("export: catalog path is required")
	}
	c, err := tscat.ReadFile(cfg.catalog)
	if err != nil {
		return err
	}
	out, err := export.Default().Export(cfg.format, c)
	if err != nil {
		return err
	}
	if cfg.out == "" {
		_, err = stdout.Write(out)
		return err
	}
	if err := os.WriteFile(cfg.out, out, 0644); err != nil {
		return fmt.Errorf("write %s: %w", cfg.out, err)
	}
	log.Printf("wrote %s", cfg.out)
	return nil
}
