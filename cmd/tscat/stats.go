package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/loopcontext/tscat"
	"github.com/loopcontext/tscat/internal/config"
	"gopkg.in/yaml.v2"
)

type statsConfig struct {
	catalogs []string
	format   string
}

func parseStatsFlags(args []string, project config.Project) *statsConfig {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: tscat stats [-format text|yaml] [catalogs]\n\nFlags:\n")
		fs.PrintDefaults()
	}
	var cfg statsConfig
	fs.StringVar(&cfg.format, "format", "text", "Output format: text or yaml.")
	_ = fs.Parse(args)
	cfg.catalogs = fs.Args()
	if len(cfg.catalogs) == 0 {
		cfg.catalogs = catalogsIn(project.TranslationsDir)
	}
	return &cfg
}

type catalogStats struct {
	File     string       `yaml:"file"`
	Language string       `yaml:"language"`
	Counts   tscat.Counts `yaml:"counts"`
	Done     float64      `yaml:"done_percent"`
}

// donePercent is the share of live (finished or unfinished) messages that are
// finished.
func donePercent(c tscat.Counts) float64 {
	live := c.Finished + c.Unfinished
	if live == 0 {
		return 100
	}
	return float64(c.Finished) * 100 / float64(live)
}

func runStats(cfg *statsConfig, stdout io.Writer) error {
	var all []catalogStats
	for _, path := range cfg.catalogs {
		c, err := tscat.ReadFile(path)
		if err != nil {
			return err
		}
		counts := c.Summarize()
		all = append(all, catalogStats{
			File:     filepath.Base(path),
			Language: c.Language,
			Counts:   counts,
			Done:     donePercent(counts),
		})
	}

	switch cfg.format {
	case "yaml":
		out, err := yaml.Marshal(all)
		if err != nil {
			return err
		}
		_, err = stdout.Write(out)
		return err
	case "text":
		tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "FILE\tLANG\tFINISHED\tUNFINISHED\tVANISHED\tOBSOLETE\tDONE")
		for _, s := range all {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\t%.1f%%\n", s.File, s.Language,
				s.Counts.Finished, s.Counts.Unfinished, s.Counts.Vanished, s.Counts.Obsolete, s.Done)
		}
		return tw.Flush()
	default:
		return fmt.Errorf("stats: unknown format %q", cfg.format)
	}
}
