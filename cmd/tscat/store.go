package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"text/tabwriter"
	"time"

	"github.com/loopcontext/tscat"
	"github.com/loopcontext/tscat/internal/config"
	"github.com/loopcontext/tscat/internal/store/sqlite"
)

type storeConfig struct {
	action   string
	db       string
	lang     string
	args     []string
	catalogs []string
}

func parseStoreFlags(args []string, project config.Project) (*storeConfig, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("store: expected import, list or suggest")
	}
	fs := flag.NewFlagSet("store "+args[0], flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `usage: tscat store import [-db path] [catalogs]
       tscat store list [-db path]
       tscat store suggest [-db path] -lang de "source text"

Flags:
`)
		fs.PrintDefaults()
	}
	cfg := storeConfig{action: args[0]}
	fs.StringVar(&cfg.db, "db", project.MemoryDB, "Translation memory database.")
	fs.StringVar(&cfg.lang, "lang", "", "Language for suggest.")
	_ = fs.Parse(args[1:])
	cfg.args = fs.Args()
	if cfg.action == "import" {
		cfg.catalogs = cfg.args
		if len(cfg.catalogs) == 0 {
			cfg.catalogs = catalogsIn(project.TranslationsDir)
		}
	}
	if cfg.db == "" {
		return nil, fmt.Errorf("store: -db is required")
	}
	return &cfg, nil
}

func runStore(args []string, project config.Project, stdout io.Writer) error {
	cfg, err := parseStoreFlags(args, project)
	if err != nil {
		return err
	}
	return runStoreConfig(context.Background(), cfg, stdout)
}

func runStoreConfig(ctx context.Context, cfg *storeConfig, stdout io.Writer) error {
	store, err := sqlite.Open(ctx, cfg.db)
	if err != nil {
		return err
	}
	defer store.Close()

	switch cfg.action {
	case "import":
		for _, path := range cfg.catalogs {
			c, err := tscat.ReadFile(path)
			if err != nil {
				return err
			}
			if c.Language == "" {
				c.Language = tscat.LanguageFromFilename(path)
			}
			if err := store.SaveCatalog(ctx, catalogName(path), c); err != nil {
				return err
			}
			log.Printf("imported %s", path)
		}
		return nil
	case "list":
		entries, err := store.Catalogs(ctx)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tLANG\tMESSAGES\tSAVED")
		for _, e := range entries {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", e.Name, e.Language, e.Messages, e.SavedAt.Format(time.RFC3339))
		}
		return tw.Flush()
	case "suggest":
		if cfg.lang == "" || len(cfg.args) != 1 {
			return fmt.Errorf("store suggest: -lang and one source text are required")
		}
		suggestions, err := store.Suggest(ctx, cfg.lang, cfg.args[0])
		if err != nil {
			return err
		}
		for _, s := range suggestions {
			fmt.Fprintln(stdout, s)
		}
		return nil
	default:
		return fmt.Errorf("store: unknown action %q", cfg.action)
	}
}
