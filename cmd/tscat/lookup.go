package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/loopcontext/tscat"
	"github.com/loopcontext/tscat/internal/config"
)

type lookupConfig struct {
	dir        string
	lang       string
	accept     string
	context    string
	comment    string
	count      int
	source     string
	fallbacks  stringList
	skipDrafts bool
}

type stringList []string

func (s *stringList) String() string { return fmt.Sprint(*s) }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func parseLookupFlags(args []string, project config.Project) *lookupConfig {
	fs := flag.NewFlagSet("lookup", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `usage: tscat lookup [options] -context Name "source text"

Lookup loads every catalog in -dir and resolves one message the way the runtime
translator does, including language fallback and %%n substitution.

Flags:
`)
		fs.PrintDefaults()
	}
	var cfg lookupConfig
	fs.StringVar(&cfg.dir, "dir", project.TranslationsDir, "Directory of .ts catalogs.")
	fs.StringVar(&cfg.lang, "lang", "", "Requested language.")
	fs.StringVar(&cfg.accept, "accept", "", "Accept-Language header to pick the language from (overrides -lang).")
	fs.StringVar(&cfg.context, "context", "", "Message context.")
	fs.StringVar(&cfg.comment, "comment", "", "Disambiguation comment.")
	fs.IntVar(&cfg.count, "n", -1, "Count for numerus messages; -1 for none.")
	fs.Var(&cfg.fallbacks, "fallback", "Fallback language (repeatable).")
	fs.BoolVar(&cfg.skipDrafts, "skip-unfinished", false, "Ignore unfinished translations.")
	_ = fs.Parse(args)
	cfg.source = fs.Arg(0)
	return &cfg
}

func runLookup(cfg *lookupConfig, stdout io.Writer) error {
	if cfg.source == "" {
		return fmt.Errorf("lookup: source text is required")
	}
	translator, err := tscat.NewTranslator(tscat.Config{
		ResourcePath:      cfg.dir,
		FallbackLanguages: cfg.fallbacks,
		SkipUnfinished:    cfg.skipDrafts,
	})
	if err != nil {
		return err
	}
	defer tscat.Close(translator)

	lang := cfg.lang
	if cfg.accept != "" {
		lang = translator.(*tscat.DefaultTranslator).MatchLanguage(cfg.accept)
	}
	ctx := context.Background()
	if lang != "" {
		ctx = context.WithValue(ctx, tscat.ContextKey("language"), lang)
	}
	_, err = fmt.Fprintln(stdout, translator.Translate(ctx, cfg.context, cfg.source, cfg.comment, cfg.count))
	return err
}
