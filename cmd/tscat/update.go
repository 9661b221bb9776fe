package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/loopcontext/tscat"
	"github.com/loopcontext/tscat/internal/config"
	"github.com/loopcontext/tscat/internal/store/sqlite"
)

// updateConfig holds flags for the update command.
type updateConfig struct {
	catalogs   []string
	template   string
	extract    *extractConfig
	noObsolete bool
	sameText   bool
	db         string
}

func parseUpdateFlags(args []string, project config.Project) *updateConfig {
	fs := flag.NewFlagSet("update", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `usage: tscat update [options] [catalogs]

Update merges a template into each catalog. Messages still in the template keep
their translation; new ones are added unfinished; messages gone from the
template become vanished when translated and are dropped otherwise. Missing
catalog files are created, their language taken from the filename.

Without -template the template is extracted from the project's source_dirs.
Without catalogs every .ts file in translations_dir is updated.

Flags:
`)
		fs.PrintDefaults()
	}
	cfg := updateConfig{
		extract: &extractConfig{
			paths:          project.SourceDirs,
			sourceLanguage: project.SourceLanguage,
			tscatPkg:       "github.com/loopcontext/tscat",
			excludeDirs:    "vendor,testdata",
		},
	}
	fs.StringVar(&cfg.template, "template", project.Template, "Template .ts file (default: extract from source_dirs).")
	fs.BoolVar(&cfg.noObsolete, "no-obsolete", project.NoObsolete, "Drop vanished and obsolete messages.")
	fs.BoolVar(&cfg.sameText, "same-text", project.SameText, "Suggest translations of identical source texts for new messages.")
	fs.StringVar(&cfg.db, "db", project.MemoryDB, "Translation memory database used by -same-text; updated catalogs are saved into it.")
	_ = fs.Parse(args)
	cfg.catalogs = fs.Args()
	if len(cfg.catalogs) == 0 {
		cfg.catalogs = catalogsIn(project.TranslationsDir)
	}
	return &cfg
}

// catalogsIn lists the .ts files directly under dir.
func catalogsIn(dir string) []string {
	matches, _ := filepath.Glob(filepath.Join(dir, "*.ts"))
	return matches
}

// catalogName is the file stem without its language suffix: racer_de.ts -> racer.
func catalogName(path string) string {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if i := strings.Index(stem, "_"); i > 0 {
		return stem[:i]
	}
	return stem
}

func readOrCreate(path string, sourceLanguage string) (*tscat.Catalog, error) {
	c, err := tscat.ReadFile(path)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	lang := tscat.LanguageFromFilename(path)
	if lang == "" {
		return nil, fmt.Errorf("%s: cannot determine language from filename", path)
	}
	return &tscat.Catalog{Version: tscat.DefaultVersion, Language: lang, SourceLanguage: sourceLanguage}, nil
}

// rebaseLocations returns a copy of c whose relative location filenames point
// from toDir instead of fromDir. Absolute filenames are made relative as well.
func rebaseLocations(c *tscat.Catalog, fromDir string, toDir string) *tscat.Catalog {
	from, err := filepath.Abs(fromDir)
	if err != nil {
		return c
	}
	to, err := filepath.Abs(toDir)
	if err != nil {
		return c
	}
	out := *c
	out.Contexts = make([]*tscat.Context, 0, len(c.Contexts))
	for _, ctx := range c.Contexts {
		rc := *ctx
		rc.Messages = make([]*tscat.Message, 0, len(ctx.Messages))
		for _, m := range ctx.Messages {
			rm := *m
			rm.Locations = make([]tscat.Location, len(m.Locations))
			for i, loc := range m.Locations {
				rm.Locations[i] = loc
				if loc.Filename == "" {
					continue
				}
				name := filepath.FromSlash(loc.Filename)
				if !filepath.IsAbs(name) {
					name = filepath.Join(from, name)
				}
				if rel, err := filepath.Rel(to, name); err == nil {
					rm.Locations[i].Filename = filepath.ToSlash(rel)
				}
			}
			rc.Messages = append(rc.Messages, &rm)
		}
		out.Contexts = append(out.Contexts, &rc)
	}
	return &out
}

func runUpdate(cfg *updateConfig) error {
	if len(cfg.catalogs) == 0 {
		return fmt.Errorf("update: no catalogs given and none found")
	}
	ctx := context.Background()

	// Template locations are relative to templateDir.
	var template *tscat.Catalog
	var err error
	templateDir := "."
	if cfg.template != "" {
		template, err = tscat.ReadFile(cfg.template)
		templateDir = filepath.Dir(cfg.template)
	} else {
		template, err = extractTemplate(cfg.extract)
	}
	if err != nil {
		return fmt.Errorf("update: template: %w", err)
	}

	var store *sqlite.Store
	if cfg.db != "" {
		store, err = sqlite.Open(ctx, cfg.db)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	failed := 0
	for _, path := range cfg.catalogs {
		existing, err := readOrCreate(path, template.SourceLanguage)
		if err != nil {
			return err
		}
		opts := tscat.UpdateOptions{NoObsolete: cfg.noObsolete, SameText: cfg.sameText}
		if store != nil && cfg.sameText {
			opts.Memory = store.Memory(ctx, existing.Language)
		}
		updated, report := tscat.Update(existing, rebaseLocations(template, templateDir, filepath.Dir(path)), opts)

		if err := tscat.Validate(updated); err != nil {
			var verr *tscat.ValidationError
			if !errors.As(err, &verr) {
				return err
			}
			for _, issue := range verr.Issues {
				log.Printf("%s: %s", path, issue)
			}
			if verr.HasErrors() {
				failed++
				continue
			}
		}
		if err := tscat.WriteFile(path, updated); err != nil {
			return err
		}
		log.Printf("wrote %s: found %d, new %d, same text %d, resurrected %d, vanished %d, pruned %d",
			path, report.Found, report.New, report.SameText, report.Resurrected, report.Vanished, report.Pruned)

		if store != nil {
			if err := store.SaveCatalog(ctx, catalogName(path), updated); err != nil {
				return err
			}
		}
	}
	if failed > 0 {
		return fmt.Errorf("update: %d catalog(s) not written because of validation errors", failed)
	}
	return nil
}
