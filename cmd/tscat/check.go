package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/loopcontext/tscat"
	"github.com/loopcontext/tscat/internal/config"
)

type checkConfig struct {
	catalogs []string
	strict   bool
}

func parseCheckFlags(args []string, project config.Project) *checkConfig {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: tscat check [-strict] [catalogs]\n\nFlags:\n")
		fs.PrintDefaults()
	}
	var cfg checkConfig
	fs.BoolVar(&cfg.strict, "strict", false, "Fail on warnings too.")
	_ = fs.Parse(args)
	cfg.catalogs = fs.Args()
	if len(cfg.catalogs) == 0 {
		cfg.catalogs = catalogsIn(project.TranslationsDir)
	}
	return &cfg
}

// runCheck prints every issue as "file: issue" and fails when a catalog does
// not parse or has errors (or warnings with -strict).
func runCheck(cfg *checkConfig, stdout io.Writer) error {
	if len(cfg.catalogs) == 0 {
		return fmt.Errorf("check: no catalogs given and none found")
	}
	bad := 0
	for _, path := range cfg.catalogs {
		c, err := tscat.ReadFile(path)
		if err != nil {
			fmt.Fprintf(stdout, "%v\n", err)
			bad++
			continue
		}
		err = tscat.Validate(c)
		if err == nil {
			continue
		}
		var verr *tscat.ValidationError
		if !errors.As(err, &verr) {
			return err
		}
		for _, issue := range verr.Issues {
			fmt.Fprintf(stdout, "%s: %s\n", path, issue)
		}
		if verr.HasErrors() || cfg.strict {
			bad++
		}
	}
	if bad > 0 {
		return fmt.Errorf("check: %d of %d catalog(s) failed", bad, len(cfg.catalogs))
	}
	return nil
}
