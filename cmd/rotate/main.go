// Command rotate prints the current image of a rotating gallery on every tick.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/loopcontext/tscat/internal/config"
	"github.com/loopcontext/tscat/internal/rotator"
)

type rotateConfig struct {
	Interval time.Duration `env:"TSCAT_ROTATE_INTERVAL" envDefault:"5s"`
	Ticks    int           `env:"TSCAT_ROTATE_TICKS"`
	Images   []string
}

func parseConfig(fs *flag.FlagSet, args []string) (rotateConfig, error) {
	var cfg rotateConfig
	if err := config.ParseEnv(&cfg); err != nil {
		return rotateConfig{}, err
	}
	fs.DurationVar(&cfg.Interval, "interval", cfg.Interval, "Delay between images.")
	fs.IntVar(&cfg.Ticks, "ticks", cfg.Ticks, "Stop after this many advances; 0 runs until interrupted.")
	if err := fs.Parse(args); err != nil {
		return rotateConfig{}, err
	}
	cfg.Images = fs.Args()
	return cfg, nil
}

// run binds each shown image to out until ctx is done or cfg.Ticks advances
// have happened.
func run(ctx context.Context, cfg rotateConfig, out io.Writer) error {
	r, err := rotator.New(cfg.Images, cfg.Interval)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	shown := 0
	err = r.Run(ctx, func(index int, item string) {
		fmt.Fprintf(out, "%d\t%s\n", index, item)
		if cfg.Ticks > 0 && shown == cfg.Ticks {
			cancel()
		}
		shown++
	})
	if cfg.Ticks > 0 && shown > cfg.Ticks {
		return nil
	}
	return err
}

// shutdownSignals stop the rotation.
var shutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

func main() {
	log.SetFlags(0)
	log.SetPrefix("rotate: ")

	fs := flag.NewFlagSet("rotate", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: rotate [-interval 5s] [-ticks n] image...\n\nFlags:\n")
		fs.PrintDefaults()
	}
	cfg, err := parseConfig(fs, os.Args[1:])
	if err != nil {
		config.Exitf("rotate: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), shutdownSignals...)
	defer stop()
	if err := run(ctx, cfg, os.Stdout); err != nil && err != context.Canceled {
		config.Exitf("rotate: %v", err)
	}
	log.Printf("stopped")
}
