// Package export renders catalogs into flat formats for review tools and
// spreadsheets.
package export

import (
	"fmt"
	"sort"

	"github.com/loopcontext/tscat"
)

type Exporter interface {
	Format() string
	Export(c *tscat.Catalog) ([]byte, error)
}

type Registry struct{ byFormat map[string]Exporter }

func New() *Registry { return &Registry{byFormat: map[string]Exporter{}} }

// Default returns a registry with every built-in format.
func Default() *Registry {
	r := New()
	r.Register(YAML{})
	r.Register(CSV{})
	return r
}

func (r *Registry) Register(e Exporter) { r.byFormat[e.Format()] = e }

func (r *Registry) Get(format string) (Exporter, bool) { e, ok := r.byFormat[format]; return e, ok }

func (r *Registry) Formats() []string {
	formats := make([]string, 0, len(r.byFormat))
	for f := range r.byFormat {
		formats = append(formats, f)
	}
	sort.Strings(formats)
	return formats
}

// Export renders c with the exporter registered for format.
func (r *Registry) Export(format string, c *tscat.Catalog) ([]byte, error) {
	e, ok := r.Get(format)
	if !ok {
		return nil, fmt.Errorf("unknown export format %q (have %v)", format, r.Formats())
	}
	return e.Export(c)
}
