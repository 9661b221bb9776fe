package export

import (
	"bytes"
	"encoding/csv"
	"strings"

	"github.com/loopcontext/tscat"
)

var csvHeader = []string{"context", "source", "comment", "translation", "status"}

// CSV writes one row per message. Numerus forms share the translation cell,
// one form per line.
type CSV struct {
	Comma rune
}

func (CSV) Format() string { return "csv" }

func (e CSV) Export(c *tscat.Catalog) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if e.Comma != 0 {
		w.Comma = e.Comma
	}
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, ctx := range c.Contexts {
		for _, m := range ctx.Messages {
			translation := m.Translation
			if m.Numerus {
				translation = strings.Join(m.NumerusForms, "\n")
			}
			if err := w.Write([]string{ctx.Name, m.Source, m.Comment, translation, m.Status.String()}); err != nil {
				return nil, err
			}
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}
