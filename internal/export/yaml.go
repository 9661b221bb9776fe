package export

import (
	"github.com/loopcontext/tscat"
	"gopkg.in/yaml.v2"
)

type yamlEntry struct {
	Source      string       `yaml:"source"`
	Comment     string       `yaml:"comment,omitempty"`
	Translation string       `yaml:"translation,omitempty"`
	Forms       []string     `yaml:"forms,omitempty"`
	Status      tscat.Status `yaml:"status"`
}

type yamlDoc struct {
	Language       string        `yaml:"language,omitempty"`
	SourceLanguage string        `yaml:"source_language,omitempty"`
	Counts         tscat.Counts  `yaml:"counts"`
	Contexts       yaml.MapSlice `yaml:"contexts"`
}

// YAML writes one key per context name, in catalog order, each holding its
// messages. Contexts sharing a name are written under one key.
type YAML struct{}

func (YAML) Format() string { return "yaml" }

func (YAML) Export(c *tscat.Catalog) ([]byte, error) {
	doc := yamlDoc{
		Language:       c.Language,
		SourceLanguage: c.SourceLanguage,
		Counts:         c.Summarize(),
	}
	position := map[string]int{}
	for _, ctx := range c.Contexts {
		idx, seen := position[ctx.Name]
		if !seen {
			idx = len(doc.Contexts)
			position[ctx.Name] = idx
			doc.Contexts = append(doc.Contexts, yaml.MapItem{Key: ctx.Name, Value: []yamlEntry{}})
		}
		entries := doc.Contexts[idx].Value.([]yamlEntry)
		for _, m := range ctx.Messages {
			e := yamlEntry{Source: m.Source, Comment: m.Comment, Status: m.Status}
			if m.Numerus {
				e.Forms = m.NumerusForms
			} else {
				e.Translation = m.Translation
			}
			entries = append(entries, e)
		}
		doc.Contexts[idx].Value = entries
	}
	return yaml.Marshal(doc)
}
