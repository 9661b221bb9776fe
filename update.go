package tscat

import (
	"strings"

	"github.com/loopcontext/tscat/internal/plural"
)

// Memory supplies finished translations of a source text for the same-text
// heuristic.
type Memory interface {
	Suggest(source string) (string, bool)
}

type UpdateOptions struct {
	// NoObsolete drops vanished and obsolete messages instead of keeping them.
	NoObsolete bool
	// SameText fills new messages with a translation of the same source text found
	// in the catalog or in Memory. The suggestion is stored as translator comment
	// and the message stays unfinished.
	SameText bool
	Memory   Memory
}

type UpdateReport struct {
	Found       int `yaml:"found"`
	New         int `yaml:"new"`
	Existing    int `yaml:"existing"`
	SameText    int `yaml:"same_text"`
	Resurrected int `yaml:"resurrected"`
	Vanished    int `yaml:"vanished"`
	Pruned      int `yaml:"pruned"`
}

type catalogMemory map[string]string

func (m catalogMemory) Suggest(source string) (string, bool) {
	t, ok := m[source]
	return t, ok
}

func newCatalogMemory(c *Catalog) catalogMemory {
	mem := catalogMemory{}
	for _, ctx := range c.Contexts {
		for _, m := range ctx.Messages {
			if m.Status != StatusFinished || m.Numerus || m.Translation == "" {
				continue
			}
			if _, exists := mem[m.Source]; !exists {
				mem[m.Source] = m.Translation
			}
		}
	}
	return mem
}

func (m *Message) clone() *Message {
	out := *m
	if m.NumerusForms != nil {
		out.NumerusForms = append([]string(nil), m.NumerusForms...)
	}
	if m.Locations != nil {
		out.Locations = append([]Location(nil), m.Locations...)
	}
	return &out
}

// Update merges the freshly extracted source strings into an existing catalog
// and returns the new catalog. Neither input is modified. existing may be nil,
// in which case a catalog for extracted.Language is started.
func Update(existing *Catalog, extracted *Catalog, opts UpdateOptions) (*Catalog, UpdateReport) {
	var report UpdateReport
	if existing == nil {
		existing = &Catalog{Language: extracted.Language, SourceLanguage: extracted.SourceLanguage}
	}
	out := &Catalog{
		Version:        existing.Version,
		Language:       existing.Language,
		SourceLanguage: existing.SourceLanguage,
	}
	if out.SourceLanguage == "" {
		out.SourceLanguage = extracted.SourceLanguage
	}

	extractedByKey := map[Key]*Message{}
	for _, ctx := range extracted.Contexts {
		for _, m := range ctx.Messages {
			key := Key{Context: ctx.Name, Source: m.Source, Comment: m.Comment}
			if _, dup := extractedByKey[key]; !dup {
				extractedByKey[key] = m
			}
		}
	}

	contexts := map[string]*Context{}
	contextFor := func(name string, comment string) *Context {
		if ctx, ok := contexts[name]; ok {
			return ctx
		}
		ctx := out.appendContext(name)
		ctx.Comment = comment
		contexts[name] = ctx
		return ctx
	}

	placed := map[Key]struct{}{}
	for _, ectx := range existing.Contexts {
		octx := contextFor(ectx.Name, ectx.Comment)
		for _, em := range ectx.Messages {
			key := Key{Context: ectx.Name, Source: em.Source, Comment: em.Comment}
			if _, done := placed[key]; done {
				continue
			}
			if xm, found := extractedByKey[key]; found {
				placed[key] = struct{}{}
				octx.Messages = append(octx.Messages, refresh(em, xm, out.Language, &report))
				report.Existing++
				continue
			}
			if kept := retire(em, opts.NoObsolete, &report); kept != nil {
				placed[key] = struct{}{}
				octx.Messages = append(octx.Messages, kept)
			}
		}
	}

	var memories []Memory
	if opts.SameText {
		memories = append(memories, newCatalogMemory(existing))
		if opts.Memory != nil {
			memories = append(memories, opts.Memory)
		}
	}
	for _, xctx := range extracted.Contexts {
		for _, xm := range xctx.Messages {
			key := Key{Context: xctx.Name, Source: xm.Source, Comment: xm.Comment}
			if _, done := placed[key]; done {
				continue
			}
			placed[key] = struct{}{}
			m := xm.clone()
			m.Status = StatusUnfinished
			m.Translation = ""
			m.NumerusForms = nil
			if m.Numerus {
				m.NumerusForms = make([]string, len(plural.Forms(out.Language)))
			}
			if !m.Numerus {
				for _, mem := range memories {
					if suggestion, ok := mem.Suggest(m.Source); ok && suggestion != "" {
						m.TranslatorComment = suggestion
						report.SameText++
						break
					}
				}
			}
			octx := contextFor(xctx.Name, xctx.Comment)
			octx.Messages = append(octx.Messages, m)
			report.New++
		}
	}

	kept := out.Contexts[:0]
	for _, ctx := range out.Contexts {
		if len(ctx.Messages) > 0 {
			kept = append(kept, ctx)
		}
	}
	out.Contexts = kept
	report.Found = report.Existing + report.New
	return out, report
}

// refresh updates a message that is still present upstream.
func refresh(em *Message, xm *Message, lang string, report *UpdateReport) *Message {
	m := em.clone()
	m.Locations = append([]Location(nil), xm.Locations...)
	m.ExtraComment = xm.ExtraComment
	if m.ID == "" {
		m.ID = xm.ID
	}

	switch em.Status {
	case StatusVanished:
		report.Resurrected++
		if m.hasAnyTranslation() {
			m.Status = StatusFinished
		} else {
			m.Status = StatusUnfinished
		}
	case StatusObsolete:
		report.Resurrected++
		m.Status = StatusUnfinished
	}

	if m.Numerus != xm.Numerus {
		m.TranslatorComment = withDraft(m.TranslatorComment, draftText(m))
		m.Numerus = xm.Numerus
		m.Status = StatusUnfinished
		m.Translation = ""
		m.NumerusForms = nil
		if m.Numerus {
			m.NumerusForms = make([]string, len(plural.Forms(lang)))
		}
	}
	if m.Status == StatusUnfinished && m.hasAnyTranslation() {
		// A draft may not ride along on an unfinished entry; keep it visible to
		// the translator instead.
		m.TranslatorComment = withDraft(m.TranslatorComment, draftText(m))
		m.Translation = ""
		for i := range m.NumerusForms {
			m.NumerusForms[i] = ""
		}
	}
	return m
}

// draftText flattens the translation of m, one line per non-empty numerus form.
func draftText(m *Message) string {
	if m.Translation != "" {
		return m.Translation
	}
	forms := make([]string, 0, len(m.NumerusForms))
	for _, form := range m.NumerusForms {
		if form != "" {
			forms = append(forms, form)
		}
	}
	return strings.Join(forms, "\n")
}

// withDraft appends draft to an existing translator note unless it is already there.
func withDraft(note string, draft string) string {
	switch {
	case draft == "":
		return note
	case note == "":
		return draft
	case strings.Contains(note, draft):
		return note
	}
	return note + "\n" + draft
}

// retire handles a message whose source text is gone upstream. It returns nil
// when the message is dropped.
func retire(em *Message, noObsolete bool, report *UpdateReport) *Message {
	switch em.Status {
	case StatusFinished, StatusUnfinished:
		if !em.hasAnyTranslation() || noObsolete {
			report.Pruned++
			return nil
		}
		m := em.clone()
		m.Status = StatusVanished
		report.Vanished++
		return m
	default:
		if noObsolete {
			report.Pruned++
			return nil
		}
		return em.clone()
	}
}
