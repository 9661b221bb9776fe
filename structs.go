package tscat

import "time"

// Catalog is one translation file for a single target language.
type Catalog struct {
	Version        string
	Language       string
	SourceLanguage string
	Contexts       []*Context
}

// Context groups the messages of one UI surface (a dialog, a window).
type Context struct {
	Name     string
	Comment  string
	Messages []*Message
}

type Location struct {
	Filename string
	// Line is kept verbatim: absolute ("42") or relative ("+3").
	Line string
}

type Message struct {
	ID      string
	Source  string
	Comment string // disambiguation

	OldSource         string
	OldComment        string
	ExtraComment      string
	TranslatorComment string

	Translation  string
	Numerus      bool
	NumerusForms []string
	Status       Status
	Locations    []Location
}

// Def declares a translatable string without translating it, so the extractor
// can find it and TranslateDef can resolve it later.
type Def struct {
	Context string
	Source  string
	Comment string
	// Numerus marks a message that is always translated with a count.
	Numerus bool
}

// Counts is the per-status breakdown of a catalog.
type Counts struct {
	Finished     int `yaml:"finished"`
	Unfinished   int `yaml:"unfinished"`
	Vanished     int `yaml:"vanished"`
	Obsolete     int `yaml:"obsolete"`
	Untranslated int `yaml:"untranslated"`
}

type Config struct {
	ResourcePath      string
	CtxLanguageKey    ContextKey
	DefaultLanguage   string
	FallbackLanguages []string
	SkipUnfinished    bool
	Observer          Observer
	ObserverBuffer    int
	StatsMaxKeys      int
	ReloadRetries     int
	ReloadRetryDelay  time.Duration
	NowFn             func() time.Time
}

type ContextKey string

// Observer receives lookup events asynchronously. Implementations must be safe
// for use from the translator's worker goroutine.
type Observer interface {
	OnLanguageFallback(requestedLang string, resolvedLang string)
	OnLanguageMissing(lang string)
	OnMessageMissing(lang string, context string, source string)
}

type TranslatorStats struct {
	LanguageFallbacks map[string]int
	MissingLanguages  map[string]int
	MissingMessages   map[string]int
	DroppedEvents     map[string]int
	LastReloadAt      time.Time
}

// Key identifies a message for lookup.
type Key struct {
	Context string
	Source  string
	Comment string
}

func (m *Message) IsTranslated() bool {
	if m.Numerus {
		if len(m.NumerusForms) == 0 {
			return false
		}
		for _, form := range m.NumerusForms {
			if form == "" {
				return false
			}
		}
		return true
	}
	return m.Translation != ""
}

func (m *Message) hasAnyTranslation() bool {
	if m.Translation != "" {
		return true
	}
	for _, form := range m.NumerusForms {
		if form != "" {
			return true
		}
	}
	return false
}

// Context returns the first context named name, or nil.
func (c *Catalog) Context(name string) *Context {
	for _, ctx := range c.Contexts {
		if ctx.Name == name {
			return ctx
		}
	}
	return nil
}

// Find returns the message keyed by (context, source, comment), or nil.
func (c *Catalog) Find(context string, source string, comment string) *Message {
	for _, ctx := range c.Contexts {
		if ctx.Name != context {
			continue
		}
		if m := ctx.Find(source, comment); m != nil {
			return m
		}
	}
	return nil
}

func (c *Context) Find(source string, comment string) *Message {
	for _, m := range c.Messages {
		if m.Source == source && m.Comment == comment {
			return m
		}
	}
	return nil
}

// Summarize counts messages per status. Untranslated counts finished and
// unfinished messages with no usable translation.
func (c *Catalog) Summarize() Counts {
	var counts Counts
	for _, ctx := range c.Contexts {
		for _, m := range ctx.Messages {
			switch m.Status {
			case StatusFinished:
				counts.Finished++
			case StatusUnfinished:
				counts.Unfinished++
			case StatusVanished:
				counts.Vanished++
			case StatusObsolete:
				counts.Obsolete++
			}
			if (m.Status == StatusFinished || m.Status == StatusUnfinished) && !m.IsTranslated() {
				counts.Untranslated++
			}
		}
	}
	return counts
}

func (c *Catalog) appendContext(name string) *Context {
	ctx := &Context{Name: name}
	c.Contexts = append(c.Contexts, ctx)
	return ctx
}
