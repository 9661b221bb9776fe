package tscat

import (
	"fmt"

	"github.com/loopcontext/tscat/internal/plural"
)

const (
	RuleDuplicateMessage         = "duplicate-message"
	RuleUnfinishedHasTranslation = "unfinished-has-translation"
	RuleEmptySource              = "empty-source"
	RuleDuplicateContext         = "duplicate-context"
	RuleEmptyNumerusForm         = "empty-numerus-form"
	RuleNumerusFormCount         = "numerus-form-count"
)

// Validate checks the catalog invariants. It returns nil when nothing was found,
// otherwise a *ValidationError; use HasErrors to tell warnings-only results apart.
func Validate(c *Catalog) error {
	var issues []Issue
	add := func(sev Severity, rule string, ctx string, source string, detail string) {
		issues = append(issues, Issue{Severity: sev, Rule: rule, Context: ctx, Source: source, Detail: detail})
	}

	expectedForms := 0
	if c.Language != "" {
		expectedForms = len(plural.Forms(c.Language))
	}

	seenContexts := map[string]struct{}{}
	for _, ctx := range c.Contexts {
		if _, dup := seenContexts[ctx.Name]; dup {
			add(SeverityWarning, RuleDuplicateContext, ctx.Name, "", "context name appears more than once")
		}
		seenContexts[ctx.Name] = struct{}{}

		seenMessages := map[Key]struct{}{}
		for _, m := range ctx.Messages {
			if m.Source == "" {
				add(SeverityError, RuleEmptySource, ctx.Name, "", "message has no source text")
			}
			key := Key{Context: ctx.Name, Source: m.Source, Comment: m.Comment}
			if _, dup := seenMessages[key]; dup {
				detail := "source text repeated"
				if m.Comment != "" {
					detail = fmt.Sprintf("source text repeated with disambiguation %q", m.Comment)
				}
				add(SeverityError, RuleDuplicateMessage, ctx.Name, m.Source, detail)
			}
			seenMessages[key] = struct{}{}

			if m.Status == StatusUnfinished && m.hasAnyTranslation() {
				add(SeverityError, RuleUnfinishedHasTranslation, ctx.Name, m.Source, "unfinished message carries a translation")
			}
			if m.Numerus && m.Status == StatusFinished {
				for i, form := range m.NumerusForms {
					if form == "" {
						add(SeverityWarning, RuleEmptyNumerusForm, ctx.Name, m.Source, fmt.Sprintf("numerus form %d is empty", i))
					}
				}
				if expectedForms > 0 && len(m.NumerusForms) != expectedForms {
					add(SeverityWarning, RuleNumerusFormCount, ctx.Name, m.Source,
						fmt.Sprintf("%d numerus form(s), language %s uses %d", len(m.NumerusForms), c.Language, expectedForms))
				}
			}
		}
	}

	if len(issues) == 0 {
		return nil
	}
	return &ValidationError{Issues: issues}
}
