package tscat

import (
	"fmt"
	"strings"
)

// ParseError reports a catalog that could not be decoded.
type ParseError struct {
	Filename string
	err      error
}

func (pe *ParseError) Error() string {
	if pe.Filename == "" {
		return fmt.Sprintf("parse catalog: %v", pe.err)
	}
	return fmt.Sprintf("parse catalog %s: %v", pe.Filename, pe.err)
}

func (pe *ParseError) Unwrap() error {
	return pe.err
}

type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// Issue is one finding of Validate. Rule is a stable identifier such as
// "duplicate-message".
type Issue struct {
	Severity Severity
	Rule     string
	Context  string
	Source   string
	Detail   string
}

func (i Issue) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", i.Severity, i.Rule)
	if i.Context != "" {
		fmt.Fprintf(&b, " [%s]", i.Context)
	}
	if i.Source != "" {
		fmt.Fprintf(&b, " %q", i.Source)
	}
	if i.Detail != "" {
		fmt.Fprintf(&b, ": %s", i.Detail)
	}
	return b.String()
}

// ValidationError carries every issue found in a catalog, warnings included.
type ValidationError struct {
	Issues []Issue
}

func (ve *ValidationError) Error() string {
	errs, warnings := ve.count()
	if len(ve.Issues) == 1 {
		return "invalid catalog: " + ve.Issues[0].String()
	}
	return fmt.Sprintf("invalid catalog: %d error(s), %d warning(s)", errs, warnings)
}

// HasErrors reports whether any issue is an error rather than a warning.
func (ve *ValidationError) HasErrors() bool {
	errs, _ := ve.count()
	return errs > 0
}

func (ve *ValidationError) count() (int, int) {
	errs, warnings := 0, 0
	for _, issue := range ve.Issues {
		if issue.Severity == SeverityError {
			errs++
		} else {
			warnings++
		}
	}
	return errs, warnings
}
