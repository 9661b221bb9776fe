package tscat

import (
	"fmt"
	"strings"
)

// Status is the lifecycle marker of a message. The zero value is finished, which
// the XML form leaves implicit (no type attribute).
type Status int

const (
	StatusFinished Status = iota
	StatusUnfinished
	StatusVanished
	StatusObsolete
)

var statusNames = map[Status]string{
	StatusFinished:   "finished",
	StatusUnfinished: "unfinished",
	StatusVanished:   "vanished",
	StatusObsolete:   "obsolete",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// ParseStatus accepts the names used by the type attribute. An empty string is
// finished.
func ParseStatus(value string) (Status, error) {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return StatusFinished, nil
	}
	for status, name := range statusNames {
		if name == value {
			return status, nil
		}
	}
	return StatusFinished, fmt.Errorf("unknown message status %q", value)
}

// typeAttr is the value of the XML type attribute; empty for finished.
func (s Status) typeAttr() string {
	if s == StatusFinished {
		return ""
	}
	return s.String()
}

// UnmarshalYAML accepts the status name as a string; null means finished.
func (s *Status) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var v interface{}
	if err := unmarshal(&v); err != nil {
		return err
	}
	if v == nil {
		*s = StatusFinished
		return nil
	}
	name, ok := v.(string)
	if !ok {
		return fmt.Errorf("status must be a string, got %T", v)
	}
	parsed, err := ParseStatus(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func (s Status) MarshalYAML() (interface{}, error) {
	return s.String(), nil
}
