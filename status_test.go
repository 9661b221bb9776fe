package tscat

import (
	"testing"

	"gopkg.in/yaml.v2"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in      string
		want    Status
		wantErr bool
	}{
		{"", StatusFinished, false},
		{"finished", StatusFinished, false},
		{"unfinished", StatusUnfinished, false},
		{" Vanished ", StatusVanished, false},
		{"obsolete", StatusObsolete, false},
		{"done", StatusFinished, true},
	}
	for _, tt := range tests {
		got, err := ParseStatus(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseStatus(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseStatus(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestStatus_UnmarshalYAML(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		want    Status
		wantErr bool
	}{
		{"string", `unfinished`, StatusUnfinished, false},
		{"quoted", `"vanished"`, StatusVanished, false},
		{"null", `null`, StatusFinished, false},
		{"int", `1`, StatusFinished, true},
		{"unknown", `later`, StatusFinished, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s Status
			err := yaml.Unmarshal([]byte(tt.yaml), &s)
			if (err != nil) != tt.wantErr {
				t.Errorf("UnmarshalYAML() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && s != tt.want {
				t.Errorf("UnmarshalYAML() got = %s, want %s", s, tt.want)
			}
		})
	}
}

func TestStatus_MarshalYAMLInStruct(t *testing.T) {
	type entry struct {
		Source string `yaml:"source"`
		Status Status `yaml:"status"`
	}
	out, err := yaml.Marshal(entry{Source: "Tires", Status: StatusObsolete})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(out) != "source: Tires\nstatus: obsolete\n" {
		t.Errorf("Marshal = %q", out)
	}
	var back entry
	if err := yaml.Unmarshal(out, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if back.Status != StatusObsolete {
		t.Errorf("round-trip status = %s", back.Status)
	}
}

func TestStatusString(t *testing.T) {
	if got := Status(42).String(); got != "Status(42)" {
		t.Errorf("String() = %q", got)
	}
}
