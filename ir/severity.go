package ir

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Severity ranks how serious a fact or finding is. The ordering is
// significant: Info < Minor < Major < Critical < Blocker, and callers rely
// on this order when filtering ("at least Major") or picking the worst of
// several findings on the same location.
type Severity uint8

const (
	SeverityInfo Severity = iota
	SeverityMinor
	SeverityMajor
	SeverityCritical
	SeverityBlocker
)

// String implements fmt.Stringer.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityMinor:
		return "minor"
	case SeverityMajor:
		return "major"
	case SeverityCritical:
		return "critical"
	case SeverityBlocker:
		return "blocker"
	default:
		return fmt.Sprintf("severity(%d)", uint8(s))
	}
}

// ParseSeverity parses the canonical lowercase spelling of a Severity.
func ParseSeverity(s string) (Severity, error) {
	switch s {
	case "info":
		return SeverityInfo, nil
	case "minor":
		return SeverityMinor, nil
	case "major":
		return SeverityMajor, nil
	case "critical":
		return SeverityCritical, nil
	case "blocker":
		return SeverityBlocker, nil
	default:
		return 0, fmt.Errorf("unknown severity %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Severity) UnmarshalText(text []byte) error {
	parsed, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// MarshalYAML implements yaml.Marshaler so rule files written in YAML can
// use the canonical lowercase spelling rather than the numeric ordinal.
func (s Severity) MarshalYAML() (interface{}, error) {
	return s.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *Severity) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := ParseSeverity(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Max returns the more severe of s and other.
func (s Severity) Max(other Severity) Severity {
	if other > s {
		return other
	}
	return s
}
