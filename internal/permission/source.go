package permission

import "fmt"

// Source tells why a permission is granted.
type Source uint8

const (
	// SourceNone means the permission is not granted.
	SourceNone Source = iota
	// SourceRole means the permission comes from the identity's role only.
	SourceRole
	// SourceUser means the permission was granted explicitly to the identity only.
	SourceUser
	// SourceBoth means the permission comes from the role and an explicit grant.
	SourceBoth
)

var sourceNames = [...]string{ //nolint:gochecknoglobals
	SourceNone: "none",
	SourceRole: "role",
	SourceUser: "user",
	SourceBoth: "both",
}

// String returns the wire name of the source.
func (s Source) String() string {
	if int(s) < len(sourceNames) {
		return sourceNames[s]
	}

	return fmt.Sprintf("source(%d)", uint8(s))
}

// Merge combines two provenances of the same permission.
func (s Source) Merge(other Source) Source {
	role := s == SourceRole || s == SourceBoth || other == SourceRole || other == SourceBoth
	user := s == SourceUser || s == SourceBoth || other == SourceUser || other == SourceBoth

	switch {
	case role && user:
		return SourceBoth
	case role:
		return SourceRole
	case user:
		return SourceUser
	default:
		return SourceNone
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Source) MarshalText() ([]byte, error) {
	if int(s) >= len(sourceNames) {
		return nil, fmt.Errorf("permission: invalid source %d", uint8(s))
	}

	return []byte(sourceNames[s]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. An empty value decodes to SourceNone.
func (s *Source) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*s = SourceNone
		return nil
	}

	for i, name := range sourceNames {
		if name == string(text) {
			*s = Source(i) //nolint:gosec // bounded by sourceNames
			return nil
		}
	}

	return fmt.Errorf("permission: unknown source %q", text)
}
