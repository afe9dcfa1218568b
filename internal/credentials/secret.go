package credentials

// Secret is a credential value that never serializes in the clear. String
// and MarshalJSON render a mask; the raw value is only reachable through
// Reveal.
type Secret struct {
	value string
}

const mask = "**********"

// NewSecret wraps a raw credential value.
func NewSecret(v string) Secret {
	return Secret{value: v}
}

// Reveal returns the raw value.
func (s Secret) Reveal() string {
	return s.value
}

// Empty reports whether the secret holds no value.
func (s Secret) Empty() bool {
	return s.value == ""
}

func (s Secret) String() string {
	if s.value == "" {
		return ""
	}
	return mask
}

// MarshalJSON renders the mask, never the value.
func (s Secret) MarshalJSON() ([]byte, error) {
	if s.value == "" {
		return []byte(`""`), nil
	}
	return []byte(`"` + mask + `"`), nil
}

// UnmarshalJSON accepts a plain string value.
func (s *Secret) UnmarshalJSON(data []byte) error {
	if len(data) >= 2 && data[0] == '"' && data[len(data)-1] == '"' {
		s.value = string(data[1 : len(data)-1])
		return nil
	}
	s.value = string(data)
	return nil
}
