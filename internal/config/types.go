package config

import (
	"encoding/json"
	"strings"
)

const redacted = "[REDACTED]"

// Secret holds an access token. Every printing or encoding path yields
// "[REDACTED]"; only Value returns the token itself.
type Secret string

func (s Secret) String() string {
	if s == "" {
		return ""
	}
	return redacted
}

func (s Secret) GoString() string {
	return "Secret(" + redacted + ")"
}

// Value returns the raw token, for handing to API clients and git
// transports only.
func (s Secret) Value() string {
	return string(s)
}

// IsSet reports whether a token was configured.
func (s Secret) IsSet() bool {
	return s != ""
}

func (s Secret) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s Secret) MarshalYAML() (interface{}, error) {
	return s.String(), nil
}

// UnmarshalText trims surrounding whitespace, so tokens read from files or
// pasted into .env keep working with a trailing newline.
func (s *Secret) UnmarshalText(text []byte) error {
	*s = Secret(strings.TrimSpace(string(text)))
	return nil
}
