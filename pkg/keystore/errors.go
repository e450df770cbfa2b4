package keystore

import "fmt"

// ParseError is returned when a properties file cannot be parsed.
type ParseError struct {
	Path string
	Err  error
}

func (e ParseError) Error() string {
	return fmt.Sprintf("malformed properties file %s: %v", e.Path, e.Err)
}

func (e ParseError) Unwrap() error {
	return e.Err
}

// MissingPropertyError is returned when a required key is absent.
type MissingPropertyError struct {
	Path string
	Key  string
}

func (e MissingPropertyError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("missing required property: %s", e.Key)
	}
	return fmt.Sprintf("missing required property %s in %s", e.Key, e.Path)
}
