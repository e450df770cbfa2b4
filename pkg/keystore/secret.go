package keystore

const redacted = "********"

// Secret holds a password. Its string and text forms are redacted so it can be
// passed to loggers and encoders safely; Reveal returns the real value.
type Secret string

func (s Secret) String() string {
	if s == "" {
		return ""
	}
	return redacted
}

func (s Secret) MarshalText() (text []byte, err error) {
	return []byte(s.String()), nil
}

// Reveal returns the unredacted value.
func (s Secret) Reveal() string {
	return string(s)
}
