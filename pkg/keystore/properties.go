package keystore

import (
	"sort"

	"github.com/chigopher/pathlib"
	"github.com/magiconair/properties"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// Well-known keys of a key.properties file.
const (
	KeyStoreFile     = "storeFile"
	KeyStorePassword = "storePassword"
	KeyKeyAlias      = "keyAlias"
	KeyKeyPassword   = "keyPassword"
)

// DefaultFileName is the conventional name of the file at the project root.
const DefaultFileName = "key.properties"

// KeystoreProperties is the flat key-value mapping loaded from a key.properties
// file. The zero value is an empty mapping.
type KeystoreProperties struct {
	// Path is the file the values were read from, if any.
	Path   string
	keys   []string
	values map[string]string
}

// NewKeystoreProperties builds a mapping from in-memory values.
func NewKeystoreProperties(values map[string]string) *KeystoreProperties {
	p := &KeystoreProperties{values: make(map[string]string, len(values))}
	for k, v := range values {
		p.keys = append(p.keys, k)
		p.values[k] = v
	}
	sort.Strings(p.keys)
	return p
}

// ParseKeystoreProperties parses Java properties text. Values are taken
// literally: ${...} references are not expanded.
func ParseKeystoreProperties(path string, data []byte) (*KeystoreProperties, error) {
	loader := &properties.Loader{
		Encoding:         properties.UTF8,
		DisableExpansion: true,
	}
	parsed, err := loader.LoadBytes(data)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	p := &KeystoreProperties{
		Path:   path,
		values: make(map[string]string, parsed.Len()),
	}
	for _, key := range parsed.Keys() {
		value, _ := parsed.Get(key)
		p.keys = append(p.keys, key)
		p.values[key] = value
	}
	return p, nil
}

// LoadKeystoreProperties reads the properties file at path. A missing file is
// not an error: it yields an empty mapping and found=false.
func LoadKeystoreProperties(fs afero.Fs, path string) (props *KeystoreProperties, found bool, err error) {
	file := pathlib.NewPath(path, pathlib.PathWithAfero(fs))
	exists, err := file.Exists()
	if err != nil {
		return &KeystoreProperties{}, false, errors.Wrapf(err, "checking %s", path)
	}
	if !exists {
		return &KeystoreProperties{}, false, nil
	}

	data, err := file.ReadFile()
	if err != nil {
		return &KeystoreProperties{}, true, errors.Wrapf(err, "reading %s", path)
	}

	props, err = ParseKeystoreProperties(path, data)
	if err != nil {
		return &KeystoreProperties{}, true, err
	}
	return props, true, nil
}

// Get returns the value for key.
func (p *KeystoreProperties) Get(key string) (string, bool) {
	if p == nil || p.values == nil {
		return "", false
	}
	v, ok := p.values[key]
	return v, ok
}

// Require returns the value for key or a MissingPropertyError.
func (p *KeystoreProperties) Require(key string) (string, error) {
	v, ok := p.Get(key)
	if !ok {
		path := ""
		if p != nil {
			path = p.Path
		}
		return "", &MissingPropertyError{Path: path, Key: key}
	}
	return v, nil
}

// Keys returns the keys in file order.
func (p *KeystoreProperties) Keys() []string {
	if p == nil {
		return nil
	}
	return append([]string{}, p.keys...)
}

func (p *KeystoreProperties) Len() int {
	if p == nil {
		return 0
	}
	return len(p.values)
}
