// Package format implements the wire formats used to move structured
// values in and out of text, keyed by name, mimetype or file extension.
package format

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// ErrUnknownFormat indicates a name, mimetype or extension with no
// registered format.
var ErrUnknownFormat = errors.New("format: unknown format")

// Format encodes and decodes values of a particular wire format.
type Format interface {
	// Name returns the canonical name of the format.
	Name() string

	// Mimetype returns the mimetype of the format, if any.
	Mimetype() string

	// Extensions returns the file extensions of the format, dot included.
	Extensions() []string

	// Serialize encodes value as text.
	Serialize(value any) (string, error)

	// Unserialize decodes text into a value.
	Unserialize(text string) (any, error)
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Format)
)

// Register makes a format resolvable by its name, mimetype and
// extensions, replacing any formats already registered under them.
func Register(format Format) {
	registryMu.Lock()
	defer registryMu.Unlock()

	registry[strings.ToLower(format.Name())] = format
	if mimetype := format.Mimetype(); mimetype != "" {
		registry[strings.ToLower(mimetype)] = format
	}
	for _, extension := range format.Extensions() {
		registry[strings.ToLower(extension)] = format
	}
}

// Resolve returns the format registered under name, which may be a
// format name, a mimetype or a dotted file extension.
func Resolve(name string) (Format, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	if format, ok := registry[strings.ToLower(name)]; ok {
		return format, nil
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownFormat, name)
}

func init() {
	Register(JSON{})
	Register(StructuredText{})
	Register(URLEncoded{})
	Register(YAML{})
	Register(CSV{})
	Register(XML{})
}

// Serialize encodes value with the named format.
func Serialize(name string, value any) (string, error) {
	format, err := Resolve(name)
	if err != nil {
		return "", err
	}
	return format.Serialize(value)
}

// Unserialize decodes text with the named format.
func Unserialize(name string, text string) (any, error) {
	format, err := Resolve(name)
	if err != nil {
		return nil, err
	}
	return format.Unserialize(text)
}

// Read loads and decodes the file at path, resolving the format from
// name or, when name is empty, from the file extension.
func Read(path, name string) (any, error) {
	if path == "" {
		return nil, errors.New("format: empty path")
	}
	if name == "" {
		name = strings.ToLower(filepath.Ext(path))
	}
	format, err := Resolve(name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return format.Unserialize(string(data))
}

// Write encodes value and writes it to the file at path, resolving the
// format from name or, when name is empty, from the file extension.
func Write(path string, value any, name string) error {
	if path == "" {
		return errors.New("format: empty path")
	}
	if name == "" {
		name = strings.ToLower(filepath.Ext(path))
	}
	format, err := Resolve(name)
	if err != nil {
		return err
	}

	text, err := format.Serialize(value)
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(text), 0o644)
}

// scalarText renders a non-container value as plain text, the spelling
// shared by the textual formats.
func scalarText(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case time.Time:
		return v.Format("2006-01-02 15:04:05")
	}
	return fmt.Sprintf("%v", value)
}
