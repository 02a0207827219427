package format

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"sort"
	"strings"
)

// PeekSize is how much of an input CanParse gets to look at.
const PeekSize = 4096

// ErrUnknownFormat is returned when no registered format matches.
var ErrUnknownFormat = errors.New("unknown format")

// Registry maps lower-cased format names to plugins.
type Registry struct {
	formats map[string]Format
}

// DefaultRegistry is populated by the init functions of the format plugins.
var DefaultRegistry = NewRegistry()

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{formats: make(map[string]Format)}
}

// Register adds f, replacing any format of the same name.
func (r *Registry) Register(f Format) {
	r.formats[strings.ToLower(f.Name())] = f
}

// Get looks a format up by name.
func (r *Registry) Get(name string) (Format, bool) {
	f, ok := r.formats[strings.ToLower(name)]
	return f, ok
}

// GetParser returns the named format as a Parser.
func (r *Registry) GetParser(name string) (Parser, error) {
	f, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s (have %s)", ErrUnknownFormat, name, strings.Join(r.List(), ", "))
	}
	p, ok := f.(Parser)
	if !ok {
		return nil, fmt.Errorf("format %s cannot parse", f.Name())
	}
	return p, nil
}

// GetSerializer returns the named format as a Serializer.
func (r *Registry) GetSerializer(name string) (Serializer, error) {
	f, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s (have %s)", ErrUnknownFormat, name, strings.Join(r.List(), ", "))
	}
	s, ok := f.(Serializer)
	if !ok {
		return nil, fmt.Errorf("format %s cannot serialize", f.Name())
	}
	return s, nil
}

// List returns the registered names, sorted.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.formats))
	for name := range r.formats {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Detect picks the format of an input from its leading bytes, falling back
// to the extension of filename when no format claims the content.
func (r *Registry) Detect(filename string, peek []byte) (Format, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	var byExt Format
	for _, name := range r.List() {
		f := r.formats[name]
		if len(peek) > 0 && f.CanParse(peek) {
			return f, nil
		}
		if byExt == nil && ext != "" && slices.Contains(f.Extensions(), ext) {
			byExt = f
		}
	}
	if byExt != nil {
		return byExt, nil
	}
	return nil, fmt.Errorf("%w: cannot detect the format of %s", ErrUnknownFormat, filename)
}

// Peek reads up to PeekSize bytes from r. The returned reader replays them
// before the rest of r.
func Peek(r io.Reader) (io.Reader, []byte, error) {
	br := bufio.NewReaderSize(r, PeekSize)
	peek, err := br.Peek(PeekSize)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, nil, fmt.Errorf("reading input: %w", err)
	}
	return br, peek, nil
}

// Register adds a format to the default registry.
func Register(f Format) {
	DefaultRegistry.Register(f)
}

// Get looks a format up in the default registry.
func Get(name string) (Format, bool) {
	return DefaultRegistry.Get(name)
}

// GetParser returns a parser from the default registry.
func GetParser(name string) (Parser, error) {
	return DefaultRegistry.GetParser(name)
}

// GetSerializer returns a serializer from the default registry.
func GetSerializer(name string) (Serializer, error) {
	return DefaultRegistry.GetSerializer(name)
}

// Detect detects a format using the default registry.
func Detect(filename string, peek []byte) (Format, error) {
	return DefaultRegistry.Detect(filename, peek)
}
