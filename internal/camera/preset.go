package camera

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/joho/godotenv"
)

// SavePreset writes props as name=value lines. Recognised properties come
// first in declaration order; any other keys follow in sorted order.
func SavePreset(w io.Writer, props map[string]string) error {
	bw := bufio.NewWriter(w)
	for _, name := range orderedNames(props) {
		if _, err := fmt.Fprintf(bw, "%s=%s\n", name, props[name]); err != nil {
			return fmt.Errorf("writing preset: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("writing preset: %w", err)
	}
	return nil
}

// LoadPreset reads name=value lines. Blank lines and # comments are ignored
// and whitespace around names and values is trimmed. Values are returned as
// written; they are validated only when applied.
func LoadPreset(r io.Reader) (map[string]string, error) {
	props, err := godotenv.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedPreset, err)
	}
	for name, value := range props {
		if name == "" || strings.ContainsAny(name, " \t\r\n") {
			return nil, fmt.Errorf("%w: line %q has no property name", ErrMalformedPreset, value)
		}
	}
	return props, nil
}

// ApplyPreset sets every entry of props through the adapter in the order
// SavePreset would write them. It returns the failures keyed by name; a nil
// map means every property was applied.
func ApplyPreset(a *PropertyAdapter, props map[string]string) map[string]error {
	var failed map[string]error
	for _, name := range orderedNames(props) {
		if err := a.SetProperty(name, props[name]); err != nil {
			if failed == nil {
				failed = make(map[string]error)
			}
			failed[name] = err
		}
	}
	return failed
}

// orderedNames returns the keys of props with recognised properties first in
// declaration order, followed by unrecognised keys sorted.
func orderedNames(props map[string]string) []string {
	names := make([]string, 0, len(props))
	for i := range properties {
		if _, ok := props[properties[i].name]; ok {
			names = append(names, properties[i].name)
		}
	}
	var unknown []string
	for name := range props {
		if !IsKnown(name) {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)
	return append(names, unknown...)
}
