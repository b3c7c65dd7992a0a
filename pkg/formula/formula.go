package formula

import (
	"fmt"
	"os"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// ResourceMarker introduces a secondary resource block in a composite
// formula. Everything from the first line carrying the marker to the end of
// the document is preserved byte-for-byte across rewrites.
const ResourceMarker = `resource "`

// Fields rewritable in the head segment of a formula.
var fieldKeys = []string{"url", "sha256", "version"}

// Update holds the replacement triple for a release.
type Update struct {
	URL     string
	SHA256  string
	Version string
}

// Validate reports the first missing required field. It is checked before
// any file I/O.
func (u Update) Validate() error {
	switch {
	case u.URL == "":
		return fmt.Errorf("url is required")
	case u.SHA256 == "":
		return fmt.Errorf("sha256 is required")
	case u.Version == "":
		return fmt.Errorf("version is required")
	}
	if _, err := semver.NewVersion(u.Version); err != nil {
		return fmt.Errorf("version %q is not a valid semantic version: %w", u.Version, err)
	}
	return nil
}

// Document is a parsed formula: a head segment whose url/sha256/version
// fields can be rewritten, and an optional tail starting at the first
// resource block, reattached unmodified on render.
type Document struct {
	head []line
	tail string
}

// line is one physical line of the head. Field lines keep the surrounding
// bytes (indentation, key, quotes, trailing text) split out so that a value
// swap perturbs nothing else.
type line struct {
	field  string // "url", "sha256" or "version"; empty for verbatim lines
	prefix string // up to and including the opening quote
	value  string
	suffix string // from the closing quote to the end of the line
	raw    string // verbatim text for non-field lines
}

// Parse splits src into rewritable head lines and an untouched tail. A line
// whose first non-blank text begins with ResourceMarker starts the tail.
func Parse(src string) *Document {
	doc := &Document{}
	rest := src

	for len(rest) > 0 {
		var raw string
		if idx := strings.IndexByte(rest, '\n'); idx >= 0 {
			raw, rest = rest[:idx+1], rest[idx+1:]
		} else {
			raw, rest = rest, ""
		}

		if strings.HasPrefix(strings.TrimLeft(raw, " \t"), ResourceMarker) {
			doc.tail = raw + rest
			return doc
		}

		doc.head = append(doc.head, parseLine(raw))
	}

	return doc
}

// parseLine classifies raw as a field line when it has the shape
// `<indent><key> "<value>"<rest>`; anything else is kept verbatim.
func parseLine(raw string) line {
	indent := len(raw) - len(strings.TrimLeft(raw, " \t"))
	body := raw[indent:]

	for _, key := range fieldKeys {
		if !strings.HasPrefix(body, key) {
			continue
		}
		after := body[len(key):]
		trimmed := strings.TrimLeft(after, " \t")
		// Require whitespace between key and value, and a quoted value.
		if len(trimmed) == len(after) || !strings.HasPrefix(trimmed, `"`) {
			continue
		}
		open := len(raw) - len(trimmed) // index of the opening quote
		end := strings.IndexByte(raw[open+1:], '"')
		if end < 0 {
			continue
		}
		return line{
			field:  key,
			prefix: raw[:open+1],
			value:  raw[open+1 : open+1+end],
			suffix: raw[open+1+end:],
		}
	}

	return line{raw: raw}
}

// Apply replaces the first occurrence of each field in the head with the
// update's values. Applying the same update twice renders identically.
func (d *Document) Apply(u Update) error {
	replacements := map[string]string{
		"url":     u.URL,
		"sha256":  u.SHA256,
		"version": u.Version,
	}
	done := map[string]bool{}

	for i := range d.head {
		key := d.head[i].field
		if key == "" || done[key] {
			continue
		}
		d.head[i].value = replacements[key]
		done[key] = true
	}

	for _, key := range []string{"url", "sha256"} {
		if !done[key] {
			return fmt.Errorf("formula has no %s field before any resource block", key)
		}
	}
	return nil
}

// Render reassembles the document. Untouched lines and the tail round-trip
// byte-identically.
func (d *Document) Render() string {
	var b strings.Builder
	for _, l := range d.head {
		if l.field == "" {
			b.WriteString(l.raw)
			continue
		}
		b.WriteString(l.prefix)
		b.WriteString(l.value)
		b.WriteString(l.suffix)
	}
	b.WriteString(d.tail)
	return b.String()
}

// Rewrite applies u to the formula at path in place. The update is
// validated before the file is touched; a missing file is fatal.
func Rewrite(path string, u Update) error {
	if err := u.Validate(); err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading formula %s: %w", path, err)
	}

	doc := Parse(string(data))
	if err := doc.Apply(u); err != nil {
		return fmt.Errorf("updating %s: %w", path, err)
	}

	if err := os.WriteFile(path, []byte(doc.Render()), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
