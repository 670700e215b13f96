// Package frontmatter rewrites the YAML header of a Markdown note while
// preserving the body byte-for-byte.
package frontmatter

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const delim = "---"

// Update parses the note's YAML header, applies fn to the resulting map, and
// re-serializes the note. A note without a header gains one when fn leaves
// any keys behind; an empty map after fn removes the header entirely.
// Invalid YAML in an existing header is an error: bulk edits must not
// silently destroy user metadata.
func Update(content []byte, fn func(fm map[string]any)) ([]byte, error) {
	fm, body, err := split(content)
	if err != nil {
		return nil, err
	}
	if fm == nil {
		fm = make(map[string]any)
	}

	fn(fm)

	if len(fm) == 0 {
		return body, nil
	}

	var buf bytes.Buffer
	buf.WriteString(delim + "\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(fm); err != nil {
		return nil, fmt.Errorf("frontmatter: encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("frontmatter: encode: %w", err)
	}
	buf.WriteString(delim + "\n")
	buf.Write(body)
	return buf.Bytes(), nil
}

// split separates the YAML header from the body. Unlike the read-side parser
// it reports invalid YAML as an error instead of degrading, and it returns
// the body with its original bytes intact.
func split(content []byte) (map[string]any, []byte, error) {
	trimmed := bytes.TrimLeft(content, "\n\r")
	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, content, nil
	}
	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, content, nil
	}
	yamlBlock := rest[:idx]
	after := rest[idx+1+len(delim):]
	// The closing delimiter line may carry a trailing newline; the body
	// starts on the next line.
	if i := bytes.IndexByte(after, '\n'); i >= 0 {
		after = after[i+1:]
	} else {
		after = nil
	}

	var fm map[string]any
	if err := yaml.Unmarshal(yamlBlock, &fm); err != nil {
		return nil, nil, fmt.Errorf("frontmatter: invalid YAML header: %w", err)
	}
	return fm, after, nil
}

// AddTags appends the given tags to the "tags" list, skipping duplicates.
func AddTags(fm map[string]any, tags []string) {
	existing := stringList(fm["tags"])
	seen := make(map[string]struct{}, len(existing))
	for _, t := range existing {
		seen[t] = struct{}{}
	}
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		existing = append(existing, t)
	}
	if len(existing) == 0 {
		delete(fm, "tags")
		return
	}
	fm["tags"] = toAnyList(existing)
}

// RemoveTags removes the given tags from the "tags" list; the key is dropped
// when the list empties.
func RemoveTags(fm map[string]any, tags []string) {
	drop := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		drop[strings.TrimSpace(t)] = struct{}{}
	}
	var kept []string
	for _, t := range stringList(fm["tags"]) {
		if _, gone := drop[t]; !gone {
			kept = append(kept, t)
		}
	}
	if len(kept) == 0 {
		delete(fm, "tags")
		return
	}
	fm["tags"] = toAnyList(kept)
}

// SetProperty assigns an arbitrary frontmatter property.
func SetProperty(fm map[string]any, key string, value any) {
	fm[key] = value
}

// RemoveProperty drops a frontmatter property.
func RemoveProperty(fm map[string]any, key string) {
	delete(fm, key)
}

// SetDraft toggles the "draft" flag. Publishing removes the key rather than
// writing "draft: false" so published notes carry no draft marker at all.
func SetDraft(fm map[string]any, draft bool) {
	if draft {
		fm["draft"] = true
		return
	}
	delete(fm, "draft")
}

// IsDraft reads the "draft" flag from a frontmatter map.
func IsDraft(fm map[string]any) bool {
	v, ok := fm["draft"]
	if !ok {
		return false
	}
	b, ok := v.(bool)
	return ok && b
}

// stringList normalises a frontmatter value into a string slice: YAML lists
// keep their string items, a bare string becomes a single-item list.
func stringList(v any) []string {
	switch t := v.(type) {
	case []any:
		var out []string
		for _, item := range t {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return t
	case string:
		if strings.TrimSpace(t) == "" {
			return nil
		}
		return []string{t}
	default:
		return nil
	}
}

func toAnyList(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
