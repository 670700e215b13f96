// Package parser extracts frontmatter, embeds, wikilinks, and tags from
// Markdown content.
package parser

import (
	"bytes"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	embedWikiRe = regexp.MustCompile(`!\[\[([^\[\]]+?)\]\]`)
	embedMDRe   = regexp.MustCompile(`!\[[^\]]*\]\(([^)\s]+)(?:\s+"[^"]*")?\)`)
	wikilinkRe  = regexp.MustCompile(`(^|[^!])\[\[(.*?)\]\]`)
	tagRe       = regexp.MustCompile(`(?:^|\s)#([A-Za-z][A-Za-z0-9_/-]*)`)
)

// Result holds the output of parsing a Markdown file.
type Result struct {
	Frontmatter map[string]interface{}
	Body        string
	Embeds      []string
	Links       []string
	Tags        []string
	Title       string
}

// Parse extracts frontmatter, body, embeds, wikilinks, and tags from raw
// Markdown bytes.
func Parse(data []byte) (*Result, error) {
	fm, body, err := SplitFrontmatter(data)
	if err != nil {
		return nil, err
	}

	return &Result{
		Frontmatter: fm,
		Body:        body,
		Embeds:      extractEmbeds(body),
		Links:       extractLinks(body),
		Tags:        extractTags(body, fm),
		Title:       deriveTitle(fm, body),
	}, nil
}

// SplitFrontmatter separates YAML frontmatter (between leading --- delimiters)
// from the Markdown body. If no frontmatter is found, or the YAML is invalid,
// the entire content is body.
func SplitFrontmatter(data []byte) (map[string]interface{}, string, error) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, string(data), nil
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		// No closing delimiter — treat everything as body.
		return nil, string(data), nil
	}

	yamlBlock := rest[:idx]
	afterDelim := rest[idx+1+len(delim):]
	body := strings.TrimLeft(string(afterDelim), "\n\r")

	var fm map[string]interface{}
	if err := yaml.Unmarshal(yamlBlock, &fm); err != nil {
		// Invalid YAML — degrade to body-only, no error.
		return nil, string(data), nil
	}

	return fm, body, nil
}

// extractEmbeds returns in-body embedded-reference targets in document order.
// Both ![[target]] and ![alt](target) forms are collected; duplicates are
// kept out but first-appearance order is preserved.
func extractEmbeds(body string) []string {
	seen := make(map[string]struct{})
	var out []string

	add := func(raw string) {
		target := raw
		if i := strings.Index(target, "|"); i >= 0 {
			target = target[:i]
		}
		target = strings.TrimSpace(target)
		if target == "" {
			return
		}
		if _, dup := seen[target]; dup {
			return
		}
		seen[target] = struct{}{}
		out = append(out, target)
	}

	type hit struct {
		pos    int
		target string
	}
	var hits []hit
	for _, m := range embedWikiRe.FindAllStringSubmatchIndex(body, -1) {
		hits = append(hits, hit{pos: m[0], target: body[m[2]:m[3]]})
	}
	for _, m := range embedMDRe.FindAllStringSubmatchIndex(body, -1) {
		hits = append(hits, hit{pos: m[0], target: body[m[2]:m[3]]})
	}
	// Merge the two match sets back into document order.
	for i := 1; i < len(hits); i++ {
		for j := i; j > 0 && hits[j].pos < hits[j-1].pos; j-- {
			hits[j], hits[j-1] = hits[j-1], hits[j]
		}
	}
	for _, h := range hits {
		add(h.target)
	}
	return out
}

// extractLinks returns deduplicated wikilink targets, normalising aliases.
// Embeds (![[...]]) are not links.
func extractLinks(body string) []string {
	matches := wikilinkRe.FindAllStringSubmatch(body, -1)
	seen := make(map[string]struct{}, len(matches))
	var out []string
	for _, m := range matches {
		raw := m[2]
		// Handle aliases: [[Target|Alias]] → Target.
		target := raw
		if i := strings.Index(raw, "|"); i >= 0 {
			target = raw[:i]
		}
		target = strings.TrimSpace(target)
		if target == "" {
			continue
		}
		if _, ok := seen[target]; ok {
			continue
		}
		seen[target] = struct{}{}
		out = append(out, target)
	}
	return out
}

// extractTags collects #tags from body and from frontmatter "tags" field.
func extractTags(body string, fm map[string]interface{}) []string {
	seen := make(map[string]struct{})
	var out []string

	if fm != nil {
		if raw, ok := fm["tags"]; ok {
			switch v := raw.(type) {
			case []interface{}:
				for _, item := range v {
					if s, ok := item.(string); ok {
						s = strings.TrimSpace(s)
						if s != "" {
							if _, dup := seen[s]; !dup {
								seen[s] = struct{}{}
								out = append(out, s)
							}
						}
					}
				}
			case string:
				s := strings.TrimSpace(v)
				if s != "" {
					seen[s] = struct{}{}
					out = append(out, s)
				}
			}
		}
	}

	matches := tagRe.FindAllStringSubmatch(body, -1)
	for _, m := range matches {
		t := m[1]
		if _, dup := seen[t]; !dup {
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}

	return out
}

// deriveTitle returns the frontmatter "title" if present, otherwise the first
// H1 heading, otherwise empty string.
func deriveTitle(fm map[string]interface{}, body string) string {
	if fm != nil {
		if t, ok := fm["title"]; ok {
			if s, ok := t.(string); ok && s != "" {
				return s
			}
		}
	}
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}
