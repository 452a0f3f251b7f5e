package references

import (
	"bufio"
	"regexp"
	"strings"
)

// Entry is one rendered bibliography entry.
type Entry struct {
	Key      string `json:"key" yaml:"key"`
	Markdown string `json:"markdown" yaml:"markdown"`
}

// Bibliography is the rendered reference list for a document.
type Bibliography struct {
	File    string   `json:"file" yaml:"file"`
	Keys    []string `json:"keys" yaml:"keys"`
	Entries []Entry  `json:"entries" yaml:"entries"`
	// Raw is pandoc's output, kept so stored results can be parsed again.
	Raw string `json:"-" yaml:"-"`
}

var (
	entryOpen = regexp.MustCompile(`^:{3,}\s*\{#ref-(\S+?)(?:\s[^}]*)?\}\s*$`)
	divClose  = regexp.MustCompile(`^:{3,}\s*$`)
)

// ParseBibliography extracts the csl-entry divs from pandoc markdown output.
func ParseBibliography(file string, keys []string, raw string) *Bibliography {
	b := &Bibliography{File: file, Keys: keys, Raw: raw}

	var (
		current *Entry
		lines   []string
	)
	sc := bufio.NewScanner(strings.NewReader(raw))
	sc.Buffer(make([]byte, 0, 64*1024), len(raw)+1)
	for sc.Scan() {
		line := sc.Text()
		if m := entryOpen.FindStringSubmatch(line); m != nil {
			current = &Entry{Key: m[1]}
			lines = lines[:0]
			continue
		}
		if current == nil {
			continue
		}
		if divClose.MatchString(line) {
			current.Markdown = strings.TrimSpace(strings.Join(lines, "\n"))
			b.Entries = append(b.Entries, *current)
			current = nil
			continue
		}
		lines = append(lines, line)
	}
	return b
}

// Entry returns the entry for key, which may carry a leading '@'.
func (b *Bibliography) Entry(key string) (Entry, bool) {
	key = NormalizeKey(key)
	for _, e := range b.Entries {
		if e.Key == key {
			return e, true
		}
	}
	return Entry{}, false
}

// Missing returns requested keys pandoc produced no entry for.
func (b *Bibliography) Missing() []string {
	var missing []string
	for _, k := range b.Keys {
		if _, ok := b.Entry(k); !ok {
			missing = append(missing, k)
		}
	}
	return missing
}

// Markdown renders the entries as a markdown reference list.
func (b *Bibliography) Markdown() string {
	var sb strings.Builder
	sb.WriteString("## References\n")
	for _, e := range b.Entries {
		sb.WriteString("\n")
		sb.WriteString(e.Markdown)
		sb.WriteString("\n")
	}
	if missing := b.Missing(); len(missing) > 0 {
		sb.WriteString("\n### Not found\n\n")
		for _, k := range missing {
			sb.WriteString("- `@" + k + "`\n")
		}
	}
	return sb.String()
}

// withFile returns a shallow copy attributed to file.
func (b *Bibliography) withFile(file string) *Bibliography {
	c := *b
	c.File = file
	return &c
}
