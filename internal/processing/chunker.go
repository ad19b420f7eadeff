package processing

import (
	"regexp"
	"strings"
)

var paragraphBreak = regexp.MustCompile(`\n\s*\n`)

// Chunker splits bulletin text into paragraph passages, cutting paragraphs
// longer than MaxRunes into overlapping windows.
type Chunker struct {
	MaxRunes int
	Overlap  int
}

func DefaultChunker() Chunker {
	return Chunker{MaxRunes: 1000, Overlap: 200}
}

func (c Chunker) Split(text string) []string {
	var out []string
	for _, p := range paragraphBreak.Split(text, -1) {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, c.window(p)...)
	}
	return out
}

func (c Chunker) window(s string) []string {
	r := []rune(s)
	if c.MaxRunes <= 0 || len(r) <= c.MaxRunes {
		return []string{s}
	}
	step := c.MaxRunes - c.Overlap
	if step <= 0 {
		step = c.MaxRunes
	}
	var res []string
	for i := 0; i < len(r); i += step {
		end := i + c.MaxRunes
		if end > len(r) {
			end = len(r)
		}
		if chunk := strings.TrimSpace(string(r[i:end])); chunk != "" {
			res = append(res, chunk)
		}
		if end == len(r) {
			break
		}
	}
	return res
}
