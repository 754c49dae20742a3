// Package chunker deterministically splits long text into bounded,
// overlap-controlled segments, the unit of embedding and indexing.
package chunker

import (
	"strings"
	"unicode/utf8"
)

// Default parameters. Reinforcement text (validated resolutions) is short
// and self-contained, so no overlap; bulk corpus text keeps a 100-rune
// overlap for continuity across chunk boundaries.
const (
	ReinforcementChunkSize = 1500
	ReinforcementOverlap   = 0
	CorpusChunkSize        = 1000
	CorpusOverlap          = 100
)

// Split breaks text into chunks of at most size runes. It splits on
// paragraph boundaries first, then line boundaries, and falls back to hard
// cuts only when a single line exceeds size. Adjacent small units are
// packed together; when overlap > 0 each chunk starts with the tail of the
// previous one.
//
// Split is a pure function: identical input always yields an identical
// sequence. Empty or all-whitespace input yields nil.
func Split(text string, size, overlap int) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if size <= 0 {
		size = ReinforcementChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}
	return pack(units(text, size), size, overlap)
}

// units breaks text into fragments no longer than size runes, preferring
// paragraph then line boundaries.
func units(text string, size int) []string {
	var out []string
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if utf8.RuneCountInString(para) <= size {
			out = append(out, para)
			continue
		}
		for _, line := range strings.Split(para, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if utf8.RuneCountInString(line) <= size {
				out = append(out, line)
				continue
			}
			out = append(out, hardCut(line, size)...)
		}
	}
	return out
}

// pack merges consecutive units into chunks of at most size runes.
func pack(units []string, size, overlap int) []string {
	var chunks []string
	var cur string
	for _, u := range units {
		switch {
		case cur == "":
			cur = u
		case utf8.RuneCountInString(cur)+1+utf8.RuneCountInString(u) <= size:
			cur = cur + "\n" + u
		default:
			chunks = append(chunks, cur)
			cur = u
			if overlap > 0 {
				t := tail(chunks[len(chunks)-1], overlap)
				if utf8.RuneCountInString(t)+1+utf8.RuneCountInString(u) <= size {
					cur = t + "\n" + u
				}
			}
		}
	}
	if cur != "" {
		chunks = append(chunks, cur)
	}
	return chunks
}

// hardCut slices s into pieces of exactly size runes (last piece shorter).
func hardCut(s string, size int) []string {
	r := []rune(s)
	var out []string
	for start := 0; start < len(r); start += size {
		end := start + size
		if end > len(r) {
			end = len(r)
		}
		out = append(out, string(r[start:end]))
	}
	return out
}

// tail returns the last n runes of s.
func tail(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}
