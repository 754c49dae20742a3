package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSplitEmpty(t *testing.T) {
	for _, input := range []string{"", "   ", "\n\n\t\n"} {
		if got := Split(input, 100, 0); got != nil {
			t.Errorf("Split(%q) = %v, want nil", input, got)
		}
	}
}

func TestSplitShortText(t *testing.T) {
	chunks := Split("Visit the registrar office in Block B.", 100, 0)
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	if chunks[0] != "Visit the registrar office in Block B." {
		t.Errorf("chunk = %q", chunks[0])
	}
}

func TestSplitDeterministic(t *testing.T) {
	text := "First paragraph about transcripts.\n\nSecond paragraph about fees.\n\n" +
		strings.Repeat("A long line of registrar policy text. ", 20)

	first := Split(text, 200, 50)
	second := Split(text, 200, 50)
	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("chunk %d differs: %q vs %q", i, first[i], second[i])
		}
	}
}

func TestSplitRespectsSize(t *testing.T) {
	text := strings.Repeat("word ", 500)
	for _, chunk := range Split(text, 120, 0) {
		if n := utf8.RuneCountInString(chunk); n > 120 {
			t.Errorf("chunk has %d runes, want <= 120", n)
		}
	}
}

func TestSplitPacksSmallParagraphs(t *testing.T) {
	text := "one\n\ntwo\n\nthree"
	chunks := Split(text, 100, 0)
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1: %v", len(chunks), chunks)
	}
	if chunks[0] != "one\ntwo\nthree" {
		t.Errorf("chunk = %q, want %q", chunks[0], "one\ntwo\nthree")
	}
}

func TestSplitParagraphBoundaries(t *testing.T) {
	para1 := strings.Repeat("a", 80)
	para2 := strings.Repeat("b", 80)
	chunks := Split(para1+"\n\n"+para2, 100, 0)
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	if chunks[0] != para1 || chunks[1] != para2 {
		t.Errorf("paragraphs not kept intact: %q / %q", chunks[0][:10], chunks[1][:10])
	}
}

func TestSplitHardCut(t *testing.T) {
	// A single unbreakable line longer than the chunk size.
	text := strings.Repeat("x", 250)
	chunks := Split(text, 100, 0)
	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3", len(chunks))
	}
	if utf8.RuneCountInString(chunks[0]) != 100 || utf8.RuneCountInString(chunks[1]) != 100 {
		t.Errorf("hard cut sizes: %d, %d", len(chunks[0]), len(chunks[1]))
	}
	if utf8.RuneCountInString(chunks[2]) != 50 {
		t.Errorf("last chunk has %d runes, want 50", utf8.RuneCountInString(chunks[2]))
	}
}

func TestSplitHardCutMultibyte(t *testing.T) {
	// Rune-based cutting must not split a multibyte character.
	text := strings.Repeat("ü", 150)
	chunks := Split(text, 100, 0)
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	for i, chunk := range chunks {
		if !utf8.ValidString(chunk) {
			t.Errorf("chunk %d is not valid UTF-8", i)
		}
	}
	if utf8.RuneCountInString(chunks[0]) != 100 {
		t.Errorf("first chunk has %d runes, want 100", utf8.RuneCountInString(chunks[0]))
	}
}

func TestSplitOverlap(t *testing.T) {
	para1 := strings.Repeat("a", 90)
	para2 := strings.Repeat("b", 70)
	chunks := Split(para1+"\n\n"+para2, 100, 20)
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	wantPrefix := strings.Repeat("a", 20) + "\n"
	if !strings.HasPrefix(chunks[1], wantPrefix) {
		t.Errorf("second chunk does not start with the previous tail: %q", chunks[1][:25])
	}
}

func TestSplitInvalidOverlapIgnored(t *testing.T) {
	text := strings.Repeat("a", 90) + "\n\n" + strings.Repeat("b", 90)
	// Overlap >= size falls back to no overlap rather than looping.
	chunks := Split(text, 100, 100)
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	if strings.Contains(chunks[1], "a") {
		t.Errorf("overlap applied despite being >= size: %q", chunks[1][:20])
	}
}

func TestSplitTrimsWhitespaceUnits(t *testing.T) {
	chunks := Split("  first  \n\n\n\n  second  ", 100, 0)
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	if chunks[0] != "first\nsecond" {
		t.Errorf("chunk = %q, want %q", chunks[0], "first\nsecond")
	}
}
