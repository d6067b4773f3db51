package chunker

import (
	"strings"
	"testing"
)

func TestSplit_BoundaryBehavior(t *testing.T) {
	chunks := Split("A\nB\nC", "doc.pdf", Options{Separator: "\n", ChunkSize: 3, Overlap: 1})

	got := make([]string, len(chunks))
	for i, c := range chunks {
		got[i] = c.Text
	}
	want := []string{"A\nB", "B\nC"}

	if len(got) != len(want) {
		t.Fatalf("expected %d chunks, got %d: %q", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("chunk %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSplit_EmptyInput(t *testing.T) {
	if chunks := Split("", "doc.pdf", DefaultOptions()); len(chunks) != 0 {
		t.Errorf("empty input should yield no chunks, got %d", len(chunks))
	}
}

func TestSplit_Ordinals(t *testing.T) {
	text := strings.Repeat("line of some length here\n", 200)
	chunks := Split(text, "doc.pdf", DefaultOptions())

	if len(chunks) == 0 {
		t.Fatal("expected chunks for non-empty input")
	}
	for i, c := range chunks {
		if c.Ordinal != i {
			t.Errorf("chunk %d has ordinal %d", i, c.Ordinal)
		}
		if c.SourceDocument != "doc.pdf" {
			t.Errorf("chunk %d has source %q", i, c.SourceDocument)
		}
	}
}

func TestSplit_ChunkSizeBound(t *testing.T) {
	text := strings.Repeat("short unit\n", 500)
	opts := Options{Separator: "\n", ChunkSize: 100, Overlap: 20}

	for i, c := range Split(text, "doc.pdf", opts) {
		if n := len([]rune(c.Text)); n > opts.ChunkSize {
			t.Errorf("chunk %d exceeds size: %d runes", i, n)
		}
	}
}

func TestSplit_OversizeUnitEmittedWhole(t *testing.T) {
	huge := strings.Repeat("x", 50)
	text := "a\n" + huge + "\nb"
	chunks := Split(text, "doc.pdf", Options{Separator: "\n", ChunkSize: 10, Overlap: 2})

	found := false
	for _, c := range chunks {
		if strings.Contains(c.Text, huge) {
			found = true
			if strings.Count(c.Text, "x") != 50 {
				t.Errorf("oversize unit was split: %q", c.Text)
			}
		}
	}
	if !found {
		t.Fatal("oversize unit missing from output")
	}
}

func TestSplit_OverlapReconstruction(t *testing.T) {
	text := strings.Repeat("alpha beta gamma delta\n", 120) + "tail line"
	opts := Options{Separator: "\n", ChunkSize: 80, Overlap: 15}
	chunks := Split(text, "doc.pdf", opts)

	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	// Strip each chunk's seeded overlap prefix and re-join: must equal the
	// original text exactly.
	var b strings.Builder
	b.WriteString(chunks[0].Text)
	for i := 1; i < len(chunks); i++ {
		prev := []rune(chunks[i-1].Text)
		seed := opts.Overlap
		if len(prev) < seed {
			seed = len(prev)
		}
		rest := []rune(chunks[i].Text)[seed:]
		b.WriteString(string(rest))
	}
	if b.String() != text {
		t.Error("stripping overlap prefixes did not reconstruct the original text")
	}
}

func TestSplit_ConsecutiveChunksShareOverlap(t *testing.T) {
	text := strings.Repeat("some words in a line\n", 60)
	opts := Options{Separator: "\n", ChunkSize: 90, Overlap: 10}
	chunks := Split(text, "doc.pdf", opts)

	for i := 1; i < len(chunks); i++ {
		prev := []rune(chunks[i-1].Text)
		seed := string(prev[len(prev)-opts.Overlap:])
		if !strings.HasPrefix(chunks[i].Text, seed) {
			t.Errorf("chunk %d does not start with the previous chunk's tail", i)
		}
	}
}
