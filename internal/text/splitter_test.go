package text

import (
	"strings"
	"testing"
)

func TestSplitSingleChunk(t *testing.T) {
	// Three short sentences that fit one chunk together.
	input := "First sentence here. Second one follows? Third ends it!"

	chunks := Split(input, 1000)
	if len(chunks) != 1 {
		t.Fatalf("Expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Index != 1 {
		t.Errorf("Expected index 1, got %d", chunks[0].Index)
	}
	if chunks[0].Text != input {
		t.Errorf("Expected chunk text %q, got %q", input, chunks[0].Text)
	}
}

func TestSplitSentenceBoundaries(t *testing.T) {
	input := "Alpha is first. Bravo is second. Charlie is third."

	chunks := Split(input, 20)
	if len(chunks) != 3 {
		t.Fatalf("Expected 3 chunks, got %d: %v", len(chunks), chunks)
	}

	expected := []string{"Alpha is first.", "Bravo is second.", "Charlie is third."}
	for i, want := range expected {
		if chunks[i].Text != want {
			t.Errorf("Chunk %d: expected %q, got %q", i+1, want, chunks[i].Text)
		}
		if chunks[i].Index != i+1 {
			t.Errorf("Chunk %d: expected index %d, got %d", i, i+1, chunks[i].Index)
		}
	}
}

func TestSplitOversizedSentence(t *testing.T) {
	// 5000 characters with no punctuation at all.
	input := strings.Repeat("a", 5000)

	chunks := Split(input, 1000)
	if len(chunks) != 5 {
		t.Fatalf("Expected 5 chunks, got %d", len(chunks))
	}
	for i := 0; i < 4; i++ {
		if n := len([]rune(chunks[i].Text)); n != 1000 {
			t.Errorf("Chunk %d: expected exactly 1000 runes, got %d", i+1, n)
		}
	}
	if n := len([]rune(chunks[4].Text)); n != 1000 {
		t.Errorf("Last chunk: expected 1000 runes, got %d", n)
	}
}

func TestSplitOversizedRemainderAbsorbsFollowing(t *testing.T) {
	// A 250-rune unbroken run followed by a short sentence. The remainder
	// slice (50 runes) should still accumulate the short sentence.
	input := strings.Repeat("x", 250) + ". Short tail."

	chunks := Split(input, 100)
	if len(chunks) != 3 {
		t.Fatalf("Expected 3 chunks, got %d", len(chunks))
	}
	if len(chunks[0].Text) != 100 || len(chunks[1].Text) != 100 {
		t.Errorf("Expected two raw slices of 100, got %d and %d",
			len(chunks[0].Text), len(chunks[1].Text))
	}
	want := strings.Repeat("x", 50) + ". Short tail."
	if chunks[2].Text != want {
		t.Errorf("Expected final chunk %q, got %q", want, chunks[2].Text)
	}
}

func TestSplitNoTerminalPunctuation(t *testing.T) {
	input := "just some words without any sentence ending"

	chunks := Split(input, 1000)
	if len(chunks) != 1 {
		t.Fatalf("Expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Text != input {
		t.Errorf("Expected whole text as one chunk, got %q", chunks[0].Text)
	}
}

func TestSplitBoundRespected(t *testing.T) {
	input := "One two three. Four five six seven. Eight nine? Ten eleven twelve! Thirteen."

	for _, bound := range []int{10, 25, 40, 1000} {
		for _, c := range Split(input, bound) {
			if n := len([]rune(c.Text)); n > bound {
				t.Errorf("bound %d: chunk %d has %d runes: %q", bound, c.Index, n, c.Text)
			}
		}
	}
}

func TestSplitRoundTrip(t *testing.T) {
	inputs := []string{
		"First sentence here. Second one follows? Third ends it!",
		"Multi\nline   text. With   odd\twhitespace!   And a tail",
		"Ellipsis... then more. Done.",
		strings.Repeat("word ", 400) + "end.",
	}

	normalize := func(s string) string {
		return strings.Join(strings.Fields(s), " ")
	}

	for _, input := range inputs {
		var texts []string
		for _, c := range Split(input, 50) {
			texts = append(texts, c.Text)
		}
		got := normalize(strings.Join(texts, " "))
		want := normalize(input)
		if got != want {
			t.Errorf("Round trip mismatch:\n  input: %q\n  got:   %q\n  want:  %q", input, got, want)
		}
	}
}

func TestSplitEmptyAndWhitespace(t *testing.T) {
	if chunks := Split("", 100); len(chunks) != 0 {
		t.Errorf("Expected no chunks for empty input, got %d", len(chunks))
	}
	if chunks := Split("   \n\t  ", 100); len(chunks) != 0 {
		t.Errorf("Expected no chunks for whitespace input, got %d", len(chunks))
	}
}

func TestSplitNeverEmptyChunks(t *testing.T) {
	chunks := Split("A.  B.   C.", 3)
	if len(chunks) == 0 {
		t.Fatal("Expected chunks for non-empty input")
	}
	for _, c := range chunks {
		if strings.TrimSpace(c.Text) == "" {
			t.Errorf("Chunk %d is blank", c.Index)
		}
	}
}
