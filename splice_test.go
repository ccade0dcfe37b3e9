package docparse

import (
	"strings"
	"testing"
)

func testEngine(t *testing.T, cfg Config) *engine {
	t.Helper()
	e, err := newEngine(cfg, nil, nil, nil)
	if err != nil {
		t.Fatalf("newEngine: %v", err)
	}
	return e
}

func TestSpliceDescriptionsEmptyBlock(t *testing.T) {
	e := testEngine(t, DefaultConfig())
	text := "Some text.\nSee Figure 1 for details.\nMore text."
	if got := e.spliceDescriptions(text, ""); got != text {
		t.Errorf("empty block changed text:\n%s", got)
	}
}

func TestSpliceDescriptionsAfterFirstReference(t *testing.T) {
	e := testEngine(t, DefaultConfig())
	text := "Intro line.\nAs shown in Figure 1, values rise.\nClosing line."
	block := "[Figure] Figure 1\n[Description]: a chart"

	got := e.spliceDescriptions(text, block)

	lines := strings.Split(got, "\n")
	wantLines := strings.Count(text, "\n") + 1 + strings.Count(block, "\n") + 1 + 2
	if len(lines) != wantLines {
		t.Errorf("got %d lines, want %d:\n%s", len(lines), wantLines, got)
	}

	// Block lands directly after the reference line, blank-padded.
	if lines[1] != "As shown in Figure 1, values rise." {
		t.Fatalf("unexpected line order:\n%s", got)
	}
	if lines[2] != "" || lines[3] != "[Figure] Figure 1" || lines[5] != "" {
		t.Errorf("block not blank-padded after reference:\n%s", got)
	}
	if lines[len(lines)-1] != "Closing line." {
		t.Errorf("trailing text lost:\n%s", got)
	}
}

func TestSpliceDescriptionsFirstReferenceOnly(t *testing.T) {
	e := testEngine(t, DefaultConfig())
	text := "See Figure 1.\nSee Figure 2."
	block := "[Figure] Figure 1\n\n[Figure] Figure 2"

	got := e.spliceDescriptions(text, block)

	if n := strings.Count(got, "[Figure] Figure 1"); n != 1 {
		t.Errorf("block inserted %d times, want 1:\n%s", n, got)
	}
	if !strings.HasPrefix(got, "See Figure 1.\n\n[Figure]") {
		t.Errorf("block must follow the first reference line:\n%s", got)
	}
}

func TestSpliceDescriptionsJapaneseReference(t *testing.T) {
	e := testEngine(t, DefaultConfig())
	text := "本文です。\n図1に示すように増加する。\n結論です。"
	block := "[Figure] Figure 1"

	got := e.spliceDescriptions(text, block)

	lines := strings.Split(got, "\n")
	if lines[1] != "図1に示すように増加する。" || lines[3] != "[Figure] Figure 1" {
		t.Errorf("block not inserted after 図 reference:\n%s", got)
	}
}

func TestSpliceDescriptionsFallback(t *testing.T) {
	e := testEngine(t, DefaultConfig())
	text := "No references here.\nJust prose."
	block := "[Figure] photo.png"

	got := e.spliceDescriptions(text, block)

	if !strings.HasPrefix(got, text) {
		t.Errorf("original text must be preserved as prefix:\n%s", got)
	}
	if !strings.HasSuffix(got, imagesFallbackHeading+"\n"+block) {
		t.Errorf("fallback heading and block must be appended:\n%s", got)
	}
}

func TestSpliceEachFigure(t *testing.T) {
	e := testEngine(t, DefaultConfig())
	text := "Figure 2 shows the schema.\nLater, Figure 1 gives context."
	blocks := []imageBlock{
		{label: "Figure 1", number: "1", text: "[Figure] Figure 1"},
		{label: "Figure 2", number: "2", text: "[Figure] Figure 2"},
	}

	got := e.spliceEachFigure(text, blocks)

	idxRef2 := strings.Index(got, "Figure 2 shows")
	idxBlk2 := strings.Index(got, "[Figure] Figure 2")
	idxRef1 := strings.Index(got, "Figure 1 gives")
	idxBlk1 := strings.Index(got, "[Figure] Figure 1")
	if idxBlk2 < idxRef2 || idxBlk1 < idxRef1 {
		t.Errorf("blocks must follow their own references:\n%s", got)
	}
	if idxBlk2 > idxRef1 {
		t.Errorf("Figure 2 block must precede the Figure 1 reference:\n%s", got)
	}
}

func TestSpliceEachFigureLeftovers(t *testing.T) {
	e := testEngine(t, DefaultConfig())
	text := "Only Figure 1 is referenced."
	blocks := []imageBlock{
		{label: "Figure 1", number: "1", text: "[Figure] Figure 1"},
		{label: "Figure 9", number: "9", text: "[Figure] Figure 9"},
		{label: "photo.png", number: "", text: "[Figure] photo.png"},
	}

	got := e.spliceEachFigure(text, blocks)

	// Unreferenced and unnumbered blocks fall back together, inserted
	// after the page's first reference line.
	if !strings.Contains(got, "Only Figure 1 is referenced.\n\n[Figure] Figure 9\n\n[Figure] photo.png") {
		t.Errorf("leftover blocks must be combined after the reference:\n%s", got)
	}
	if !strings.Contains(got, "[Figure] Figure 1") {
		t.Errorf("placed block must survive the leftover pass:\n%s", got)
	}
}

func TestSpliceEachFigureNoReferences(t *testing.T) {
	e := testEngine(t, DefaultConfig())
	text := "Nothing referenced."
	blocks := []imageBlock{
		{label: "Figure 3", number: "3", text: "[Figure] Figure 3"},
	}

	got := e.spliceEachFigure(text, blocks)

	if !strings.Contains(got, imagesFallbackHeading) {
		t.Errorf("expected fallback heading:\n%s", got)
	}
	if !strings.HasSuffix(got, "[Figure] Figure 3") {
		t.Errorf("block must be appended:\n%s", got)
	}
}
