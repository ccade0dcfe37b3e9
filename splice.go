package docparse

import (
	"regexp"
	"strings"
)

// imagesFallbackHeading marks appended descriptions when a page's text
// never references its figures or tables.
const imagesFallbackHeading = "--- Images ---"

// spliceDescriptions inserts the combined description block immediately
// after the first line that references a figure or table, padded by blank
// lines. Text with no matching line gets the block appended under the
// fallback heading. An empty block returns the text unchanged.
//
// The whole combined block is placed once, after the first reference,
// even when a page mentions several distinct figures; SpliceEachFigure
// opts in to per-figure placement instead.
func (e *engine) spliceDescriptions(text, block string) string {
	if block == "" {
		return text
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if e.refRe.MatchString(line) {
			return insertAfter(lines, i, block)
		}
	}
	return text + "\n\n" + imagesFallbackHeading + "\n" + block
}

// spliceEachFigure places every block carrying its own figure/table number
// after the first line referencing that exact number. Blocks that stay
// unplaced (no number, or the number is never referenced) fall back to the
// combined-block path.
func (e *engine) spliceEachFigure(text string, blocks []imageBlock) string {
	var leftover []imageBlock
	for _, b := range blocks {
		if b.number == "" {
			leftover = append(leftover, b)
			continue
		}
		re, err := regexp.Compile(`(?i)(figure|fig|table|図|表)\s*` + regexp.QuoteMeta(b.number) + `\b`)
		if err != nil {
			leftover = append(leftover, b)
			continue
		}
		lines := strings.Split(text, "\n")
		placed := false
		for i, line := range lines {
			if re.MatchString(line) {
				text = insertAfter(lines, i, b.text)
				placed = true
				break
			}
		}
		if !placed {
			leftover = append(leftover, b)
		}
	}
	if len(leftover) > 0 {
		text = e.spliceDescriptions(text, joinBlocks(leftover))
	}
	return text
}

// insertAfter splices block into lines directly after index i, surrounded
// by one blank line on each side.
func insertAfter(lines []string, i int, block string) string {
	blockLines := strings.Split(block, "\n")
	out := make([]string, 0, len(lines)+len(blockLines)+2)
	out = append(out, lines[:i+1]...)
	out = append(out, "")
	out = append(out, blockLines...)
	out = append(out, "")
	out = append(out, lines[i+1:]...)
	return strings.Join(out, "\n")
}
