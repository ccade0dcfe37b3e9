package partition

import (
	"reflect"
	"testing"
)

func TestCaptionElements(t *testing.T) {
	text := "Some narrative prose.\n" +
		"Figure 1: the architecture\n" +
		"fig. 2 wiring detail\n" +
		"Table 3: defaults\n" +
		"図4 概要\n" +
		"configure the device\n" + // "figure" mid-word must not match
		"tabulated results" // "tab" without a number must not match

	got := captionElements(text, 5)

	wantTexts := []string{
		"Figure 1: the architecture",
		"fig. 2 wiring detail",
		"Table 3: defaults",
		"図4 概要",
	}
	var gotTexts []string
	for _, el := range got {
		if el.Category != CategoryFigureCaption {
			t.Errorf("element %s has category %q", el.ID, el.Category)
		}
		if el.PageNumber != 5 {
			t.Errorf("element %s has page %d, want 5", el.ID, el.PageNumber)
		}
		gotTexts = append(gotTexts, el.Text)
	}
	if !reflect.DeepEqual(gotTexts, wantTexts) {
		t.Errorf("captions = %v, want %v", gotTexts, wantTexts)
	}
}

func TestCaptionElementsEmptyPage(t *testing.T) {
	if got := captionElements("", 1); got != nil {
		t.Errorf("empty page produced %v", got)
	}
}

func TestPageFromImageName(t *testing.T) {
	tests := []struct {
		name string
		want int
	}{
		{name: "report_page_3_Im0.png", want: 3},
		{name: "doc_page_12_Im4.jpg", want: 12},
		{name: "scan_7_Im0.png", want: 7},
		{name: "noiseless.png", want: 1},
		{name: "doc_page_0_Im0.png", want: 1}, // page numbers start at 1
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := pageFromImageName(tt.name); got != tt.want {
				t.Errorf("pageFromImageName(%q) = %d, want %d", tt.name, got, tt.want)
			}
		})
	}
}
