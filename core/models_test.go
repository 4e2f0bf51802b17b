package core

import (
	"testing"
)

func TestIDFromContent(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantSame bool
	}{
		{
			name:     "same content produces same ID",
			content:  "test content",
			wantSame: true,
		},
		{
			name:     "empty string",
			content:  "",
			wantSame: true,
		},
		{
			name:     "long content",
			content:  "Ushbu modda import qilinadigan tovarlarni soliqqa tortishni tartibga soladi",
			wantSame: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id1 := IDFromContent(tt.content)
			id2 := IDFromContent(tt.content)

			if tt.wantSame && id1 != id2 {
				t.Errorf("IDFromContent() produced different IDs for same content: %d vs %d", id1, id2)
			}
		})
	}
}

func TestIDFromContent_Different(t *testing.T) {
	id1 := IDFromContent("content1")
	id2 := IDFromContent("content2")

	if id1 == id2 {
		t.Errorf("IDFromContent() produced same ID for different content")
	}
}

func TestFragmentRecord_ParagraphID(t *testing.T) {
	id := "7490852"
	empty := ""

	tests := []struct {
		name     string
		fragment FragmentRecord
		want     string
	}{
		{
			name:     "fragment id present",
			fragment: FragmentRecord{FragmentID: &id},
			want:     "7490852",
		},
		{
			name:     "fragment id absent",
			fragment: FragmentRecord{},
			want:     NoIDParagraph,
		},
		{
			name:     "fragment id empty",
			fragment: FragmentRecord{FragmentID: &empty},
			want:     NoIDParagraph,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.fragment.ParagraphID()
			if got != tt.want {
				t.Errorf("FragmentRecord.ParagraphID() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParagraphRecord_ID(t *testing.T) {
	a := ParagraphRecord{SourceDocID: "6445145", ParagraphID: "1", Text: "same text"}
	b := ParagraphRecord{SourceDocID: "6445145", ParagraphID: "2", Text: "same text"}
	c := ParagraphRecord{SourceDocID: "6445145", ParagraphID: "1", Text: "same text"}

	if a.ID() == b.ID() {
		t.Errorf("records with different paragraph ids share an ID")
	}
	if a.ID() != c.ID() {
		t.Errorf("identical records produced different IDs")
	}

	// Field boundaries must not collide
	d := ParagraphRecord{SourceDocID: "ab", ParagraphID: "c", Text: "x"}
	e := ParagraphRecord{SourceDocID: "a", ParagraphID: "bc", Text: "x"}
	if d.ID() == e.ID() {
		t.Errorf("field boundaries collided")
	}
}
