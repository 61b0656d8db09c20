package convert

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestHeadingDepth(t *testing.T) {
	tests := []struct {
		heading string
		want    int
	}{
		{heading: "# Intro", want: 1},
		{heading: "### Deep", want: 3},
		{heading: "## A + # B", want: 1},
		{heading: "### A + ## B", want: 2},
		{heading: "", want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.heading, func(t *testing.T) {
			if got := headingDepth(tt.heading); got != tt.want {
				t.Errorf("headingDepth(%q) = %d, want %d", tt.heading, got, tt.want)
			}
		})
	}
}

func TestBuildOutline(t *testing.T) {
	files := []SectionFile{
		{Index: 1, Heading: "# One", Depth: 1},
		{Index: 2, Heading: "## One.A", Depth: 2},
		{Index: 3, Heading: "### One.A.i", Depth: 3},
		{Index: 4, Heading: "## One.B", Depth: 2},
		{Index: 5, Heading: "# Two", Depth: 1},
		{Index: 6, Heading: "### Two deep", Depth: 3},
	}

	roots := BuildOutline(files)
	if len(roots) != 2 {
		t.Fatalf("roots = %d, want 2", len(roots))
	}
	one := roots[0]
	if len(one.Children) != 2 || one.Children[0].Index != 2 || one.Children[1].Index != 4 {
		t.Fatalf("children of # One = %+v, want sections 2 and 4", one.Children)
	}
	if kids := one.Children[0].Children; len(kids) != 1 || kids[0].Index != 3 {
		t.Errorf("children of ## One.A = %+v, want section 3", kids)
	}
	if kids := roots[1].Children; len(kids) != 1 || kids[0].Index != 6 {
		t.Errorf("children of # Two = %+v, want section 6", kids)
	}
}

func TestWriteSectionsOutline(t *testing.T) {
	dir := t.TempDir()
	files, err := writeSections(dir, []Section{
		{Heading: "# A", Body: "a"},
		{Heading: "## A.1", Body: "a1"},
	})
	if err != nil {
		t.Fatalf("writeSections() unexpected error: %v", err)
	}
	if files[1].Depth != 2 {
		t.Errorf("section 2 depth = %d, want 2", files[1].Depth)
	}

	raw, err := os.ReadFile(filepath.Join(dir, outlineName))
	if err != nil {
		t.Fatalf("reading outline: %v", err)
	}
	var outline []OutlineNode
	if err := json.Unmarshal(raw, &outline); err != nil {
		t.Fatalf("outline is not JSON: %v", err)
	}
	if len(outline) != 1 || len(outline[0].Children) != 1 || outline[0].Children[0].Heading != "## A.1" {
		t.Errorf("outline = %+v", outline)
	}
}
