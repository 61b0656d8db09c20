package convert

import (
	"reflect"
	"strings"
	"testing"
)

func TestSplitSections(t *testing.T) {
	tests := []struct {
		name string
		md   string
		want []Section
	}{
		{
			name: "empty headings fold forward",
			md:   "# A\n\n# B\ncontent B\n# C\n\ncontent C",
			want: []Section{
				{Heading: "# A + # B", Body: "content B"},
				{Heading: "# C", Body: "content C"},
			},
		},
		{
			name: "preamble dropped",
			md:   "cover page\n\n## Intro\nhello",
			want: []Section{{Heading: "## Intro", Body: "hello"}},
		},
		{
			name: "no headings",
			md:   "just text\nmore text",
			want: nil,
		},
		{
			name: "hash without space is not a heading",
			md:   "# Title\n#hashtag stays in body",
			want: []Section{{Heading: "# Title", Body: "#hashtag stays in body"}},
		},
		{
			name: "trailing empty headings kept",
			md:   "# A\nbody\n# B\n\n## C\n",
			want: []Section{
				{Heading: "# A", Body: "body"},
				{Heading: "# B + ## C", Body: ""},
			},
		},
		{
			name: "crlf line endings",
			md:   "# A\r\nbody\r\n",
			want: []Section{{Heading: "# A", Body: "body"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitSections(tt.md)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitSections() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestMergeEmptySectionsIdempotent(t *testing.T) {
	in := []Section{
		{Heading: "# A"},
		{Heading: "# B", Body: "b"},
		{Heading: "# C", Body: " "},
		{Heading: "# D", Body: "d"},
		{Heading: "# E"},
	}
	once := MergeEmptySections(in)
	twice := MergeEmptySections(once)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("MergeEmptySections is not idempotent:\n once %#v\ntwice %#v", once, twice)
	}
	for _, s := range once[:len(once)-1] {
		if strings.TrimSpace(s.Body) == "" {
			t.Errorf("section %q has an empty body before the end", s.Heading)
		}
	}
}

func TestSplitSectionsRoundTrip(t *testing.T) {
	md := "# One\nfirst body\n\n## Two\nsecond body\nline two\n# Three\nthird"
	sections := SplitSections(md)

	parts := make([]string, 0, len(sections))
	for _, s := range sections {
		parts = append(parts, s.Heading+"\n\n"+s.Body)
	}
	again := SplitSections(strings.Join(parts, "\n\n"))
	if !reflect.DeepEqual(sections, again) {
		t.Errorf("re-splitting joined sections changed them:\n got %#v\nwant %#v", again, sections)
	}
}
