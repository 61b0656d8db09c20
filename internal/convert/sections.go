package convert

import (
	"regexp"
	"strings"
)

// A heading is a line of one or more '#' followed by a space and text.
var headingRe = regexp.MustCompile(`(?m)^(#+ .+)$`)

// HeadingJoiner separates headings folded into the next section.
const HeadingJoiner = " + "

// SplitSections cuts a markdown stream at heading lines and folds headings
// with no body into the following section. Text before the first heading is
// dropped.
func SplitSections(md string) []Section {
	return MergeEmptySections(splitRaw(md))
}

func splitRaw(md string) []Section {
	locs := headingRe.FindAllStringSubmatchIndex(md, -1)
	out := make([]Section, 0, len(locs))
	for i, loc := range locs {
		end := len(md)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		heading := strings.TrimRight(md[loc[2]:loc[3]], " \t\r")
		out = append(out, Section{
			Heading: heading,
			Body:    strings.TrimSpace(md[loc[1]:end]),
		})
	}
	return out
}

// MergeEmptySections prepends the heading of every empty section to the next
// non-empty one. Empty headings at the very end are kept together as a final
// section with an empty body, so no heading text is lost.
func MergeEmptySections(sections []Section) []Section {
	var out []Section
	var pending []string
	for _, s := range sections {
		if strings.TrimSpace(s.Body) == "" {
			pending = append(pending, s.Heading)
			continue
		}
		if len(pending) > 0 {
			s.Heading = strings.Join(append(pending, s.Heading), HeadingJoiner)
			pending = nil
		}
		out = append(out, s)
	}
	if len(pending) > 0 {
		out = append(out, Section{Heading: strings.Join(pending, HeadingJoiner)})
	}
	return out
}
