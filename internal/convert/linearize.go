package convert

import (
	"regexp"
	"sort"
	"strings"
)

// headingLikeRe finds body lines the section splitter would read as headings.
var headingLikeRe = regexp.MustCompile(`(?m)^(#+ )`)

// escapeHeadings backslash-escapes a leading '#' run so that only detected
// heading blocks open sections.
func escapeHeadings(s string) string {
	return headingLikeRe.ReplaceAllString(s, `\${1}`)
}

// CaptionedImage is an image region after captioning. An empty Caption means
// no caption is available.
type CaptionedImage struct {
	Box     BBox
	Caption string
}

// Linearize merges images and residual text into reading order: top to
// bottom, then left to right. Multi-column pages come out row-interleaved.
func Linearize(images []CaptionedImage, residual []TextBlock) []ContentItem {
	items := make([]ContentItem, 0, len(images)+len(residual))
	for _, img := range images {
		items = append(items, ContentItem{Kind: KindImage, Box: img.Box, Text: img.Caption})
	}
	for _, b := range residual {
		items = append(items, ContentItem{Kind: KindText, Box: b.Box, Text: b.Text, Level: b.Level})
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Box.Y0 != items[j].Box.Y0 {
			return items[i].Box.Y0 < items[j].Box.Y0
		}
		return items[i].Box.X0 < items[j].Box.X0
	})
	return items
}

// Render flattens items into markdown. Captions are wrapped as
// "[Image: ...]" so they stay distinguishable from page text. Heading lines
// come only from blocks with a Level; '#' lines elsewhere are escaped.
func Render(items []ContentItem) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		switch it.Kind {
		case KindImage:
			if c := strings.TrimSpace(it.Text); c != "" {
				parts = append(parts, "[Image: "+escapeHeadings(c)+"]")
			}
		default:
			t := strings.TrimSpace(it.Text)
			if t == "" {
				continue
			}
			if it.Level > 0 {
				t = strings.Repeat("#", min(it.Level, 6)) + " " + strings.Join(strings.Fields(t), " ")
			} else {
				t = escapeHeadings(t)
			}
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n\n")
}
