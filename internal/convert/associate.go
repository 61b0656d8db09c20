package convert

import "strings"

// Valid reports whether the box is well formed (X0 <= X1 and Y0 <= Y1).
func (b BBox) Valid() bool { return b.X0 <= b.X1 && b.Y0 <= b.Y1 }

// Overlaps reports whether two boxes share any point. Boxes that only touch
// along an edge overlap.
func Overlaps(a, b BBox) bool {
	return !(a.X1 < b.X0 || a.X0 > b.X1 || a.Y1 < b.Y0 || a.Y0 > b.Y1)
}

// ContextText joins the text associated with the image.
func (r ImageRegion) ContextText() string { return strings.Join(r.Context, " ") }

type Association struct {
	Images   []ImageRegion
	Residual []TextBlock
}

// Associate attaches every text block to the first image it overlaps, in
// image order, and returns the blocks no image claimed. Blank blocks are
// dropped. Assignment is greedy: a block over two images goes to the earlier
// one regardless of overlap area.
//
// Cost is O(images x blocks), fine for a single page but not for whole
// documents.
func Associate(blocks []TextBlock, images []ImageRegion) Association {
	out := Association{Images: make([]ImageRegion, len(images))}
	for i, img := range images {
		img.Context = append([]string(nil), img.Context...)
		img.Claimed = append([]TextBlock(nil), img.Claimed...)
		out.Images[i] = img
	}

	for _, b := range blocks {
		t := strings.TrimSpace(b.Text)
		if t == "" {
			continue
		}
		b.Text = t
		claimed := false
		for i := range out.Images {
			if Overlaps(b.Box, out.Images[i].Box) {
				out.Images[i].Context = append(out.Images[i].Context, t)
				out.Images[i].Claimed = append(out.Images[i].Claimed, b)
				claimed = true
				break
			}
		}
		if !claimed {
			out.Residual = append(out.Residual, b)
		}
	}
	return out
}
