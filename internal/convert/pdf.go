package convert

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/tsawler/tabula/contentstream"
	"github.com/tsawler/tabula/core"
	"github.com/tsawler/tabula/layout"
	"github.com/tsawler/tabula/model"
	"github.com/tsawler/tabula/reader"
	rpdf "rsc.io/pdf"
)

var ErrNotPDF = errors.New("not a readable PDF")

// PageSource yields parsed pages. Page numbers are 1-based.
type PageSource interface {
	NumPages() int
	Page(ctx context.Context, n int) (Page, error)
	Close() error
}

// PageCount opens the file with rsc.io/pdf and returns its page count. It is
// used to reject non-PDF input before any other work starts.
func PageCount(path string) (n int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return 0, err
	}
	defer func() {
		if r := recover(); r != nil {
			n, err = 0, fmt.Errorf("%s: %w: %v", path, ErrNotPDF, r)
		}
	}()
	doc, err := rpdf.NewReader(f, fi.Size())
	if err != nil {
		return 0, fmt.Errorf("%s: %w: %v", path, ErrNotPDF, err)
	}
	return doc.NumPage(), nil
}

// OpenPDF opens a PDF for page-by-page parsing with tabula.
func OpenPDF(path string) (PageSource, error) {
	r, err := reader.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", path, ErrNotPDF, err)
	}
	n, err := r.PageCount()
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("%s: page count: %w", path, err)
	}
	return &tabulaSource{r: r, n: n}, nil
}

type tabulaSource struct {
	r *reader.Reader
	n int
}

func (s *tabulaSource) NumPages() int { return s.n }

func (s *tabulaSource) Close() error { return s.r.Close() }

func (s *tabulaSource) Page(ctx context.Context, n int) (Page, error) {
	if err := ctx.Err(); err != nil {
		return Page{}, err
	}
	if n < 1 || n > s.n {
		return Page{}, fmt.Errorf("page %d out of range 1-%d", n, s.n)
	}
	pg, err := s.r.GetPage(n - 1)
	if err != nil {
		return Page{}, fmt.Errorf("page %d: %w", n, err)
	}
	width, _ := pg.Width()
	height, _ := pg.Height()
	out := Page{Number: n, Width: width, Height: height}

	fragments, err := s.r.ExtractTextFragments(pg)
	if err != nil {
		return Page{}, fmt.Errorf("page %d: %w", n, err)
	}
	blocks := layout.NewBlockDetector().Detect(fragments, width, height)
	headings := layout.NewHeadingDetector().DetectFromFragments(fragments, width, height)
	for i := range blocks.Blocks {
		b := &blocks.Blocks[i]
		txt := strings.TrimSpace(b.GetText())
		if txt == "" {
			continue
		}
		out.Blocks = append(out.Blocks, TextBlock{
			Box:   fromPDFBox(b.BBox, height),
			Text:  txt,
			Level: headingLevel(txt, headings),
		})
	}

	images, err := s.r.ExtractPageImages(pg)
	if err != nil {
		return Page{}, fmt.Errorf("page %d: images: %w", n, err)
	}
	if len(images) == 0 {
		return out, nil
	}
	byName := make(map[string]reader.PageImage, len(images))
	for _, img := range images {
		byName[img.Name] = img
	}
	ops, err := contentOps(pg.Contents)
	if err != nil {
		return Page{}, fmt.Errorf("page %d: content stream: %w", n, err)
	}
	for _, p := range placeImages(ops, func(name string) bool { _, ok := byName[name]; return ok }) {
		img := byName[p.name]
		png, err := img.ToPNG()
		if err != nil {
			continue
		}
		out.Images = append(out.Images, ImageRegion{
			Box:      fromPDFBox(p.box, height),
			Name:     p.name,
			Image:    png,
			MIMEType: "image/png",
		})
	}
	return out, nil
}

// fromPDFBox converts a bottom-left origin box into top-left page space.
func fromPDFBox(b model.BBox, pageHeight float64) BBox {
	return BBox{
		X0: b.Left(),
		Y0: pageHeight - b.Top(),
		X1: b.Right(),
		Y1: pageHeight - b.Bottom(),
	}
}

// headingLevel matches a block against detected headings by normalized text.
func headingLevel(txt string, hl *layout.HeadingLayout) int {
	if hl == nil {
		return 0
	}
	norm := strings.Join(strings.Fields(txt), " ")
	for _, h := range hl.Headings {
		if strings.Join(strings.Fields(h.Text), " ") == norm {
			return int(h.Level)
		}
	}
	return 0
}

func contentOps(contents func() ([]core.Object, error)) ([]contentstream.Operation, error) {
	objs, err := contents()
	if err != nil {
		return nil, err
	}
	var data []byte
	for _, o := range objs {
		st, ok := o.(*core.Stream)
		if !ok {
			continue
		}
		b, err := st.Decode()
		if err != nil {
			return nil, err
		}
		data = append(data, b...)
		data = append(data, '\n')
	}
	if len(data) == 0 {
		return nil, nil
	}
	return contentstream.NewParser(data).Parse()
}

type placedImage struct {
	name string
	box  model.BBox
}

// placeImages replays the graphics state operators that position XObjects
// and returns where each image is painted, in painting order. Form XObjects
// are not descended into.
func placeImages(ops []contentstream.Operation, isImage func(string) bool) []placedImage {
	ctm := model.Identity()
	var stack []model.Matrix
	var out []placedImage
	for _, op := range ops {
		switch op.Operator {
		case "q":
			stack = append(stack, ctm)
		case "Q":
			if len(stack) > 0 {
				ctm = stack[len(stack)-1]
				stack = stack[:len(stack)-1]
			}
		case "cm":
			if m, ok := matrixOperand(op.Operands); ok {
				ctm = m.Multiply(ctm)
			}
		case "Do":
			if len(op.Operands) != 1 {
				continue
			}
			name, ok := op.Operands[0].(core.Name)
			if !ok || !isImage(string(name)) {
				continue
			}
			out = append(out, placedImage{name: string(name), box: unitSquare(ctm)})
		}
	}
	return out
}

func unitSquare(m model.Matrix) model.BBox {
	pts := []model.Point{
		m.Transform(model.Point{X: 0, Y: 0}),
		m.Transform(model.Point{X: 1, Y: 0}),
		m.Transform(model.Point{X: 0, Y: 1}),
		m.Transform(model.Point{X: 1, Y: 1}),
	}
	box := model.NewBBoxFromPoints(pts[0], pts[3])
	for _, p := range pts[1:3] {
		box = box.Union(model.NewBBoxFromPoints(p, p))
	}
	return box
}

func matrixOperand(ops []core.Object) (model.Matrix, bool) {
	if len(ops) != 6 {
		return model.Matrix{}, false
	}
	var m model.Matrix
	for i, o := range ops {
		switch v := o.(type) {
		case core.Int:
			m[i] = float64(v)
		case core.Real:
			m[i] = float64(v)
		default:
			return model.Matrix{}, false
		}
	}
	return m, true
}
