package convert

import (
	"github.com/sirupsen/logrus"
	"github.com/thywilljoshua/pdf-rag/internal/ai"
)

// BBox is a rectangle in page space with the origin at the top-left corner,
// so Y grows down the page.
type BBox struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

type TextBlock struct {
	Box  BBox
	Text string
	// Level is the heading level (1-6) when the block was detected as a
	// heading, 0 for body text.
	Level int
}

type ImageRegion struct {
	Box      BBox
	Name     string
	Image    []byte
	MIMEType string
	// Context collects the text of blocks drawn over the image.
	Context []string
	// Claimed holds those blocks, trimmed, so they can be put back into the
	// page when the image gets no caption.
	Claimed []TextBlock
}

type Page struct {
	Number int
	Width  float64
	Height float64
	Blocks []TextBlock
	Images []ImageRegion
}

type ItemKind int

const (
	KindText ItemKind = iota
	KindImage
)

// ContentItem is one entry of a page's reading order.
type ContentItem struct {
	Kind  ItemKind
	Box   BBox
	Text  string
	Level int
}

type Section struct {
	Heading string `json:"heading"`
	Body    string `json:"body"`
}

type SectionFile struct {
	Index   int    `json:"index"`
	Heading string `json:"heading"`
	Depth   int    `json:"depth"`
	File    string `json:"file"`
	Bytes   int    `json:"bytes"`
}

type Result struct {
	Name      string        `json:"name"`
	OutDir    string        `json:"out_dir"`
	Pages     int           `json:"pages"`
	Images    int           `json:"images"`
	Captioned int           `json:"captioned"`
	Sections  []SectionFile `json:"sections"`
}

type Config struct {
	OutDir string
	// Force rebuilds a document whose sections already exist.
	Force     bool
	Describer ai.Describer
	Logger    logrus.FieldLogger
	// Pages restricts processing to these 1-based page numbers. Empty means all.
	Pages []int
}
