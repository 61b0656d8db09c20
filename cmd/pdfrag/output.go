package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/thywilljoshua/pdf-rag/internal/convert"
)

var (
	// titleStyle for bold headers
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("160"))

	// dimStyle for muted metadata text
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	// boxStyle for the summary box
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("160")).
			Padding(0, 1)
)

// renderResult formats an ingest summary box.
func renderResult(res convert.Result) string {
	content := fmt.Sprintf("%s %s\n%s %s\n%s %d  %s %d/%d  %s %d",
		dimStyle.Render("Document:"), titleStyle.Render(res.Name),
		dimStyle.Render("Output:"), res.OutDir,
		dimStyle.Render("Pages:"), res.Pages,
		dimStyle.Render("Captioned:"), res.Captioned, res.Images,
		dimStyle.Render("Sections:"), len(res.Sections),
	)
	return boxStyle.Render(content) + "\n" + successStyle.Render("done")
}

// renderSections lists section files with their headings, indented by
// heading depth.
func renderSections(dir string, files []convert.SectionFile) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("%d sections", len(files))))
	for _, f := range files {
		heading := f.Heading
		if heading == "" {
			heading = "(no heading)"
		}
		indent := strings.Repeat("  ", max(f.Depth-1, 0))
		fmt.Fprintf(&b, "\n%s%s %s %s",
			indent,
			dimStyle.Render(filepath.Join(dir, f.File)),
			heading,
			dimStyle.Render(fmt.Sprintf("(%d bytes)", f.Bytes)))
	}
	return b.String()
}
