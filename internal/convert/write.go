package convert

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

const (
	pageGlob     = "page_*.md"
	sectionGlob  = "section_*.md"
	manifestName = "sections.json"
	outlineName  = "outline.json"
)

func writePage(dir string, n int, md string) error {
	path := filepath.Join(dir, fmt.Sprintf("page_%04d.md", n))
	return os.WriteFile(path, []byte(md), 0o644)
}

// readPages returns page markdown in page order.
func readPages(dir string) ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(dir, pageGlob))
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%s: %w", dir, ErrNotParsed)
	}
	sort.Strings(paths)
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		b, err := os.ReadFile(p)
		if err != nil {
			return nil, err
		}
		out = append(out, string(b))
	}
	return out, nil
}

// writeSections replaces any previous section files with one file per
// section, named by 1-based index, plus a flat JSON manifest and an outline
// nested by heading depth.
func writeSections(dir string, sections []Section) ([]SectionFile, error) {
	if err := removeMatching(dir, sectionGlob); err != nil {
		return nil, err
	}
	files := make([]SectionFile, 0, len(sections))
	for i, s := range sections {
		name := fmt.Sprintf("section_%d.md", i+1)
		content := s.Heading + "\n\n" + s.Body
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			return nil, err
		}
		files = append(files, SectionFile{
			Index:   i + 1,
			Heading: s.Heading,
			Depth:   headingDepth(s.Heading),
			File:    name,
			Bytes:   len(content),
		})
	}
	if err := writeJSON(filepath.Join(dir, manifestName), files); err != nil {
		return nil, err
	}
	if err := writeJSON(filepath.Join(dir, outlineName), BuildOutline(files)); err != nil {
		return nil, err
	}
	return files, nil
}

func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

func removeMatching(dir, pattern string) error {
	paths, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return err
	}
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}
