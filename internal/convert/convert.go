package convert

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/thywilljoshua/pdf-rag/internal/ai"
)

var (
	ErrNotParsed        = errors.New("document has not been parsed yet")
	ErrAlreadyProcessed = errors.New("document has already been processed (use --force to rebuild)")
)

// Run parses a PDF into per-page markdown and per-section files under
// OutDir/<document name>.
func Run(ctx context.Context, pdfPath string, cfg Config) (Result, error) {
	if _, err := PageCount(pdfPath); err != nil {
		return Result{}, err
	}
	src, err := OpenPDF(pdfPath)
	if err != nil {
		return Result{}, err
	}
	defer src.Close()
	return RunSource(ctx, DocName(pdfPath), src, cfg)
}

// RunSource is Run over an already opened page source.
func RunSource(ctx context.Context, name string, src PageSource, cfg Config) (Result, error) {
	cfg = withDefaults(cfg)
	log := cfg.Logger.WithField("document", name)

	dir := filepath.Join(cfg.OutDir, name)
	if !cfg.Force {
		if existing, _ := filepath.Glob(filepath.Join(dir, sectionGlob)); len(existing) > 0 {
			return Result{}, fmt.Errorf("%s: %w", name, ErrAlreadyProcessed)
		}
	}

	pages, err := selectPages(cfg.Pages, src.NumPages())
	if err != nil {
		return Result{}, err
	}

	// Pages are held in memory until every one is done, so a cancelled run
	// leaves the previous output untouched.
	res := Result{Name: name, OutDir: dir}
	texts := make([]string, 0, len(pages))
	for _, n := range pages {
		page, err := src.Page(ctx, n)
		if err != nil {
			return Result{}, err
		}
		md, captioned := processPage(ctx, page, cfg.Describer, log)
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		res.Pages++
		res.Images += len(page.Images)
		res.Captioned += captioned
		texts = append(texts, md)
		log.WithFields(logrus.Fields{
			"page":   n,
			"blocks": len(page.Blocks),
			"images": len(page.Images),
		}).Info("page parsed")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Result{}, err
	}
	if err := removeMatching(dir, pageGlob); err != nil {
		return Result{}, err
	}
	for i, n := range pages {
		if err := writePage(dir, n, texts[i]); err != nil {
			return Result{}, err
		}
	}

	files, err := writeSections(dir, SplitSections(strings.Join(texts, "\n\n")))
	if err != nil {
		return Result{}, err
	}
	res.Sections = files
	log.WithField("sections", len(files)).Info("sections written")
	return res, nil
}

// processPage associates, captions and linearizes one page, returning its
// markdown and the number of images that received a caption.
func processPage(ctx context.Context, page Page, d ai.Describer, log logrus.FieldLogger) (string, int) {
	assoc := Associate(page.Blocks, page.Images)
	captioned := 0
	images := make([]CaptionedImage, 0, len(assoc.Images))
	residual := assoc.Residual
	for _, img := range assoc.Images {
		caption := d.Describe(ctx, ai.Request{
			Image:    img.Image,
			MIMEType: img.MIMEType,
			Context:  img.ContextText(),
			Task:     ai.TaskCaption,
		})
		if caption == "" {
			// Without a caption the text drawn over the image is page content.
			log.WithFields(logrus.Fields{"page": page.Number, "image": img.Name}).Warn("no caption for image")
			residual = append(residual, img.Claimed...)
			continue
		}
		captioned++
		images = append(images, CaptionedImage{Box: img.Box, Caption: caption})
	}
	return Render(Linearize(images, residual)), captioned
}

// Resplit rebuilds section files from the page files of an already parsed
// document directory.
func Resplit(dir string, log logrus.FieldLogger) ([]SectionFile, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	texts, err := readPages(dir)
	if err != nil {
		return nil, err
	}
	files, err := writeSections(dir, SplitSections(strings.Join(texts, "\n\n")))
	if err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{"dir": dir, "sections": len(files)}).Info("sections rebuilt")
	return files, nil
}

// DocName derives the output directory name from a PDF path.
func DocName(pdfPath string) string {
	base := filepath.Base(pdfPath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if s := slugify(base); s != "" {
		return s
	}
	return "document"
}

func withDefaults(cfg Config) Config {
	if cfg.OutDir == "" {
		cfg.OutDir = "outputs"
	}
	if cfg.Describer == nil {
		cfg.Describer = ai.Noop{}
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	return cfg
}

func selectPages(want []int, total int) ([]int, error) {
	if len(want) == 0 {
		out := make([]int, total)
		for i := range out {
			out[i] = i + 1
		}
		return out, nil
	}
	for _, n := range want {
		if n < 1 || n > total {
			return nil, fmt.Errorf("page %d out of range 1-%d", n, total)
		}
	}
	return want, nil
}
