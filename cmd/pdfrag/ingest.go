package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/thywilljoshua/pdf-rag/internal/ai"
	"github.com/thywilljoshua/pdf-rag/internal/convert"
)

func ingestCmd() *cobra.Command {
	var out string
	var force bool
	var noCaptions bool
	var pages string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "ingest <pdf>",
		Short: "Parse a PDF into page and section markdown files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			if out == "" {
				out = cfg.OutputDir
			}
			pageList, err := parsePages(pages)
			if err != nil {
				return err
			}

			var describer ai.Describer = ai.Noop{}
			if !noCaptions {
				d, cleanup, err := newDescriber(cmd.Context(), cfg, log)
				if err != nil {
					return err
				}
				defer cleanup()
				describer = d
			}

			res, err := convert.Run(cmd.Context(), args[0], convert.Config{
				OutDir:    out,
				Force:     force,
				Describer: describer,
				Logger:    log,
				Pages:     pageList,
			})
			if err != nil {
				return err
			}
			if asJSON {
				b, _ := json.MarshalIndent(res, "", "  ")
				fmt.Fprintln(cmd.OutOrStdout(), string(b))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderResult(res))
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output root directory (default from config: outputs)")
	cmd.Flags().BoolVar(&force, "force", false, "rebuild a document that was already processed")
	cmd.Flags().BoolVar(&noCaptions, "no-captions", false, "skip image captioning (no API key required)")
	cmd.Flags().StringVar(&pages, "pages", "", "comma-separated 1-based pages or ranges to process, e.g. 1,3-5")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}

// parsePages expands "1,3-5" into [1 3 4 5].
func parsePages(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		lo, hi, isRange := strings.Cut(part, "-")
		a, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil {
			return nil, fmt.Errorf("bad page %q", part)
		}
		b := a
		if isRange {
			if b, err = strconv.Atoi(strings.TrimSpace(hi)); err != nil || b < a {
				return nil, fmt.Errorf("bad page range %q", part)
			}
		}
		for n := a; n <= b; n++ {
			out = append(out, n)
		}
	}
	return out, nil
}
