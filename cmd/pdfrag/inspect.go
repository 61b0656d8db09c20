package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/thywilljoshua/pdf-rag/internal/convert"
)

func inspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <pdf>",
		Short: "Show per-page text blocks, images and how they associate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := convert.PageCount(args[0])
			if err != nil {
				return err
			}
			src, err := convert.OpenPDF(args[0])
			if err != nil {
				return err
			}
			defer src.Close()

			var b strings.Builder
			b.WriteString(titleStyle.Render(fmt.Sprintf("%s: %d pages", args[0], n)))
			b.WriteString("\n")
			for i := 1; i <= src.NumPages(); i++ {
				page, err := src.Page(cmd.Context(), i)
				if err != nil {
					return err
				}
				assoc := convert.Associate(page.Blocks, page.Images)
				headings := 0
				for _, blk := range page.Blocks {
					if blk.Level > 0 {
						headings++
					}
				}
				fmt.Fprintf(&b, "page %4d  blocks %3d  headings %2d  images %2d  claimed %3d  residual %3d\n",
					i, len(page.Blocks), headings, len(page.Images),
					len(page.Blocks)-len(assoc.Residual), len(assoc.Residual))
			}
			fmt.Fprint(cmd.OutOrStdout(), b.String())
			return nil
		},
	}
	return cmd
}
