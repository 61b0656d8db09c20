package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/thywilljoshua/pdf-rag/internal/convert"
)

func splitCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "split <document-dir>",
		Short: "Rebuild section files from an already parsed document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, log, err := loadConfig()
			if err != nil {
				return err
			}
			files, err := convert.Resplit(args[0], log)
			if err != nil {
				return err
			}
			if asJSON {
				b, _ := json.MarshalIndent(files, "", "  ")
				fmt.Fprintln(cmd.OutOrStdout(), string(b))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderSections(args[0], files))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the section list as JSON")
	return cmd
}
