package main

import (
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/thywilljoshua/pdf-rag/internal/ai"
)

func describeCmd() *cobra.Command {
	var taskName string
	var contextText string

	cmd := &cobra.Command{
		Use:   "describe <image>",
		Short: "Caption one image, or extract code or a formula from it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			task, err := ai.ParseTask(taskName)
			if err != nil {
				return err
			}
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			b, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			mt := mime.TypeByExtension(filepath.Ext(args[0]))
			if mt == "" {
				mt = "image/png"
			}

			d, cleanup, err := newDescriber(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer cleanup()

			out := d.Describe(cmd.Context(), ai.Request{Image: b, MIMEType: mt, Context: contextText, Task: task})
			if out == "" {
				return errors.New("no result: every caption candidate failed")
			}
			if task == ai.TaskCode {
				code, lang := ai.SplitCodeLanguage(out)
				if lang != "" {
					fmt.Fprintln(cmd.ErrOrStderr(), dimStyle.Render("language: "+lang))
				}
				out = code
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&taskName, "task", "caption", "what to extract: caption|code|formula")
	cmd.Flags().StringVar(&contextText, "context", "", "surrounding text to guide the caption")
	return cmd
}
