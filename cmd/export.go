package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/okian/shotboard/internal/export"
)

func newExportCmd(c *cli) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export [ID]",
		Short: "Write a finished tournament as JSON",
		Long: `Write a finished tournament in the exchange format. Without an ID the
tournament just finished (or loaded with "history view") is exported.

--output takes a file or a directory; a directory gets a timestamped file
name. Without --output the document goes to stdout.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var ts int64
			if len(args) == 1 {
				var err error
				if ts, err = parseTimestamp(args[0]); err != nil {
					return err
				}
			}
			doc, err := c.svc.Export(cmd.Context(), ts)
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				return export.Encode(c.out, doc)
			}

			path := output
			if info, err := os.Stat(path); err == nil && info.IsDir() {
				path = filepath.Join(path, export.FileName(c.now()))
			}
			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("create export file: %w", err)
			}
			if err := export.Encode(f, doc); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("close export file: %w", err)
			}
			fmt.Fprintf(c.out, "exported to %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "file or directory to write to (default stdout)")
	return cmd
}
