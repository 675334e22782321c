package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"renamer/internal/naming"
	"renamer/internal/textutil"
)

// defaultPreviewTemplate is used when --template is not given; it exercises
// every placeholder so the preview shows everything extraction found.
const defaultPreviewTemplate = "S{season}E{episode} [{quality}]"

func newNameCommand() *cobra.Command {
	var template string

	cmd := &cobra.Command{
		Use:   "name <filename>",
		Short: "Preview metadata extraction and template expansion for a filename",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filename := args[0]
			md := naming.Extract(filename)
			result := textutil.SanitizeFileName(naming.ApplyTemplate(template, md, filename))

			titleCaser := cases.Title(language.English)
			display := func(v string) string {
				if v == "" {
					return "(none)"
				}
				return v
			}

			rows := [][]string{
				{"Season", display(md.Season)},
				{"Episode", display(md.Episode)},
				{"Quality", md.Quality},
				{"Kind", titleCaser.String(string(naming.KindOf(filename)))},
				{"Template", template},
				{"Result", result},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Field", "Value"}, rows, nil))
			return nil
		},
	}

	cmd.Flags().StringVarP(&template, "template", "t", defaultPreviewTemplate, "Rename template to expand")
	return cmd
}
