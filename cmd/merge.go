package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"document-qa/internal/models"
	"document-qa/internal/pdfmerge"
)

var mergeCmd = &cobra.Command{
	Use:   "merge [files...]",
	Short: "Merge PDFs into one file, pages in argument order",
	Args:  cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("output")
		if out == "" {
			return errors.New("output path must not be empty")
		}
		uploads, err := readUploadFiles(args)
		if err != nil {
			return err
		}
		res, err := pdfmerge.NewMerger().Merge(cmd.Context(), uploads, out)
		if err != nil {
			return err
		}
		fmt.Printf("Merged %d file(s), %d page(s) into %s\n", len(uploads), res.Pages, res.Path)
		return nil
	},
}

func init() {
	mergeCmd.Flags().StringP("output", "o", models.MergedPDFName, "Output file")
}
