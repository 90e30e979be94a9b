package main

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"document-qa/internal/helper"
	"document-qa/internal/parser"
	"document-qa/internal/rag"
)

var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Answer a question about one document (OpenAI)",
	RunE: func(cmd *cobra.Command, args []string) error {
		filePath, _ := cmd.Flags().GetString("file")
		question, _ := cmd.Flags().GetString("question")
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		if filePath == "" {
			return errors.New("please provide a document using --file")
		}

		upload, err := readUploadFile(filePath)
		if err != nil {
			return err
		}

		if dryRun {
			text, err := parser.ExtractText(upload)
			if err != nil {
				return err
			}
			chunks, err := parser.Split(text, parser.ChunkOptions{
				Size:      cfg.RAG.ChunkSize,
				Overlap:   cfg.RAG.ChunkOverlap,
				Separator: cfg.RAG.Separator,
			})
			if err != nil {
				return err
			}
			log.Info().Msgf("Parsed %d chunks", len(chunks))
			helper.PrettyPrint(chunks)
			return nil
		}

		if question == "" {
			return errors.New("please provide a question using --question")
		}
		qa, err := rag.NewFromConfig(cfg)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		kb, err := qa.Ingest(ctx, upload)
		if err != nil {
			return err
		}
		answer, err := qa.Ask(ctx, kb, question, cfg.OpenAISampling())
		if err != nil {
			return err
		}

		log.Info().Msg("Query: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
		fmt.Printf("%s\n\n", answer.Question)

		log.Info().Msg("Source: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
		for _, src := range answer.Sources {
			fmt.Printf("[chunk %d] %s\n\n", src.Position, src.Content)
		}

		log.Info().Msg("Assistant: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
		fmt.Printf("%s\n\n", answer.Content)
		return nil
	},
}

func init() {
	askCmd.Flags().StringP("file", "f", "", "Path to the document file")
	askCmd.Flags().StringP("question", "q", "", "Question to be answered")
	askCmd.Flags().Bool("dry-run", false, "Print the chunks and stop before calling any provider")
}
