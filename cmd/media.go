package main

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"document-qa/internal/llmservice"
	"document-qa/internal/media"
)

var mediaCmd = &cobra.Command{
	Use:   "media",
	Short: "Answer a question about a set of media files (Gemini)",
	RunE: func(cmd *cobra.Command, args []string) error {
		kindFlag, _ := cmd.Flags().GetString("kind")
		files, _ := cmd.Flags().GetStringSlice("file")
		question, _ := cmd.Flags().GetString("question")
		workDir, _ := cmd.Flags().GetString("work-dir")
		if len(files) == 0 {
			return errors.New("please provide at least one --file")
		}
		if question == "" {
			return errors.New("please provide a question using --question")
		}

		llmCfg := cfg.GeminiSampling()
		if cmd.Flags().Changed("model") {
			llmCfg.Model, _ = cmd.Flags().GetString("model")
		}
		if cmd.Flags().Changed("temperature") {
			llmCfg.Temperature, _ = cmd.Flags().GetFloat64("temperature")
		}
		if cmd.Flags().Changed("top-p") {
			llmCfg.TopP, _ = cmd.Flags().GetFloat64("top-p")
		}
		if cmd.Flags().Changed("max-tokens") {
			llmCfg.MaxTokens, _ = cmd.Flags().GetInt("max-tokens")
		}
		if err := llmCfg.Validate(); err != nil {
			return err
		}

		kind, err := media.ParseKind(kindFlag)
		if err != nil {
			return err
		}
		gemini := llmservice.NewGeminiGenerator(cfg.GoogleAPIKey)
		defer gemini.Close()
		handler, err := media.DefaultRegistry(gemini, cfg.Merge.OutputName).Lookup(kind)
		if err != nil {
			return err
		}

		uploads, err := readUploadFiles(files)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		prepared, err := handler.Prepare(ctx, workDir, uploads)
		if err != nil {
			return err
		}
		log.Info().Str("path", prepared.Path).Int("pages", prepared.Pages).Msg("Prepared upload")

		answer, err := handler.Ask(ctx, prepared, question, llmCfg)
		if err != nil {
			return err
		}

		log.Info().Msg("Query: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
		fmt.Printf("%s\n\n", question)

		log.Info().Msg("Assistant: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
		fmt.Printf("%s\n\n", answer)
		return nil
	},
}

func init() {
	mediaCmd.Flags().String("kind", string(media.KindPDF), "Media kind: pdf, image, video or audio")
	mediaCmd.Flags().StringSliceP("file", "f", nil, "Files to upload, in order (repeatable)")
	mediaCmd.Flags().StringP("question", "q", "", "Question to be answered")
	mediaCmd.Flags().String("work-dir", ".", "Directory for the merged PDF")
	mediaCmd.Flags().String("model", "", "Gemini model (default from config)")
	mediaCmd.Flags().Float64("temperature", 0, "Sampling temperature, 0 to 2")
	mediaCmd.Flags().Float64("top-p", 0, "Nucleus sampling, 0 to 1")
	mediaCmd.Flags().Int("max-tokens", 0, "Maximum output tokens, 100 to 5000")
}
