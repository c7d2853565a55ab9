package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/use-agent/workana-scraper/dom"
	"github.com/use-agent/workana-scraper/models"
	"github.com/use-agent/workana-scraper/scraper"
)

var (
	extractBaseURL string
	extractFormat  string
)

func init() {
	extractCmd.Flags().StringVar(&extractBaseURL, "base-url", "https://www.workana.com/", "URL relative links are resolved against")
	extractCmd.Flags().StringVarP(&extractFormat, "format", "f", "json", "output format: json or table")
	rootCmd.AddCommand(extractCmd)
}

var extractCmd = &cobra.Command{
	Use:   "extract <listing.html>",
	Short: "Extracts projects from a saved listing page without a browser.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		doc, err := dom.NewHTMLDocument(f, extractBaseURL)
		if err != nil {
			return err
		}

		// A saved page cannot run its scripts, so there is nothing to wait for.
		timing := scraper.Timing{}
		records, err := scraper.NewExtractor(scraper.Workana, timing).Extract(cmd.Context(), doc)
		result := models.Assemble(records, err)
		printResult(os.Stdout, result, extractFormat)
		if !result.OK() {
			return fmt.Errorf("extract %s: %w", args[0], result.Err)
		}
		return nil
	},
}
