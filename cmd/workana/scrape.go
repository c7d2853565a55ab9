package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
	"github.com/use-agent/workana-scraper/models"
)

var scrapeFormat string

func init() {
	scrapeCmd.Flags().StringVarP(&scrapeFormat, "format", "f", "json", "output format: json or table")
	rootCmd.AddCommand(scrapeCmd)
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Runs one scrape and prints the result.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if scrapeFormat != "json" && scrapeFormat != "table" {
			return fmt.Errorf("unknown format %q", scrapeFormat)
		}

		// Logs go to stderr so stdout stays machine-readable.
		_, sc, _, err := setup(os.Stderr)
		if err != nil {
			printResult(os.Stdout, models.Failure(err), scrapeFormat)
			return err
		}

		result := sc.Run(cmd.Context())
		printResult(os.Stdout, result, scrapeFormat)
		if !result.OK() {
			return result.Err
		}
		return nil
	},
}

// printResult writes result as indented JSON or, for successes, as a table.
func printResult(w io.Writer, result *models.ScrapeResult, format string) {
	if format == "table" && result.OK() {
		renderTable(w, result.Data)
		return
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	_ = enc.Encode(result)
}

func renderTable(w io.Writer, records []models.ProjectRecord) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"#", "Title", "Budget", "Bids", "Published", "Country", "Contacted"})

	for i, r := range records {
		t.AppendRow(table.Row{
			i + 1,
			models.StringOr(r.Title, "-"),
			models.StringOr(r.Budget, "-"),
			models.StringOr(r.Bids, "-"),
			models.StringOr(r.PublishedDate, "-"),
			r.Country,
			r.Contacted,
		})
	}
	t.AppendFooter(table.Row{"", fmt.Sprintf("%d projects", len(records))})

	t.SetStyle(table.StyleRounded)
	t.Style().Format.Footer = text.FormatDefault
	t.Render()
}
