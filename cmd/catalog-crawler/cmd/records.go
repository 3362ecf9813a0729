package cmd

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/maltedev/catalog-crawler/internal/models"
	"github.com/maltedev/catalog-crawler/internal/storage"
)

var recordsLimit int

func init() {
	recordsCmd.Flags().StringVar(&outputPath, "output", "", "workbook to read (defaults to STORAGE_WORKBOOK)")
	recordsCmd.Flags().IntVar(&recordsLimit, "limit", 0, "only print the last N records")
	rootCmd.AddCommand(recordsCmd)
}

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Prints the records stored in the workbook.",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfg.Storage.WorkbookPath
		if outputPath != "" {
			path = outputPath
		}

		records, err := storage.ReadRecords(path)
		if err != nil {
			return err
		}
		if recordsLimit > 0 && len(records) > recordsLimit {
			records = records[len(records)-recordsLimit:]
		}

		t := table.NewWriter()
		t.SetOutputMirror(cmd.OutOrStdout())
		header := table.Row{}
		for _, c := range models.Columns {
			header = append(header, c)
		}
		t.AppendHeader(header)

		for _, rec := range records {
			row := table.Row{}
			for _, v := range rec.Values() {
				row = append(row, v)
			}
			t.AppendRow(row)
		}

		t.AppendFooter(table.Row{"Total", len(records)})
		t.SetStyle(table.StyleRounded)
		t.Render()
		return nil
	},
}
