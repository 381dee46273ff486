package main

import (
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/irscelearn/ce-reporter/internal/export"
	"github.com/irscelearn/ce-reporter/internal/sheet"
)

var exportDir string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the Clean table to an upload workbook",
	RunE: func(cmd *cobra.Command, _ []string) error {
		wb, err := sheet.OpenWorkbook(cfg.Workbook.Path)
		if err != nil {
			return err
		}
		clean, err := wb.Table(cfg.Workbook.Clean)
		if err != nil {
			return err
		}

		dir := exportDir
		if dir == "" {
			dir = cfg.Export.Dir
		}

		path, err := export.CleanUpload(clean, dir, time.Now())
		if err != nil {
			return err
		}
		zap.L().Info("export written", zap.String("path", path))
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportDir, "dir", "", "output directory (default from config)")
	rootCmd.AddCommand(exportCmd)
}
