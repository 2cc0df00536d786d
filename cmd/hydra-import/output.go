package main

import (
	"fmt"

	"hydraimport/internal/codec"
	"hydraimport/internal/importer"
)

// printReport writes the status report to stdout
func (a *app) printReport(report *importer.Report, format string) error {
	exporter, err := codec.ForFormat(format)
	if err != nil {
		return err
	}
	if err := exporter.Export(report, a.stdout); err != nil {
		return fmt.Errorf("print report: %w", err)
	}
	return nil
}
