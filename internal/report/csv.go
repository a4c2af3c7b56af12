package report

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/nuclear-hardware/hms/internal/model"
)

// WriteCSV writes one line per sold asset after a header line.
func WriteCSV(w io.Writer, rows []model.SoldAsset) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, r := range rows {
		if err := cw.Write(record(r)); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
