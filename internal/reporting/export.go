package reporting

import (
	"context"
	"errors"
	"time"

	"call-recording-service/internal/calls"

	"github.com/xuri/excelize/v2"
)

var ErrInvalidRange = errors.New("reporting: invalid time range")

// CallLister abstracts the data access reporting needs.
type CallLister interface {
	ListCalls(ctx context.Context, from, to time.Time) ([]calls.Call, error)
}

// Exporter renders call data as an .xlsx workbook for ops handoff.
type Exporter struct {
	repo CallLister
}

func NewExporter(repo CallLister) *Exporter { return &Exporter{repo: repo} }

const sheetName = "Calls"

var headerRow = []string{
	"Call ID", "Caller", "Receiver", "Started At", "Status",
	"Duration (s)", "Transcription", "Silence Markers",
}

// CallsWorkbook builds a workbook of calls created within [from, to).
// The caller owns the returned file and must Close it.
func (e *Exporter) CallsWorkbook(ctx context.Context, from, to time.Time) (*excelize.File, error) {
	if from.IsZero() || to.IsZero() || !to.After(from) {
		return nil, ErrInvalidRange
	}

	rows, err := e.repo.ListCalls(ctx, from, to)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		_ = f.Close()
		return nil, err
	}

	for col, h := range headerRow {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			_ = f.Close()
			return nil, err
		}
	}

	for i, c := range rows {
		values := []any{
			c.ID,
			c.Caller,
			c.Receiver,
			c.StartedAt.UTC().Format(time.RFC3339),
			string(c.Status),
			0,
			"",
			"",
		}
		if c.Recording != nil {
			values[5] = c.Recording.DurationSeconds
			values[6] = c.Recording.Transcription
			values[7] = calls.EncodeSilences(c.Recording.Silences)
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				_ = f.Close()
				return nil, err
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				_ = f.Close()
				return nil, err
			}
		}
	}

	return f, nil
}
