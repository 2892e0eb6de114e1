package submission

import (
	"context"
	"strconv"
	"time"

	"github.com/angelmondragon/freightquote-backend/internal/aggregate"
	"github.com/angelmondragon/freightquote-backend/pkg/sheets"
)

// Quotation types written to the time log.
const (
	TimeLogWizard    = "Requested Quotation"
	TimeLogContracts = "Contracts"
)

// TimeLogHeaders is the header row of the duration worksheet.
var TimeLogHeaders = []string{"request_id", "quotation_type", "Start Time", "End Time", "Duration (seconds)"}

// TimeEntry is one row of the duration worksheet.
type TimeEntry struct {
	RequestID string
	Kind      string
	Start     time.Time
	End       time.Time
}

// DurationSeconds is the whole seconds between start and end, never negative.
func (e TimeEntry) DurationSeconds() int {
	d := e.End.Sub(e.Start)
	if d < 0 {
		return 0
	}
	return int(d / time.Second)
}

// Row renders the entry in loc.
func (e TimeEntry) Row(loc *time.Location) []string {
	if loc == nil {
		loc = time.UTC
	}
	return []string{
		e.RequestID,
		e.Kind,
		e.Start.In(loc).Format(aggregate.TimeLayout),
		e.End.In(loc).Format(aggregate.TimeLayout),
		strconv.Itoa(e.DurationSeconds()),
	}
}

// AppendTimeLog writes entry to the duration worksheet, creating it when missing.
func AppendTimeLog(ctx context.Context, store sheets.Store, spreadsheetID, worksheet string, entry TimeEntry, loc *time.Location) error {
	if _, err := store.EnsureWorksheet(ctx, spreadsheetID, worksheet, TimeLogHeaders); err != nil {
		return err
	}
	return store.AppendRow(ctx, spreadsheetID, worksheet, entry.Row(loc))
}
