package analytics

import (
	"net/http"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/freightquote-backend/pkg/errors"
)

const defaultPreset = "30d"

var presets = map[string]time.Duration{
	"7d":  7 * 24 * time.Hour,
	"30d": 30 * 24 * time.Hour,
	"90d": 90 * 24 * time.Hour,
}

var clock = func() time.Time { return time.Now().UTC() }

// window is the [start, end] span a dashboard query covers.
type window struct {
	start, end time.Time
}

// parseWindow reads either an explicit from/to pair (RFC 3339 or a bare
// date) or a trailing ?preset= ending at now.
func parseWindow(r *http.Request, now time.Time) (window, error) {
	q := r.URL.Query()
	from, to := strings.TrimSpace(q.Get("from")), strings.TrimSpace(q.Get("to"))

	if from == "" && to == "" {
		name := strings.ToLower(strings.TrimSpace(q.Get("preset")))
		if name == "" {
			name = defaultPreset
		}
		span, ok := presets[name]
		if !ok {
			return window{}, pkgerrors.New(pkgerrors.CodeValidation, "preset must be one of 7d, 30d, 90d")
		}
		return window{start: now.Add(-span), end: now}, nil
	}
	if from == "" || to == "" {
		return window{}, pkgerrors.New(pkgerrors.CodeValidation, "from and to must be provided together")
	}

	start, err := parseInstant(from)
	if err != nil {
		return window{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid from timestamp")
	}
	end, err := parseInstant(to)
	if err != nil {
		return window{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid to timestamp")
	}
	if end.Before(start) {
		return window{}, pkgerrors.New(pkgerrors.CodeValidation, "to must not be before from")
	}
	return window{start: start, end: end}, nil
}

func parseInstant(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	return time.Parse(time.DateOnly, raw)
}
