// Package metrics holds the Prometheus collectors of the API and workers.
// Every recorder is nil-safe so callers can run without a registry.
package metrics

const namespace = "freightquote"

// Result labels.
const (
	resultOK    = "ok"
	resultError = "error"
)

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}

func resultOf(err error) string {
	if err != nil {
		return resultError
	}
	return resultOK
}
