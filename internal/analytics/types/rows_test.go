package types

import (
	"testing"
	"time"

	cbigquery "cloud.google.com/go/bigquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuotationRowSave(t *testing.T) {
	pol := "Cartagena"
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	row, insertID, err := QuotationRow{
		EventID:     "evt-1",
		Kind:        "contract",
		POL:         &pol,
		SubmittedAt: at,
		Payload:     cbigquery.NullJSON{Valid: true, JSONVal: `{"a":1}`},
	}.Save()
	require.NoError(t, err)

	assert.Equal(t, "evt-1", insertID)
	assert.Equal(t, "Cartagena", row["pol"])
	assert.Nil(t, row["pod"])
	assert.Nil(t, row["total_sale"])
	assert.Equal(t, []string{}, row["services"])
	assert.Equal(t, `{"a":1}`, row["payload"])
	assert.Equal(t, at, row["submitted_at"])
}

func TestQuotationRowSaveNullPayload(t *testing.T) {
	row, _, err := QuotationRow{EventID: "evt-2"}.Save()
	require.NoError(t, err)
	assert.Nil(t, row["payload"])
}
