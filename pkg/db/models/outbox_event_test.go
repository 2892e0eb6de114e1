package models

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/freightquote-backend/pkg/enums"
)

func TestOutboxEventDeadLetter(t *testing.T) {
	event := OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventQuotationSubmitted,
		AggregateType: enums.AggregateQuotation,
		AggregateID:   uuid.New(),
		Payload:       []byte(`{"version":1}`),
		AttemptCount:  4,
	}
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.FixedZone("COT", -5*3600))

	entry := event.DeadLetter(enums.DeadLetterUnroutable, errors.New("no topic"), at)
	assert.Equal(t, event.ID, entry.EventID)
	assert.Equal(t, 5, entry.AttemptCount)
	assert.Equal(t, time.UTC, entry.FailedAt.Location())
	require.NotNil(t, entry.ErrorMessage)
	assert.Equal(t, "no topic", *entry.ErrorMessage)

	assert.Nil(t, event.DeadLetter(enums.DeadLetterUnroutable, nil, at).ErrorMessage)
	assert.False(t, event.Published())
}
