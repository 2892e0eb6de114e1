package router

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/freightquote-backend/internal/analytics/types"
	"github.com/angelmondragon/freightquote-backend/pkg/enums"
	"github.com/angelmondragon/freightquote-backend/pkg/logger"
	"github.com/angelmondragon/freightquote-backend/pkg/outbox/payloads"
)

type stubHandler struct {
	calls   int
	payload any
}

func (s *stubHandler) Handle(_ context.Context, _ types.Envelope, payload any) error {
	s.calls++
	s.payload = payload
	return nil
}

func newTestRouter(t *testing.T, writer Writer, overrides map[enums.OutboxEventType]Handler) *Router {
	t.Helper()
	r, err := NewRouter(writer, logger.New(logger.Options{ServiceName: "router-test", Output: io.Discard}), overrides)
	require.NoError(t, err)
	return r
}

func TestNewRouterRequiresDependencies(t *testing.T) {
	logg := logger.New(logger.Options{Output: io.Discard})
	_, err := NewRouter(nil, logg, nil)
	assert.Error(t, err)
	_, err = NewRouter(&recordingWriter{}, nil, nil)
	assert.Error(t, err)
}

func TestRouterRejects(t *testing.T) {
	cases := []struct {
		name        string
		env         types.Envelope
		unsupported bool
	}{
		{
			name:        "unknown event type",
			env:         types.Envelope{EventType: "order_created", Payload: []byte(`{"foo":"bar"}`)},
			unsupported: true,
		},
		{
			name: "missing payload",
			env:  types.Envelope{EventType: enums.EventQuotationSubmitted},
		},
		{
			name: "null payload",
			env:  types.Envelope{EventType: enums.EventQuotationSubmitted, Payload: []byte(" null ")},
		},
		{
			name:        "schema version without decoder",
			env:         types.Envelope{EventType: enums.EventQuotationSubmitted, Version: 7, Payload: []byte(`{"request_id":"Q0001"}`)},
			unsupported: true,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			writer := &recordingWriter{}
			err := newTestRouter(t, writer, nil).Handle(context.Background(), tc.env)
			require.Error(t, err)
			assert.Equal(t, tc.unsupported, errors.Is(err, ErrUnsupportedEventType))
			assert.Empty(t, writer.rows)
		})
	}
}

func TestRouterOverridesReceiveTypedPayloads(t *testing.T) {
	submitted, contract := &stubHandler{}, &stubHandler{}
	r := newTestRouter(t, &recordingWriter{}, map[enums.OutboxEventType]Handler{
		enums.EventQuotationSubmitted:         submitted,
		enums.EventContractQuotationSubmitted: contract,
		"order_created":                       &stubHandler{},
	})

	data, err := json.Marshal(payloads.QuotationSubmittedEvent{RequestID: "Q0001"})
	require.NoError(t, err)
	require.NoError(t, r.Handle(context.Background(), types.Envelope{EventType: enums.EventQuotationSubmitted, Payload: data}))

	require.NoError(t, r.Handle(context.Background(), types.Envelope{
		EventType: enums.EventContractQuotationSubmitted,
		Version:   1,
		Payload:   []byte(`{"request_id":"Q0009","pol":"Cartagena"}`),
	}))

	assert.Equal(t, 1, submitted.calls)
	got, ok := contract.payload.(*payloads.ContractQuotationSubmittedEvent)
	require.True(t, ok, "payload %T", contract.payload)
	assert.Equal(t, "Cartagena", got.POL)

	_, added := r.handlers["order_created"]
	assert.False(t, added, "overrides cannot add event types")
}
