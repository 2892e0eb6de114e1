// Package registry knows, per outbox event type, which topic it goes to and
// how each payload version decodes.
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/angelmondragon/freightquote-backend/pkg/enums"
	"github.com/angelmondragon/freightquote-backend/pkg/outbox/payloads"
)

// ErrNoDecoder is returned for an event type and version nobody registered.
var ErrNoDecoder = errors.New("no decoder registered")

// Decoder turns envelope data into a typed payload.
type Decoder func(data json.RawMessage) (any, error)

// JSON decodes into a fresh *T.
func JSON[T any]() Decoder {
	return func(data json.RawMessage) (any, error) {
		out := new(T)
		if err := json.Unmarshal(data, out); err != nil {
			return nil, err
		}
		return out, nil
	}
}

type decoderKey struct {
	event   enums.OutboxEventType
	version int
}

// Decoders is safe for concurrent use.
type Decoders struct {
	mu    sync.RWMutex
	byKey map[decoderKey]Decoder
}

func NewDecoders() *Decoders {
	return &Decoders{byKey: map[decoderKey]Decoder{}}
}

// QuotationDecoders registers every payload version the quotation flows emit.
func QuotationDecoders() *Decoders {
	return NewDecoders().
		Register(enums.EventQuotationSubmitted, 1, JSON[payloads.QuotationSubmittedEvent]()).
		Register(enums.EventContractQuotationSubmitted, 1, JSON[payloads.ContractQuotationSubmittedEvent]())
}

func (d *Decoders) Register(event enums.OutboxEventType, version int, decoder Decoder) *Decoders {
	if decoder == nil {
		return d
	}
	d.mu.Lock()
	d.byKey[decoderKey{event: event, version: version}] = decoder
	d.mu.Unlock()
	return d
}

// Supports reports whether any version of event is registered.
func (d *Decoders) Supports(event enums.OutboxEventType) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for k := range d.byKey {
		if k.event == event {
			return true
		}
	}
	return false
}

func (d *Decoders) Decode(event enums.OutboxEventType, version int, data json.RawMessage) (any, error) {
	d.mu.RLock()
	decoder, ok := d.byKey[decoderKey{event: event, version: version}]
	d.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w for %s v%d", ErrNoDecoder, event, version)
	}
	payload, err := decoder(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s v%d: %w", event, version, err)
	}
	return payload, nil
}
