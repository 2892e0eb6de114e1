package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type column of outbox_events.
type OutboxAggregateType string

const (
	AggregateQuotation         OutboxAggregateType = "quotation"
	AggregateContractQuotation OutboxAggregateType = "contract_quotation"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateQuotation,
	AggregateContractQuotation,
}

// IsValid reports whether the value matches a known aggregate type.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type column of outbox_events.
type OutboxEventType string

const (
	EventQuotationSubmitted         OutboxEventType = "quotation_submitted"
	EventContractQuotationSubmitted OutboxEventType = "contract_quotation_submitted"
)

var validOutboxEventTypes = []OutboxEventType{
	EventQuotationSubmitted,
	EventContractQuotationSubmitted,
}

// IsValid reports whether the value matches a known event type.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}

// DeadLetterReason explains why an outbox event was moved to outbox_dlq.
type DeadLetterReason string

const (
	// DeadLetterMaxAttempts: Pub/Sub kept failing until the attempt budget ran out.
	DeadLetterMaxAttempts DeadLetterReason = "max_attempts"
	// DeadLetterUndecodable: the stored payload does not decode for its event type and version.
	DeadLetterUndecodable DeadLetterReason = "undecodable"
	// DeadLetterUnroutable: no topic or publisher is configured for the event.
	DeadLetterUnroutable DeadLetterReason = "unroutable"
)

var validDeadLetterReasons = []DeadLetterReason{
	DeadLetterMaxAttempts,
	DeadLetterUndecodable,
	DeadLetterUnroutable,
}

func (r DeadLetterReason) IsValid() bool {
	for _, candidate := range validDeadLetterReasons {
		if candidate == r {
			return true
		}
	}
	return false
}
