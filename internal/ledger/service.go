// Package ledger keeps the ordered services added to a quotation.
package ledger

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/angelmondragon/freightquote-backend/internal/quotation"
	"github.com/angelmondragon/freightquote-backend/internal/validation"
	"github.com/angelmondragon/freightquote-backend/pkg/enums"
	"github.com/google/uuid"
)

// ErrEntryNotFound is returned for an index outside the ledger.
var ErrEntryNotFound = errors.New("service entry not found")

// Ledger is the ordered list of validated services. Every entry passed validation at
// its last write.
type Ledger struct {
	entries []quotation.Entry
}

// New returns a ledger holding entries as given, without revalidating them.
func New(entries []quotation.Entry) *Ledger {
	l := &Ledger{}
	l.entries = append(l.entries, entries...)
	return l
}

// Add validates and appends an entry, returning its index. A rejected entry yields
// validation.Errors and leaves the ledger untouched.
func (l *Ledger) Add(entry quotation.Entry) (int, error) {
	entry, err := prepare(entry)
	if err != nil {
		return -1, err
	}
	l.entries = append(l.entries, entry)
	return len(l.entries) - 1, nil
}

// Update validates and replaces the entry at index in place. The entry keeps its id.
func (l *Ledger) Update(index int, entry quotation.Entry) error {
	if err := l.check(index); err != nil {
		return err
	}
	entry.ID = l.entries[index].ID
	entry, err := prepare(entry)
	if err != nil {
		return err
	}
	l.entries[index] = entry
	return nil
}

// Remove deletes the entry at index and returns it.
func (l *Ledger) Remove(index int) (quotation.Entry, error) {
	if err := l.check(index); err != nil {
		return quotation.Entry{}, err
	}
	removed := l.entries[index]
	l.entries = append(l.entries[:index:index], l.entries[index+1:]...)
	return removed, nil
}

// Get returns the entry at index.
func (l *Ledger) Get(index int) (quotation.Entry, error) {
	if err := l.check(index); err != nil {
		return quotation.Entry{}, err
	}
	return l.entries[index], nil
}

// List returns the entries in ledger order.
func (l *Ledger) List() []quotation.Entry {
	out := make([]quotation.Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *Ledger) Len() int {
	return len(l.entries)
}

// ServiceTypes returns the distinct service types in first seen order.
func (l *Ledger) ServiceTypes() []enums.ServiceType {
	seen := make(map[enums.ServiceType]bool)
	var out []enums.ServiceType
	for _, e := range l.entries {
		if !seen[e.ServiceType] {
			seen[e.ServiceType] = true
			out = append(out, e.ServiceType)
		}
	}
	return out
}

func (l *Ledger) check(index int) error {
	if index < 0 || index >= len(l.entries) {
		return fmt.Errorf("%w: index %d", ErrEntryNotFound, index)
	}
	return nil
}

func prepare(entry quotation.Entry) (quotation.Entry, error) {
	entry.Details = quotation.Sanitize(entry.Details)
	entry.ServiceType = entry.Details.Service
	if errs := validation.Validate(entry.Details); len(errs) > 0 {
		return entry, errs
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	return entry, nil
}

func (l Ledger) MarshalJSON() ([]byte, error) {
	if l.entries == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l.entries)
}

func (l *Ledger) UnmarshalJSON(data []byte) error {
	var entries []quotation.Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	l.entries = entries
	return nil
}
