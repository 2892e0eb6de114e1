package quotation

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrRowIndexOutOfRange is returned when a row operation targets a missing index.
var ErrRowIndexOutOfRange = errors.New("row index out of range")

// Rows is an indexed arena of scratch rows edited while a service is drafted.
type Rows[T any] struct {
	items []T
}

// NewRows copies items into a new arena.
func NewRows[T any](items []T) Rows[T] {
	out := make([]T, len(items))
	copy(out, items)
	return Rows[T]{items: out}
}

func (r *Rows[T]) Len() int {
	return len(r.items)
}

// Items returns a copy of the rows in order, or nil when there are none.
func (r *Rows[T]) Items() []T {
	if len(r.items) == 0 {
		return nil
	}
	out := make([]T, len(r.items))
	copy(out, r.items)
	return out
}

func (r *Rows[T]) Append(item T) int {
	r.items = append(r.items, item)
	return len(r.items) - 1
}

func (r *Rows[T]) Get(index int) (T, error) {
	var zero T
	if err := r.check(index); err != nil {
		return zero, err
	}
	return r.items[index], nil
}

func (r *Rows[T]) Set(index int, item T) error {
	if err := r.check(index); err != nil {
		return err
	}
	r.items[index] = item
	return nil
}

func (r *Rows[T]) Remove(index int) error {
	if err := r.check(index); err != nil {
		return err
	}
	r.items = append(r.items[:index], r.items[index+1:]...)
	return nil
}

// Duplicate appends a copy of the row at index and returns the new index.
func (r *Rows[T]) Duplicate(index int) (int, error) {
	item, err := r.Get(index)
	if err != nil {
		return -1, err
	}
	return r.Append(item), nil
}

func (r *Rows[T]) check(index int) error {
	if index < 0 || index >= len(r.items) {
		return fmt.Errorf("%w: %d (have %d)", ErrRowIndexOutOfRange, index, len(r.items))
	}
	return nil
}

func (r Rows[T]) MarshalJSON() ([]byte, error) {
	if r.items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(r.items)
}

func (r *Rows[T]) UnmarshalJSON(data []byte) error {
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	r.items = items
	return nil
}
