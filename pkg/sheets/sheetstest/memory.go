// Package sheetstest provides an in-memory sheets.Store for tests.
package sheetstest

import (
	"context"
	"sync"
)

// Memory keeps worksheets per spreadsheet id. FailAppend lets a test inject
// failures: it is consulted before every append and its error is returned when non-nil.
type Memory struct {
	mu         sync.Mutex
	books      map[string]map[string][][]string
	FailAppend func(spreadsheetID, title string) error
	Appends    int
}

func NewMemory() *Memory {
	return &Memory{books: map[string]map[string][][]string{}}
}

// Seed replaces the worksheet content.
func (m *Memory) Seed(spreadsheetID, title string, rows ...[]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.book(spreadsheetID)[title] = cloneRows(rows)
}

// Rows returns a copy of the worksheet content.
func (m *Memory) Rows(spreadsheetID, title string) [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneRows(m.book(spreadsheetID)[title])
}

// Has reports whether the worksheet exists.
func (m *Memory) Has(spreadsheetID, title string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.book(spreadsheetID)[title]
	return ok
}

func (m *Memory) EnsureWorksheet(_ context.Context, spreadsheetID, title string, headers []string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	book := m.book(spreadsheetID)
	if _, ok := book[title]; ok {
		return false, nil
	}
	book[title] = nil
	if len(headers) > 0 {
		book[title] = [][]string{append([]string(nil), headers...)}
	}
	return true, nil
}

func (m *Memory) AppendRow(_ context.Context, spreadsheetID, title string, row []string) error {
	if m.FailAppend != nil {
		if err := m.FailAppend(spreadsheetID, title); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	book := m.book(spreadsheetID)
	book[title] = append(book[title], append([]string(nil), row...))
	m.Appends++
	return nil
}

func (m *Memory) ReadAll(_ context.Context, spreadsheetID, title string) ([][]string, error) {
	return m.Rows(spreadsheetID, title), nil
}

func (m *Memory) book(spreadsheetID string) map[string][][]string {
	book, ok := m.books[spreadsheetID]
	if !ok {
		book = map[string][][]string{}
		m.books[spreadsheetID] = book
	}
	return book
}

func cloneRows(rows [][]string) [][]string {
	if rows == nil {
		return nil
	}
	out := make([][]string, len(rows))
	for i, row := range rows {
		out[i] = append([]string(nil), row...)
	}
	return out
}
