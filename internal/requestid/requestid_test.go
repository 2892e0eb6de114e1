package requestid

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/angelmondragon/freightquote-backend/pkg/sheets/sheetstest"
)

type memoryCounter struct {
	values map[string]int64
}

func (m *memoryCounter) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	var n int64
	fmt.Sscan(fmt.Sprint(value), &n)
	m.values[key] = n
	return true, nil
}

func (m *memoryCounter) Get(_ context.Context, key string) (string, error) {
	v, ok := m.values[key]
	if !ok {
		return "", fmt.Errorf("missing %s", key)
	}
	return fmt.Sprint(v), nil
}

func (m *memoryCounter) Incr(_ context.Context, key string) (int64, error) {
	m.values[key]++
	return m.values[key], nil
}

func (m *memoryCounter) CounterKey(name string) string { return "fq:counter:" + name }

func TestNextSeedsFromSheet(t *testing.T) {
	store := sheetstest.NewMemory()
	store.Seed("time", "Duration Time Quotation",
		[]string{"request_id", "quotation_type"},
		[]string{"Q0007", "Requested Quotation"},
		[]string{"Q0012", "Contracts"},
		[]string{"junk"},
	)
	counter := &memoryCounter{values: map[string]int64{}}
	gen := NewGenerator(counter, store, "time", "Duration Time Quotation")

	first, err := gen.Next(context.Background())
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if first != "Q0013" {
		t.Fatalf("expected Q0013, got %s", first)
	}

	// a later log row does not reset a running counter
	store.Seed("time", "Duration Time Quotation", []string{"Q0002"})
	second, err := gen.Next(context.Background())
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if second != "Q0014" {
		t.Fatalf("expected Q0014, got %s", second)
	}
}

func TestNextEmptySheet(t *testing.T) {
	gen := NewGenerator(&memoryCounter{values: map[string]int64{}}, sheetstest.NewMemory(), "time", "Duration Time Quotation")
	id, err := gen.Next(context.Background())
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if id != "Q0001" {
		t.Fatalf("expected Q0001, got %s", id)
	}
}

func TestParseAndFormat(t *testing.T) {
	cases := map[string]int64{"Q0001": 1, " Q0420 ": 420, "Q12345": 12345}
	for in, want := range cases {
		got, ok := Parse(in)
		if !ok || got != want {
			t.Fatalf("parse %q: got %d ok=%v", in, got, ok)
		}
	}
	for _, bad := range []string{"", "q0001", "Q", "QX1", "request_id"} {
		if _, ok := Parse(bad); ok {
			t.Fatalf("expected %q rejected", bad)
		}
	}
	if Format(7) != "Q0007" || Format(12345) != "Q12345" {
		t.Fatalf("unexpected format output")
	}
}
