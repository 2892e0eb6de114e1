package contracts

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
)

func openDocument(t *testing.T, data []byte) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("document is not a valid workbook: %v", err)
	}
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func cell(t *testing.T, f *excelize.File, ref string) string {
	t.Helper()
	v, err := f.GetCellValue(documentSheet, ref, excelize.Options{RawCellValue: true})
	if err != nil {
		t.Fatalf("read %s: %v", ref, err)
	}
	return v
}

func TestDocumentLayout(t *testing.T) {
	req := validRequest()
	req.Additional = []AdditionalSurcharge{{Concept: "Fumigation", Cost: dec("40"), Sale: dec("60")}}
	q := PriceQuote(req, maerskContract(t))
	issued := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	data, err := Document(q, Commercial{Name: "Ana Perez", Position: "Sales Executive", Email: "ana@example.com"}, issued)
	if err != nil {
		t.Fatalf("Document() error = %v", err)
	}
	f := openDocument(t, data)

	checks := map[string]string{
		"F4":  "Ana Perez",
		"F5":  "Sales Executive",
		"F6":  "N/A",
		"F7":  "ana@example.com",
		"C10": "01/03/2026",
		"G10": "31/03/2026",
		"B13": "Acme",
		"C19": "FOB",
		"C20": "Coffee",
		"C21": "Cartagena - Rotterdam",
		"C22": "40HC, 20DC",
		"B25": "ORIGEN",
		"D25": "40HC",
		"F25": "220",
		"B28": "FLETE",
		"D28": "20DC",
		"F28": "1400",
		"B29": "FUMIGATION",
		"D29": "Additional",
		"B30": "Total",
		"D30": "40HC",
		"F30": "2520",
		"D31": "20DC",
		"F31": "1600",
		"D32": "Additional",
		"F32": "60",
	}
	for ref, want := range checks {
		if got := cell(t, f, ref); got != want {
			t.Errorf("%s = %q, want %q", ref, got, want)
		}
	}

	notes := cell(t, f, "B34")
	want := "Transit Time: 18 days\nRoute: Direct\nFree Days in Origin: 14\nFree Days in Destination: 21\nNotes: Subject to gri\nCheck weights"
	if notes != want {
		t.Errorf("notes = %q, want %q", notes, want)
	}
}

func TestDocumentNotesStartAtFixedRowForShortTables(t *testing.T) {
	req := validRequest()
	req.CargoTypes = []string{"20DC"}
	req.Surcharges = []string{"Flete"}
	q := PriceQuote(req, maerskContract(t))

	data, err := Document(q, Commercial{}, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Document() error = %v", err)
	}
	f := openDocument(t, data)

	if got := cell(t, f, "F4"); got != "N/A" {
		t.Errorf("F4 = %q, want N/A", got)
	}
	if got := cell(t, f, "B26"); got != "Total" {
		t.Errorf("B26 = %q, want Total", got)
	}
	if got := cell(t, f, "B33"); got == "" {
		t.Errorf("expected notes at B33")
	}
}
