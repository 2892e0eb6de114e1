package enums

import "fmt"

// Incoterm is the trade term selected for an international freight service.
type Incoterm string

const (
	IncotermFOB Incoterm = "FOB"
	IncotermFCA Incoterm = "FCA"
	IncotermCIF Incoterm = "CIF"
	IncotermCFR Incoterm = "CFR"
	IncotermEXW Incoterm = "EXW"
	IncotermDDP Incoterm = "DDP"
	IncotermDAP Incoterm = "DAP"
	IncotermCPT Incoterm = "CPT"
)

// Ordered as presented in the incoterm picker.
var validIncoterms = []Incoterm{
	IncotermFOB,
	IncotermFCA,
	IncotermCIF,
	IncotermCFR,
	IncotermEXW,
	IncotermDDP,
	IncotermDAP,
	IncotermCPT,
}

// Incoterms returns the picker options in display order.
func Incoterms() []Incoterm {
	out := make([]Incoterm, len(validIncoterms))
	copy(out, validIncoterms)
	return out
}

func (i Incoterm) IsValid() bool {
	for _, candidate := range validIncoterms {
		if candidate == i {
			return true
		}
	}
	return false
}

// In reports whether the incoterm is one of the provided terms.
func (i Incoterm) In(terms ...Incoterm) bool {
	for _, term := range terms {
		if term == i {
			return true
		}
	}
	return false
}

// ParseIncoterm converts raw input into Incoterm.
func ParseIncoterm(value string) (Incoterm, error) {
	for _, candidate := range validIncoterms {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid incoterm %q", value)
}
