package quotation

import (
	"fmt"
	"sort"

	"github.com/angelmondragon/freightquote-backend/internal/fields"
)

// Files returns the staged file names recorded for an attachment field.
func (d ServiceDetails) Files(key fields.Key) []string {
	if ptr := d.filesRef(key); ptr != nil {
		return *ptr
	}
	return nil
}

// SetFiles replaces the names recorded for an attachment field. It fails when the
// field does not exist for the populated payload.
func (d *ServiceDetails) SetFiles(key fields.Key, names []string) error {
	ptr := d.filesRef(key)
	if ptr == nil {
		return fmt.Errorf("field %q does not accept files for %s", key, d.Service)
	}
	if len(names) == 0 {
		*ptr = nil
		return nil
	}
	*ptr = cloneStrings(names)
	return nil
}

// AllFiles returns every attachment field with at least one file, keyed by field.
func (d ServiceDetails) AllFiles() map[fields.Key][]string {
	out := make(map[fields.Key][]string)
	for _, key := range fields.FileKeys {
		if names := d.Files(key); len(names) > 0 {
			sorted := cloneStrings(names)
			sort.Strings(sorted)
			out[key] = sorted
		}
	}
	return out
}

func (d *ServiceDetails) filesRef(key fields.Key) *[]string {
	if key == fields.KeyAdditionalDocuments {
		return &d.AdditionalDocuments
	}
	var imo *IMOInfo
	var docs *CustomsDocuments
	switch {
	case d.Freight != nil:
		imo, docs = &d.Freight.IMOInfo, &d.Freight.CustomsDocuments
		if d.Freight.FCL != nil {
			switch key {
			case fields.KeyTechnicalSheets:
				return &d.Freight.FCL.TechnicalSheets
			case fields.KeyTankMSDSFiles:
				return &d.Freight.FCL.TankMSDSFiles
			}
		}
	case d.Ground != nil:
		imo = &d.Ground.IMOInfo
	case d.Customs != nil:
		imo, docs = &d.Customs.IMOInfo, &d.Customs.CustomsDocuments
	}
	if key == fields.KeyMSDSFiles && imo != nil {
		return &imo.MSDSFiles
	}
	if docs != nil {
		switch key {
		case fields.KeyCommercialInvoices:
			return &docs.CommercialInvoices
		case fields.KeyPackingLists:
			return &docs.PackingLists
		case fields.KeyOriginCertificates:
			return &docs.OriginCertificates
		}
	}
	return nil
}
