// Package draft holds the service being authored or edited, with its scratch rows.
package draft

import (
	"errors"
	"fmt"

	"github.com/angelmondragon/freightquote-backend/internal/fields"
	"github.com/angelmondragon/freightquote-backend/internal/quotation"
	"github.com/angelmondragon/freightquote-backend/pkg/enums"
	"github.com/google/uuid"
)

// Collection names a scratch row list.
type Collection string

const (
	CollectionRoutes       Collection = "routes"
	CollectionPackages     Collection = "packages"
	CollectionGroundRoutes Collection = "ground_routes"
	CollectionFlatRacks    Collection = "flatrack"
)

// ParseCollection converts a path segment into a Collection.
func ParseCollection(value string) (Collection, error) {
	switch Collection(value) {
	case CollectionRoutes, CollectionPackages, CollectionGroundRoutes, CollectionFlatRacks:
		return Collection(value), nil
	}
	return "", fmt.Errorf("invalid collection %q", value)
}

// ErrCollectionNotApplicable is returned for rows the drafted service does not carry.
var ErrCollectionNotApplicable = errors.New("collection not applicable to service")

// ErrPayloadMissing is returned by Replace when the answers omit the draft service's payload.
var ErrPayloadMissing = errors.New("service payload missing")

// Draft is the single service in progress. ID scopes staged attachments and becomes
// the entry id once the draft is added to the ledger.
type Draft struct {
	ID      string                   `json:"id"`
	Details quotation.ServiceDetails `json:"details"`

	Routes       quotation.Rows[quotation.Route]       `json:"routes"`
	Packages     quotation.Rows[quotation.Package]     `json:"packages"`
	GroundRoutes quotation.Rows[quotation.GroundRoute] `json:"ground_routes"`
	FlatRacks    quotation.Rows[quotation.FlatRack]    `json:"flatrack"`
}

// StartNew returns a draft with type appropriate empty rows.
func StartNew(service enums.ServiceType) *Draft {
	d := &Draft{
		ID:      uuid.NewString(),
		Details: quotation.Sanitize(quotation.NewDetails(service)),
	}
	switch service {
	case enums.ServiceInternationalFreight:
		d.Routes.Append(quotation.Route{})
		d.Packages.Append(quotation.NewPackage())
		d.FlatRacks.Append(quotation.NewFlatRack())
	case enums.ServiceGroundTransportation:
		d.GroundRoutes.Append(quotation.GroundRoute{})
	}
	return d
}

// LoadForEdit seeds a draft from a ledger entry. Composing it without changes
// reproduces the entry's details.
func LoadForEdit(entry quotation.Entry) *Draft {
	d := &Draft{ID: entry.ID}
	d.seed(entry.Details)
	return d
}

// Replace swaps in new answers. Row collections the payload leaves out keep their
// scratch rows. Staged file names are kept since those only change through uploads.
// Answers without the payload of the draft's service are rejected and leave the
// draft untouched.
func (d *Draft) Replace(details quotation.ServiceDetails) error {
	if !hasPayload(d.Details.Service, details) {
		return fmt.Errorf("%w: %s", ErrPayloadMissing, d.Details.Service)
	}
	files := d.Details.AllFiles()
	prev := *d
	details.Service = d.Details.Service
	d.seed(details)

	if f := details.Freight; f != nil {
		if f.Routes == nil {
			d.Routes = prev.Routes
		}
		if f.FCL == nil || f.FCL.FlatRacks == nil {
			d.FlatRacks = prev.FlatRacks
		}
	}
	if g := details.Ground; g != nil && g.Routes == nil {
		d.GroundRoutes = prev.GroundRoutes
	}
	if details.Packages() == nil {
		d.Packages = prev.Packages
	}
	for _, key := range fields.FileKeys {
		_ = d.Details.SetFiles(key, nil)
	}
	for key, names := range files {
		// fields that no longer exist for the new selection are dropped
		_ = d.Details.SetFiles(key, names)
	}
	return nil
}

func hasPayload(service enums.ServiceType, details quotation.ServiceDetails) bool {
	switch service {
	case enums.ServiceInternationalFreight:
		return details.Freight != nil
	case enums.ServiceGroundTransportation:
		return details.Ground != nil
	case enums.ServiceCustomsBrokerage:
		return details.Customs != nil
	}
	return false
}

func (d *Draft) seed(details quotation.ServiceDetails) {
	d.Details = quotation.Sanitize(details)
	d.Routes = quotation.NewRows[quotation.Route](nil)
	d.Packages = quotation.NewRows(d.Details.Packages())
	d.GroundRoutes = quotation.NewRows[quotation.GroundRoute](nil)
	d.FlatRacks = quotation.NewRows[quotation.FlatRack](nil)
	if f := d.Details.Freight; f != nil {
		d.Routes = quotation.NewRows(f.Routes)
		if f.FCL != nil {
			d.FlatRacks = quotation.NewRows(f.FCL.FlatRacks)
		}
	}
	if g := d.Details.Ground; g != nil {
		d.GroundRoutes = quotation.NewRows(g.Routes)
	}
}

// Compose merges the scratch rows back into the details, refreshes derived package
// values and applies the allowlist.
func (d *Draft) Compose() quotation.ServiceDetails {
	out := quotation.Sanitize(d.Details)
	transport := out.TransportType()
	packages := d.Packages.Items()
	for i := range packages {
		packages[i] = packages[i].Recompute(transport)
	}
	switch {
	case out.Freight != nil:
		out.Freight.Routes = d.Routes.Items()
		if out.Freight.FCL != nil {
			out.Freight.FCL.FlatRacks = d.FlatRacks.Items()
		}
		if out.Freight.Cargo != nil {
			out.Freight.Cargo.Packages = packages
		}
	case out.Ground != nil:
		out.Ground.Routes = d.GroundRoutes.Items()
		out.Ground.Packages = packages
	case out.Customs != nil:
		out.Customs.Packages = packages
	}
	return out
}

// Entry composes the draft into a ledger entry.
func (d *Draft) Entry() quotation.Entry {
	details := d.Compose()
	return quotation.Entry{ID: d.ID, ServiceType: details.Service, Details: details}
}

func (d *Draft) applicable(c Collection) bool {
	details := d.Details
	switch c {
	case CollectionRoutes:
		return details.Freight != nil
	case CollectionFlatRacks:
		return details.Freight != nil && details.Freight.FCL != nil
	case CollectionGroundRoutes:
		return details.Ground != nil
	case CollectionPackages:
		return (details.Freight != nil && details.Freight.Cargo != nil) || details.Ground != nil || details.Customs != nil
	}
	return false
}

// AppendRow adds a default row and returns its index.
func (d *Draft) AppendRow(c Collection) (int, error) {
	if !d.applicable(c) {
		return -1, fmt.Errorf("%w: %s", ErrCollectionNotApplicable, c)
	}
	switch c {
	case CollectionRoutes:
		return d.Routes.Append(quotation.Route{}), nil
	case CollectionPackages:
		return d.Packages.Append(quotation.NewPackage()), nil
	case CollectionGroundRoutes:
		return d.GroundRoutes.Append(quotation.GroundRoute{}), nil
	default:
		return d.FlatRacks.Append(quotation.NewFlatRack()), nil
	}
}

// RemoveRow deletes the row at index. Out of range indexes leave the rows untouched.
func (d *Draft) RemoveRow(c Collection, index int) error {
	if !d.applicable(c) {
		return fmt.Errorf("%w: %s", ErrCollectionNotApplicable, c)
	}
	switch c {
	case CollectionRoutes:
		return d.Routes.Remove(index)
	case CollectionPackages:
		return d.Packages.Remove(index)
	case CollectionGroundRoutes:
		return d.GroundRoutes.Remove(index)
	default:
		return d.FlatRacks.Remove(index)
	}
}

// DuplicateRow appends a copy of the row at index and returns the new index.
func (d *Draft) DuplicateRow(c Collection, index int) (int, error) {
	if !d.applicable(c) {
		return -1, fmt.Errorf("%w: %s", ErrCollectionNotApplicable, c)
	}
	switch c {
	case CollectionRoutes:
		return d.Routes.Duplicate(index)
	case CollectionPackages:
		return d.Packages.Duplicate(index)
	case CollectionGroundRoutes:
		return d.GroundRoutes.Duplicate(index)
	default:
		return d.FlatRacks.Duplicate(index)
	}
}
