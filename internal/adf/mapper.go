package adf

import (
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/verblead/ghl-adf-exporter/internal/fieldpath"
	"github.com/verblead/ghl-adf-exporter/internal/profile"
)

// Fixed provider identity stamped into vendor blocks when a profile enables
// the provider flag, independent of record content.
const (
	ProviderName    = "GHL ADF Exporter"
	ProviderService = "lead import"
)

// MapProspect builds one prospect subtree from a raw lead record. seq is the
// 1-based position of the record within its batch, used for the id sequence
// attribute when the profile stamps a source tag.
//
// Child order within prospect is fixed by the target schema: id,
// requestdate, vehicle, customer, vendor, tag*, leadsource, comments.
// Absent or empty source values never emit an empty element; the only
// exception is id, which is always present even with empty text. A
// wrong-typed value degrades that single field to absent and never aborts
// the record.
func MapProspect(record map[string]interface{}, p *profile.Profile, seq int) *etree.Element {
	prospect := etree.NewElement("prospect")

	id := prospect.CreateElement("id")
	if p.SourceTag != "" {
		id.CreateAttr("source", p.SourceTag)
		id.CreateAttr("sequence", strconv.Itoa(seq))
	}
	if value, ok := fieldpath.Resolve(record, p.ID.Path, p.ID.Fallbacks...); ok {
		id.SetText(value)
	}

	if !p.RequestDate.Empty() {
		if value, ok := fieldpath.Resolve(record, p.RequestDate.Path, p.RequestDate.Fallbacks...); ok {
			prospect.CreateElement("requestdate").SetText(value)
		}
	}

	if vehicle := buildVehicle(record, p.Vehicle); vehicle != nil {
		prospect.AddChild(vehicle)
	}

	prospect.AddChild(buildCustomer(record, p))

	if vendor := buildVendor(record, p.Vendor); vendor != nil {
		prospect.AddChild(vendor)
	}

	if p.Tags != "" {
		for _, tag := range fieldpath.ResolveList(record, p.Tags) {
			if tag == "" {
				continue
			}
			prospect.CreateElement("tag").SetText(tag)
		}
	}

	if !p.LeadSource.Empty() {
		if value, ok := fieldpath.Resolve(record, p.LeadSource.Path, p.LeadSource.Fallbacks...); ok {
			prospect.CreateElement("leadsource").SetText(value)
		}
	}

	if p.Comments.Placement == profile.CommentsAtProspect {
		if text := mergedComments(record, p.Comments); text != "" {
			prospect.CreateElement("comments").SetText(text)
		}
	}

	return prospect
}

// buildCustomer assembles the customer/contact shell. The shell itself is
// mandatory skeleton; its children are all optional.
func buildCustomer(record map[string]interface{}, p *profile.Profile) *etree.Element {
	customer := etree.NewElement("customer")
	contact := customer.CreateElement("contact")

	first, last := resolveName(record, p.CustomerName)
	if first != "" {
		name := contact.CreateElement("name")
		name.CreateAttr("part", "first")
		name.SetText(first)
	}
	if last != "" {
		name := contact.CreateElement("name")
		name.CreateAttr("part", "last")
		name.SetText(last)
	}

	if !p.Phone.Empty() {
		if value, ok := fieldpath.Resolve(record, p.Phone.Path, p.Phone.Fallbacks...); ok {
			contact.CreateElement("phone").SetText(value)
		}
	}
	if !p.Email.Empty() {
		if value, ok := fieldpath.Resolve(record, p.Email.Path, p.Email.Fallbacks...); ok {
			contact.CreateElement("email").SetText(value)
		}
	}

	if address := buildAddress(record, p.Address); address != nil {
		contact.AddChild(address)
	}

	if p.Comments.Placement == profile.CommentsAtCustomer {
		if text := mergedComments(record, p.Comments); text != "" {
			customer.CreateElement("comments").SetText(text)
		}
	}

	return customer
}

// resolveName normalizes both supported input shapes into first/last parts.
// If the nested variant does not resolve to an object the name is simply
// absent. A nested object with only a full name splits on the first space.
func resolveName(record map[string]interface{}, spec profile.NameSpec) (string, string) {
	switch spec.Layout {
	case profile.NameLayoutFlat:
		first, _ := fieldpath.Resolve(record, spec.FirstKey)
		last, _ := fieldpath.Resolve(record, spec.LastKey)
		return first, last
	case profile.NameLayoutNested:
		obj := fieldpath.ResolveMap(record, spec.ObjectKey)
		if obj == nil {
			return "", ""
		}
		first, _ := fieldpath.Resolve(obj, "first")
		last, _ := fieldpath.Resolve(obj, "last")
		if first == "" && last == "" {
			if full, ok := fieldpath.Resolve(obj, "full"); ok {
				return splitFullName(full)
			}
		}
		return first, last
	}
	return "", ""
}

func splitFullName(full string) (string, string) {
	parts := strings.SplitN(strings.TrimSpace(full), " ", 2)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], strings.TrimSpace(parts[1])
}

// buildAddress emits the address element only when at least one child
// resolved. The output shape is the same for both input layouts.
func buildAddress(record map[string]interface{}, spec profile.AddressSpec) *etree.Element {
	type field struct {
		element string
		value   string
	}
	var fields []field

	switch spec.Layout {
	case profile.AddressLayoutNested:
		obj := fieldpath.ResolveMap(record, spec.ObjectKey)
		if obj == nil {
			return nil
		}
		street, _ := fieldpath.Resolve(obj, "line1")
		city, _ := fieldpath.Resolve(obj, "city")
		region, _ := fieldpath.Resolve(obj, "region")
		postal, _ := fieldpath.Resolve(obj, "postalCode")
		country, _ := fieldpath.Resolve(obj, "country")
		fields = []field{
			{"street", street},
			{"city", city},
			{"regioncode", region},
			{"postalcode", postal},
			{"country", country},
		}
	default: // flat
		street, _ := fieldpath.Resolve(record, spec.StreetKey)
		city, _ := fieldpath.Resolve(record, spec.CityKey)
		region, _ := fieldpath.Resolve(record, spec.StateKey)
		postal, _ := fieldpath.Resolve(record, spec.PostalKey)
		fields = []field{
			{"street", street},
			{"city", city},
			{"regioncode", region},
			{"postalcode", postal},
		}
	}

	address := etree.NewElement("address")
	populated := false
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		address.CreateElement(f.element).SetText(f.value)
		populated = true
	}
	if !populated {
		return nil
	}
	return address
}

// buildVehicle emits the vehicle block per the profile's mode. An interest
// vehicle appears whenever its container is present, even partially
// populated; a trade-in vehicle appears only when year, make and model are
// all non-empty. The asymmetry is inherited import-target policy.
func buildVehicle(record map[string]interface{}, spec *profile.VehicleSpec) *etree.Element {
	if spec == nil {
		return nil
	}
	container := fieldpath.ResolveMap(record, spec.Container)
	if container == nil {
		return nil
	}

	switch spec.Mode {
	case profile.VehicleModeInterest:
		vehicle := etree.NewElement("vehicle")
		vehicle.CreateAttr("interest", "buy")
		for _, key := range []string{"year", "make", "model"} {
			if value, ok := fieldpath.Resolve(container, key); ok {
				vehicle.CreateElement(key).SetText(value)
			}
		}
		return vehicle
	case profile.VehicleModeTradeIn:
		year, _ := fieldpath.Resolve(container, spec.YearKey)
		makeName, _ := fieldpath.Resolve(container, spec.MakeKey)
		model, _ := fieldpath.Resolve(container, spec.ModelKey)
		if year == "" || makeName == "" || model == "" {
			return nil
		}
		vehicle := etree.NewElement("vehicle")
		vehicle.CreateAttr("interest", "trade-in")
		vehicle.CreateElement("year").SetText(year)
		vehicle.CreateElement("make").SetText(makeName)
		vehicle.CreateElement("model").SetText(model)
		return vehicle
	}
	return nil
}

// buildVendor emits the vendor block when a vendor name resolved or the
// profile stamps the provider identity.
func buildVendor(record map[string]interface{}, spec profile.VendorSpec) *etree.Element {
	var vendorName string
	if !spec.NamePath.Empty() {
		vendorName, _ = fieldpath.Resolve(record, spec.NamePath.Path, spec.NamePath.Fallbacks...)
	}
	if vendorName == "" && !spec.Provider {
		return nil
	}

	vendor := etree.NewElement("vendor")
	if vendorName != "" {
		vendor.CreateElement("vendorname").SetText(vendorName)
	}
	if spec.Provider {
		provider := vendor.CreateElement("provider")
		provider.CreateElement("name").SetText(ProviderName)
		provider.CreateElement("service").SetText(ProviderService)
	}
	return vendor
}

// mergedComments combines the primary comments field with the AI-memory
// transcript. Memory text is appended under an "AI Memory:" label, or stands
// alone when no primary comments exist.
func mergedComments(record map[string]interface{}, spec profile.CommentsSpec) string {
	var primary, memory string
	if !spec.Primary.Empty() {
		primary, _ = fieldpath.Resolve(record, spec.Primary.Path, spec.Primary.Fallbacks...)
	}
	if !spec.AIMemory.Empty() {
		memory, _ = fieldpath.Resolve(record, spec.AIMemory.Path, spec.AIMemory.Fallbacks...)
	}
	if memory == "" {
		return primary
	}
	if primary == "" {
		return "AI Memory:\n" + memory
	}
	return primary + "\n\nAI Memory:\n" + memory
}
