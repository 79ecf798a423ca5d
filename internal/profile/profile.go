package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// A Profile describes how one integration version's lead records translate
// into the ADF target schema: which source path(s) to try per target field,
// in priority order, plus the structural rules (layouts, vehicle mode,
// comments placement). Profiles are loaded once at startup and treated as
// immutable afterwards.
type Profile struct {
	Name         string       `yaml:"name"`
	ID           FieldSpec    `yaml:"id"`
	SourceTag    string       `yaml:"source_tag,omitempty"`
	RequestDate  FieldSpec    `yaml:"request_date,omitempty"`
	CustomerName NameSpec     `yaml:"customer_name"`
	Phone        FieldSpec    `yaml:"phone,omitempty"`
	Email        FieldSpec    `yaml:"email,omitempty"`
	Address      AddressSpec  `yaml:"address"`
	Vehicle      *VehicleSpec `yaml:"vehicle,omitempty"`
	Comments     CommentsSpec `yaml:"comments"`
	Vendor       VendorSpec   `yaml:"vendor"`
	Tags         string       `yaml:"tags,omitempty"`
	LeadSource   FieldSpec    `yaml:"lead_source,omitempty"`
	Dedup        bool         `yaml:"dedup,omitempty"`
}

// FieldSpec is one source lookup: a primary path plus ordered fallbacks.
type FieldSpec struct {
	Path      string   `yaml:"path"`
	Fallbacks []string `yaml:"fallbacks,omitempty"`
}

// Empty reports whether the spec points at nothing.
func (f FieldSpec) Empty() bool {
	return f.Path == "" && len(f.Fallbacks) == 0
}

// Name layouts. Flat records carry first/last as sibling string keys; nested
// records carry one object with full/first/last parts.
const (
	NameLayoutFlat   = "flat"
	NameLayoutNested = "nested"
)

// NameSpec selects the input shape for the customer name block.
type NameSpec struct {
	Layout string `yaml:"layout"`
	// Flat layout keys.
	FirstKey string `yaml:"first_key,omitempty"`
	LastKey  string `yaml:"last_key,omitempty"`
	// Nested layout: path of the object carrying full/first/last.
	ObjectKey string `yaml:"object_key,omitempty"`
}

// Address layouts. Flat records carry street/city/state/postal as sibling
// keys; nested records carry one address object with line1/city/region/
// postalCode/country.
const (
	AddressLayoutFlat   = "flat"
	AddressLayoutNested = "nested"
)

// AddressSpec selects the input shape for the contact address. Exactly one
// layout is active per profile, chosen at configuration time.
type AddressSpec struct {
	Layout string `yaml:"layout,omitempty"`
	// Flat layout keys.
	StreetKey string `yaml:"street_key,omitempty"`
	CityKey   string `yaml:"city_key,omitempty"`
	StateKey  string `yaml:"state_key,omitempty"`
	PostalKey string `yaml:"postal_key,omitempty"`
	// Nested layout: path of the address object.
	ObjectKey string `yaml:"object_key,omitempty"`
}

// Vehicle modes. An interest vehicle is emitted whenever its container is
// present, even partially populated; a trade-in vehicle is emitted only when
// year, make and model are all present.
const (
	VehicleModeInterest = "interest"
	VehicleModeTradeIn  = "trade-in"
)

// VehicleSpec configures the prospect's vehicle block. Container is the path
// of the vehicle object (interest mode) or of the custom-fields object that
// holds the trade-in keys.
type VehicleSpec struct {
	Mode      string `yaml:"mode"`
	Container string `yaml:"container"`
	// Trade-in key names within the container. Interest containers use the
	// fixed year/make/model keys.
	YearKey  string `yaml:"year_key,omitempty"`
	MakeKey  string `yaml:"make_key,omitempty"`
	ModelKey string `yaml:"model_key,omitempty"`
}

// Comments placements.
const (
	CommentsAtCustomer = "customer"
	CommentsAtProspect = "prospect"
)

// CommentsSpec configures the combined comments block: the primary comments
// field, the optional AI-memory transcript field merged into it, and where
// the merged block lands in the output tree.
type CommentsSpec struct {
	Primary   FieldSpec `yaml:"primary,omitempty"`
	AIMemory  FieldSpec `yaml:"ai_memory,omitempty"`
	Placement string    `yaml:"placement,omitempty"`
}

// VendorSpec configures the vendor block. The vendor name passes through
// from the record when present; Provider stamps the fixed provider identity
// regardless of input.
type VendorSpec struct {
	NamePath FieldSpec `yaml:"name,omitempty"`
	Provider bool      `yaml:"provider,omitempty"`
}

// Validate checks the structural rules a profile must satisfy before it can
// drive the mapper.
func (p *Profile) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("profile name is required")
	}
	if p.ID.Empty() {
		return fmt.Errorf("profile %s: id lookup is required", p.Name)
	}
	switch p.CustomerName.Layout {
	case NameLayoutFlat:
		if p.CustomerName.FirstKey == "" || p.CustomerName.LastKey == "" {
			return fmt.Errorf("profile %s: flat name layout requires first_key and last_key", p.Name)
		}
	case NameLayoutNested:
		if p.CustomerName.ObjectKey == "" {
			return fmt.Errorf("profile %s: nested name layout requires object_key", p.Name)
		}
	default:
		return fmt.Errorf("profile %s: unsupported name layout %q", p.Name, p.CustomerName.Layout)
	}
	switch p.Address.Layout {
	case "", AddressLayoutFlat:
		// Flat is the default; key fields may be empty, which just means no
		// address is ever emitted.
	case AddressLayoutNested:
		if p.Address.ObjectKey == "" {
			return fmt.Errorf("profile %s: nested address layout requires object_key", p.Name)
		}
	default:
		return fmt.Errorf("profile %s: unsupported address layout %q", p.Name, p.Address.Layout)
	}
	if p.Vehicle != nil {
		switch p.Vehicle.Mode {
		case VehicleModeInterest:
			if p.Vehicle.Container == "" {
				return fmt.Errorf("profile %s: interest vehicle requires a container path", p.Name)
			}
		case VehicleModeTradeIn:
			if p.Vehicle.Container == "" || p.Vehicle.YearKey == "" || p.Vehicle.MakeKey == "" || p.Vehicle.ModelKey == "" {
				return fmt.Errorf("profile %s: trade-in vehicle requires container and year/make/model keys", p.Name)
			}
		default:
			return fmt.Errorf("profile %s: unsupported vehicle mode %q", p.Name, p.Vehicle.Mode)
		}
	}
	switch p.Comments.Placement {
	case "", CommentsAtCustomer, CommentsAtProspect:
	default:
		return fmt.Errorf("profile %s: unsupported comments placement %q", p.Name, p.Comments.Placement)
	}
	return nil
}

// Load reads and validates a single profile from a YAML file.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile file %s: %w", path, err)
	}
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse profile file %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid profile in %s: %w", path, err)
	}
	return &p, nil
}

// LoadDir reads every *.yaml / *.yml profile in a directory, keyed by
// profile name.
func LoadDir(dir string) (map[string]*Profile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile directory %s: %w", dir, err)
	}
	profiles := make(map[string]*Profile)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		p, err := Load(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		if _, exists := profiles[p.Name]; exists {
			return nil, fmt.Errorf("duplicate profile name %q in %s", p.Name, dir)
		}
		profiles[p.Name] = p
	}
	return profiles, nil
}

// Builtin returns one of the shipped profile variants by name, so the relay
// runs without profile files on disk. The same four variants live under
// profiles/ for deployments that want to tune them.
func Builtin(name string) (*Profile, error) {
	for _, p := range Builtins() {
		if p.Name == name {
			return p, nil
		}
	}
	return nil, fmt.Errorf("unknown builtin profile %q", name)
}

// Builtins returns the closed set of shipped profiles.
func Builtins() []*Profile {
	return []*Profile{ghlV1(), ghlV2(), webhookV1(), webhookV2()}
}

// ghl-v1 matches the original GoHighLevel contacts pull: flat names, flat
// address keys, an interest vehicle and prospect-level notes.
func ghlV1() *Profile {
	return &Profile{
		Name:         "ghl-v1",
		ID:           FieldSpec{Path: "id"},
		CustomerName: NameSpec{Layout: NameLayoutFlat, FirstKey: "firstName", LastKey: "lastName"},
		Phone:        FieldSpec{Path: "phone"},
		Email:        FieldSpec{Path: "email"},
		Address: AddressSpec{
			Layout:    AddressLayoutFlat,
			StreetKey: "address1",
			CityKey:   "city",
			StateKey:  "state",
			PostalKey: "postalCode",
		},
		Vehicle:    &VehicleSpec{Mode: VehicleModeInterest, Container: "vehicleOfInterest"},
		Comments:   CommentsSpec{Primary: FieldSpec{Path: "note"}, Placement: CommentsAtProspect},
		Tags:       "tags",
		LeadSource: FieldSpec{Path: "source"},
	}
}

// ghl-v2 handles the later contact shape: nested name and address objects,
// trade-in vehicle data under customFields, AI-memory transcripts merged
// into customer-level comments, and the vendor/provider block.
func ghlV2() *Profile {
	return &Profile{
		Name:         "ghl-v2",
		ID:           FieldSpec{Path: "id", Fallbacks: []string{"contactId"}},
		SourceTag:    "ghl-adf-exporter",
		RequestDate:  FieldSpec{Path: "dateAdded"},
		CustomerName: NameSpec{Layout: NameLayoutNested, ObjectKey: "contactName"},
		Phone:        FieldSpec{Path: "phone", Fallbacks: []string{"customFields.phone"}},
		Email:        FieldSpec{Path: "email", Fallbacks: []string{"customFields.email"}},
		Address:      AddressSpec{Layout: AddressLayoutNested, ObjectKey: "address"},
		Vehicle: &VehicleSpec{
			Mode:      VehicleModeTradeIn,
			Container: "customFields",
			YearKey:   "tradeInYear",
			MakeKey:   "tradeInMake",
			ModelKey:  "tradeInModel",
		},
		Comments: CommentsSpec{
			Primary:   FieldSpec{Path: "notes", Fallbacks: []string{"note"}},
			AIMemory:  FieldSpec{Path: "aiMemory", Fallbacks: []string{"customFields.aiMemory"}},
			Placement: CommentsAtCustomer,
		},
		Vendor:     VendorSpec{NamePath: FieldSpec{Path: "companyName"}, Provider: true},
		Tags:       "tags",
		LeadSource: FieldSpec{Path: "source"},
	}
}

// webhook-v1 maps the first inbound webhook payload shape: snake_case flat
// keys, an interest vehicle, AI memory merged into prospect-level comments.
func webhookV1() *Profile {
	return &Profile{
		Name:         "webhook-v1",
		ID:           FieldSpec{Path: "id", Fallbacks: []string{"contact_id"}},
		CustomerName: NameSpec{Layout: NameLayoutFlat, FirstKey: "first_name", LastKey: "last_name"},
		Phone:        FieldSpec{Path: "phone"},
		Email:        FieldSpec{Path: "email"},
		Address: AddressSpec{
			Layout:    AddressLayoutFlat,
			StreetKey: "address1",
			CityKey:   "city",
			StateKey:  "state",
			PostalKey: "postal_code",
		},
		Vehicle: &VehicleSpec{Mode: VehicleModeInterest, Container: "vehicle_of_interest"},
		Comments: CommentsSpec{
			Primary:   FieldSpec{Path: "notes", Fallbacks: []string{"note"}},
			AIMemory:  FieldSpec{Path: "ai_memory"},
			Placement: CommentsAtProspect,
		},
		Vendor:     VendorSpec{NamePath: FieldSpec{Path: "company"}, Provider: true},
		Tags:       "tags",
		LeadSource: FieldSpec{Path: "source"},
	}
}

// webhook-v2 maps the later webhook payload shape and is the one profile
// that runs the duplicate gate: repeated deliveries of the same lead id are
// rejected for the process lifetime.
func webhookV2() *Profile {
	return &Profile{
		Name:         "webhook-v2",
		ID:           FieldSpec{Path: "id", Fallbacks: []string{"contactId"}},
		SourceTag:    "ghl-adf-exporter",
		RequestDate:  FieldSpec{Path: "dateAdded"},
		CustomerName: NameSpec{Layout: NameLayoutNested, ObjectKey: "name"},
		Phone:        FieldSpec{Path: "phone"},
		Email:        FieldSpec{Path: "email"},
		Address:      AddressSpec{Layout: AddressLayoutNested, ObjectKey: "address"},
		Vehicle: &VehicleSpec{
			Mode:      VehicleModeTradeIn,
			Container: "customFields",
			YearKey:   "tradeInYear",
			MakeKey:   "tradeInMake",
			ModelKey:  "tradeInModel",
		},
		Comments: CommentsSpec{
			Primary:   FieldSpec{Path: "notes", Fallbacks: []string{"note"}},
			AIMemory:  FieldSpec{Path: "aiMemory"},
			Placement: CommentsAtCustomer,
		},
		Vendor:     VendorSpec{NamePath: FieldSpec{Path: "companyName"}, Provider: true},
		Tags:       "tags",
		LeadSource: FieldSpec{Path: "source"},
		Dedup:      true,
	}
}
