package domain

import "strconv"

// DateLayout is the storage and wire format of signup dates.
const DateLayout = "2006-01-02"

// Address is owned by exactly one Constituent and has no identity of its own.
// ZipCode is text so leading zeros survive.
type Address struct {
	HouseNumber     int     `json:"house_number"`
	Street          string  `json:"street"`
	UnitOrApartment *string `json:"unit_or_apartment"`
	City            string  `json:"city"`
	State           string  `json:"state"`
	ZipCode         string  `json:"zip_code"`
	County          string  `json:"county"`
}

// Constituent is a person tracked by the service. Email is the logical key.
type Constituent struct {
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Email     string  `json:"email"`
	Address   Address `json:"address"`
	SignedUp  string  `json:"signed_up"`
}

// Storage column names, in schema order.
const (
	ColFirstName       = "first_name"
	ColLastName        = "last_name"
	ColEmail           = "email"
	ColHouseNumber     = "house_number"
	ColStreet          = "street"
	ColUnitOrApartment = "unit_or_apartment"
	ColCity            = "city"
	ColState           = "state"
	ColZipCode         = "zip_code"
	ColCounty          = "county"
	ColCreatedAt       = "created_at"
)

// Columns lists the eleven flat storage fields in schema order.
var Columns = []string{
	ColFirstName, ColLastName, ColEmail,
	ColHouseNumber, ColStreet, ColUnitOrApartment,
	ColCity, ColState, ColZipCode, ColCounty,
	ColCreatedAt,
}

// Row is the flat storage shape of a Constituent. SignedUp is stored as
// created_at; every other field keeps its name.
type Row struct {
	FirstName       string
	LastName        string
	Email           string
	HouseNumber     int
	Street          string
	UnitOrApartment *string
	City            string
	State           string
	ZipCode         string
	County          string
	CreatedAt       string
}

// Flatten lifts the address fields to the top level and renames signed_up.
func (c Constituent) Flatten() Row {
	return Row{
		FirstName:       c.FirstName,
		LastName:        c.LastName,
		Email:           c.Email,
		HouseNumber:     c.Address.HouseNumber,
		Street:          c.Address.Street,
		UnitOrApartment: copyString(c.Address.UnitOrApartment),
		City:            c.Address.City,
		State:           c.Address.State,
		ZipCode:         c.Address.ZipCode,
		County:          c.Address.County,
		CreatedAt:       c.SignedUp,
	}
}

// FromRow rebuilds the nested Constituent from a flat row. It is the exact
// inverse of Flatten.
func FromRow(r Row) Constituent {
	return Constituent{
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Email:     r.Email,
		Address: Address{
			HouseNumber:     r.HouseNumber,
			Street:          r.Street,
			UnitOrApartment: copyString(r.UnitOrApartment),
			City:            r.City,
			State:           r.State,
			ZipCode:         r.ZipCode,
			County:          r.County,
		},
		SignedUp: r.CreatedAt,
	}
}

// Map returns the row keyed by column name. A nil unit is kept as a nil
// value so it binds as SQL NULL.
func (r Row) Map() map[string]any {
	var unit any
	if r.UnitOrApartment != nil {
		unit = *r.UnitOrApartment
	}
	return map[string]any{
		ColFirstName:       r.FirstName,
		ColLastName:        r.LastName,
		ColEmail:           r.Email,
		ColHouseNumber:     r.HouseNumber,
		ColStreet:          r.Street,
		ColUnitOrApartment: unit,
		ColCity:            r.City,
		ColState:           r.State,
		ColZipCode:         r.ZipCode,
		ColCounty:          r.County,
		ColCreatedAt:       r.CreatedAt,
	}
}

// Strings renders the row in Columns order for CSV output. A missing unit
// becomes an empty cell.
func (r Row) Strings() []string {
	unit := ""
	if r.UnitOrApartment != nil {
		unit = *r.UnitOrApartment
	}
	return []string{
		r.FirstName, r.LastName, r.Email,
		strconv.Itoa(r.HouseNumber), r.Street, unit,
		r.City, r.State, r.ZipCode, r.County,
		r.CreatedAt,
	}
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
