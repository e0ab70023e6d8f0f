package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func sampleConstituent(unit *string) Constituent {
	return Constituent{
		FirstName: "Helly",
		LastName:  "Rhoades",
		Email:     "heyrhoades5@gmail.com",
		Address: Address{
			HouseNumber:     90,
			Street:          "Lumon St.",
			UnitOrApartment: unit,
			City:            "Somewhere",
			State:           "PA",
			ZipCode:         "18195",
			County:          "Lehigh",
		},
		SignedUp: "2025-04-01",
	}
}

func TestFlattenRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		unit *string
	}{
		{"with unit", strPtr("B")},
		{"without unit", nil},
		{"empty unit", strPtr("")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := sampleConstituent(tt.unit)
			assert.Equal(t, original, FromRow(original.Flatten()))
		})
	}
}

func TestFlattenRenamesSignedUp(t *testing.T) {
	row := sampleConstituent(nil).Flatten()
	assert.Equal(t, "2025-04-01", row.CreatedAt)

	m := row.Map()
	assert.Len(t, m, 11)
	assert.Equal(t, "2025-04-01", m[ColCreatedAt])
	assert.NotContains(t, m, "signed_up")
	assert.NotContains(t, m, "address")
	for _, col := range Columns {
		assert.Contains(t, m, col)
	}
}

func TestRowMapKeepsNilUnitAsNil(t *testing.T) {
	m := sampleConstituent(nil).Flatten().Map()
	assert.Nil(t, m[ColUnitOrApartment])

	m = sampleConstituent(strPtr("B")).Flatten().Map()
	assert.Equal(t, "B", m[ColUnitOrApartment])
}

func TestRowStrings(t *testing.T) {
	got := sampleConstituent(nil).Flatten().Strings()
	assert.Equal(t, []string{
		"Helly", "Rhoades", "heyrhoades5@gmail.com",
		"90", "Lumon St.", "",
		"Somewhere", "PA", "18195", "Lehigh",
		"2025-04-01",
	}, got)
}

func TestFlattenDoesNotAliasUnit(t *testing.T) {
	c := sampleConstituent(strPtr("B"))
	row := c.Flatten()
	*row.UnitOrApartment = "C"
	assert.Equal(t, "B", *c.Address.UnitOrApartment)
}

func validInput() ConstituentInput {
	return ConstituentInput{
		FirstName: strPtr("John"),
		LastName:  strPtr("Bob"),
		Email:     strPtr("jbob23@yahoo.com"),
		Address: &AddressInput{
			HouseNumber: intPtr(1234),
			Street:      strPtr("Place St."),
			City:        strPtr("Somewhere"),
			State:       strPtr("NJ"),
			ZipCode:     strPtr("08111"),
			County:      strPtr("Sussex"),
		},
	}
}

func TestNewConstituent(t *testing.T) {
	c, err := NewConstituent(validInput(), "2025-04-09")
	require.NoError(t, err)

	assert.Equal(t, "John", c.FirstName)
	assert.Equal(t, "jbob23@yahoo.com", c.Email)
	assert.Equal(t, 1234, c.Address.HouseNumber)
	assert.Equal(t, "08111", c.Address.ZipCode)
	assert.Nil(t, c.Address.UnitOrApartment)
	assert.Equal(t, "2025-04-09", c.SignedUp)
}

func TestNewConstituentMissingFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(in *ConstituentInput)
		field  string
	}{
		{"email", func(in *ConstituentInput) { in.Email = nil }, "email"},
		{"first name", func(in *ConstituentInput) { in.FirstName = nil }, "first_name"},
		{"address", func(in *ConstituentInput) { in.Address = nil }, "address"},
		{"street", func(in *ConstituentInput) { in.Address.Street = nil }, "address.street"},
		{"house number", func(in *ConstituentInput) { in.Address.HouseNumber = nil }, "address.house_number"},
		{"county", func(in *ConstituentInput) { in.Address.County = nil }, "address.county"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)

			_, err := NewConstituent(in, "2025-04-09")
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMissingField))

			var mf *MissingFieldError
			require.True(t, errors.As(err, &mf))
			assert.Equal(t, tt.field, mf.Field)
		})
	}
}

func TestNewConstituentPresenceOnly(t *testing.T) {
	in := validInput()
	in.FirstName = strPtr("")
	in.Address.HouseNumber = intPtr(0)

	c, err := NewConstituent(in, "2025-04-09")
	require.NoError(t, err)
	assert.Equal(t, "", c.FirstName)
	assert.Equal(t, 0, c.Address.HouseNumber)
}

func TestNewConstituentKeepsUnit(t *testing.T) {
	in := validInput()
	in.Address.UnitOrApartment = strPtr("4A")

	c, err := NewConstituent(in, "2025-04-09")
	require.NoError(t, err)
	require.NotNil(t, c.Address.UnitOrApartment)
	assert.Equal(t, "4A", *c.Address.UnitOrApartment)
}
