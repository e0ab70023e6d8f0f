package domain

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrMissingField is matched by every *MissingFieldError.
var ErrMissingField = errors.New("missing a required field")

// MissingFieldError names the first required field absent from an input.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field %q", e.Field)
}

// Is reports ErrMissingField as a match.
func (e *MissingFieldError) Is(target error) bool { return target == ErrMissingField }

// AddressInput is the nested address of an incoming request. Pointers
// distinguish an absent field from a zero value.
type AddressInput struct {
	HouseNumber     *int    `json:"house_number" validate:"required"`
	Street          *string `json:"street" validate:"required"`
	UnitOrApartment *string `json:"unit_or_apartment"`
	City            *string `json:"city" validate:"required"`
	State           *string `json:"state" validate:"required"`
	ZipCode         *string `json:"zip_code" validate:"required"`
	County          *string `json:"county" validate:"required"`
}

// ConstituentInput is the create/merge request body. signed_up is never
// accepted from callers; the service assigns it.
type ConstituentInput struct {
	FirstName *string       `json:"first_name" validate:"required"`
	LastName  *string       `json:"last_name" validate:"required"`
	Email     *string       `json:"email" validate:"required"`
	Address   *AddressInput `json:"address" validate:"required"`
}

// Only presence is checked: `required` on a pointer passes for any non-nil
// value, including "" and 0.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// NewConstituent checks that every required field is present and builds the
// nested record with the given signup date. It returns a *MissingFieldError
// naming the first absent field.
func NewConstituent(in ConstituentInput, signedUp string) (Constituent, error) {
	if err := validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return Constituent{}, &MissingFieldError{Field: fieldPath(verrs[0])}
		}
		return Constituent{}, fmt.Errorf("validate constituent: %w", err)
	}

	a := in.Address
	return Constituent{
		FirstName: *in.FirstName,
		LastName:  *in.LastName,
		Email:     *in.Email,
		Address: Address{
			HouseNumber:     *a.HouseNumber,
			Street:          *a.Street,
			UnitOrApartment: copyString(a.UnitOrApartment),
			City:            *a.City,
			State:           *a.State,
			ZipCode:         *a.ZipCode,
			County:          *a.County,
		},
		SignedUp: signedUp,
	}, nil
}

// fieldPath turns "ConstituentInput.address.street" into "address.street".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}
