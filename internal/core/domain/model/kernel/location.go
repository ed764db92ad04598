package kernel

import (
	"errors"
	"fmt"
	"math"

	"restaurant/internal/pkg/errs"
	"restaurant/internal/pkg/guard"
)

const (
	// MinLatitude is the southernmost valid latitude in degrees.
	MinLatitude = -90.0
	// MaxLatitude is the northernmost valid latitude in degrees.
	MaxLatitude = 90.0
	// MinLongitude is the westernmost valid longitude in degrees.
	MinLongitude = -180.0
	// MaxLongitude is the easternmost valid longitude in degrees.
	MaxLongitude = 180.0
)

// ErrLocationIsNotConstructed is returned when attempting to use an improperly initialized Location.
var ErrLocationIsNotConstructed = errs.NewValueIsRequiredError("location must be created via NewLocation")

// Location is the geographic delivery point picked by the customer.
// Location is an immutable value object; the zero value is invalid.
//
// Example:
//
//	loc, err := kernel.NewLocation(14.6928, -17.4467)
//	if err != nil {
//	    // Handle validation error
//	}
//	fmt.Println(loc) // Location(14.692800,-17.446700)
type Location struct { //nolint:recvcheck //using for validation
	lat   float64
	lng   float64
	guard guard.ConstructorGuard
}

// NewLocation creates a Location from latitude and longitude in degrees.
//
// Returns:
//   - Location: A valid location instance
//   - error: ValueIsInvalidError for NaN/Inf, ValueIsOutOfRangeError for out-of-bounds coordinates
func NewLocation(lat, lng float64) (Location, error) {
	loc := Location{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(loc.setLatitude(lat), loc.setLongitude(lng)); err != nil {
		return Location{}, err
	}

	return loc, nil
}

// Validate returns ErrLocationIsNotConstructed for a zero value.
func (l Location) Validate() error {
	return l.guard.Validate(ErrLocationIsNotConstructed)
}

// Latitude returns the latitude in degrees.
func (l Location) Latitude() float64 {
	return l.lat
}

// Longitude returns the longitude in degrees.
func (l Location) Longitude() float64 {
	return l.lng
}

func (l Location) String() string {
	return fmt.Sprintf("Location(%f,%f)", l.lat, l.lng)
}

// IsEqual compares two locations. Both must be constructed.
func (l Location) IsEqual(other Location) (bool, error) {
	if err := errors.Join(l.Validate(), other.Validate()); err != nil {
		return false, err
	}

	return l == other, nil
}

func (l *Location) setLatitude(lat float64) error {
	if math.IsNaN(lat) || math.IsInf(lat, 0) {
		return errs.NewValueIsInvalidErrorWithCause("latitude", fmt.Errorf("%v is not a finite number", lat))
	}
	if lat < MinLatitude || lat > MaxLatitude {
		return errs.NewValueIsOutOfRangeError("latitude", lat, MinLatitude, MaxLatitude)
	}

	l.lat = lat
	return nil
}

func (l *Location) setLongitude(lng float64) error {
	if math.IsNaN(lng) || math.IsInf(lng, 0) {
		return errs.NewValueIsInvalidErrorWithCause("longitude", fmt.Errorf("%v is not a finite number", lng))
	}
	if lng < MinLongitude || lng > MaxLongitude {
		return errs.NewValueIsOutOfRangeError("longitude", lng, MinLongitude, MaxLongitude)
	}

	l.lng = lng
	return nil
}
