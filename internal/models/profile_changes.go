package models

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Keys recognized in a profile update payload.
const (
	FieldName        = "name"
	FieldPhone       = "phone"
	FieldInstitution = "institution"
	FieldStatus      = "status"
	FieldAvatarURL   = "avatarUrl"
	FieldBio         = "bio"
	FieldAddress     = "address"
	FieldCity        = "city"
	FieldState       = "state"
	FieldCountry     = "country"
	FieldPostalCode  = "postalCode"
)

// ProfileChanges is the closed set of fields a user may ask to change.
// A nil field is absent and leaves the stored value untouched.
type ProfileChanges struct {
	// User-scoped
	Name        *string     `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Phone       *string     `json:"phone,omitempty" validate:"omitempty,max=32"`
	Institution *string     `json:"institution,omitempty" validate:"omitempty,max=255"`
	Status      *UserStatus `json:"status,omitempty" validate:"omitempty,oneof=pending active inactive suspended rejected"`

	// Profile-scoped
	AvatarURL  *string `json:"avatarUrl,omitempty" validate:"omitempty,url,max=2048"`
	Bio        *string `json:"bio,omitempty" validate:"omitempty,max=2000"`
	Address    *string `json:"address,omitempty" validate:"omitempty,max=255"`
	City       *string `json:"city,omitempty" validate:"omitempty,max=100"`
	State      *string `json:"state,omitempty" validate:"omitempty,max=100"`
	Country    *string `json:"country,omitempty" validate:"omitempty,max=100"`
	PostalCode *string `json:"postalCode,omitempty" validate:"omitempty,max=20"`
}

var changesValidator = validator.New()

// ParseProfileChanges builds ProfileChanges from a decoded JSON object.
// Unrecognized keys are dropped and returned sorted so callers can report them.
// JSON null counts as absent. A recognized key holding a non-string value is invalid input.
func ParseProfileChanges(raw map[string]any) (ProfileChanges, []string, error) {
	var changes ProfileChanges
	var ignored []string

	for key, value := range raw {
		if value == nil {
			continue
		}

		target := changes.field(key)
		if target == nil && key != FieldStatus {
			ignored = append(ignored, key)
			continue
		}

		s, ok := value.(string)
		if !ok {
			return ProfileChanges{}, nil, fmt.Errorf("field %q must be a string: %w", key, ErrInvalidInput)
		}

		if key == FieldStatus {
			status, err := ParseUserStatus(s)
			if err != nil {
				return ProfileChanges{}, nil, err
			}
			changes.Status = &status
			continue
		}

		v := strings.TrimSpace(s)
		*target = &v
	}

	sort.Strings(ignored)
	return changes, ignored, nil
}

// field returns the slot for a string-valued key, or nil when the key is not a string field.
func (c *ProfileChanges) field(key string) **string {
	switch key {
	case FieldName:
		return &c.Name
	case FieldPhone:
		return &c.Phone
	case FieldInstitution:
		return &c.Institution
	case FieldAvatarURL:
		return &c.AvatarURL
	case FieldBio:
		return &c.Bio
	case FieldAddress:
		return &c.Address
	case FieldCity:
		return &c.City
	case FieldState:
		return &c.State
	case FieldCountry:
		return &c.Country
	case FieldPostalCode:
		return &c.PostalCode
	}
	return nil
}

// Validate checks field constraints and reports the first offending key.
func (c ProfileChanges) Validate() error {
	if err := changesValidator.Struct(c); err != nil {
		if ve, ok := err.(validator.ValidationErrors); ok && len(ve) > 0 {
			fe := ve[0]
			return fmt.Errorf("field %q failed %s validation: %w", jsonKey(fe.StructField()), fe.Tag(), ErrInvalidInput)
		}
		return fmt.Errorf("%v: %w", err, ErrInvalidInput)
	}
	return nil
}

func jsonKey(structField string) string {
	switch structField {
	case "AvatarURL":
		return FieldAvatarURL
	case "PostalCode":
		return FieldPostalCode
	}
	return strings.ToLower(structField)
}

// IsEmpty reports whether no field is set.
func (c ProfileChanges) IsEmpty() bool {
	return !c.HasUserFields() && !c.HasProfileFields()
}

// HasUserFields reports whether any User-scoped field is set.
func (c ProfileChanges) HasUserFields() bool {
	return c.Name != nil || c.Phone != nil || c.Institution != nil || c.Status != nil
}

// HasProfileFields reports whether any UserProfile-scoped field is set.
func (c ProfileChanges) HasProfileFields() bool {
	return c.AvatarURL != nil || c.Bio != nil || c.Address != nil ||
		c.City != nil || c.State != nil || c.Country != nil || c.PostalCode != nil
}

// Keys returns the names of the fields that are set, sorted.
func (c ProfileChanges) Keys() []string {
	set := map[string]bool{
		FieldName:        c.Name != nil,
		FieldPhone:       c.Phone != nil,
		FieldInstitution: c.Institution != nil,
		FieldStatus:      c.Status != nil,
		FieldAvatarURL:   c.AvatarURL != nil,
		FieldBio:         c.Bio != nil,
		FieldAddress:     c.Address != nil,
		FieldCity:        c.City != nil,
		FieldState:       c.State != nil,
		FieldCountry:     c.Country != nil,
		FieldPostalCode:  c.PostalCode != nil,
	}

	keys := make([]string, 0, len(set))
	for k, ok := range set {
		if ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// WithoutStatus returns a copy with the status change removed.
func (c ProfileChanges) WithoutStatus() ProfileChanges {
	c.Status = nil
	return c
}

// ApplyToUser merges the User-scoped fields onto u.
func (c ProfileChanges) ApplyToUser(u *User) {
	if c.Name != nil {
		u.Name = *c.Name
	}
	if c.Phone != nil {
		u.Phone = *c.Phone
	}
	if c.Institution != nil {
		u.Institution = *c.Institution
	}
	if c.Status != nil {
		u.Status = *c.Status
	}
}

// ApplyToProfile merges the UserProfile-scoped fields onto p.
func (c ProfileChanges) ApplyToProfile(p *UserProfile) {
	if c.AvatarURL != nil {
		p.AvatarURL = *c.AvatarURL
	}
	if c.Bio != nil {
		p.Bio = *c.Bio
	}
	if c.Address != nil {
		p.Address = *c.Address
	}
	if c.City != nil {
		p.City = *c.City
	}
	if c.State != nil {
		p.State = *c.State
	}
	if c.Country != nil {
		p.Country = *c.Country
	}
	if c.PostalCode != nil {
		p.PostalCode = *c.PostalCode
	}
}
