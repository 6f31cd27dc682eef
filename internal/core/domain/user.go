package domain

import (
	"errors"
	"time"
)

// UserRole distinguishes the three account types.
type UserRole string

const (
	RoleLandlord UserRole = "landlord"
	RoleTenant   UserRole = "tenant"
	RoleAgent    UserRole = "agent"
)

// Valid reports whether r is one of the known roles.
func (r UserRole) Valid() bool {
	return r == RoleLandlord || r == RoleTenant || r == RoleAgent
}

// CanOwnListings reports whether accounts with this role may create and
// manage properties.
func (r UserRole) CanOwnListings() bool {
	return r == RoleLandlord || r == RoleAgent
}

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user with this phone number already exists")
	ErrEmailInUse         = errors.New("email already in use")
	ErrInvalidPhoneNumber = errors.New("invalid Kenyan phone number")
	ErrInvalidRole        = errors.New("invalid user type")
	ErrAccountDeactivated = errors.New("account is deactivated")
)

// UnlockGrant records that a tenant paid to see one listing's contact details.
type UnlockGrant struct {
	PropertyID    string    `json:"propertyId"`
	UnlockedAt    time.Time `json:"unlockedAt"`
	TransactionID string    `json:"transactionId"`
}

// User is a phone-number-keyed account. Phone numbers are stored in
// canonical local format (0712345678) and are immutable after registration.
type User struct {
	ID          string   `json:"id"`
	FullName    string   `json:"fullName"`
	PhoneNumber string   `json:"phoneNumber"`
	Email       string   `json:"email,omitempty"`
	Role        UserRole `json:"userType"`
	IDNumber    string   `json:"-"`
	IsVerified  bool     `json:"isVerified"`
	IsActive    bool     `json:"isActive"`

	// Properties lists the IDs of active listings owned by this user
	// (landlord/agent only).
	Properties []string `json:"properties,omitempty"`

	// Favorites lists property IDs the user (tenant) bookmarked.
	Favorites []string `json:"favorites,omitempty"`

	// UnlockedProperties records every completed contact unlock.
	UnlockedProperties []UnlockGrant `json:"unlockedProperties,omitempty"`

	LastLogin *time.Time `json:"lastLogin,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Unlocked returns the grant for propertyID, or nil when the user never
// completed an unlock for it.
func (u *User) Unlocked(propertyID string) *UnlockGrant {
	for i := range u.UnlockedProperties {
		if u.UnlockedProperties[i].PropertyID == propertyID {
			return &u.UnlockedProperties[i]
		}
	}
	return nil
}
