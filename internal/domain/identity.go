package domain

import "errors"

// Identity addresses a cart: an authenticated user id, an opaque guest token,
// or both when an authenticated request still carries a leftover guest cookie.
// Guest tokens are assigned by external middleware, never generated here.
type Identity struct {
	UserID     *int64
	GuestToken *string
}

func UserIdentity(userID int64) Identity {
	return Identity{UserID: &userID}
}

func GuestIdentity(token string) Identity {
	return Identity{GuestToken: &token}
}

func (id Identity) HasUser() bool {
	return id.UserID != nil
}

func (id Identity) HasGuest() bool {
	return id.GuestToken != nil && *id.GuestToken != ""
}

func (id Identity) Validate() error {
	if !id.HasUser() && !id.HasGuest() {
		return errors.New("either userID or guestToken must be provided")
	}
	return nil
}
