package types

import "time"

// DefaultImageURL is assigned at signup when no profile image is given.
const DefaultImageURL = "/static/images/default-pic.png"

// DefaultHeaderImageURL is assigned at signup for the profile header.
const DefaultHeaderImageURL = "/static/images/warbler-hero.jpg"

// User represents an account in the system.
type User struct {
	// ID is the unique identifier of the user.
	ID int `json:"id" db:"id"`

	// Username is the unique login name chosen by the user.
	Username string `json:"username" db:"username"`

	// Email is the user's unique email address.
	Email string `json:"email" db:"email"`

	// PasswordHash stores the hashed representation of the user's password.
	// This field is never exposed in API responses and never holds plaintext.
	PasswordHash string `json:"-" db:"password_hash"`

	// ImageURL points at the user's profile image.
	ImageURL string `json:"image_url" db:"image_url"`

	// HeaderImageURL points at the user's profile header image.
	HeaderImageURL string `json:"header_image_url" db:"header_image_url"`

	// Bio is free-text profile copy.
	Bio string `json:"bio" db:"bio"`

	// Location is a free-text location string.
	Location string `json:"location" db:"location"`

	// CreatedAt is the timestamp when the account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
