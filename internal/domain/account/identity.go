// Package account holds shopper and administrator identity data.
package account

// Identity is the profile data cached alongside a session token.
type Identity struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// IsZero reports whether no identity information is known.
func (i Identity) IsZero() bool {
	return i == Identity{}
}

// DisplayName is what the navigation bar shows: the name, else the email.
func (i Identity) DisplayName() string {
	if i.Name != "" {
		return i.Name
	}
	return i.Email
}

// Credentials are the login form fields.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Registration is the shopper sign-up form. Name is optional.
type Registration struct {
	Name     string `json:"name,omitempty" validate:"omitempty,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// AdminRegistration is the administrator sign-up form. SecretKey is the
// shared registration key checked by the backend.
type AdminRegistration struct {
	Name            string `json:"name" validate:"required,max=100"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
	SecretKey       string `json:"secretKey" validate:"required"`
}

// ProfileUpdate is the editable part of a shopper profile.
type ProfileUpdate struct {
	Name  string `json:"name" validate:"required,max=100"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone,omitempty" validate:"omitempty,max=30"`
}

// PasswordChange is the change-password form.
type PasswordChange struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}
