package dto

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// RegisterRequest represents a registration request. Entreprise fields are
// required when the chosen role is entreprise.
type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role"`

	CorporateName string `json:"corporateName"`
	RCCM          string `json:"rccm"`
	Description   string `json:"description"`
	Adresse       string `json:"adresse"`
	Phone         string `json:"phone"`
	OtherPhone    string `json:"otherPhone"`
}

// Validate checks field shapes beyond the binding layer.
func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(2, 100)),
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(6, 128)),
		validation.Field(&r.Role, validation.In("user", "client", "entreprise")),
		validation.Field(&r.CorporateName,
			validation.By(requiredForEntreprise(r.Role)),
			validation.Length(0, 200)),
		validation.Field(&r.Phone, validation.Length(0, 30)),
		validation.Field(&r.OtherPhone, validation.Length(0, 30)),
	)
}

func requiredForEntreprise(role string) validation.RuleFunc {
	return func(value interface{}) error {
		name, _ := value.(string)
		if role == "entreprise" && name == "" {
			return errors.New("corporateName is required for entreprise accounts")
		}
		return nil
	}
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Validate checks field shapes beyond the binding layer.
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

// RefreshRequest carries a refresh token when the client does not use the
// cookie transport.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// ResendActivationRequest asks for a new activation email.
type ResendActivationRequest struct {
	Email string `json:"email" binding:"required"`
}

// Validate checks field shapes beyond the binding layer.
func (r ResendActivationRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

// ChangePasswordRequest represents a password change request
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
}

// Validate checks field shapes beyond the binding layer.
func (r ChangePasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.CurrentPassword, validation.Required),
		validation.Field(&r.NewPassword, validation.Required, validation.Length(6, 128)),
	)
}

// UpdateProfileRequest updates the caller's own profile.
type UpdateProfileRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Validate checks field shapes beyond the binding layer.
func (r UpdateProfileRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Length(2, 100)),
		validation.Field(&r.Email, is.Email),
	)
}

// AdminUpdateUserRequest edits an account from the administration panel.
// Omitted fields keep their current value.
type AdminUpdateUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	IsActive *bool  `json:"isActive"`
}

// Validate checks field shapes beyond the binding layer.
func (r AdminUpdateUserRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Length(2, 100)),
		validation.Field(&r.Email, is.Email),
		validation.Field(&r.Role, validation.In("user", "client", "entreprise", "master")),
	)
}

// UpdateRoleRequest changes an account role (admin only).
type UpdateRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// Validate checks field shapes beyond the binding layer.
func (r UpdateRoleRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Role, validation.Required, validation.In("user", "client", "entreprise", "master")),
	)
}
