package domain

import "time"

// Account is the sole persisted entity: one record per registered email.
// Verification and reset sub-state live on the record itself; a code or
// token is outstanding iff its field is non-empty, and both the secret and
// its expiry are cleared together by the conditional write that consumes
// them.
type Account struct {
	AccountID             string     `json:"id" dynamodbav:"account_id"`
	Email                 string     `json:"email" dynamodbav:"email"`
	Name                  string     `json:"name" dynamodbav:"name"`
	PasswordHash          string     `json:"-" dynamodbav:"password_hash"`
	IsVerified            bool       `json:"is_verified" dynamodbav:"is_verified"`
	VerificationCode      string     `json:"-" dynamodbav:"verification_code,omitempty"`
	VerificationExpiresAt int64      `json:"-" dynamodbav:"verification_expires_at,omitempty"` // Unix seconds
	ResetToken            string     `json:"-" dynamodbav:"reset_token,omitempty"`
	ResetExpiresAt        int64      `json:"-" dynamodbav:"reset_expires_at,omitempty"` // Unix seconds
	LastLoginAt           *time.Time `json:"last_login,omitempty" dynamodbav:"last_login_at,omitempty"`
	CreatedAt             time.Time  `json:"created" dynamodbav:"created_at"`
	UpdatedAt             time.Time  `json:"updated" dynamodbav:"updated_at"`
}

// PublicAccount is the outward projection of an Account. It structurally
// excludes the password hash and every outstanding code or token, so handlers
// cannot leak a secret by serializing the wrong struct.
type PublicAccount struct {
	AccountID   string     `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	IsVerified  bool       `json:"is_verified"`
	LastLoginAt *time.Time `json:"last_login,omitempty"`
	CreatedAt   time.Time  `json:"created"`
	UpdatedAt   time.Time  `json:"updated"`
}

// Public returns the serializable projection of the account.
func (a *Account) Public() *PublicAccount {
	if a == nil {
		return nil
	}
	return &PublicAccount{
		AccountID:   a.AccountID,
		Email:       a.Email,
		Name:        a.Name,
		IsVerified:  a.IsVerified,
		LastLoginAt: a.LastLoginAt,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

type SignupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Name     string `json:"name" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type VerifyEmailRequest struct {
	Code string `json:"code" validate:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Password string `json:"password" validate:"required,min=6,max=72"`
}
