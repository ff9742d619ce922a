package dynamo

// DynamoDB attribute names used in update expressions.
// Using constants prevents silent runtime bugs caused by key typos.
const (
	fieldEmail                 = "email"
	fieldPasswordHash          = "password_hash"
	fieldIsVerified            = "is_verified"
	fieldVerificationCode      = "verification_code"
	fieldVerificationExpiresAt = "verification_expires_at"
	fieldResetToken            = "reset_token"
	fieldResetExpiresAt        = "reset_expires_at"
	fieldLastLoginAt           = "last_login_at"
	fieldUpdatedAt             = "updated_at"
)
