package service

import "bitwise74/finance-api/internal/apperr"

var (
	ErrInvalidCredentials = apperr.New(apperr.Unauthenticated, "Invalid username or password")
	ErrInvalidToken       = apperr.New(apperr.Unauthenticated, "Invalid or expired token")
	ErrUsernameTaken      = apperr.New(apperr.Conflict, "Username is already taken")
	ErrEmailTaken         = apperr.New(apperr.Conflict, "Email is already registered")
	ErrInvalidProvider    = apperr.New(apperr.Validation, "Invalid provider")
	ErrProviderRejected   = apperr.New(apperr.Unauthenticated, "Identity provider rejected the token")
	ErrProviderFailure    = apperr.New(apperr.Upstream, "Identity provider is unavailable")
	ErrEmailUnverified    = apperr.New(apperr.Unauthenticated, "Identity provider has not verified this email")

	ErrMalformedCode           = apperr.New(apperr.Validation, "Code must be exactly 6 digits")
	ErrTwoFactorNotProvisioned = apperr.New(apperr.Validation, "Two-factor authentication is not set up for this account")
	ErrNoCodeRequested         = apperr.New(apperr.InvalidCode, "No code was requested for this account")
	ErrCodeExpired             = apperr.New(apperr.ExpiredCode, "Code has expired")
	ErrCodeMismatch            = apperr.New(apperr.CodeMismatch, "Invalid code")
	ErrNoEmail                 = apperr.New(apperr.Validation, "Account has no email address")

	ErrEmailNotFound = apperr.New(apperr.NotFound, "No account with that email")
	ErrInvalidCode   = apperr.New(apperr.InvalidCode, "Invalid reset code")
	ErrEmailMismatch = apperr.New(apperr.CodeMismatch, "Reset code does not belong to this email")

	ErrUserNotFound   = apperr.New(apperr.NotFound, "User not found")
	ErrRecordNotFound = apperr.New(apperr.NotFound, "Record not found")
	ErrNotOwner       = apperr.New(apperr.Forbidden, "You do not own this record")
	ErrRangeInverted  = apperr.Invalid("Invalid date range", map[string]string{"startDate": "must not be after endDate"})
	ErrRangeOneEnded  = apperr.Invalid("Invalid date range", map[string]string{"endDate": "startDate and endDate must be given together"})
)
