package service

import "github.com/twonumberfortyfives/e-commerce-shop/internal/apperr"

var ErrInternal = apperr.New(apperr.KindInternal, "internal_error", "Internal server error")

// Sessions
var (
	ErrInvalidCredentials  = apperr.New(apperr.KindAuth, "invalid_credentials", "Invalid username or password")
	ErrEmailNotVerified    = apperr.New(apperr.KindForbidden, "email_not_verified", "Please verify your email before logging in")
	ErrMissingRefreshToken = apperr.New(apperr.KindAuth, "missing_refresh_token", "No refresh token provided")
	ErrRefreshTokenExpired = apperr.New(apperr.KindAuth, "refresh_token_expired", "Refresh token expired. Please log in again")
	ErrInvalidRefreshToken = apperr.New(apperr.KindAuth, "invalid_refresh_token", "Refresh token invalid")
	ErrMissingAccessToken  = apperr.New(apperr.KindAuth, "missing_access_token", "No access token provided")
	ErrAccessTokenExpired  = apperr.New(apperr.KindAuth, "access_token_expired", "Access token expired")
	ErrInvalidAccessToken  = apperr.New(apperr.KindAuth, "invalid_access_token", "Access token invalid")
	ErrLogoutFailed        = apperr.New(apperr.KindAuth, "logout_failed", "Failed to log out, no valid session")
)

// Registration and verification
var (
	ErrPasswordMismatch         = apperr.New(apperr.KindValidation, "password_mismatch", "Passwords do not match")
	ErrInvalidUsername          = apperr.New(apperr.KindValidation, "invalid_username", "Username must be 3-50 characters of letters, digits or underscores")
	ErrInvalidPassword          = apperr.New(apperr.KindValidation, "invalid_password", "Password must be 8-128 characters long")
	ErrInvalidEmail             = apperr.New(apperr.KindValidation, "invalid_email", "Invalid email address provided")
	ErrDuplicateEmail           = apperr.New(apperr.KindConflict, "duplicate_email", "Email already registered")
	ErrDuplicateUsername        = apperr.New(apperr.KindConflict, "duplicate_username", "Username already registered")
	ErrDuplicateAccount         = apperr.New(apperr.KindConflict, "duplicate_account", "Username or email already registered")
	ErrEmailDeliveryFailed      = apperr.New(apperr.KindDependency, "email_delivery_failed", "Failed to send the verification email")
	ErrRegistrationFailed       = apperr.New(apperr.KindInternal, "registration_failed", "Failed to register user")
	ErrVerificationExpired      = apperr.New(apperr.KindAuth, "verification_expired", "Verification link expired")
	ErrInvalidVerificationToken = apperr.New(apperr.KindAuth, "invalid_verification_token", "Verification link invalid")
	ErrAlreadyVerified          = apperr.New(apperr.KindConflict, "already_verified", "Email already verified")
	ErrResendTooSoon            = apperr.New(apperr.KindRateLimited, "resend_too_soon", "Please wait a minute before requesting another verification email")
)

// Profiles
var (
	ErrUserNotFound         = apperr.New(apperr.KindNotFound, "user_not_found", "User not found")
	ErrInvalidBio           = apperr.New(apperr.KindValidation, "invalid_bio", "Bio can't be longer than 500 characters")
	ErrUnsupportedImageType = apperr.New(apperr.KindValidation, "unsupported_image_type", "Only JPEG and PNG images are supported")
	ErrStorageFailed        = apperr.New(apperr.KindDependency, "storage_failed", "Failed to store the uploaded file")
)
