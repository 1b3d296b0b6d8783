package mpesa

import "fmt"

// ConfigError means required provider credentials or settings are absent.
// Operator-actionable; surfaces as a 500.
type ConfigError struct {
	Missing string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("mpesa not configured: %s must be set", e.Missing)
}

// AuthError means the provider rejected our consumer key/secret (400-class).
type AuthError struct {
	Status  int
	Message string
}

func (e *AuthError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "invalid M-Pesa credentials. Please verify MPESA_CONSUMER_KEY and MPESA_CONSUMER_SECRET"
}

// RejectedError means the provider refused an STK push request (non-2xx).
type RejectedError struct {
	Status  int
	Message string
}

func (e *RejectedError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "failed to initiate STK push"
}

// UnavailableError wraps network failures and 5xx responses from the provider.
type UnavailableError struct {
	Err error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("mpesa unavailable: %v", e.Err)
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

// ValidationError means caller input could not be sent to the gateway.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
