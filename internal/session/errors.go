package session

const (
	MessageLoginFailed        = "login failed"
	MessageRegistrationFailed = "registration failed"
)

// AuthError is a failed login or registration. Message is safe to show
// to the user.
type AuthError struct {
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	return e.Message
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

func newAuthError(message string, err error) *AuthError {
	return &AuthError{Message: message, Err: err}
}
