package service

// ValidationError reports malformed or missing input. No backend call was
// issued.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func validationErr(msg string) error { return &ValidationError{Msg: msg} }

// AuthError reports a failed credential or filial check. Session state was
// not advanced.
type AuthError struct {
	Msg string
}

func (e *AuthError) Error() string { return e.Msg }

func authErr(msg string) error { return &AuthError{Msg: msg} }
