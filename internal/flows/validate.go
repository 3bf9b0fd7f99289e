package flows

import "regexp"

// Field keys mirrored by the root package constants.
const (
	FieldName            = "name"
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldConfirmPassword = "confirmPassword"
)

const (
	msgEmailRequired    = "Please enter your email"
	msgEmailInvalid     = "Invalid email address"
	msgPasswordRequired = "Please enter your password"
	msgPasswordTooShort = "Password must be at least 8 characters long"
	msgNameRequired     = "Please enter your name"
	msgConfirmRequired  = "Please confirm your password"
	msgConfirmMismatch  = "Passwords don't match."
)

const minPasswordLength = 8
const minNameLength = 3

// Matches the usual address shape: one @, non-empty local part, a dot
// in the domain. Intentionally permissive; the provider performs its
// own authoritative check (AuthInvalidEmail).
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Credential is the flow-local input shape; the root package converts
// its public Credential into this before calling Validate.
type Credential struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
}

// Validate applies the field rules for one credential and returns a map
// from field key to at most one message. All independent violations are
// collected; only the confirm-password equality check depends on
// another field, and its violation is reported on confirmPassword,
// never on password. Deterministic and side-effect free.
func Validate(c Credential, signUp bool) map[string]string {
	errs := make(map[string]string)

	switch {
	case c.Email == "":
		errs[FieldEmail] = msgEmailRequired
	case !emailPattern.MatchString(c.Email):
		errs[FieldEmail] = msgEmailInvalid
	}

	switch {
	case c.Password == "":
		errs[FieldPassword] = msgPasswordRequired
	case len(c.Password) < minPasswordLength:
		errs[FieldPassword] = msgPasswordTooShort
	}

	if !signUp {
		return errs
	}

	if len(c.Name) < minNameLength {
		errs[FieldName] = msgNameRequired
	}

	switch {
	case c.ConfirmPassword == "":
		errs[FieldConfirmPassword] = msgConfirmRequired
	case c.ConfirmPassword != c.Password:
		errs[FieldConfirmPassword] = msgConfirmMismatch
	}

	return errs
}
