package samunu

// Provider error codes with a fixed user-facing message. The tables are
// defined once at process start and consulted read-only; codes are
// scoped to their mode, so a sign-up code falls through to the message
// or fallback when seen on sign-in.
const (
	CodeMissingEmailVerification = "AuthMissingEmailVerification"
	CodeInvalidCredentials       = "AuthInvalidCredentials"
	CodeUserBlocked              = "AuthUserBlocked"
	CodeUserAlreadyExists        = "AuthUserAlreadyExists"
	CodeInvalidEmail             = "AuthInvalidEmail"
	CodeWeakPassword             = "AuthWeakPassword"
)

const (
	signInFallbackMessage = "Invalid email or password"
	signUpFallbackMessage = "Failed to sign up. Please try again."

	// unexpectedFailureMessage covers transport failures, timeouts, and
	// anything else that never produced a provider envelope.
	unexpectedFailureMessage = "An unexpected error occurred. Please try again."

	signUpSuccessMessage = "Registration successful! Please check your email to verify your account."
)

var signInCodeMessages = map[string]string{
	CodeMissingEmailVerification: "Please verify your email before logging in",
	CodeInvalidCredentials:       "Invalid email or password",
	CodeUserBlocked:              "Your account has been blocked. Please contact support.",
}

var signUpCodeMessages = map[string]string{
	CodeUserAlreadyExists: "This email address is already registered.",
	CodeInvalidEmail:      "Please provide a valid email address.",
	CodeWeakPassword:      "Password is too weak. Please choose a stronger password.",
}

// Resolve maps a provider error to the display string for the given
// mode. Precedence: known code for the mode, then non-empty provider
// message verbatim, then the mode's generic fallback. Total: always
// returns a non-empty string.
func Resolve(mode Mode, code, message string) string {
	table := signInCodeMessages
	if mode == ModeSignUp {
		table = signUpCodeMessages
	}

	if code != "" {
		if msg, ok := table[code]; ok {
			return msg
		}
	}
	if message != "" {
		return message
	}

	if mode == ModeSignUp {
		return signUpFallbackMessage
	}
	return signInFallbackMessage
}
