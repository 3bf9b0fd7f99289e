package samunu

import "github.com/nestorzamili/samunu-project/internal/flows"

// ValidateCredential applies the field rules for the given mode without
// touching the identity provider. All independent violations are
// collected; the confirm-password equality violation is attached to the
// confirmPassword field only. Deterministic: equal inputs yield equal
// results.
func ValidateCredential(cred Credential, mode Mode) ValidationResult {
	return validateCredential(cred, mode)
}

func validateCredential(cred Credential, mode Mode) ValidationResult {
	errs := flows.Validate(flows.Credential{
		Name:            cred.Name,
		Email:           cred.Email,
		Password:        cred.Password,
		ConfirmPassword: cred.ConfirmPassword,
	}, mode == ModeSignUp)

	if len(errs) == 0 {
		return ValidationResult{}
	}
	return ValidationResult(errs)
}
