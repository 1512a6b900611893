package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrEmailTaken         ErrCode = "EMAIL_TAKEN"
	ErrSessionInvalidated ErrCode = "SESSION_INVALIDATED"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrTokenExpired       ErrCode = "TOKEN_EXPIRED"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden         ErrCode = "FORBIDDEN"
	ErrStudentAccessOnly ErrCode = "STUDENT_ACCESS_ONLY"
	ErrAdminAccessOnly   ErrCode = "ADMIN_ACCESS_ONLY"

	// ─── Subscription gating ───────────────────────────────────────────
	ErrSubscriptionRequired      ErrCode = "SUBSCRIPTION_REQUIRED"
	ErrSubscriptionIndeterminate ErrCode = "SUBSCRIPTION_INDETERMINATE"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// ─── Session engine ────────────────────────────────────────────────
	ErrInvalidTransition   ErrCode = "INVALID_TRANSITION"
	ErrAnswerLocked        ErrCode = "ANSWER_LOCKED"
	ErrSessionPaused       ErrCode = "SESSION_PAUSED"
	ErrSessionConflict     ErrCode = "SESSION_ALREADY_ACTIVE"
	ErrSessionNotFound     ErrCode = "SESSION_NOT_FOUND"
	ErrNoMatchingQuestions ErrCode = "NO_MATCHING_QUESTIONS"
	ErrPersistenceFailure  ErrCode = "PERSISTENCE_FAILURE"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Email or password is incorrect."
	case ErrEmailTaken:
		return "An account with this email already exists."
	case ErrSessionInvalidated:
		return "Your login session has ended. Please sign in again."
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is invalid."
	case ErrTokenExpired:
		return "The authentication token has expired."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "You do not have permission to access this resource."
	case ErrStudentAccessOnly:
		return "This resource is restricted to students."
	case ErrAdminAccessOnly:
		return "This resource is restricted to administrators."

	// ─── Subscription gating ───────────────────────────────────────────
	case ErrSubscriptionRequired:
		return "An active subscription is required to start or continue a session."
	case ErrSubscriptionIndeterminate:
		return "Subscription status is still loading. Please retry."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "The identifier format is invalid."
	case ErrInvalidPayload:
		return "The request payload is invalid."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "The resource was not found."
	case ErrConflict:
		return "The resource already exists."

	// ─── Session engine ────────────────────────────────────────────────
	case ErrInvalidTransition:
		return "The command is not valid in the session's current state."
	case ErrAnswerLocked:
		return "The answer is locked after reveal."
	case ErrSessionPaused:
		return "The session is paused."
	case ErrSessionConflict:
		return "Another session is already in progress."
	case ErrSessionNotFound:
		return "No live session matches this identifier."
	case ErrNoMatchingQuestions:
		return "No questions match the selected filters."
	case ErrPersistenceFailure:
		return "Saving the session result failed. Please retry."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
