package domain

import (
	"errors"
	"fmt"
)

// ErrorKind is the stable, caller-facing classification of a billing failure.
// Callers branch on the kind (for example to decide whether a retry makes
// sense); the provider code travels with it for diagnostics only.
type ErrorKind string

const (
	KindNotInitialized            ErrorKind = "not_initialized"
	KindSetupFailed               ErrorKind = "setup_failed"
	KindInvalidArgument           ErrorKind = "invalid_argument"
	KindUserCancelled             ErrorKind = "user_cancelled"
	KindItemAlreadyOwned          ErrorKind = "item_already_owned"
	KindItemNotOwned              ErrorKind = "item_not_owned"
	KindItemUnavailable           ErrorKind = "item_unavailable"
	KindVerificationFailed        ErrorKind = "verification_failed"
	KindBadResponse               ErrorKind = "bad_response"
	KindConsumeFailed             ErrorKind = "consume_failed"
	KindPurchaseAlreadyInProgress ErrorKind = "purchase_already_in_progress"
	KindConnectionTornDown        ErrorKind = "connection_torn_down"
	KindUnknown                   ErrorKind = "unknown"
)

var (
	// ErrMissingProviderKey indicates no provider public key was configured
	// and verification was not explicitly skipped.
	ErrMissingProviderKey = errors.New("provider public key not configured")

	// ErrNotInitialized indicates an operation was invoked before the
	// provider connection reached the Connected state.
	ErrNotInitialized = errors.New("billing is not initialized")

	// ErrPurchaseInProgress indicates a purchase flow is already occupying
	// the single in-flight slot.
	ErrPurchaseInProgress = errors.New("purchase already in progress")

	// ErrConnectionTornDown indicates a pending purchase was resolved by
	// teardown rather than by a provider outcome.
	ErrConnectionTornDown = errors.New("billing connection torn down")
)

// BillingError carries a stable kind plus the original provider code for
// diagnostics. Success paths never produce one.
type BillingError struct {
	Kind         ErrorKind
	ProviderCode int
	Message      string
}

func (e *BillingError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s (kind=%s, code=%d)", e.Message, e.Kind, e.ProviderCode)
	}
	return fmt.Sprintf("billing error (kind=%s, code=%d)", e.Kind, e.ProviderCode)
}

// Is matches sentinel errors for the kinds that have one, so callers can use
// errors.Is without reaching into the struct.
func (e *BillingError) Is(target error) bool {
	switch target {
	case ErrNotInitialized:
		return e.Kind == KindNotInitialized
	case ErrPurchaseInProgress:
		return e.Kind == KindPurchaseAlreadyInProgress
	case ErrConnectionTornDown:
		return e.Kind == KindConnectionTornDown
	}
	return false
}

// NewBillingError builds a BillingError with an explicit kind and code.
func NewBillingError(kind ErrorKind, code int, message string) *BillingError {
	return &BillingError{Kind: kind, ProviderCode: code, Message: message}
}

// KindOf extracts the ErrorKind from err, or KindUnknown if err carries none.
func KindOf(err error) ErrorKind {
	var be *BillingError
	if errors.As(err, &be) {
		return be.Kind
	}
	return KindUnknown
}

// classification is the total mapping from provider codes to error kinds.
// Unlisted codes classify as KindUnknown; they are surfaced, never dropped.
var classification = map[int]ErrorKind{
	CodeInvalidArguments:      KindInvalidArgument,
	CodeUnableToInitialize:    KindSetupFailed,
	CodeBillingNotInitialized: KindNotInitialized,
	CodeUnknownError:          KindUnknown,
	CodeUserCancelled:         KindUserCancelled,
	CodeBadResponseFromServer: KindBadResponse,
	CodeVerificationFailed:    KindVerificationFailed,
	CodeItemUnavailable:       KindItemUnavailable,
	CodeItemAlreadyOwned:      KindItemAlreadyOwned,
	CodeItemNotOwned:          KindItemNotOwned,
	CodeConsumeFailed:         KindConsumeFailed,

	HelperRemoteException:           KindBadResponse,
	HelperBadResponse:               KindBadResponse,
	HelperVerificationFailed:        KindVerificationFailed,
	HelperSendIntentFailed:          KindUnknown,
	HelperUserCancelled:             KindUserCancelled,
	HelperUnknownPurchaseResponse:   KindBadResponse,
	HelperMissingToken:              KindBadResponse,
	HelperUnknownError:              KindUnknown,
	HelperSubscriptionsNotAvailable: KindItemUnavailable,
	HelperInvalidConsumption:        KindConsumeFailed,

	ResponseUserCancelled:      KindUserCancelled,
	ResponseServiceUnavailable: KindBadResponse,
	ResponseBillingUnavailable: KindSetupFailed,
	ResponseItemUnavailable:    KindItemUnavailable,
	ResponseDeveloperError:     KindInvalidArgument,
	ResponseError:              KindUnknown,
	ResponseItemAlreadyOwned:   KindItemAlreadyOwned,
	ResponseItemNotOwned:       KindItemNotOwned,
}

// Classify maps a provider code to its stable error kind. The mapping is
// total: codes outside the known tables return KindUnknown. Success codes
// (CodeOK / ResponseOK share the value 0) are the caller's responsibility to
// filter before classifying.
func Classify(providerCode int) ErrorKind {
	if kind, ok := classification[providerCode]; ok {
		return kind
	}
	return KindUnknown
}

// ClassifyError wraps a provider code into a BillingError with a caller
// message following the classified kind.
func ClassifyError(providerCode int, message string) *BillingError {
	return NewBillingError(Classify(providerCode), providerCode, message)
}

// QueryError reports a provider failure during a catalog or owned-purchases
// query. It is deliberately a separate type from BillingError so callers can
// tell a failed read apart from a failed purchase flow.
type QueryError struct {
	ProviderCode int
	Message      string
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s (code=%d)", e.Message, e.ProviderCode)
}

// NewQueryError builds a QueryError for the given provider code.
func NewQueryError(providerCode int, message string) *QueryError {
	return &QueryError{ProviderCode: providerCode, Message: message}
}
