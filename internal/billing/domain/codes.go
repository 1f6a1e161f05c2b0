package domain

// Orchestrator result codes reported to callers alongside a stable error
// kind. Negative values are orchestrator-level outcomes; the zero value is
// success.
const (
	CodeOK                    = 0
	CodeInvalidArguments      = -1
	CodeUnableToInitialize    = -2
	CodeBillingNotInitialized = -3
	CodeUnknownError          = -4
	CodeUserCancelled         = -5
	CodeBadResponseFromServer = -6
	CodeVerificationFailed    = -7
	CodeItemUnavailable       = -8
	CodeItemAlreadyOwned      = -9
	CodeItemNotOwned          = -10
	CodeConsumeFailed         = -11
)

// Helper-level provider codes, delivered by the billing helper layer when a
// flow fails before the store responds.
const (
	helperErrorBase = -1000

	HelperRemoteException           = helperErrorBase - 1
	HelperBadResponse               = helperErrorBase - 2
	HelperVerificationFailed        = helperErrorBase - 3
	HelperSendIntentFailed          = helperErrorBase - 4
	HelperUserCancelled             = helperErrorBase - 5
	HelperUnknownPurchaseResponse   = helperErrorBase - 6
	HelperMissingToken              = helperErrorBase - 7
	HelperUnknownError              = helperErrorBase - 8
	HelperSubscriptionsNotAvailable = helperErrorBase - 9
	HelperInvalidConsumption        = helperErrorBase - 10
)

// Store response codes, delivered verbatim by the billing service.
const (
	ResponseOK                 = 0
	ResponseUserCancelled      = 1
	ResponseServiceUnavailable = 2
	ResponseBillingUnavailable = 3
	ResponseItemUnavailable    = 4
	ResponseDeveloperError     = 5
	ResponseError              = 6
	ResponseItemAlreadyOwned   = 7
	ResponseItemNotOwned       = 8
)
