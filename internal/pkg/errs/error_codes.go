/*
Package errs provides custom error types and application-level error code constants.

These error codes identify specific failures of the client core, both when they are
returned to callers inside the process and when they are relayed to the attached UI
through the local bridge.
*/
package errs

// Kind classifies a failure by where it came from, independent of the concrete code.
type Kind string

const (
	// KindAuthRejected covers bad credentials, expired tokens and calls that require a login.
	KindAuthRejected Kind = "auth_rejected"

	// KindNetworkFailure covers transport-level failures (DNS, refused connections, timeouts).
	KindNetworkFailure Kind = "network_failure"

	// KindValidationFailure covers malformed client input detected before any network call.
	KindValidationFailure Kind = "validation_failure"

	// KindCapabilityUnavailable covers a missing device or provider capability (geolocation, payment SDK).
	KindCapabilityUnavailable Kind = "capability_unavailable"

	// KindServerRejected covers non-2xx backend responses other than authentication failures.
	KindServerRejected Kind = "server_rejected"

	// KindUnknown is used for anything not classified above.
	KindUnknown Kind = "unknown"
)

// 1xxx: Request and Validation Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates that the request header Content-Type is not supported.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates that the request body JSON format is incorrect.
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates that the request body contained extra content after valid JSON data.
	ErrExtraContentInBody = 1004

	// ErrFormParseFailed indicates failure to parse multipart or URL-encoded form data.
	ErrFormParseFailed = 1005

	// ErrRequestEntityTooLarge indicates that the request body size exceeded the limit.
	ErrRequestEntityTooLarge = 1006

	// ErrRateLimitExceeded indicates that the request rate has exceeded the set limit.
	ErrRateLimitExceeded = 1007

	// ErrInvalidDateTime indicates that the event date and time could not be combined into an instant.
	ErrInvalidDateTime = 1101

	// ErrInvalidPrice indicates a negative or non-numeric event price.
	ErrInvalidPrice = 1102

	// ErrTitleRequired indicates an event draft without a title.
	ErrTitleRequired = 1103

	// ErrInvalidAmount indicates a checkout attempted with a non-positive amount.
	ErrInvalidAmount = 1104

	// ErrFileSizeTooLarge indicates that an image exceeds the upload size limit.
	ErrFileSizeTooLarge = 1201

	// ErrFileTypeInvalid indicates that an image's name or content type is not allowed.
	ErrFileTypeInvalid = 1202
)

// 2xxx: Event Errors
const (
	// ErrFeedUnavailable indicates that the event feed could not be loaded.
	ErrFeedUnavailable = 2001

	// ErrEventCreateFailed indicates that the backend did not create the event.
	ErrEventCreateFailed = 2002

	// ErrEventDeleteFailed indicates that the backend did not delete the event.
	ErrEventDeleteFailed = 2003

	// ErrAssetUploadFailed indicates that the event image could not be uploaded to the asset host.
	ErrAssetUploadFailed = 2004

	// ErrJoinFailed indicates that joining a free event failed.
	ErrJoinFailed = 2005

	// ErrMyEventsUnavailable indicates that the user's own events could not be loaded.
	ErrMyEventsUnavailable = 2006
)

// 3xxx: Session Errors
const (
	// ErrUnauthorized indicates the operation requires a signed-in session.
	ErrUnauthorized = 3001

	// ErrInvalidCredentials indicates the auth service rejected the login.
	ErrInvalidCredentials = 3002

	// ErrRegistrationFailed indicates the auth service rejected the registration.
	ErrRegistrationFailed = 3003

	// ErrSessionExpired indicates the backend rejected the stored token.
	ErrSessionExpired = 3004
)

// 4xxx: Capability and Checkout Errors
const (
	// ErrLocationUnsupported indicates the device has no geolocation capability.
	ErrLocationUnsupported = 4001

	// ErrLocationFailed indicates the geolocation capability reported an error.
	ErrLocationFailed = 4002

	// ErrPaymentSDKUnavailable indicates the payment provider script could not be loaded.
	ErrPaymentSDKUnavailable = 4101

	// ErrOrderCreationFailed indicates the backend could not create a payment order.
	ErrOrderCreationFailed = 4102

	// ErrPaymentFailed indicates the payment widget reported a failed payment.
	ErrPaymentFailed = 4103

	// ErrPaymentDismissed indicates the user closed the payment widget.
	ErrPaymentDismissed = 4104

	// ErrCheckoutNotFound indicates a widget callback for an unknown or finished checkout.
	ErrCheckoutNotFound = 4105

	// ErrAssetHostUnavailable indicates no asset host is configured.
	ErrAssetHostUnavailable = 4201
)

// 5xxx: Transport and Internal Errors
const (
	// ErrUnknown represents an unclassified, general internal error.
	ErrUnknown = 5000

	// ErrNetwork indicates a transport-level failure talking to the backend.
	ErrNetwork = 5001

	// ErrServerRejected indicates a non-2xx backend response.
	ErrServerRejected = 5002

	// ErrMalformedResponse indicates a backend response that could not be decoded.
	ErrMalformedResponse = 5003
)
