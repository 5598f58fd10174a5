/*
Package errs provides custom error types and application-level error code constants.

This file defines the map from error codes to the CustomError template, used to standardize
bridge responses and the messages shown to the user.
*/
package errs

import "net/http"

// errorMap stores the CustomError template for every application error code.
// The key is the error code, the value holds the kind, the generic user message and the bridge HTTP status.
var errorMap = map[int]CustomError{
	// 1xxx: Request and Validation Errors
	ErrInvalidParams:         {Code: ErrInvalidParams, Kind: KindValidationFailure, Message: "Invalid request parameters."},
	ErrUnsupportedMediaType:  {Code: ErrUnsupportedMediaType, Kind: KindValidationFailure, Message: "Unsupported request format."},
	ErrInvalidJSONFormat:     {Code: ErrInvalidJSONFormat, Kind: KindValidationFailure, Message: "Unsupported request format."},
	ErrExtraContentInBody:    {Code: ErrExtraContentInBody, Kind: KindValidationFailure, Message: "Request contains unexpected data."},
	ErrFormParseFailed:       {Code: ErrFormParseFailed, Kind: KindValidationFailure, Message: "Failed to process uploaded data."},
	ErrRequestEntityTooLarge: {Code: ErrRequestEntityTooLarge, Kind: KindValidationFailure, Message: "Request size is too large."},
	ErrRateLimitExceeded:     {Code: ErrRateLimitExceeded, Kind: KindValidationFailure, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},
	ErrInvalidDateTime:       {Code: ErrInvalidDateTime, Kind: KindValidationFailure, Message: "Please enter a valid date and time."},
	ErrInvalidPrice:          {Code: ErrInvalidPrice, Kind: KindValidationFailure, Message: "Price must be zero or more."},
	ErrTitleRequired:         {Code: ErrTitleRequired, Kind: KindValidationFailure, Message: "Event title is required."},
	ErrInvalidAmount:         {Code: ErrInvalidAmount, Kind: KindValidationFailure, Message: "Free events do not need a payment."},
	ErrFileSizeTooLarge:      {Code: ErrFileSizeTooLarge, Kind: KindValidationFailure, Message: "Image is too large (max %d MB)."},
	ErrFileTypeInvalid:       {Code: ErrFileTypeInvalid, Kind: KindValidationFailure, Message: "Only JPEG, PNG, WebP and GIF images are allowed."},

	// 2xxx: Event Errors
	ErrFeedUnavailable:     {Code: ErrFeedUnavailable, Kind: KindServerRejected, Message: "Could not load events"},
	ErrEventCreateFailed:   {Code: ErrEventCreateFailed, Kind: KindServerRejected, Message: "Failed to create event"},
	ErrEventDeleteFailed:   {Code: ErrEventDeleteFailed, Kind: KindServerRejected, Message: "Failed to delete event."},
	ErrAssetUploadFailed:   {Code: ErrAssetUploadFailed, Kind: KindNetworkFailure, Message: "Network error during upload"},
	ErrJoinFailed:          {Code: ErrJoinFailed, Kind: KindServerRejected, Message: "Could not join event."},
	ErrMyEventsUnavailable: {Code: ErrMyEventsUnavailable, Kind: KindServerRejected, Message: "Failed to fetch my events"},

	// 3xxx: Session Errors
	ErrUnauthorized:       {Code: ErrUnauthorized, Kind: KindAuthRejected, Message: "Please sign in to continue.", Status: http.StatusUnauthorized},
	ErrInvalidCredentials: {Code: ErrInvalidCredentials, Kind: KindAuthRejected, Message: "Invalid credentials"},
	ErrRegistrationFailed: {Code: ErrRegistrationFailed, Kind: KindAuthRejected, Message: "Registration failed"},
	ErrSessionExpired:     {Code: ErrSessionExpired, Kind: KindAuthRejected, Message: "Your session has expired. Please sign in again.", Status: http.StatusUnauthorized},

	// 4xxx: Capability and Checkout Errors
	ErrLocationUnsupported:   {Code: ErrLocationUnsupported, Kind: KindCapabilityUnavailable, Message: "Geolocation not supported"},
	ErrLocationFailed:        {Code: ErrLocationFailed, Kind: KindCapabilityUnavailable, Message: "Could not determine your location."},
	ErrPaymentSDKUnavailable: {Code: ErrPaymentSDKUnavailable, Kind: KindCapabilityUnavailable, Message: "Payment SDK failed to load."},
	ErrOrderCreationFailed:   {Code: ErrOrderCreationFailed, Kind: KindServerRejected, Message: "Could not start payment."},
	ErrPaymentFailed:         {Code: ErrPaymentFailed, Kind: KindServerRejected, Message: "Payment failed."},
	ErrPaymentDismissed:      {Code: ErrPaymentDismissed, Kind: KindValidationFailure, Message: "Payment was cancelled."},
	ErrCheckoutNotFound:      {Code: ErrCheckoutNotFound, Kind: KindValidationFailure, Message: "This payment is no longer active.", Status: http.StatusNotFound},
	ErrAssetHostUnavailable:  {Code: ErrAssetHostUnavailable, Kind: KindCapabilityUnavailable, Message: "Image uploads are not configured."},

	// 5xxx: Transport and Internal Errors
	ErrUnknown:           {Code: ErrUnknown, Kind: KindUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
	ErrNetwork:           {Code: ErrNetwork, Kind: KindNetworkFailure, Message: "Network error. Check your connection.", Status: http.StatusBadGateway},
	ErrServerRejected:    {Code: ErrServerRejected, Kind: KindServerRejected, Message: "The server rejected the request."},
	ErrMalformedResponse: {Code: ErrMalformedResponse, Kind: KindServerRejected, Message: "Unexpected response from the server.", Status: http.StatusBadGateway},
}
