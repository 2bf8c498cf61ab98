package core

import (
	"encoding/json"
	"net/http"
)

const (
	// oks
	CodeOkIpBlocked   = "ok_ip_blocked"
	CodeOkIpUnblocked = "ok_ip_unblocked"

	// errors
	CodeErrorInvalidRequest       = "err_invalid_input"
	CodeErrorForbidden            = "err_forbidden"
	CodeErrorServiceUnavailable   = "err_service_unavailable"
	CodeErrorInternal             = "err_internal"
	CodeErrorIpBlocked            = "err_ip_blocked"
	CodeErrorBlocklistUnavailable = "err_blocklist_unavailable"
	CodeErrorInvalidCredentials   = "err_invalid_credentials"
	CodeErrorTokenGeneration      = "err_token_generation"
	CodeErrorInvalidContentType   = "err_invalid_content_type"
	CodeErrorNotFound             = "err_not_found"
	CodeErrorMethodNotAllowed     = "err_method_not_allowed"
	CodeErrorRequestBodyTooLarge  = "err_request_body_too_large"
)

// precomputeBasicResponse marshals the body once at init so handlers only
// copy bytes.
func precomputeBasicResponse(status int, code, message string) jsonResponse {
	body, _ := json.Marshal(JsonBasic{Status: status, Code: code, Message: message})
	return jsonResponse{status: status, body: body}
}

var (
	// errors
	errorInvalidRequest      = precomputeBasicResponse(http.StatusBadRequest, CodeErrorInvalidRequest, "The request contains invalid data")
	errorForbidden           = precomputeBasicResponse(http.StatusForbidden, CodeErrorForbidden, "Operator authorization required")
	errorServiceUnavailable  = precomputeBasicResponse(http.StatusServiceUnavailable, CodeErrorServiceUnavailable, "Service is temporarily unavailable")
	errorInternal            = precomputeBasicResponse(http.StatusInternalServerError, CodeErrorInternal, "Internal server error")
	errorInvalidCredentials  = precomputeBasicResponse(http.StatusUnauthorized, CodeErrorInvalidCredentials, "Invalid credentials provided")
	errorTokenGeneration     = precomputeBasicResponse(http.StatusInternalServerError, CodeErrorTokenGeneration, "Failed to generate authentication token")
	errorInvalidContentType  = precomputeBasicResponse(http.StatusUnsupportedMediaType, CodeErrorInvalidContentType, "Unsupported media type")
	errorRequestBodyTooLarge = precomputeBasicResponse(http.StatusRequestEntityTooLarge, CodeErrorRequestBodyTooLarge, "Request body too large")

	// ErrorIpBlocked is written by the access gate for blocked callers.
	ErrorIpBlocked = precomputeBasicResponse(http.StatusForbidden, CodeErrorIpBlocked, "IP address is blocked")
	// ErrorBlocklistUnavailable is written by the access gate when it fails closed.
	ErrorBlocklistUnavailable = precomputeBasicResponse(http.StatusServiceUnavailable, CodeErrorBlocklistUnavailable, "Access check is temporarily unavailable")
	ErrorNotFound             = precomputeBasicResponse(http.StatusNotFound, CodeErrorNotFound, "Requested resource not found")
	ErrorMethodNotAllowed     = precomputeBasicResponse(http.StatusMethodNotAllowed, CodeErrorMethodNotAllowed, "Method not allowed")

	// oks
	okIpBlocked   = precomputeBasicResponse(http.StatusOK, CodeOkIpBlocked, "IP address blocked")
	okIpUnblocked = precomputeBasicResponse(http.StatusOK, CodeOkIpUnblocked, "IP address unblocked")
)
