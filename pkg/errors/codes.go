package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common error codes shared by every layer.
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeNotFound           ErrorCode = "COMMON_003"
	ErrCodeConflict           ErrorCode = "COMMON_004"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_005"
	ErrCodeTimeout            ErrorCode = "COMMON_006"
	ErrCodeValidation         ErrorCode = "COMMON_007"
	ErrCodeSerialization      ErrorCode = "COMMON_008"
	ErrCodeConfigInvalid      ErrorCode = "COMMON_009"
	ErrCodeNotImplemented     ErrorCode = "COMMON_010"
)

// Graph engine error codes. These carry the taxonomy the analysis
// services are built around: a logical "no connection" is never the
// same failure as a missing entity or an unreachable store.
const (
	ErrCodeEntityNotFound    ErrorCode = "GRAPH_001"
	ErrCodeFilingNotFound    ErrorCode = "GRAPH_002"
	ErrCodeNoConnectionFound ErrorCode = "GRAPH_003"
	ErrCodeBoundExceeded     ErrorCode = "GRAPH_004"
	ErrCodeStoreUnavailable  ErrorCode = "GRAPH_005"
	ErrCodeInvalidFact       ErrorCode = "GRAPH_006"
	ErrCodeSelfLookup        ErrorCode = "GRAPH_007"
)

// Signal and alert error codes.
const (
	ErrCodeUnknownItemNumber    ErrorCode = "SIG_001"
	ErrCodeUnknownSignalLevel   ErrorCode = "SIG_002"
	ErrCodeAlertDuplicate       ErrorCode = "SIG_003"
	ErrCodeAlertPublishFailed   ErrorCode = "SIG_004"
	ErrCodeAlertArchiveFailed   ErrorCode = "SIG_005"
)

// Infrastructure error codes.
const (
	ErrCodeDatabaseError ErrorCode = "INFRA_001"
	ErrCodeCacheError    ErrorCode = "INFRA_002"
	ErrCodeMessageQueue  ErrorCode = "INFRA_003"
)

// Aliases used at call sites that predate the grouped constants.
const (
	CodeInternal     = ErrCodeInternal
	CodeInvalidParam = ErrCodeBadRequest
	CodeNotFound     = ErrCodeNotFound
	CodeConflict     = ErrCodeConflict
	CodeUnknown      = ErrorCode("UNKNOWN")
	CodeOK           = ErrorCode("OK")

	CodeDatabaseError = ErrCodeDatabaseError
	CodeCacheError    = ErrCodeCacheError
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes. Both
// missing entities and exhausted connection searches surface as 404;
// the JSON body keeps the distinct code so callers can tell them
// apart.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeConfigInvalid:      http.StatusInternalServerError,
	ErrCodeNotImplemented:     http.StatusNotImplemented,

	ErrCodeEntityNotFound:    http.StatusNotFound,
	ErrCodeFilingNotFound:    http.StatusNotFound,
	ErrCodeNoConnectionFound: http.StatusNotFound,
	ErrCodeBoundExceeded:     http.StatusUnprocessableEntity,
	ErrCodeStoreUnavailable:  http.StatusServiceUnavailable,
	ErrCodeInvalidFact:       http.StatusUnprocessableEntity,
	ErrCodeSelfLookup:        http.StatusBadRequest,

	ErrCodeUnknownItemNumber:  http.StatusBadRequest,
	ErrCodeUnknownSignalLevel: http.StatusBadRequest,
	ErrCodeAlertDuplicate:     http.StatusConflict,
	ErrCodeAlertPublishFailed: http.StatusInternalServerError,
	ErrCodeAlertArchiveFailed: http.StatusInternalServerError,

	ErrCodeDatabaseError: http.StatusInternalServerError,
	ErrCodeCacheError:    http.StatusInternalServerError,
	ErrCodeMessageQueue:  http.StatusInternalServerError,
}

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal server error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "request timeout",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeConfigInvalid:      "invalid configuration",
	ErrCodeNotImplemented:     "not implemented",

	ErrCodeEntityNotFound:    "entity not found",
	ErrCodeFilingNotFound:    "filing not found",
	ErrCodeNoConnectionFound: "no connection found within hop limit",
	ErrCodeBoundExceeded:     "search bound exceeded",
	ErrCodeStoreUnavailable:  "fact store unavailable",
	ErrCodeInvalidFact:       "malformed fact in store",
	ErrCodeSelfLookup:        "source and target entity are identical",

	ErrCodeUnknownItemNumber:  "unknown filing item number",
	ErrCodeUnknownSignalLevel: "unknown signal level",
	ErrCodeAlertDuplicate:     "alert already recorded",
	ErrCodeAlertPublishFailed: "failed to publish alert",
	ErrCodeAlertArchiveFailed: "failed to archive alert",

	ErrCodeDatabaseError: "database error",
	ErrCodeCacheError:    "cache error",
	ErrCodeMessageQueue:  "message queue error",
}

// HTTPStatusForCode returns the HTTP status code for an ErrorCode.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsClientError returns true if the ErrorCode corresponds to a 4xx HTTP status.
func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}

// IsServerError returns true if the ErrorCode corresponds to a 5xx HTTP status.
func IsServerError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 500 && status < 600
}

// ModuleForCode returns the module prefix of an ErrorCode.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}
