package errors

import "net/http"

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common error codes shared by every module.
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeNotFound           ErrorCode = "COMMON_003"
	ErrCodeConflict           ErrorCode = "COMMON_004"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_005"
	ErrCodeTimeout            ErrorCode = "COMMON_006"
	ErrCodeValidation         ErrorCode = "COMMON_007"
	ErrCodeSerialization      ErrorCode = "COMMON_008"
	ErrCodeDatabaseError      ErrorCode = "COMMON_009"
	ErrCodeCacheError         ErrorCode = "COMMON_010"
	ErrCodeMessageQueueError  ErrorCode = "COMMON_011"
	ErrCodeNotImplemented     ErrorCode = "COMMON_012"
)

// Configuration error codes.  All of these are fatal at startup: the engine
// refuses to score with a miscalibrated model.
const (
	ErrCodeConfigInvalid        ErrorCode = "CFG_001"
	ErrCodeWeightsNotNormalized ErrorCode = "CFG_002"
	ErrCodeThresholdsNotOrdered ErrorCode = "CFG_003"
)

// Inventory module error codes.
const (
	ErrCodeInventoryNotFound   ErrorCode = "INV_001"
	ErrCodeInventoryInvalid    ErrorCode = "INV_002"
	ErrCodeAccountNotFound     ErrorCode = "INV_003"
	ErrCodeSnapshotUnavailable ErrorCode = "INV_004"
)

// Catalog module error codes.
const (
	ErrCodeCatalogEmpty         ErrorCode = "CAT_001"
	ErrCodeCatalogEntryInvalid  ErrorCode = "CAT_002"
	ErrCodeBenchmarkRuleInvalid ErrorCode = "CAT_003"
	ErrCodeFallbackSetMissing   ErrorCode = "CAT_004"
	ErrCodeValueRangeInvalid    ErrorCode = "CAT_005"
)

// Matching and scoring error codes.  An empty match result is an invariant
// violation, never a routine outcome: the fallback strategy exists precisely
// so that every record resolves to at least one service.
const (
	ErrCodeEmptyMatchResult  ErrorCode = "MATCH_001"
	ErrCodeStrategyInvalid   ErrorCode = "MATCH_002"
	ErrCodeScoreOutOfRange   ErrorCode = "SCORE_001"
	ErrCodeScorerNotReady    ErrorCode = "SCORE_002"
)

// Lead and pipeline error codes.
const (
	ErrCodeLeadNotFound       ErrorCode = "LEAD_001"
	ErrCodeLeadInvalid        ErrorCode = "LEAD_002"
	ErrCodeRunNotFound        ErrorCode = "PIPE_001"
	ErrCodeRunAlreadyActive   ErrorCode = "PIPE_002"
	ErrCodeBatchReplaceFailed ErrorCode = "PIPE_003"
)

// CodeOK is the zero code carried by a nil error.
const CodeOK = ErrorCode("OK")

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.  Codes that are
// not listed default to 500 via HTTPStatus.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeDatabaseError:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeMessageQueueError:  http.StatusInternalServerError,
	ErrCodeNotImplemented:     http.StatusNotImplemented,

	ErrCodeConfigInvalid:        http.StatusInternalServerError,
	ErrCodeWeightsNotNormalized: http.StatusInternalServerError,
	ErrCodeThresholdsNotOrdered: http.StatusInternalServerError,

	ErrCodeInventoryNotFound:   http.StatusNotFound,
	ErrCodeInventoryInvalid:    http.StatusBadRequest,
	ErrCodeAccountNotFound:     http.StatusNotFound,
	ErrCodeSnapshotUnavailable: http.StatusServiceUnavailable,

	ErrCodeCatalogEmpty:         http.StatusUnprocessableEntity,
	ErrCodeCatalogEntryInvalid:  http.StatusBadRequest,
	ErrCodeBenchmarkRuleInvalid: http.StatusInternalServerError,
	ErrCodeFallbackSetMissing:   http.StatusInternalServerError,
	ErrCodeValueRangeInvalid:    http.StatusBadRequest,

	ErrCodeEmptyMatchResult: http.StatusInternalServerError,
	ErrCodeStrategyInvalid:  http.StatusInternalServerError,
	ErrCodeScoreOutOfRange:  http.StatusInternalServerError,
	ErrCodeScorerNotReady:   http.StatusServiceUnavailable,

	ErrCodeLeadNotFound:       http.StatusNotFound,
	ErrCodeLeadInvalid:        http.StatusBadRequest,
	ErrCodeRunNotFound:        http.StatusNotFound,
	ErrCodeRunAlreadyActive:   http.StatusConflict,
	ErrCodeBatchReplaceFailed: http.StatusInternalServerError,
}

// HTTPStatus returns the HTTP status code associated with c, defaulting to
// 500 when the code has no explicit mapping.
func (c ErrorCode) HTTPStatus() int {
	if status, ok := ErrorCodeHTTPStatus[c]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// IsFatalConfig reports whether c denotes a configuration error that must
// abort startup rather than be absorbed with a default.
func (c ErrorCode) IsFatalConfig() bool {
	switch c {
	case ErrCodeConfigInvalid, ErrCodeWeightsNotNormalized, ErrCodeThresholdsNotOrdered:
		return true
	}
	return false
}
