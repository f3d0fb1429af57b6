package errors

// ErrorCode identifies an application error class.
type ErrorCode int32

const (
	ErrorCode_UNKNOWN           ErrorCode = 0
	ErrorCode_HTTP_OK           ErrorCode = 200
	ErrorCode_INTERNAL          ErrorCode = 1000
	ErrorCode_INVALID_ARGUMENT  ErrorCode = 1001
	ErrorCode_NOT_FOUND         ErrorCode = 1002
	ErrorCode_ALREADY_EXISTS    ErrorCode = 1003
	ErrorCode_PERMISSION_DENIED ErrorCode = 1004
	ErrorCode_UNAUTHENTICATED   ErrorCode = 1005
	ErrorCode_INVALID_PAYLOAD   ErrorCode = 1006

	ErrorCode_CONFIG_MISSING ErrorCode = 2000

	ErrorCode_UPSTREAM_TRANSIENT ErrorCode = 3000
	ErrorCode_UPSTREAM_TERMINAL  ErrorCode = 3001
	ErrorCode_GRAPH_REJECTED     ErrorCode = 3002

	ErrorCode_VALIDATION_CLIENT_STATE ErrorCode = 4000
	ErrorCode_VALIDATION_MALFORMED    ErrorCode = 4001

	ErrorCode_TRANSCRIPT_NOT_READY ErrorCode = 5000
	ErrorCode_SUMMARIZATION_FAILED ErrorCode = 5001
	ErrorCode_PROCESSING_TIMEOUT   ErrorCode = 5002
	ErrorCode_PROCESSING_FAILED    ErrorCode = 5003

	ErrorCode_SUBSCRIPTION_NOT_FOUND ErrorCode = 6000
	ErrorCode_MEETING_NOT_FOUND      ErrorCode = 6001
)

var errorCodeNames = map[ErrorCode]string{
	ErrorCode_UNKNOWN:                 "UNKNOWN",
	ErrorCode_HTTP_OK:                 "HTTP_OK",
	ErrorCode_INTERNAL:                "INTERNAL",
	ErrorCode_INVALID_ARGUMENT:        "INVALID_ARGUMENT",
	ErrorCode_NOT_FOUND:               "NOT_FOUND",
	ErrorCode_ALREADY_EXISTS:          "ALREADY_EXISTS",
	ErrorCode_PERMISSION_DENIED:       "PERMISSION_DENIED",
	ErrorCode_UNAUTHENTICATED:         "UNAUTHENTICATED",
	ErrorCode_INVALID_PAYLOAD:         "INVALID_PAYLOAD",
	ErrorCode_CONFIG_MISSING:          "CONFIG_MISSING",
	ErrorCode_UPSTREAM_TRANSIENT:      "UPSTREAM_TRANSIENT",
	ErrorCode_UPSTREAM_TERMINAL:       "UPSTREAM_TERMINAL",
	ErrorCode_GRAPH_REJECTED:          "GRAPH_REJECTED",
	ErrorCode_VALIDATION_CLIENT_STATE: "VALIDATION_CLIENT_STATE",
	ErrorCode_VALIDATION_MALFORMED:    "VALIDATION_MALFORMED",
	ErrorCode_TRANSCRIPT_NOT_READY:    "TRANSCRIPT_NOT_READY",
	ErrorCode_SUMMARIZATION_FAILED:    "SUMMARIZATION_FAILED",
	ErrorCode_PROCESSING_TIMEOUT:      "PROCESSING_TIMEOUT",
	ErrorCode_PROCESSING_FAILED:       "PROCESSING_FAILED",
	ErrorCode_SUBSCRIPTION_NOT_FOUND:  "SUBSCRIPTION_NOT_FOUND",
	ErrorCode_MEETING_NOT_FOUND:       "MEETING_NOT_FOUND",
}

// String returns the symbolic name of the code.
func (c ErrorCode) String() string {
	if name, ok := errorCodeNames[c]; ok {
		return name
	}
	return "UNKNOWN"
}
