package constant

// System level codes (1xxx)
const (
	CodeSuccess            = 0    // request handled
	CodeSystemError        = 1000 // unexpected internal failure
	CodeDatabaseError      = 1001 // store read/write failed; callers may retry
	CodeRedisError         = 1002 // cache failure
	CodeServiceUnavailable = 1004 // dependency not ready
	CodeTimeout            = 1005 // operation exceeded its deadline
)

// Parameter codes
const (
	CodeInvalidParams    = 1100 // input failed validation; never retried automatically
	CodeMissingParams    = 1101
	CodeParamsRangeError = 1104
)

// Auth codes
const (
	CodeUnauthorized   = 1200
	CodeSignatureError = 1203 // gateway digest mismatch
	CodeAccessDenied   = 1204
)
