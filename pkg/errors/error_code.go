package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidOrderIntent   ErrorCode = 102
	ErrCodeInvalidRegion        ErrorCode = 103
	ErrCodeInvalidPrice         ErrorCode = 105
	ErrCodeMissingTickTable     ErrorCode = 107
	ErrCodeMissingFeeTable      ErrorCode = 108

	// Credential errors (200-299)
	ErrCodeCredentialFetchFailed ErrorCode = 200
	ErrCodeCredentialLockFailed  ErrorCode = 203

	// Rate limit errors (300-399)
	ErrCodeAdmissionAborted ErrorCode = 300

	// Execution errors (400-499)
	ErrCodeOrderRejected    ErrorCode = 400
	ErrCodeTradingHalted    ErrorCode = 402
	ErrCodeFillRecordFailed ErrorCode = 403
	ErrCodeUnsupportedSide  ErrorCode = 405

	// Risk errors (500-599)
	ErrCodeBreakerNotTripped  ErrorCode = 500
	ErrCodePriceUnavailable   ErrorCode = 502
	ErrCodePositionNotFound   ErrorCode = 504
	ErrCodeUnknownBreakerType ErrorCode = 505

	// Transport errors (600-699)
	ErrCodeTransportFailure ErrorCode = 600
	ErrCodeRequestTimeout   ErrorCode = 601

	// Storage errors (700-799)
	ErrCodeQueryFailed      ErrorCode = 700
	ErrCodeStoreUnavailable ErrorCode = 701
	ErrCodeStoreWriteFailed ErrorCode = 702
)
