package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidSeries        ErrorCode = 102
	ErrCodeDataInsufficient     ErrorCode = 103
	ErrCodeInvalidPeriod        ErrorCode = 104
	ErrCodeInvalidVersion       ErrorCode = 105
	ErrCodeInvalidTimeframe     ErrorCode = 106
	ErrCodeInvalidRequest       ErrorCode = 107

	// Data/Resource errors (200-299)
	ErrCodeDataNotFound          ErrorCode = 200
	ErrCodeDataSourceUnavailable ErrorCode = 201
	ErrCodeQueryFailed           ErrorCode = 202
	ErrCodeReportReadFailed      ErrorCode = 203
	ErrCodeReportWriteFailed     ErrorCode = 204

	// Indicator errors (300-399)
	ErrCodeCalculatorNotFound      ErrorCode = 300
	ErrCodeCalculatorAlreadyExists ErrorCode = 301
	ErrCodeIndicatorCalculation    ErrorCode = 302
	ErrCodeNumericDegeneracy       ErrorCode = 303

	// Pattern errors (400-499)
	ErrCodePatternDetection ErrorCode = 400

	// Prediction and signal errors (500-599)
	ErrCodePredictionFailed ErrorCode = 500
	ErrCodeSignalFailed     ErrorCode = 501

	// Backtest errors (600-699)
	ErrCodeBacktestNotInitialized ErrorCode = 600
	ErrCodeBacktestInitFailed     ErrorCode = 601
	ErrCodeBacktestConfigError    ErrorCode = 602
	ErrCodeBacktestCancelled      ErrorCode = 603
	ErrCodeVersionMismatch        ErrorCode = 604

	// Callback errors (800-899)
	ErrCodeCallbackFailed ErrorCode = 800
)
