package testpredict

// Violation kinds.
const (
	KindTransport  = "transport"
	KindStatus     = "unexpected_status"
	KindLabel      = "label_mismatch"
	KindEcho       = "text_mismatch"
	KindIdempotent = "not_idempotent"
	KindValidation = "validation"
)

// Worker configuration constants.
const (
	WorkerChannelMultiplier = 2
	MinRepeat               = 2
)

// Runner configuration constants.
const (
	PercentageMultiplier = 100
	maxCorpusLineBytes   = 1 << 20
)

// HTTP status code constants.
const (
	StatusOK                  = 200
	StatusUnprocessableEntity = 422
)
