package count

import "errors"

// Config errors.
var (
	ErrConfigFileNotFound = errors.New("config file not found")
	ErrConfigFileRead     = errors.New("cannot read config file")
	ErrConfigInvalid      = errors.New("invalid config file")
	ErrDataDirEmpty       = errors.New("data-dir cannot be empty")
	ErrUnknownTimezone    = errors.New("unknown timezone")
	ErrUnsupportedLang    = errors.New("unsupported language (must be en or es)")
	ErrInvalidPort        = errors.New("invalid port")
	ErrNoWorkers          = errors.New("worker list cannot be empty")
)

// Validation errors. Nothing is written when one of these is returned.
var (
	ErrLocationRequired     = errors.New("location is required")
	ErrAssigneeRequired     = errors.New("assignee is required")
	ErrUnknownWorker        = errors.New("unknown worker")
	ErrAssignmentIDRequired = errors.New("assignment ID is required")
	ErrCounterRequired      = errors.New("counter is required")
	ErrCountedQtyRequired   = errors.New("counted qty is required")
	ErrCountedQtyNotNumber  = errors.New("counted qty must be a number")
	ErrInvalidIssueType     = errors.New("invalid issue type (must be None|Over|Short|Damage|Other)")
)

var validationErrors = []error{
	ErrLocationRequired,
	ErrAssigneeRequired,
	ErrUnknownWorker,
	ErrAssignmentIDRequired,
	ErrCounterRequired,
	ErrCountedQtyRequired,
	ErrCountedQtyNotNumber,
	ErrInvalidIssueType,
}

// IsValidation reports whether err is (or wraps) one of the validation errors.
func IsValidation(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}

	return false
}
