package form

import "errors"

const (
	FieldResume         = "resume"
	FieldJobDescription = "job_description"
)

var (
	ErrNoFile             = errors.New("no resume selected")
	ErrFileTooLarge       = errors.New("resume exceeds the size limit")
	ErrUnsupportedType    = errors.New("unsupported resume type")
	ErrNoDescription      = errors.New("job description is empty")
	ErrDescriptionTooLong = errors.New("job description exceeds the length limit")
)

// ValidationError is a user-facing validation failure. Field names the input
// that should receive focus.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
