package image

import "errors"

var (
	ErrUnsupportedFileType  = errors.New("file type is not allowed")
	ErrInvalidImageData     = errors.New("file is not a valid image")
	ErrEmptyFile            = errors.New("file is empty")
	ErrFileTooLarge         = errors.New("file exceeds maximum allowed size")
	ErrRecordCreationFailed = errors.New("image record could not be created")
	ErrIngestionFailed      = errors.New("image ingestion failed")
	ErrImageNotFound        = errors.New("image not found")
	ErrFileNotFound         = errors.New("image file not found")
	ErrConstraintViolation  = errors.New("image record violates a constraint")
)

// IngestionError reports a file-store failure that happened after the record
// was committed. The record has been compensated by the time it is returned.
type IngestionError struct {
	Cause error
}

func (e *IngestionError) Error() string {
	return ErrIngestionFailed.Error() + ": " + e.Cause.Error()
}

func (e *IngestionError) Unwrap() []error {
	return []error{ErrIngestionFailed, e.Cause}
}
