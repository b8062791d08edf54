package domain

import "errors"

var (
	// ErrJobNotFound is returned for lookups and deletes of absent jobs.
	ErrJobNotFound = errors.New("job not found")

	// ErrResumeNotFound is returned when a side entity references a
	// resume that does not exist.
	ErrResumeNotFound = errors.New("resume not found")

	// ErrUnreadable wraps extraction failures: unsupported formats,
	// corrupt files, or files that decode to nothing.
	ErrUnreadable = errors.New("file is empty or unreadable")
)
