package model

import "errors"

var (
	// ErrMissingSourceProject indicates that the source project of a forked
	// merge request no longer exists (fork deleted or renamed).
	ErrMissingSourceProject = errors.New("source project is missing")
	// ErrInvalidMergeRequest indicates that a raw merge request lacks the ids
	// needed to enrich it.
	ErrInvalidMergeRequest = errors.New("invalid merge request")
)
