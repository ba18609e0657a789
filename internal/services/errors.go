package services

import "errors"

// Sentinel errors surfaced by the service layer. The HTTP transport maps
// them to RFC 7807 problem responses.
var (
	// ErrSnapshotNotReady means no dataset snapshot has been built yet,
	// typically right after startup or after every load attempt failed.
	ErrSnapshotNotReady = errors.New("dataset snapshot not loaded")

	// ErrLabelNotFound means the requested measurement label is not part
	// of the current snapshot's vocabulary.
	ErrLabelNotFound = errors.New("label not found")

	// ErrNoData means the filtered view is empty where a non-empty view
	// is required, such as exporting zero rows.
	ErrNoData = errors.New("no observations match the filter")

	// ErrModelNotLoaded means the classifier artifact or its evaluation
	// table is not available.
	ErrModelNotLoaded = errors.New("classifier model not loaded")
)
