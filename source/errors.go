package source

import "errors"

var (
	// ErrMissingColumn is returned when a CSV header lacks a required column.
	ErrMissingColumn = errors.New("missing required column")

	// ErrNoCSVFiles is returned when corpus discovery finds no input files.
	ErrNoCSVFiles = errors.New("no CSV files found")

	// ErrNoRecordsLoaded is returned when every discovered file failed to load.
	ErrNoRecordsLoaded = errors.New("no CSV files could be loaded")
)
