package service

import "errors"

// Sentinel errors for the coupling service.
var (
	ErrUnboundedExport = errors.New("run has no zones; set periods to bound the export")
	ErrExport          = errors.New("export failed")
)
