package handlers

import "time"

const (
	// Response error labels
	errBadRequest    = "Bad Request"
	errInternal      = "Internal Server Error"
	errNotFound      = "Not Found"
	errUnavailable   = "Service Unavailable"
	defaultSessionID = "anonymous"

	interpretTimeout = 60 * time.Second
	healthDBTimeout  = 2 * time.Second

	// Validation messages
	msgTranscriptRequired = "transcript is required and must be a string"
	msgFirstFlagRequired  = "isFirstCommand is required and must be a boolean"
	msgBPMRequired        = "currentBpm is required and must be a number"
	msgBPMNotNumber       = "currentBpm must be a number"
	msgInterpretFailed    = "Failed to interpret voice command"
)
