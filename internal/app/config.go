package app

import "time"

// Config holds runtime configuration for the application.
type Config struct {
	// Source
	BaseURL        string
	UserAgent      string
	AcceptLanguage string
	Insecure       bool

	// Walk
	DaysAgo        int
	MaxPages       int
	MinPageRecords int
	PageDelay      time.Duration

	// Fetch
	MaxAttempts    int
	RetryDelay     time.Duration
	RequestTimeout time.Duration

	// Output
	OutputPath   string
	AppendDedupe bool

	// Behavior
	DebugDir string
	Verbose  bool
}
