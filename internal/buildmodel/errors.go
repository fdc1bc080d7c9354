package buildmodel

//
// Errors
//

import "fmt"

// ConfigurationError indicates invalid or contradictory user input.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Reason
}

// DownloadError indicates that we cannot obtain the sources.
type DownloadError struct {
	// URL is the OPTIONAL URL we were trying to fetch.
	URL string

	// Reason describes what went wrong.
	Reason string

	// Err is the OPTIONAL underlying error.
	Err error
}

func (e *DownloadError) Error() string {
	msg := "download error: " + e.Reason
	if e.URL != "" {
		msg += " (" + e.URL + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *DownloadError) Unwrap() error {
	return e.Err
}

// BuildPhaseError indicates that configure or make failed for a target.
type BuildPhaseError struct {
	// Target is the Configure target name.
	Target string

	// Phase is the failing phase (e.g., "Configure").
	Phase string

	// LogFile is the path of the log file with the build output.
	LogFile string

	// Err is the underlying error.
	Err error
}

func (e *BuildPhaseError) Error() string {
	return fmt.Sprintf("%s of %s failed: %s (see %s for details)", e.Phase, e.Target, e.Err, e.LogFile)
}

// Unwrap returns the underlying error.
func (e *BuildPhaseError) Unwrap() error {
	return e.Err
}
