package domain

// ImportFormat selects the parser used by an import job.
type ImportFormat string

const (
	ImportFormatLexicon ImportFormat = "lexicon"
	ImportFormatCSV     ImportFormat = "csv"
)

func (f ImportFormat) String() string { return string(f) }

func (f ImportFormat) IsValid() bool {
	switch f {
	case ImportFormatLexicon, ImportFormatCSV:
		return true
	}
	return false
}

// NotationStyle is the output encoding of phonetic notation.
type NotationStyle string

const (
	NotationNumbers    NotationStyle = "numbers"
	NotationDiacritics NotationStyle = "diacritics"
	NotationNone       NotationStyle = "none"
)

func (s NotationStyle) String() string { return string(s) }

func (s NotationStyle) IsValid() bool {
	switch s {
	case NotationNumbers, NotationDiacritics, NotationNone:
		return true
	}
	return false
}

// JobStatus is the state of an import job.
type JobStatus string

const (
	JobStatusQueued  JobStatus = "queued"
	JobStatusRunning JobStatus = "running"
	JobStatusDone    JobStatus = "done"
	JobStatusError   JobStatus = "error"
)

func (s JobStatus) String() string { return string(s) }

func (s JobStatus) IsValid() bool {
	switch s {
	case JobStatusQueued, JobStatusRunning, JobStatusDone, JobStatusError:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions are possible.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusDone || s == JobStatusError
}

// LogLevel is the severity of a job transcript line.
type LogLevel string

const (
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

func (l LogLevel) String() string { return string(l) }
