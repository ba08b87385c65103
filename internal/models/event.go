package models

import "time"

// NormalizedEmail is a single fetched mailbox message reduced to the
// fields the extraction prompt needs. It is immutable once produced.
type NormalizedEmail struct {
	From    string
	To      string
	Subject string
	Body    string
}

// CandidateEvent is one event description as reported by the inference
// service. Fields are pointers so that a missing key can be told apart
// from an empty string: validity is established by the pipeline, never
// assumed.
type CandidateEvent struct {
	StartDateTime *string `json:"start_datetime"`
	Summary       *string `json:"summary"`
}

// ValidatedEvent is a candidate whose required fields passed presence
// and parse checks, carrying the derived time window. End keeps the
// same UTC offset as Start.
type ValidatedEvent struct {
	Summary string
	Start   time.Time
	End     time.Time
}
