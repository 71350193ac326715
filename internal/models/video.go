package models

import "time"

// Video is one recorded sample of a sign, stored in object storage and
// referenced by s3_key. Session fields are optional and NULL when the
// client did not record as part of a session.
type Video struct {
	ID               int        `json:"id"`
	Palabra          string     `json:"palabra"`
	S3Key            string     `json:"s3_key"`
	SessionID        *string    `json:"session_id"`
	SequenceNumber   *int       `json:"sequence_number"`
	SessionStartedAt *time.Time `json:"session_started_at"`
	CreatedAt        time.Time  `json:"created_at"`
}

// PalabraCount is one row of the per-palabra aggregate.
type PalabraCount struct {
	Palabra string `json:"palabra"`
	Count   int    `json:"count"`
}
