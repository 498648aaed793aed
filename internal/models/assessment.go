package models

import "time"

// AssessmentRecord holds the component scores for one student in one
// section. A nil component means "not yet entered", which is distinct
// from a zero score.
type AssessmentRecord struct {
	ID        string    `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"student_id"`
	SectionID string    `db:"section_id" json:"section_id"`
	Quiz      *float64  `db:"quiz" json:"quiz,omitempty"`
	Midterm   *float64  `db:"midterm" json:"midterm,omitempty"`
	Final     *float64  `db:"final" json:"final,omitempty"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
