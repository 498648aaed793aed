package models

import "time"

// SectionStatus controls whether a section accepts registrations.
type SectionStatus string

const (
	SectionStatusOpen   SectionStatus = "OPEN"
	SectionStatusClosed SectionStatus = "CLOSED"
)

// Section is one scheduled offering of a course with its own capacity
// and timetable. ScheduleText uses the compact "Mon/Wed 10:00-11:30"
// format; "TBA" or empty means unscheduled.
type Section struct {
	ID            string        `db:"id" json:"id"`
	CourseCode    string        `db:"course_code" json:"course_code"`
	CourseTitle   string        `db:"course_title" json:"course_title"`
	Credits       int           `db:"credits" json:"credits"`
	InstructorID  *string       `db:"instructor_id" json:"instructor_id,omitempty"`
	ScheduleText  string        `db:"schedule_text" json:"schedule_text"`
	Capacity      int           `db:"capacity" json:"capacity"`
	EnrolledCount int           `db:"enrolled_count" json:"enrolled_count"`
	Status        SectionStatus `db:"status" json:"status"`
	DropDeadline  *time.Time    `db:"drop_deadline" json:"drop_deadline,omitempty"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updated_at"`
}

// HasSeats reports whether at least one seat remains.
func (s *Section) HasSeats() bool {
	return s.EnrolledCount < s.Capacity
}

// DropAllowed reports whether dropping is still permitted at the given
// instant. A section without a deadline can always be dropped.
func (s *Section) DropAllowed(now time.Time) bool {
	return s.DropDeadline == nil || !now.After(*s.DropDeadline)
}

// SectionFilter captures filtering criteria for listing sections.
type SectionFilter struct {
	CourseCode   string
	InstructorID string
	Status       SectionStatus
}
