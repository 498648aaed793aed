package models

import "time"

// EnrollmentStatus represents the lifecycle of an enrollment.
type EnrollmentStatus string

// Lifecycle: ACTIVE -> DROPPED (before deadline), ACTIVE -> COMPLETED
// (grade finalization), DROPPED -> ACTIVE (re-registration reactivates
// the original record instead of duplicating it).
const (
	EnrollmentStatusActive    EnrollmentStatus = "ACTIVE"
	EnrollmentStatusDropped   EnrollmentStatus = "DROPPED"
	EnrollmentStatusCompleted EnrollmentStatus = "COMPLETED"
)

// Enrollment links a student to a section. At most one row exists per
// (student, section) pair regardless of status history.
type Enrollment struct {
	ID         string           `db:"id" json:"id"`
	StudentID  string           `db:"student_id" json:"student_id"`
	SectionID  string           `db:"section_id" json:"section_id"`
	EnrolledAt time.Time        `db:"enrolled_at" json:"enrolled_at"`
	DroppedAt  *time.Time       `db:"dropped_at" json:"dropped_at,omitempty"`
	FinalGrade *string          `db:"final_grade" json:"final_grade,omitempty"`
	Status     EnrollmentStatus `db:"status" json:"status"`
}

// EnrollmentDetail enriches Enrollment with section and course info.
type EnrollmentDetail struct {
	Enrollment
	CourseCode   string `db:"course_code" json:"course_code"`
	CourseTitle  string `db:"course_title" json:"course_title"`
	Credits      int    `db:"credits" json:"credits"`
	ScheduleText string `db:"schedule_text" json:"schedule_text"`
}
