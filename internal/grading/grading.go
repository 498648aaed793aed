// Package grading converts raw assessment scores into letter grades and
// grade-point aggregates. All functions are pure; persistence and
// authorization are the caller's concern.
package grading

import "github.com/campuserp/registry-api/internal/models"

// Component maxima. The three components sum to a total out of 100.
const (
	QuizMax    = 20.0
	MidtermMax = 30.0
	FinalMax   = 50.0
)

// NotGraded marks enrollments without a computable letter grade, both
// as the letter placeholder and as the distribution bucket key.
const NotGraded = "N/A"

// TotalScore sums the components that have been entered. An absent
// component contributes zero without making the record complete.
func TotalScore(r *models.AssessmentRecord) float64 {
	if r == nil {
		return 0
	}
	total := 0.0
	if r.Quiz != nil {
		total += *r.Quiz
	}
	if r.Midterm != nil {
		total += *r.Midterm
	}
	if r.Final != nil {
		total += *r.Final
	}
	return total
}

// IsComplete reports whether all three components have been entered.
func IsComplete(r *models.AssessmentRecord) bool {
	return r != nil && r.Quiz != nil && r.Midterm != nil && r.Final != nil
}

// LetterGrade maps a total percentage to a letter using inclusive lower
// bounds. It is only meaningful for complete records; use LetterFor when
// completeness is not already established.
func LetterGrade(total float64) string {
	switch {
	case total >= 90:
		return "A+"
	case total >= 85:
		return "A"
	case total >= 80:
		return "A-"
	case total >= 75:
		return "B+"
	case total >= 70:
		return "B"
	case total >= 65:
		return "B-"
	case total >= 60:
		return "C+"
	case total >= 55:
		return "C"
	case total >= 50:
		return "C-"
	case total >= 45:
		return "D"
	default:
		return "F"
	}
}

// LetterFor returns the letter grade for a record, or NotGraded when any
// component is still missing.
func LetterFor(r *models.AssessmentRecord) string {
	if !IsComplete(r) {
		return NotGraded
	}
	return LetterGrade(TotalScore(r))
}

// GradePoints returns the 10-point scale value for a letter grade.
// Unrecognized or empty letters score zero.
func GradePoints(letter string) float64 {
	switch letter {
	case "A+":
		return 10.0
	case "A":
		return 9.0
	case "A-":
		return 8.5
	case "B+":
		return 8.0
	case "B":
		return 7.0
	case "B-":
		return 6.5
	case "C+":
		return 6.0
	case "C":
		return 5.5
	case "C-":
		return 5.0
	case "D":
		return 4.0
	default:
		return 0.0
	}
}

// CreditedGrade pairs a final letter grade with the credits it carries.
type CreditedGrade struct {
	Letter  string
	Credits int
}

// CGPA computes the credit-weighted mean of grade points across entries
// with a non-empty letter. Entries without a letter are excluded from
// both numerator and denominator; zero qualifying entries yield 0.
func CGPA(grades []CreditedGrade) float64 {
	totalPoints := 0.0
	totalCredits := 0
	for _, g := range grades {
		if g.Letter == "" || g.Letter == NotGraded {
			continue
		}
		totalPoints += GradePoints(g.Letter) * float64(g.Credits)
		totalCredits += g.Credits
	}
	if totalCredits == 0 {
		return 0
	}
	return totalPoints / float64(totalCredits)
}

// ClassStatistics aggregates scores and letter distribution for one
// section's enrollments.
type ClassStatistics struct {
	TotalStudents  int            `json:"total_students"`
	GradedStudents int            `json:"graded_students"`
	AverageScore   float64        `json:"average_score"`
	MinScore       float64        `json:"min_score"`
	MaxScore       float64        `json:"max_score"`
	Distribution   map[string]int `json:"distribution"`
}

var distributionKeys = []string{"A+", "A", "A-", "B+", "B", "B-", "C+", "C", "C-", "D", "F", NotGraded}

// ComputeClassStatistics derives class statistics. Only enrollments with
// a complete assessment record contribute to average/min/max; every
// enrollment contributes to the distribution keyed by its recorded final
// grade, with missing letters bucketed under NotGraded. Score aggregates
// default to 0 when no record is complete.
func ComputeClassStatistics(enrollments []models.Enrollment, records map[string]*models.AssessmentRecord) ClassStatistics {
	stats := ClassStatistics{
		TotalStudents: len(enrollments),
		Distribution:  make(map[string]int, len(distributionKeys)),
	}
	for _, key := range distributionKeys {
		stats.Distribution[key] = 0
	}

	sum := 0.0
	for _, enrollment := range enrollments {
		if record := records[enrollment.StudentID]; IsComplete(record) {
			score := TotalScore(record)
			if stats.GradedStudents == 0 || score < stats.MinScore {
				stats.MinScore = score
			}
			if stats.GradedStudents == 0 || score > stats.MaxScore {
				stats.MaxScore = score
			}
			sum += score
			stats.GradedStudents++
		}

		letter := NotGraded
		if enrollment.FinalGrade != nil && *enrollment.FinalGrade != "" {
			letter = *enrollment.FinalGrade
		}
		stats.Distribution[letter]++
	}

	if stats.GradedStudents > 0 {
		stats.AverageScore = sum / float64(stats.GradedStudents)
	}
	return stats
}
