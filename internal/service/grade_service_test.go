package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuserp/registry-api/internal/models"
	appErrors "github.com/campuserp/registry-api/pkg/errors"
)

type fakeGradeEnrollmentStore struct {
	bySection map[string][]models.Enrollment
	byStudent map[string][]models.EnrollmentDetail
	finals    map[string]string
}

func (f *fakeGradeEnrollmentStore) FindByStudentAndSection(ctx context.Context, studentID, sectionID string) (*models.Enrollment, error) {
	for _, enrollment := range f.bySection[sectionID] {
		if enrollment.StudentID == studentID {
			copied := enrollment
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeGradeEnrollmentStore) ListBySection(ctx context.Context, sectionID string) ([]models.Enrollment, error) {
	return f.bySection[sectionID], nil
}

func (f *fakeGradeEnrollmentStore) ListByStudentAndStatus(ctx context.Context, studentID string, status models.EnrollmentStatus) ([]models.EnrollmentDetail, error) {
	var matched []models.EnrollmentDetail
	for _, detail := range f.byStudent[studentID] {
		if detail.Status == status {
			matched = append(matched, detail)
		}
	}
	return matched, nil
}

func (f *fakeGradeEnrollmentStore) SetFinalGrade(ctx context.Context, id, letter string) error {
	if f.finals == nil {
		f.finals = make(map[string]string)
	}
	f.finals[id] = letter
	return nil
}

type fakeAssessmentStore struct {
	records map[string]*models.AssessmentRecord
	upserts int
}

func assessmentKey(studentID, sectionID string) string {
	return studentID + "|" + sectionID
}

func (f *fakeAssessmentStore) FindByStudentAndSection(ctx context.Context, studentID, sectionID string) (*models.AssessmentRecord, error) {
	record, ok := f.records[assessmentKey(studentID, sectionID)]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *record
	return &copied, nil
}

func (f *fakeAssessmentStore) MapBySection(ctx context.Context, sectionID string) (map[string]*models.AssessmentRecord, error) {
	out := make(map[string]*models.AssessmentRecord)
	for _, record := range f.records {
		if record.SectionID == sectionID {
			out[record.StudentID] = record
		}
	}
	return out, nil
}

func (f *fakeAssessmentStore) Upsert(ctx context.Context, record *models.AssessmentRecord) error {
	if f.records == nil {
		f.records = make(map[string]*models.AssessmentRecord)
	}
	copied := *record
	f.records[assessmentKey(record.StudentID, record.SectionID)] = &copied
	f.upserts++
	return nil
}

type fakeStatsCache struct {
	deletes []string
	sets    int
}

func (f *fakeStatsCache) Get(ctx context.Context, key string, dest interface{}) error {
	return appErrors.ErrCacheMiss
}

func (f *fakeStatsCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	f.sets++
	return nil
}

func (f *fakeStatsCache) Delete(ctx context.Context, keys ...string) {
	f.deletes = append(f.deletes, keys...)
}

func floatPtr(v float64) *float64 { return &v }

func strPtr(v string) *string { return &v }

func newGradeFixture(t *testing.T) (*GradeService, *fakeSectionStore, *fakeGradeEnrollmentStore, *fakeAssessmentStore, *fakeStatsCache) {
	t.Helper()
	instructor := "inst-1"
	sections := &fakeSectionStore{sections: map[string]*models.Section{
		"sec-1": {
			ID:           "sec-1",
			CourseCode:   "CS101",
			CourseTitle:  "Intro to Computing",
			Credits:      4,
			InstructorID: &instructor,
			Capacity:     30,
			Status:       models.SectionStatusOpen,
		},
	}}
	enrollments := &fakeGradeEnrollmentStore{
		bySection: map[string][]models.Enrollment{
			"sec-1": {
				{ID: "enr-1", StudentID: "stu-1", SectionID: "sec-1", Status: models.EnrollmentStatusActive},
				{ID: "enr-2", StudentID: "stu-2", SectionID: "sec-1", Status: models.EnrollmentStatusActive},
			},
		},
	}
	assessments := &fakeAssessmentStore{records: map[string]*models.AssessmentRecord{}}
	cache := &fakeStatsCache{}
	svc := NewGradeService(sections, enrollments, assessments, openGate{}, cache, time.Minute, nil, nil)
	return svc, sections, enrollments, assessments, cache
}

func TestUpsertAssessmentMergesComponents(t *testing.T) {
	svc, _, _, assessments, cache := newGradeFixture(t)

	_, err := svc.UpsertAssessment(context.Background(), "inst-1", models.RoleInstructor, UpsertAssessmentRequest{
		StudentID: "stu-1",
		SectionID: "sec-1",
		Quiz:      floatPtr(18),
	})
	require.NoError(t, err)

	record, err := svc.UpsertAssessment(context.Background(), "inst-1", models.RoleInstructor, UpsertAssessmentRequest{
		StudentID: "stu-1",
		SectionID: "sec-1",
		Midterm:   floatPtr(25),
		Final:     floatPtr(44),
	})
	require.NoError(t, err)
	require.NotNil(t, record.Quiz)
	assert.Equal(t, 18.0, *record.Quiz)
	assert.Equal(t, 25.0, *record.Midterm)
	assert.Equal(t, 44.0, *record.Final)
	assert.Equal(t, 2, assessments.upserts)
	assert.Contains(t, cache.deletes, statsCacheKey("sec-1"))
}

func TestUpsertAssessmentRejectsOverMaximum(t *testing.T) {
	svc, _, _, _, _ := newGradeFixture(t)

	_, err := svc.UpsertAssessment(context.Background(), "inst-1", models.RoleInstructor, UpsertAssessmentRequest{
		StudentID: "stu-1",
		SectionID: "sec-1",
		Quiz:      floatPtr(20.5),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUpsertAssessmentForeignInstructor(t *testing.T) {
	svc, _, _, _, _ := newGradeFixture(t)

	_, err := svc.UpsertAssessment(context.Background(), "inst-2", models.RoleInstructor, UpsertAssessmentRequest{
		StudentID: "stu-1",
		SectionID: "sec-1",
		Quiz:      floatPtr(10),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestUpsertAssessmentAdminBypassesOwnership(t *testing.T) {
	svc, _, _, _, _ := newGradeFixture(t)

	_, err := svc.UpsertAssessment(context.Background(), "admin-1", models.RoleAdmin, UpsertAssessmentRequest{
		StudentID: "stu-1",
		SectionID: "sec-1",
		Quiz:      floatPtr(10),
	})
	require.NoError(t, err)
}

func TestUpsertAssessmentDroppedEnrollment(t *testing.T) {
	svc, _, enrollments, _, _ := newGradeFixture(t)
	enrollments.bySection["sec-1"][0].Status = models.EnrollmentStatusDropped

	_, err := svc.UpsertAssessment(context.Background(), "inst-1", models.RoleInstructor, UpsertAssessmentRequest{
		StudentID: "stu-1",
		SectionID: "sec-1",
		Quiz:      floatPtr(10),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestFinalizeSectionSkipsIncompleteRecords(t *testing.T) {
	svc, _, enrollments, assessments, _ := newGradeFixture(t)
	assessments.records = map[string]*models.AssessmentRecord{
		assessmentKey("stu-1", "sec-1"): {
			StudentID: "stu-1", SectionID: "sec-1",
			Quiz: floatPtr(18), Midterm: floatPtr(27), Final: floatPtr(46),
		},
		assessmentKey("stu-2", "sec-1"): {
			StudentID: "stu-2", SectionID: "sec-1",
			Quiz: floatPtr(12),
		},
	}

	result, err := svc.FinalizeSection(context.Background(), "inst-1", models.RoleInstructor, "sec-1")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Finalized)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, "A+", enrollments.finals["enr-1"])
	assert.NotContains(t, enrollments.finals, "enr-2")
}

func TestSectionStatisticsComputedAndCached(t *testing.T) {
	svc, _, enrollments, assessments, cache := newGradeFixture(t)
	enrollments.bySection["sec-1"][0].FinalGrade = strPtr("A")
	assessments.records = map[string]*models.AssessmentRecord{
		assessmentKey("stu-1", "sec-1"): {
			StudentID: "stu-1", SectionID: "sec-1",
			Quiz: floatPtr(17), Midterm: floatPtr(26), Final: floatPtr(43),
		},
	}

	stats, err := svc.SectionStatistics(context.Background(), "inst-1", models.RoleInstructor, "sec-1")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalStudents)
	assert.Equal(t, 1, stats.GradedStudents)
	assert.Equal(t, 86.0, stats.AverageScore)
	assert.Equal(t, 86.0, stats.MinScore)
	assert.Equal(t, 86.0, stats.MaxScore)
	assert.Equal(t, 1, stats.Distribution["A"])
	assert.Equal(t, 1, stats.Distribution["N/A"])
	assert.Equal(t, 0, stats.Distribution["F"])
	assert.Equal(t, 1, cache.sets)
}

func TestStudentTranscriptWeightsCGPAByCredits(t *testing.T) {
	svc, _, enrollments, _, _ := newGradeFixture(t)
	enrollments.byStudent = map[string][]models.EnrollmentDetail{
		"stu-1": {
			{
				Enrollment: models.Enrollment{
					ID: "enr-1", StudentID: "stu-1", SectionID: "sec-1",
					Status: models.EnrollmentStatusCompleted, FinalGrade: strPtr("A"),
				},
				CourseCode: "CS101", CourseTitle: "Intro to Computing", Credits: 4,
			},
			{
				Enrollment: models.Enrollment{
					ID: "enr-3", StudentID: "stu-1", SectionID: "sec-2",
					Status: models.EnrollmentStatusCompleted, FinalGrade: strPtr("B"),
				},
				CourseCode: "MATH201", CourseTitle: "Calculus II", Credits: 2,
			},
		},
	}

	transcript, err := svc.StudentTranscript(context.Background(), "stu-1")
	require.NoError(t, err)
	require.Len(t, transcript.Entries, 2)
	// (9*4 + 7*2) / 6
	assert.InDelta(t, 50.0/6.0, transcript.CGPA, 1e-9)
}

func TestStudentCGPAZeroWithoutCompletedCourses(t *testing.T) {
	svc, _, _, _, _ := newGradeFixture(t)

	cgpa, err := svc.StudentCGPA(context.Background(), "stu-9")
	require.NoError(t, err)
	assert.Zero(t, cgpa)
}
