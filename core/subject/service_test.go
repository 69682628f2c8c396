package subject_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/studia/core/subject"
	inmemdb "github.com/trezcool/studia/storage/database/inmem"
)

func setup(t *testing.T) (subject.ServiceInterface, subject.Repository) {
	t.Helper()
	db := inmemdb.New()
	repo := inmemdb.NewSubjectRepository(db)
	return subject.NewService(repo), repo
}

func createSubject(t *testing.T, svc subject.ServiceInterface, userID, name string) subject.Subject {
	t.Helper()
	sub, err := svc.Create(context.Background(), userID, subject.NewSubject{Name: name})
	require.NoError(t, err)
	return sub
}

func createAssessment(
	t *testing.T, svc subject.ServiceInterface, userID, subjectID, name string, weight float64,
) subject.Assessment {
	t.Helper()
	ass, err := svc.CreateAssessment(context.Background(), userID, subjectID, subject.NewAssessment{
		Name:         name,
		Contribution: subject.ContributionIndividual,
		Weight:       weight,
	})
	require.NoError(t, err)
	return ass
}

func fPtr(f float64) *float64 { return &f }

func Test_service_totalGradeLifecycle(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	userID := "usr1"

	sub := createSubject(t, svc, userID, "Databases")
	exam := createAssessment(t, svc, userID, sub.ID, "Exam", 60)
	project := createAssessment(t, svc, userID, sub.ID, "Project", 40)

	// grading one assessment renormalizes over its weight alone
	_, err := svc.CreateGrade(ctx, userID, project.ID, subject.NewGrade{Name: "Sprint 1", Value: 70})
	require.NoError(t, err)
	sub, err = svc.Get(ctx, userID, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, 70.0, sub.TotalGrade)

	// grading the second assessment brings the full weighted mean
	examGrade, err := svc.CreateGrade(ctx, userID, exam.ID, subject.NewGrade{Name: "Final", Value: 90})
	require.NoError(t, err)
	sub, err = svc.Get(ctx, userID, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, 82.0, sub.TotalGrade) // (90*60 + 70*40) / 100

	// a grade value change recomputes
	_, err = svc.UpdateGrade(ctx, userID, examGrade.ID, subject.UpdateGrade{Value: fPtr(50)})
	require.NoError(t, err)
	sub, err = svc.Get(ctx, userID, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, 58.0, sub.TotalGrade) // (50*60 + 70*40) / 100

	// deleting a grade recomputes too
	require.NoError(t, svc.DeleteGrade(ctx, userID, examGrade.ID))
	sub, err = svc.Get(ctx, userID, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, 70.0, sub.TotalGrade)
}

func Test_service_nameOnlyGradeEditSkipsRecompute(t *testing.T) {
	svc, repo := setup(t)
	ctx := context.Background()
	userID := "usr1"

	sub := createSubject(t, svc, userID, "Algorithms")
	ass := createAssessment(t, svc, userID, sub.ID, "Quiz", 50)
	grd, err := svc.CreateGrade(ctx, userID, ass.ID, subject.NewGrade{Name: "Quiz 1", Value: 64})
	require.NoError(t, err)

	// plant a sentinel total; a name-only edit must not overwrite it
	require.NoError(t, repo.SetSubjectTotalGrade(ctx, userID, sub.ID, 33))

	grd, err = svc.UpdateGrade(ctx, userID, grd.ID, subject.UpdateGrade{Name: "Quiz 1 (moderated)"})
	require.NoError(t, err)
	assert.Equal(t, "Quiz 1 (moderated)", grd.Name)

	sub, err = svc.Get(ctx, userID, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, 33.0, sub.TotalGrade)

	// same value sent back explicitly is not a change either
	_, err = svc.UpdateGrade(ctx, userID, grd.ID, subject.UpdateGrade{Value: fPtr(64)})
	require.NoError(t, err)
	sub, err = svc.Get(ctx, userID, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, 33.0, sub.TotalGrade)
}

func Test_service_weightGuard(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	userID := "usr1"

	sub := createSubject(t, svc, userID, "Physics")
	createAssessment(t, svc, userID, sub.ID, "Lab", 40)
	exam := createAssessment(t, svc, userID, sub.ID, "Exam", 60) // budget now full

	// a new assessment with any positive weight busts the budget
	_, err := svc.CreateAssessment(ctx, userID, sub.ID, subject.NewAssessment{
		Name:         "Surprise",
		Contribution: subject.ContributionGroup,
		Weight:       1,
	})
	require.Error(t, err)

	// zero weight still fits
	_, err = svc.CreateAssessment(ctx, userID, sub.ID, subject.NewAssessment{
		Name:         "Attendance",
		Contribution: subject.ContributionIndividual,
		Weight:       0,
	})
	require.NoError(t, err)

	// editing an assessment excludes its own weight from the budget
	_, err = svc.UpdateAssessment(ctx, userID, exam.ID, subject.UpdateAssessment{Weight: fPtr(55)})
	require.NoError(t, err)
	_, err = svc.UpdateAssessment(ctx, userID, exam.ID, subject.UpdateAssessment{Weight: fPtr(61)})
	require.Error(t, err)
}

func Test_service_weightChangeRecomputes(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	userID := "usr1"

	sub := createSubject(t, svc, userID, "Chemistry")
	a1 := createAssessment(t, svc, userID, sub.ID, "Practical", 50)
	a2 := createAssessment(t, svc, userID, sub.ID, "Theory", 50)

	_, err := svc.CreateGrade(ctx, userID, a1.ID, subject.NewGrade{Name: "P", Value: 100})
	require.NoError(t, err)
	_, err = svc.CreateGrade(ctx, userID, a2.ID, subject.NewGrade{Name: "T", Value: 50})
	require.NoError(t, err)

	sub, err = svc.Get(ctx, userID, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, 75.0, sub.TotalGrade)

	// shifting weight toward the stronger assessment raises the total
	_, err = svc.UpdateAssessment(ctx, userID, a2.ID, subject.UpdateAssessment{Weight: fPtr(25)})
	require.NoError(t, err)
	sub, err = svc.Get(ctx, userID, sub.ID)
	require.NoError(t, err)
	assert.InDelta(t, 83.33, sub.TotalGrade, 0.01) // (100*50 + 50*25) / 75

	// deleting the weaker assessment removes it from the mean
	require.NoError(t, svc.DeleteAssessment(ctx, userID, a2.ID))
	sub, err = svc.Get(ctx, userID, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, 100.0, sub.TotalGrade)
}

func Test_service_ownershipScoping(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	sub := createSubject(t, svc, "owner", "Secret Course")
	ass := createAssessment(t, svc, "owner", sub.ID, "Exam", 50)

	_, err := svc.Get(ctx, "intruder", sub.ID)
	assert.Equal(t, subject.ErrNotFound, errors.Cause(err))

	_, err = svc.CreateGrade(ctx, "intruder", ass.ID, subject.NewGrade{Name: "G", Value: 10})
	assert.Equal(t, subject.ErrAssessmentNotFound, errors.Cause(err))

	err = svc.Delete(ctx, "intruder", sub.ID)
	assert.Equal(t, subject.ErrNotFound, errors.Cause(err))

	// owner still sees it untouched
	_, err = svc.Get(ctx, "owner", sub.ID)
	assert.NoError(t, err)
}

func Test_service_deleteSubjectCascades(t *testing.T) {
	svc, repo := setup(t)
	ctx := context.Background()
	userID := "usr1"

	sub := createSubject(t, svc, userID, "History")
	ass := createAssessment(t, svc, userID, sub.ID, "Essay", 100)
	_, err := svc.CreateGrade(ctx, userID, ass.ID, subject.NewGrade{Name: "Draft", Value: 80})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, userID, sub.ID))

	asses, err := repo.QueryAssessments(ctx, userID, sub.ID)
	require.NoError(t, err)
	assert.Empty(t, asses)
	grds, err := repo.QueryGrades(ctx, userID, sub.ID)
	require.NoError(t, err)
	assert.Empty(t, grds)
}
