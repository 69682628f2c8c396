package subject

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/studia/core"
)

var (
	ErrNotFound           = errors.New("subject not found")
	ErrAssessmentNotFound = errors.New("assessment not found")
	ErrGradeNotFound      = errors.New("grade not found")
)

type (
	// Repository scopes every call by the owning user's ID; a row owned by
	// another user is reported as not found.
	Repository interface {
		CreateSubject(ctx context.Context, sub Subject) (Subject, error)
		QuerySubjects(ctx context.Context, userID string, filter *QueryFilter, ordering []core.DBOrdering) ([]Subject, error)
		GetSubject(ctx context.Context, userID, id string) (Subject, error)
		UpdateSubject(ctx context.Context, sub Subject) (Subject, error)
		SetSubjectTotalGrade(ctx context.Context, userID, id string, total float64) error
		// DeleteSubject cascades to the subject's assessments and their grades.
		DeleteSubject(ctx context.Context, userID, id string) error

		CreateAssessment(ctx context.Context, ass Assessment) (Assessment, error)
		QueryAssessments(ctx context.Context, userID, subjectID string) ([]Assessment, error)
		GetAssessment(ctx context.Context, userID, id string) (Assessment, error)
		UpdateAssessment(ctx context.Context, ass Assessment) (Assessment, error)
		// DeleteAssessment cascades to the assessment's grades.
		DeleteAssessment(ctx context.Context, userID, id string) error

		CreateGrade(ctx context.Context, grd Grade) (Grade, error)
		QueryGrades(ctx context.Context, userID, subjectID string) ([]Grade, error)
		GetGrade(ctx context.Context, userID, id string) (Grade, error)
		UpdateGrade(ctx context.Context, grd Grade) (Grade, error)
		DeleteGrade(ctx context.Context, userID, id string) error
	}

	ServiceInterface interface {
		Create(ctx context.Context, userID string, ns NewSubject) (Subject, error)
		Query(ctx context.Context, userID string, filter *QueryFilter, ordering []core.DBOrdering) ([]Subject, error)
		Get(ctx context.Context, userID, id string) (Subject, error)
		Update(ctx context.Context, userID, id string, us UpdateSubject) (Subject, error)
		Delete(ctx context.Context, userID, id string) error

		CreateAssessment(ctx context.Context, userID, subjectID string, na NewAssessment) (Assessment, error)
		QueryAssessments(ctx context.Context, userID, subjectID string) ([]Assessment, error)
		UpdateAssessment(ctx context.Context, userID, id string, ua UpdateAssessment) (Assessment, error)
		DeleteAssessment(ctx context.Context, userID, id string) error

		CreateGrade(ctx context.Context, userID, assessmentID string, ng NewGrade) (Grade, error)
		UpdateGrade(ctx context.Context, userID, id string, ug UpdateGrade) (Grade, error)
		DeleteGrade(ctx context.Context, userID, id string) error
	}

	service struct {
		repo Repository
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(repo Repository) ServiceInterface {
	return &service{repo: repo}
}

func (svc *service) Create(ctx context.Context, userID string, ns NewSubject) (Subject, error) {
	now := time.Now().UTC()
	sub := Subject{
		UserID:           userID,
		Name:             ns.Name,
		Code:             ns.Code,
		Description:      ns.Description,
		Term:             ns.Term,
		CoordinatorName:  ns.CoordinatorName,
		CoordinatorEmail: ns.CoordinatorEmail,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	return svc.repo.CreateSubject(ctx, sub)
}

func (svc *service) Query(ctx context.Context, userID string, filter *QueryFilter, ordering []core.DBOrdering) ([]Subject, error) {
	return svc.repo.QuerySubjects(ctx, userID, filter, ordering)
}

func (svc *service) Get(ctx context.Context, userID, id string) (Subject, error) {
	return svc.repo.GetSubject(ctx, userID, id)
}

func (svc *service) Update(ctx context.Context, userID, id string, us UpdateSubject) (Subject, error) {
	sub, err := svc.repo.GetSubject(ctx, userID, id)
	if err != nil {
		return Subject{}, err
	}
	if us.Name != "" {
		sub.Name = us.Name
	}
	if us.Code != "" {
		sub.Code = us.Code
	}
	if us.Description != "" {
		sub.Description = us.Description
	}
	if us.Term != "" {
		sub.Term = us.Term
	}
	if us.CoordinatorName != "" {
		sub.CoordinatorName = us.CoordinatorName
	}
	if us.CoordinatorEmail != "" {
		sub.CoordinatorEmail = us.CoordinatorEmail
	}
	if us.Archived != nil {
		sub.Archived = *us.Archived
	}
	sub.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateSubject(ctx, sub)
}

func (svc *service) Delete(ctx context.Context, userID, id string) error {
	return svc.repo.DeleteSubject(ctx, userID, id)
}

func (svc *service) CreateAssessment(ctx context.Context, userID, subjectID string, na NewAssessment) (Assessment, error) {
	sub, err := svc.repo.GetSubject(ctx, userID, subjectID)
	if err != nil {
		return Assessment{}, err
	}

	siblings, err := svc.repo.QueryAssessments(ctx, userID, sub.ID)
	if err != nil {
		return Assessment{}, errors.Wrap(err, "querying sibling assessments")
	}
	if err = ValidateWeight(na.Weight, assessmentWeights(siblings, "")); err != nil {
		return Assessment{}, err
	}

	now := time.Now().UTC()
	ass := Assessment{
		SubjectID:    sub.ID,
		UserID:       userID,
		Name:         na.Name,
		Icon:         na.Icon,
		Contribution: na.Contribution,
		Weight:       na.Weight,
		Description:  na.Description,
		DueDate:      na.DueDate,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return svc.repo.CreateAssessment(ctx, ass)
}

func (svc *service) QueryAssessments(ctx context.Context, userID, subjectID string) ([]Assessment, error) {
	return svc.repo.QueryAssessments(ctx, userID, subjectID)
}

func (svc *service) UpdateAssessment(ctx context.Context, userID, id string, ua UpdateAssessment) (Assessment, error) {
	ass, err := svc.repo.GetAssessment(ctx, userID, id)
	if err != nil {
		return Assessment{}, err
	}

	weightChanged := ua.Weight != nil && *ua.Weight != ass.Weight
	if weightChanged {
		siblings, err := svc.repo.QueryAssessments(ctx, userID, ass.SubjectID)
		if err != nil {
			return Assessment{}, errors.Wrap(err, "querying sibling assessments")
		}
		if err = ValidateWeight(*ua.Weight, assessmentWeights(siblings, ass.ID)); err != nil {
			return Assessment{}, err
		}
		ass.Weight = *ua.Weight
	}

	if ua.Name != "" {
		ass.Name = ua.Name
	}
	if ua.Icon != "" {
		ass.Icon = ua.Icon
	}
	if ua.Contribution != "" {
		ass.Contribution = ua.Contribution
	}
	if ua.Description != "" {
		ass.Description = ua.Description
	}
	if ua.DueDate != nil {
		ass.DueDate = ua.DueDate
	}
	if ua.Complete != nil {
		ass.Complete = *ua.Complete
	}
	ass.UpdatedAt = time.Now().UTC()

	ass, err = svc.repo.UpdateAssessment(ctx, ass)
	if err != nil {
		return Assessment{}, err
	}

	// a weight change shifts the weighted average even without grade edits
	if weightChanged {
		if err = svc.recomputeTotalGrade(ctx, userID, ass.SubjectID); err != nil {
			return Assessment{}, err
		}
	}
	return ass, nil
}

func (svc *service) DeleteAssessment(ctx context.Context, userID, id string) error {
	ass, err := svc.repo.GetAssessment(ctx, userID, id)
	if err != nil {
		return err
	}
	if err = svc.repo.DeleteAssessment(ctx, userID, id); err != nil {
		return err
	}
	return svc.recomputeTotalGrade(ctx, userID, ass.SubjectID)
}

func (svc *service) CreateGrade(ctx context.Context, userID, assessmentID string, ng NewGrade) (Grade, error) {
	ass, err := svc.repo.GetAssessment(ctx, userID, assessmentID)
	if err != nil {
		return Grade{}, err
	}

	now := time.Now().UTC()
	grd := Grade{
		AssessmentID: ass.ID,
		SubjectID:    ass.SubjectID,
		UserID:       userID,
		Name:         ng.Name,
		Value:        ng.Value,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	grd, err = svc.repo.CreateGrade(ctx, grd)
	if err != nil {
		return Grade{}, err
	}
	if err = svc.recomputeTotalGrade(ctx, userID, grd.SubjectID); err != nil {
		return Grade{}, err
	}
	return grd, nil
}

func (svc *service) UpdateGrade(ctx context.Context, userID, id string, ug UpdateGrade) (Grade, error) {
	grd, err := svc.repo.GetGrade(ctx, userID, id)
	if err != nil {
		return Grade{}, err
	}

	valueChanged := ug.Value != nil && *ug.Value != grd.Value
	if ug.Name != "" {
		grd.Name = ug.Name
	}
	if valueChanged {
		grd.Value = *ug.Value
	}
	grd.UpdatedAt = time.Now().UTC()

	grd, err = svc.repo.UpdateGrade(ctx, grd)
	if err != nil {
		return Grade{}, err
	}

	// name-only edits do not touch the subject total
	if valueChanged {
		if err = svc.recomputeTotalGrade(ctx, userID, grd.SubjectID); err != nil {
			return Grade{}, err
		}
	}
	return grd, nil
}

func (svc *service) DeleteGrade(ctx context.Context, userID, id string) error {
	grd, err := svc.repo.GetGrade(ctx, userID, id)
	if err != nil {
		return err
	}
	if err = svc.repo.DeleteGrade(ctx, userID, id); err != nil {
		return err
	}
	return svc.recomputeTotalGrade(ctx, userID, grd.SubjectID)
}

// recomputeTotalGrade re-derives and persists Subject.TotalGrade from the
// subject's current assessments and grades.
func (svc *service) recomputeTotalGrade(ctx context.Context, userID, subjectID string) error {
	assessments, err := svc.repo.QueryAssessments(ctx, userID, subjectID)
	if err != nil {
		return errors.Wrap(err, "querying assessments for total grade")
	}
	grades, err := svc.repo.QueryGrades(ctx, userID, subjectID)
	if err != nil {
		return errors.Wrap(err, "querying grades for total grade")
	}
	total := ComputeTotalGrade(assessments, GroupGradesByAssessment(grades))
	return errors.Wrap(
		svc.repo.SetSubjectTotalGrade(ctx, userID, subjectID, total),
		"persisting total grade",
	)
}

func assessmentWeights(assessments []Assessment, excludeID string) []float64 {
	weights := make([]float64, 0, len(assessments))
	for _, ass := range assessments {
		if excludeID != "" && ass.ID == excludeID {
			continue
		}
		weights = append(weights, ass.Weight)
	}
	return weights
}
