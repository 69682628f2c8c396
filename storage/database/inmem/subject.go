package inmemdb

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/studia/core"
	"github.com/trezcool/studia/core/subject"
)

type subjectRepository struct {
	db *DB
}

var _ subject.Repository = (*subjectRepository)(nil) // interface compliance check

func NewSubjectRepository(db *DB) *subjectRepository {
	return &subjectRepository{db: db}
}

// Subjects

func (repo *subjectRepository) CreateSubject(_ context.Context, sub subject.Subject) (subject.Subject, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	sub.ID = uuid.New().String()
	repo.db.subjects[sub.ID] = &sub
	return sub, nil
}

func (repo *subjectRepository) QuerySubjects(
	_ context.Context,
	userID string,
	filter *subject.QueryFilter,
	_ []core.DBOrdering,
) ([]subject.Subject, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	subs := make([]subject.Subject, 0)
	for _, sub := range repo.db.subjects {
		if sub.UserID != userID {
			continue
		}
		if filter != nil {
			if filter.Search != "" {
				search := strings.ToLower(filter.Search)
				if !strings.Contains(strings.ToLower(sub.Name), search) &&
					!strings.Contains(strings.ToLower(sub.Code), search) {
					continue
				}
			}
			if filter.Term != "" && sub.Term != filter.Term {
				continue
			}
			if filter.Archived != nil && sub.Archived != *filter.Archived {
				continue
			}
		}
		subs = append(subs, *sub)
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].CreatedAt.Before(subs[j].CreatedAt) })
	return subs, nil
}

func (repo *subjectRepository) GetSubject(_ context.Context, userID, id string) (subject.Subject, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if sub, ok := repo.db.subjects[id]; ok && sub.UserID == userID {
		return *sub, nil
	}
	return subject.Subject{}, subject.ErrNotFound
}

func (repo *subjectRepository) UpdateSubject(_ context.Context, sub subject.Subject) (subject.Subject, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.subjects[sub.ID]
	if !ok || orig.UserID != sub.UserID {
		return subject.Subject{}, subject.ErrNotFound
	}
	sub.TotalGrade = orig.TotalGrade // maintained via SetSubjectTotalGrade only
	repo.db.subjects[sub.ID] = &sub
	return sub, nil
}

func (repo *subjectRepository) SetSubjectTotalGrade(_ context.Context, userID, id string, total float64) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	sub, ok := repo.db.subjects[id]
	if !ok || sub.UserID != userID {
		return subject.ErrNotFound
	}
	sub.TotalGrade = total
	sub.UpdatedAt = time.Now().UTC()
	return nil
}

func (repo *subjectRepository) DeleteSubject(_ context.Context, userID, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	sub, ok := repo.db.subjects[id]
	if !ok || sub.UserID != userID {
		return subject.ErrNotFound
	}
	delete(repo.db.subjects, id)
	// cascade to assessments and their grades
	for assID, ass := range repo.db.assessments {
		if ass.SubjectID == id {
			delete(repo.db.assessments, assID)
		}
	}
	for grdID, grd := range repo.db.grades {
		if grd.SubjectID == id {
			delete(repo.db.grades, grdID)
		}
	}
	return nil
}

// Assessments

func (repo *subjectRepository) CreateAssessment(_ context.Context, ass subject.Assessment) (subject.Assessment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	ass.ID = uuid.New().String()
	repo.db.assessments[ass.ID] = &ass
	return ass, nil
}

func (repo *subjectRepository) QueryAssessments(_ context.Context, userID, subjectID string) ([]subject.Assessment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	asses := make([]subject.Assessment, 0)
	for _, ass := range repo.db.assessments {
		if ass.UserID == userID && ass.SubjectID == subjectID {
			asses = append(asses, *ass)
		}
	}
	sort.Slice(asses, func(i, j int) bool { return asses[i].CreatedAt.Before(asses[j].CreatedAt) })
	return asses, nil
}

func (repo *subjectRepository) GetAssessment(_ context.Context, userID, id string) (subject.Assessment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if ass, ok := repo.db.assessments[id]; ok && ass.UserID == userID {
		return *ass, nil
	}
	return subject.Assessment{}, subject.ErrAssessmentNotFound
}

func (repo *subjectRepository) UpdateAssessment(_ context.Context, ass subject.Assessment) (subject.Assessment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.assessments[ass.ID]
	if !ok || orig.UserID != ass.UserID {
		return subject.Assessment{}, subject.ErrAssessmentNotFound
	}
	repo.db.assessments[ass.ID] = &ass
	return ass, nil
}

func (repo *subjectRepository) DeleteAssessment(_ context.Context, userID, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	ass, ok := repo.db.assessments[id]
	if !ok || ass.UserID != userID {
		return subject.ErrAssessmentNotFound
	}
	delete(repo.db.assessments, id)
	// cascade to grades
	for grdID, grd := range repo.db.grades {
		if grd.AssessmentID == id {
			delete(repo.db.grades, grdID)
		}
	}
	return nil
}

// Grades

func (repo *subjectRepository) CreateGrade(_ context.Context, grd subject.Grade) (subject.Grade, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	grd.ID = uuid.New().String()
	repo.db.grades[grd.ID] = &grd
	return grd, nil
}

func (repo *subjectRepository) QueryGrades(_ context.Context, userID, subjectID string) ([]subject.Grade, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	grades := make([]subject.Grade, 0)
	for _, grd := range repo.db.grades {
		if grd.UserID == userID && grd.SubjectID == subjectID {
			grades = append(grades, *grd)
		}
	}
	sort.Slice(grades, func(i, j int) bool { return grades[i].CreatedAt.Before(grades[j].CreatedAt) })
	return grades, nil
}

func (repo *subjectRepository) GetGrade(_ context.Context, userID, id string) (subject.Grade, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if grd, ok := repo.db.grades[id]; ok && grd.UserID == userID {
		return *grd, nil
	}
	return subject.Grade{}, subject.ErrGradeNotFound
}

func (repo *subjectRepository) UpdateGrade(_ context.Context, grd subject.Grade) (subject.Grade, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.grades[grd.ID]
	if !ok || orig.UserID != grd.UserID {
		return subject.Grade{}, subject.ErrGradeNotFound
	}
	repo.db.grades[grd.ID] = &grd
	return grd, nil
}

func (repo *subjectRepository) DeleteGrade(_ context.Context, userID, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	grd, ok := repo.db.grades[id]
	if !ok || grd.UserID != userID {
		return subject.ErrGradeNotFound
	}
	delete(repo.db.grades, id)
	return nil
}
