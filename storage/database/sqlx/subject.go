package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/studia/core"
	"github.com/trezcool/studia/core/subject"
)

type subjectRepository struct {
	db *sqlx.DB
}

var _ subject.Repository = (*subjectRepository)(nil) // interface compliance check

func NewSubjectRepository(db *sqlx.DB) *subjectRepository {
	return &subjectRepository{db: db}
}

type subjectRow struct {
	ID               string      `db:"id"`
	UserID           string      `db:"user_id"`
	Name             string      `db:"name"`
	Code             null.String `db:"code"`
	Description      null.String `db:"description"`
	Term             null.String `db:"term"`
	CoordinatorName  null.String `db:"coordinator_name"`
	CoordinatorEmail null.String `db:"coordinator_email"`
	Archived         bool        `db:"archived"`
	TotalGrade       float64     `db:"total_grade"`
	CreatedAt        time.Time   `db:"created_at"`
	UpdatedAt        time.Time   `db:"updated_at"`
}

func (r subjectRow) toDomain() subject.Subject {
	return subject.Subject{
		ID:               r.ID,
		UserID:           r.UserID,
		Name:             r.Name,
		Code:             r.Code.String,
		Description:      r.Description.String,
		Term:             r.Term.String,
		CoordinatorName:  r.CoordinatorName.String,
		CoordinatorEmail: r.CoordinatorEmail.String,
		Archived:         r.Archived,
		TotalGrade:       r.TotalGrade,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

func newSubjectRow(sub subject.Subject) subjectRow {
	return subjectRow{
		ID:               sub.ID,
		UserID:           sub.UserID,
		Name:             sub.Name,
		Code:             null.NewString(sub.Code, sub.Code != ""),
		Description:      null.NewString(sub.Description, sub.Description != ""),
		Term:             null.NewString(sub.Term, sub.Term != ""),
		CoordinatorName:  null.NewString(sub.CoordinatorName, sub.CoordinatorName != ""),
		CoordinatorEmail: null.NewString(sub.CoordinatorEmail, sub.CoordinatorEmail != ""),
		Archived:         sub.Archived,
		TotalGrade:       sub.TotalGrade,
		CreatedAt:        sub.CreatedAt.UTC(),
		UpdatedAt:        sub.UpdatedAt.UTC(),
	}
}

type assessmentRow struct {
	ID           string      `db:"id"`
	SubjectID    string      `db:"subject_id"`
	UserID       string      `db:"user_id"`
	Name         string      `db:"name"`
	Icon         null.String `db:"icon"`
	Contribution string      `db:"contribution"`
	Weight       float64     `db:"weight"`
	Description  null.String `db:"description"`
	DueDate      null.Time   `db:"due_date"`
	Complete     bool        `db:"complete"`
	CreatedAt    time.Time   `db:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"`
}

func (r assessmentRow) toDomain() subject.Assessment {
	return subject.Assessment{
		ID:           r.ID,
		SubjectID:    r.SubjectID,
		UserID:       r.UserID,
		Name:         r.Name,
		Icon:         r.Icon.String,
		Contribution: r.Contribution,
		Weight:       r.Weight,
		Description:  r.Description.String,
		DueDate:      r.DueDate.Ptr(),
		Complete:     r.Complete,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func newAssessmentRow(ass subject.Assessment) assessmentRow {
	return assessmentRow{
		ID:           ass.ID,
		SubjectID:    ass.SubjectID,
		UserID:       ass.UserID,
		Name:         ass.Name,
		Icon:         null.NewString(ass.Icon, ass.Icon != ""),
		Contribution: ass.Contribution,
		Weight:       ass.Weight,
		Description:  null.NewString(ass.Description, ass.Description != ""),
		DueDate:      null.TimeFromPtr(ass.DueDate),
		Complete:     ass.Complete,
		CreatedAt:    ass.CreatedAt.UTC(),
		UpdatedAt:    ass.UpdatedAt.UTC(),
	}
}

type gradeRow struct {
	ID           string    `db:"id"`
	AssessmentID string    `db:"assessment_id"`
	SubjectID    string    `db:"subject_id"`
	UserID       string    `db:"user_id"`
	Name         string    `db:"name"`
	Value        float64   `db:"value"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (r gradeRow) toDomain() subject.Grade {
	return subject.Grade{
		ID:           r.ID,
		AssessmentID: r.AssessmentID,
		SubjectID:    r.SubjectID,
		UserID:       r.UserID,
		Name:         r.Name,
		Value:        r.Value,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func newGradeRow(grd subject.Grade) gradeRow {
	return gradeRow{
		ID:           grd.ID,
		AssessmentID: grd.AssessmentID,
		SubjectID:    grd.SubjectID,
		UserID:       grd.UserID,
		Name:         grd.Name,
		Value:        grd.Value,
		CreatedAt:    grd.CreatedAt.UTC(),
		UpdatedAt:    grd.UpdatedAt.UTC(),
	}
}

var subjectOrderColumns = map[string]bool{
	"name":        true,
	"code":        true,
	"term":        true,
	"archived":    true,
	"total_grade": true,
	"created_at":  true,
	"updated_at":  true,
}

// orderBy builds an ORDER BY clause from client-supplied orderings; field names
// are interpolated into the statement, so anything outside the table's column
// whitelist is dropped.
func orderBy(ordering []core.DBOrdering, allowedColumns map[string]bool) string {
	orderList := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		if !allowedColumns[ord.Field] {
			continue
		}
		orderList = append(orderList, ord.String())
	}
	if len(orderList) == 0 {
		return ""
	}
	return " ORDER BY " + strings.Join(orderList, ", ")
}

// Subjects

func (repo subjectRepository) CreateSubject(ctx context.Context, sub subject.Subject) (subject.Subject, error) {
	sub.ID = uuid.New().String()
	row := newSubjectRow(sub)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO subject (id, user_id, name, code, description, term, coordinator_name, coordinator_email,
		                     archived, total_grade, created_at, updated_at)
		VALUES (:id, :user_id, :name, :code, :description, :term, :coordinator_name, :coordinator_email,
		        :archived, :total_grade, :created_at, :updated_at)`, row)
	if err != nil {
		return subject.Subject{}, errors.Wrap(err, "inserting subject")
	}
	return row.toDomain(), nil
}

func (repo subjectRepository) QuerySubjects(
	ctx context.Context,
	userID string,
	filter *subject.QueryFilter,
	ordering []core.DBOrdering,
) ([]subject.Subject, error) {
	query := `SELECT * FROM subject WHERE user_id = $1`
	args := []interface{}{userID}

	if filter != nil {
		if filter.Search != "" {
			args = append(args, "%"+filter.Search+"%")
			query += fmt.Sprintf(" AND (name ILIKE $%d OR code ILIKE $%d)", len(args), len(args))
		}
		if filter.Term != "" {
			args = append(args, filter.Term)
			query += fmt.Sprintf(" AND term = $%d", len(args))
		}
		if filter.Archived != nil {
			args = append(args, *filter.Archived)
			query += fmt.Sprintf(" AND archived = $%d", len(args))
		}
	}
	query += orderBy(ordering, subjectOrderColumns)

	var rows []subjectRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying subjects")
	}
	subs := make([]subject.Subject, 0, len(rows))
	for _, row := range rows {
		subs = append(subs, row.toDomain())
	}
	return subs, nil
}

func (repo subjectRepository) GetSubject(ctx context.Context, userID, id string) (subject.Subject, error) {
	if _, err := uuid.Parse(id); err != nil {
		return subject.Subject{}, subject.ErrNotFound
	}
	var row subjectRow
	err := repo.db.GetContext(ctx, &row, `SELECT * FROM subject WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return subject.Subject{}, subject.ErrNotFound
		}
		return subject.Subject{}, errors.Wrap(err, "finding subject")
	}
	return row.toDomain(), nil
}

func (repo subjectRepository) UpdateSubject(ctx context.Context, sub subject.Subject) (subject.Subject, error) {
	row := newSubjectRow(sub)
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE subject
		SET name = :name, code = :code, description = :description, term = :term,
		    coordinator_name = :coordinator_name, coordinator_email = :coordinator_email,
		    archived = :archived, updated_at = :updated_at
		WHERE user_id = :user_id AND id = :id`, row)
	if err != nil {
		return subject.Subject{}, errors.Wrap(err, "updating subject")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return subject.Subject{}, subject.ErrNotFound
	}
	return row.toDomain(), nil
}

func (repo subjectRepository) SetSubjectTotalGrade(ctx context.Context, userID, id string, total float64) error {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE subject SET total_grade = $1, updated_at = $2 WHERE user_id = $3 AND id = $4`,
		total, time.Now().UTC(), userID, id)
	if err != nil {
		return errors.Wrap(err, "setting subject total grade")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return subject.ErrNotFound
	}
	return nil
}

func (repo subjectRepository) DeleteSubject(ctx context.Context, userID, id string) error {
	// assessments and grades go with it (FK ON DELETE CASCADE)
	res, err := repo.db.ExecContext(ctx, `DELETE FROM subject WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return errors.Wrap(err, "deleting subject")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return subject.ErrNotFound
	}
	return nil
}

// Assessments

func (repo subjectRepository) CreateAssessment(ctx context.Context, ass subject.Assessment) (subject.Assessment, error) {
	ass.ID = uuid.New().String()
	row := newAssessmentRow(ass)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO assessment (id, subject_id, user_id, name, icon, contribution, weight, description,
		                        due_date, complete, created_at, updated_at)
		VALUES (:id, :subject_id, :user_id, :name, :icon, :contribution, :weight, :description,
		        :due_date, :complete, :created_at, :updated_at)`, row)
	if err != nil {
		return subject.Assessment{}, errors.Wrap(err, "inserting assessment")
	}
	return row.toDomain(), nil
}

func (repo subjectRepository) QueryAssessments(ctx context.Context, userID, subjectID string) ([]subject.Assessment, error) {
	var rows []assessmentRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT * FROM assessment WHERE user_id = $1 AND subject_id = $2 ORDER BY created_at`, userID, subjectID)
	if err != nil {
		return nil, errors.Wrap(err, "querying assessments")
	}
	asses := make([]subject.Assessment, 0, len(rows))
	for _, row := range rows {
		asses = append(asses, row.toDomain())
	}
	return asses, nil
}

func (repo subjectRepository) GetAssessment(ctx context.Context, userID, id string) (subject.Assessment, error) {
	if _, err := uuid.Parse(id); err != nil {
		return subject.Assessment{}, subject.ErrAssessmentNotFound
	}
	var row assessmentRow
	err := repo.db.GetContext(ctx, &row, `SELECT * FROM assessment WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return subject.Assessment{}, subject.ErrAssessmentNotFound
		}
		return subject.Assessment{}, errors.Wrap(err, "finding assessment")
	}
	return row.toDomain(), nil
}

func (repo subjectRepository) UpdateAssessment(ctx context.Context, ass subject.Assessment) (subject.Assessment, error) {
	row := newAssessmentRow(ass)
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE assessment
		SET name = :name, icon = :icon, contribution = :contribution, weight = :weight,
		    description = :description, due_date = :due_date, complete = :complete, updated_at = :updated_at
		WHERE user_id = :user_id AND id = :id`, row)
	if err != nil {
		return subject.Assessment{}, errors.Wrap(err, "updating assessment")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return subject.Assessment{}, subject.ErrAssessmentNotFound
	}
	return row.toDomain(), nil
}

func (repo subjectRepository) DeleteAssessment(ctx context.Context, userID, id string) error {
	// grades go with it (FK ON DELETE CASCADE)
	res, err := repo.db.ExecContext(ctx, `DELETE FROM assessment WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return errors.Wrap(err, "deleting assessment")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return subject.ErrAssessmentNotFound
	}
	return nil
}

// Grades

func (repo subjectRepository) CreateGrade(ctx context.Context, grd subject.Grade) (subject.Grade, error) {
	grd.ID = uuid.New().String()
	row := newGradeRow(grd)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO grade (id, assessment_id, subject_id, user_id, name, value, created_at, updated_at)
		VALUES (:id, :assessment_id, :subject_id, :user_id, :name, :value, :created_at, :updated_at)`, row)
	if err != nil {
		return subject.Grade{}, errors.Wrap(err, "inserting grade")
	}
	return row.toDomain(), nil
}

func (repo subjectRepository) QueryGrades(ctx context.Context, userID, subjectID string) ([]subject.Grade, error) {
	var rows []gradeRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT * FROM grade WHERE user_id = $1 AND subject_id = $2 ORDER BY created_at`, userID, subjectID)
	if err != nil {
		return nil, errors.Wrap(err, "querying grades")
	}
	grades := make([]subject.Grade, 0, len(rows))
	for _, row := range rows {
		grades = append(grades, row.toDomain())
	}
	return grades, nil
}

func (repo subjectRepository) GetGrade(ctx context.Context, userID, id string) (subject.Grade, error) {
	if _, err := uuid.Parse(id); err != nil {
		return subject.Grade{}, subject.ErrGradeNotFound
	}
	var row gradeRow
	err := repo.db.GetContext(ctx, &row, `SELECT * FROM grade WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return subject.Grade{}, subject.ErrGradeNotFound
		}
		return subject.Grade{}, errors.Wrap(err, "finding grade")
	}
	return row.toDomain(), nil
}

func (repo subjectRepository) UpdateGrade(ctx context.Context, grd subject.Grade) (subject.Grade, error) {
	row := newGradeRow(grd)
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE grade SET name = :name, value = :value, updated_at = :updated_at
		WHERE user_id = :user_id AND id = :id`, row)
	if err != nil {
		return subject.Grade{}, errors.Wrap(err, "updating grade")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return subject.Grade{}, subject.ErrGradeNotFound
	}
	return row.toDomain(), nil
}

func (repo subjectRepository) DeleteGrade(ctx context.Context, userID, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM grade WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return errors.Wrap(err, "deleting grade")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return subject.ErrGradeNotFound
	}
	return nil
}
