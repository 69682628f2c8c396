package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/studia/core"
	"github.com/trezcool/studia/core/schedule"
)

type scheduleRepository struct {
	db *sqlx.DB
}

var _ schedule.Repository = (*scheduleRepository)(nil) // interface compliance check

func NewScheduleRepository(db *sqlx.DB) *scheduleRepository {
	return &scheduleRepository{db: db}
}

type weekRow struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	Name      string    `db:"name"`
	StartDate time.Time `db:"start_date"`
	EndDate   time.Time `db:"end_date"`
	IsHoliday bool      `db:"is_holiday"`
	Duration  int       `db:"duration"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r weekRow) toDomain() schedule.Week {
	return schedule.Week{
		ID:        r.ID,
		UserID:    r.UserID,
		Name:      r.Name,
		StartDate: r.StartDate,
		EndDate:   r.EndDate,
		IsHoliday: r.IsHoliday,
		Duration:  r.Duration,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func newWeekRow(wk schedule.Week) weekRow {
	return weekRow{
		ID:        wk.ID,
		UserID:    wk.UserID,
		Name:      wk.Name,
		StartDate: wk.StartDate,
		EndDate:   wk.EndDate,
		IsHoliday: wk.IsHoliday,
		Duration:  wk.Duration,
		CreatedAt: wk.CreatedAt.UTC(),
		UpdatedAt: wk.UpdatedAt.UTC(),
	}
}

type taskRow struct {
	ID             string      `db:"id"`
	UserID         string      `db:"user_id"`
	WeekID         null.String `db:"week_id"`
	SubjectID      null.String `db:"subject_id"`
	AssessmentID   null.String `db:"assessment_id"`
	Name           string      `db:"name"`
	Status         string      `db:"status"`
	Priority       string      `db:"priority"`
	DueDate        null.Time   `db:"due_date"`
	Reminder       null.Time   `db:"reminder"`
	ReminderSentAt null.Time   `db:"reminder_sent_at"`
	CreatedAt      time.Time   `db:"created_at"`
	UpdatedAt      time.Time   `db:"updated_at"`
}

func (r taskRow) toDomain() schedule.Task {
	return schedule.Task{
		ID:             r.ID,
		UserID:         r.UserID,
		WeekID:         r.WeekID.String,
		SubjectID:      r.SubjectID.String,
		AssessmentID:   r.AssessmentID.String,
		Name:           r.Name,
		Status:         r.Status,
		Priority:       r.Priority,
		DueDate:        r.DueDate.Ptr(),
		Reminder:       r.Reminder.Ptr(),
		ReminderSentAt: r.ReminderSentAt.Ptr(),
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

func newTaskRow(tsk schedule.Task) taskRow {
	return taskRow{
		ID:             tsk.ID,
		UserID:         tsk.UserID,
		WeekID:         null.NewString(tsk.WeekID, tsk.WeekID != ""),
		SubjectID:      null.NewString(tsk.SubjectID, tsk.SubjectID != ""),
		AssessmentID:   null.NewString(tsk.AssessmentID, tsk.AssessmentID != ""),
		Name:           tsk.Name,
		Status:         tsk.Status,
		Priority:       tsk.Priority,
		DueDate:        null.TimeFromPtr(tsk.DueDate),
		Reminder:       null.TimeFromPtr(tsk.Reminder),
		ReminderSentAt: null.TimeFromPtr(tsk.ReminderSentAt),
		CreatedAt:      tsk.CreatedAt.UTC(),
		UpdatedAt:      tsk.UpdatedAt.UTC(),
	}
}

var (
	weekOrderColumns = map[string]bool{
		"name":       true,
		"start_date": true,
		"end_date":   true,
		"is_holiday": true,
		"created_at": true,
		"updated_at": true,
	}
	taskOrderColumns = map[string]bool{
		"name":       true,
		"status":     true,
		"priority":   true,
		"due_date":   true,
		"reminder":   true,
		"created_at": true,
		"updated_at": true,
	}
)

// Weeks

func (repo scheduleRepository) CreateWeek(ctx context.Context, wk schedule.Week) (schedule.Week, error) {
	wk.ID = uuid.New().String()
	row := newWeekRow(wk)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO week (id, user_id, name, start_date, end_date, is_holiday, duration, created_at, updated_at)
		VALUES (:id, :user_id, :name, :start_date, :end_date, :is_holiday, :duration, :created_at, :updated_at)`, row)
	if err != nil {
		return schedule.Week{}, errors.Wrap(err, "inserting week")
	}
	return row.toDomain(), nil
}

func (repo scheduleRepository) QueryWeeks(ctx context.Context, userID string, ordering []core.DBOrdering) ([]schedule.Week, error) {
	query := `SELECT * FROM week WHERE user_id = $1`
	if ob := orderBy(ordering, weekOrderColumns); ob != "" {
		query += ob
	} else {
		query += ` ORDER BY start_date`
	}

	var rows []weekRow
	if err := repo.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, errors.Wrap(err, "querying weeks")
	}
	weeks := make([]schedule.Week, 0, len(rows))
	for _, row := range rows {
		weeks = append(weeks, row.toDomain())
	}
	return weeks, nil
}

func (repo scheduleRepository) GetWeek(ctx context.Context, userID, id string) (schedule.Week, error) {
	if _, err := uuid.Parse(id); err != nil {
		return schedule.Week{}, schedule.ErrWeekNotFound
	}
	var row weekRow
	err := repo.db.GetContext(ctx, &row, `SELECT * FROM week WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return schedule.Week{}, schedule.ErrWeekNotFound
		}
		return schedule.Week{}, errors.Wrap(err, "finding week")
	}
	return row.toDomain(), nil
}

func (repo scheduleRepository) UpdateWeek(ctx context.Context, wk schedule.Week) (schedule.Week, error) {
	row := newWeekRow(wk)
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE week
		SET name = :name, start_date = :start_date, end_date = :end_date, updated_at = :updated_at
		WHERE user_id = :user_id AND id = :id`, row)
	if err != nil {
		return schedule.Week{}, errors.Wrap(err, "updating week")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return schedule.Week{}, schedule.ErrWeekNotFound
	}
	return row.toDomain(), nil
}

func (repo scheduleRepository) DeleteWeek(ctx context.Context, userID, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM week WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return errors.Wrap(err, "deleting week")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return schedule.ErrWeekNotFound
	}
	return nil
}

// Tasks

func (repo scheduleRepository) CreateTask(ctx context.Context, tsk schedule.Task) (schedule.Task, error) {
	tsk.ID = uuid.New().String()
	row := newTaskRow(tsk)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO task (id, user_id, week_id, subject_id, assessment_id, name, status, priority,
		                  due_date, reminder, reminder_sent_at, created_at, updated_at)
		VALUES (:id, :user_id, :week_id, :subject_id, :assessment_id, :name, :status, :priority,
		        :due_date, :reminder, :reminder_sent_at, :created_at, :updated_at)`, row)
	if err != nil {
		return schedule.Task{}, errors.Wrap(err, "inserting task")
	}
	return row.toDomain(), nil
}

func (repo scheduleRepository) QueryTasks(
	ctx context.Context,
	userID string,
	filter *schedule.TaskFilter,
	ordering []core.DBOrdering,
) ([]schedule.Task, error) {
	query := `SELECT * FROM task WHERE user_id = $1`
	args := []interface{}{userID}

	if filter != nil {
		if filter.Status != "" {
			args = append(args, filter.Status)
			query += fmt.Sprintf(" AND status = $%d", len(args))
		}
		if filter.WeekID != "" {
			args = append(args, filter.WeekID)
			query += fmt.Sprintf(" AND week_id = $%d", len(args))
		}
		if filter.SubjectID != "" {
			args = append(args, filter.SubjectID)
			query += fmt.Sprintf(" AND subject_id = $%d", len(args))
		}
		if filter.Unassigned != nil {
			if *filter.Unassigned {
				query += " AND week_id IS NULL"
			} else {
				query += " AND week_id IS NOT NULL"
			}
		}
	}
	if ob := orderBy(ordering, taskOrderColumns); ob != "" {
		query += ob
	} else {
		query += ` ORDER BY created_at`
	}

	var rows []taskRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying tasks")
	}
	tasks := make([]schedule.Task, 0, len(rows))
	for _, row := range rows {
		tasks = append(tasks, row.toDomain())
	}
	return tasks, nil
}

func (repo scheduleRepository) GetTask(ctx context.Context, userID, id string) (schedule.Task, error) {
	if _, err := uuid.Parse(id); err != nil {
		return schedule.Task{}, schedule.ErrTaskNotFound
	}
	var row taskRow
	err := repo.db.GetContext(ctx, &row, `SELECT * FROM task WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return schedule.Task{}, schedule.ErrTaskNotFound
		}
		return schedule.Task{}, errors.Wrap(err, "finding task")
	}
	return row.toDomain(), nil
}

func (repo scheduleRepository) UpdateTask(ctx context.Context, tsk schedule.Task) (schedule.Task, error) {
	row := newTaskRow(tsk)
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE task
		SET week_id = :week_id, subject_id = :subject_id, assessment_id = :assessment_id, name = :name,
		    status = :status, priority = :priority, due_date = :due_date, reminder = :reminder,
		    reminder_sent_at = :reminder_sent_at, updated_at = :updated_at
		WHERE user_id = :user_id AND id = :id`, row)
	if err != nil {
		return schedule.Task{}, errors.Wrap(err, "updating task")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return schedule.Task{}, schedule.ErrTaskNotFound
	}
	return row.toDomain(), nil
}

func (repo scheduleRepository) SetTaskWeek(ctx context.Context, userID, taskID, weekID string) error {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE task SET week_id = $1, updated_at = $2 WHERE user_id = $3 AND id = $4`,
		null.NewString(weekID, weekID != ""), time.Now().UTC(), userID, taskID)
	if err != nil {
		return errors.Wrap(err, "setting task week")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return schedule.ErrTaskNotFound
	}
	return nil
}

func (repo scheduleRepository) DeleteTask(ctx context.Context, userID, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM task WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return errors.Wrap(err, "deleting task")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return schedule.ErrTaskNotFound
	}
	return nil
}

// Reminders

func (repo scheduleRepository) QueryDueReminders(ctx context.Context, due time.Time) ([]schedule.Task, error) {
	var rows []taskRow
	err := repo.db.SelectContext(ctx, &rows, `
		SELECT * FROM task
		WHERE reminder IS NOT NULL AND reminder <= $1 AND reminder_sent_at IS NULL AND status <> $2
		ORDER BY reminder`, due, schedule.StatusDone)
	if err != nil {
		return nil, errors.Wrap(err, "querying due reminders")
	}
	tasks := make([]schedule.Task, 0, len(rows))
	for _, row := range rows {
		tasks = append(tasks, row.toDomain())
	}
	return tasks, nil
}

func (repo scheduleRepository) SetTaskReminderSent(ctx context.Context, userID, taskID string, at time.Time) error {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE task SET reminder_sent_at = $1, updated_at = $1 WHERE user_id = $2 AND id = $3`,
		at.UTC(), userID, taskID)
	if err != nil {
		return errors.Wrap(err, "setting task reminder sent")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return schedule.ErrTaskNotFound
	}
	return nil
}
