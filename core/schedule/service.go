package schedule

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/studia/core"
	"github.com/trezcool/studia/core/user"
)

var (
	ErrWeekNotFound  = errors.New("week not found")
	ErrTaskNotFound  = errors.New("task not found")
	ErrNoCurrentWeek = errors.New("no current week")
	ErrWeekNotFuture = errors.New("target week is not in the future")
)

type (
	// Repository scopes every call by the owning user's ID; a row owned by
	// another user is reported as not found.
	Repository interface {
		CreateWeek(ctx context.Context, wk Week) (Week, error)
		QueryWeeks(ctx context.Context, userID string, ordering []core.DBOrdering) ([]Week, error)
		GetWeek(ctx context.Context, userID, id string) (Week, error)
		UpdateWeek(ctx context.Context, wk Week) (Week, error)
		DeleteWeek(ctx context.Context, userID, id string) error

		CreateTask(ctx context.Context, tsk Task) (Task, error)
		QueryTasks(ctx context.Context, userID string, filter *TaskFilter, ordering []core.DBOrdering) ([]Task, error)
		GetTask(ctx context.Context, userID, id string) (Task, error)
		UpdateTask(ctx context.Context, tsk Task) (Task, error)
		// SetTaskWeek relinks a task to weekID; "" unassigns it.
		SetTaskWeek(ctx context.Context, userID, taskID, weekID string) error
		DeleteTask(ctx context.Context, userID, id string) error

		// QueryDueReminders spans all users: tasks with a reminder at or before
		// due, not done and not yet notified.
		QueryDueReminders(ctx context.Context, due time.Time) ([]Task, error)
		SetTaskReminderSent(ctx context.Context, userID, taskID string, at time.Time) error
	}

	// UserDirectory resolves task owners for reminder delivery.
	UserDirectory interface {
		GetByID(ctx context.Context, id string) (user.User, error)
	}

	ServiceInterface interface {
		CreateWeek(ctx context.Context, userID string, nw NewWeek) (Week, error)
		QueryWeeks(ctx context.Context, userID string, ordering []core.DBOrdering) ([]Week, error)
		GetWeek(ctx context.Context, userID, id string) (Week, error)
		UpdateWeek(ctx context.Context, userID, id string, uw UpdateWeek) (Week, error)
		// DeleteWeek unassigns the week's tasks before deleting; tasks are never
		// deleted with their week. Returns the number of tasks unassigned.
		DeleteWeek(ctx context.Context, userID, id string) (int, error)
		Current(ctx context.Context, userID string, now time.Time) (Week, bool, error)
		Next(ctx context.Context, userID string, now time.Time) (Week, bool, error)
		// StartWeek moves the current week's unfinished tasks to the target week
		// and returns the number of tasks moved.
		StartWeek(ctx context.Context, userID, targetWeekID string, now time.Time) (int, error)
		SuggestedWeek(ctx context.Context, userID string, now time.Time) (name string, start time.Time, err error)

		CreateTask(ctx context.Context, userID string, nt NewTask) (Task, error)
		QueryTasks(ctx context.Context, userID string, filter *TaskFilter, ordering []core.DBOrdering) ([]Task, error)
		GetTask(ctx context.Context, userID, id string) (Task, error)
		UpdateTask(ctx context.Context, userID, id string, ut UpdateTask) (Task, error)
		DeleteTask(ctx context.Context, userID, id string) error
		// UpdateTasksStatus and DeleteTasks skip items that cannot be resolved
		// for the caller and report only the number of items affected.
		UpdateTasksStatus(ctx context.Context, userID string, ids []string, status string) (int, error)
		DeleteTasks(ctx context.Context, userID string, ids []string) (int, error)

		// ReminderScan emails owners of tasks whose reminder time has passed and
		// stamps them sent; individual failures are skipped. Returns the number
		// of reminders sent.
		ReminderScan(ctx context.Context, now time.Time) (int, error)
	}

	service struct {
		repo    Repository
		users   UserDirectory
		mailSvc core.EmailService
		conf    *core.Config
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(repo Repository, users UserDirectory, mailSvc core.EmailService, conf *core.Config) ServiceInterface {
	return &service{
		repo:    repo,
		users:   users,
		mailSvc: mailSvc,
		conf:    conf,
	}
}

// Weeks

func (svc *service) CreateWeek(ctx context.Context, userID string, nw NewWeek) (Week, error) {
	weeks, err := svc.repo.QueryWeeks(ctx, userID, nil)
	if err != nil {
		return Week{}, errors.Wrap(err, "querying weeks")
	}

	end := nw.EndDate
	if end.IsZero() && nw.Duration > 0 {
		end = nw.StartDate.AddDate(0, 0, 7*nw.Duration)
	}
	if !end.After(nw.StartDate) {
		err := errors.New("end_date must be after start_date")
		return Week{}, core.NewValidationError(err, core.FieldError{Field: "end_date", Error: err.Error()})
	}
	if err = checkOverlap(nw.StartDate, end, weeks, ""); err != nil {
		return Week{}, err
	}

	name := nw.Name
	if name == "" {
		name = GenerateWeekName(weeks, nw.IsHoliday)
	}

	now := time.Now().UTC()
	wk := Week{
		UserID:    userID,
		Name:      name,
		StartDate: nw.StartDate,
		EndDate:   end,
		IsHoliday: nw.IsHoliday,
		Duration:  nw.Duration,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateWeek(ctx, wk)
}

func (svc *service) QueryWeeks(ctx context.Context, userID string, ordering []core.DBOrdering) ([]Week, error) {
	return svc.repo.QueryWeeks(ctx, userID, ordering)
}

func (svc *service) GetWeek(ctx context.Context, userID, id string) (Week, error) {
	return svc.repo.GetWeek(ctx, userID, id)
}

func (svc *service) UpdateWeek(ctx context.Context, userID, id string, uw UpdateWeek) (Week, error) {
	wk, err := svc.repo.GetWeek(ctx, userID, id)
	if err != nil {
		return Week{}, err
	}

	// merge changed-or-original bounds before re-checking the timeline
	start, end := wk.StartDate, wk.EndDate
	if uw.StartDate != nil {
		start = *uw.StartDate
	}
	if uw.EndDate != nil {
		end = *uw.EndDate
	}
	if uw.StartDate != nil || uw.EndDate != nil {
		if !end.After(start) {
			err := errors.New("end_date must be after start_date")
			return Week{}, core.NewValidationError(err, core.FieldError{Field: "end_date", Error: err.Error()})
		}
		weeks, err := svc.repo.QueryWeeks(ctx, userID, nil)
		if err != nil {
			return Week{}, errors.Wrap(err, "querying weeks")
		}
		if err = checkOverlap(start, end, weeks, wk.ID); err != nil {
			return Week{}, err
		}
		wk.StartDate, wk.EndDate = start, end
	}

	if uw.Name != "" {
		wk.Name = uw.Name
	}
	wk.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateWeek(ctx, wk)
}

func (svc *service) DeleteWeek(ctx context.Context, userID, id string) (int, error) {
	wk, err := svc.repo.GetWeek(ctx, userID, id)
	if err != nil {
		return 0, err
	}

	// unassign, never delete, the week's tasks
	tasks, err := svc.repo.QueryTasks(ctx, userID, &TaskFilter{WeekID: wk.ID}, nil)
	if err != nil {
		return 0, errors.Wrap(err, "querying week tasks")
	}
	var unassigned int
	for _, tsk := range tasks {
		if err = svc.repo.SetTaskWeek(ctx, userID, tsk.ID, ""); err != nil {
			continue
		}
		unassigned++
	}

	if err = svc.repo.DeleteWeek(ctx, userID, wk.ID); err != nil {
		return unassigned, err
	}
	return unassigned, nil
}

func (svc *service) Current(ctx context.Context, userID string, now time.Time) (Week, bool, error) {
	weeks, err := svc.repo.QueryWeeks(ctx, userID, nil)
	if err != nil {
		return Week{}, false, errors.Wrap(err, "querying weeks")
	}
	wk, ok := CurrentWeek(weeks, now)
	return wk, ok, nil
}

func (svc *service) Next(ctx context.Context, userID string, now time.Time) (Week, bool, error) {
	weeks, err := svc.repo.QueryWeeks(ctx, userID, nil)
	if err != nil {
		return Week{}, false, errors.Wrap(err, "querying weeks")
	}
	wk, ok := NextWeek(weeks, now)
	return wk, ok, nil
}

func (svc *service) StartWeek(ctx context.Context, userID, targetWeekID string, now time.Time) (int, error) {
	weeks, err := svc.repo.QueryWeeks(ctx, userID, nil)
	if err != nil {
		return 0, errors.Wrap(err, "querying weeks")
	}

	curr, ok := CurrentWeek(weeks, now)
	if !ok {
		return 0, ErrNoCurrentWeek
	}
	target, err := svc.repo.GetWeek(ctx, userID, targetWeekID)
	if err != nil {
		return 0, err
	}
	if !target.StartDate.After(curr.StartDate) {
		return 0, ErrWeekNotFuture
	}

	// carry unfinished tasks over; done tasks stay on the old week
	tasks, err := svc.repo.QueryTasks(ctx, userID, &TaskFilter{WeekID: curr.ID}, nil)
	if err != nil {
		return 0, errors.Wrap(err, "querying current week tasks")
	}
	var moved int
	for _, tsk := range tasks {
		if tsk.Status == StatusDone {
			continue
		}
		if err = svc.repo.SetTaskWeek(ctx, userID, tsk.ID, target.ID); err != nil {
			continue
		}
		moved++
	}
	return moved, nil
}

func (svc *service) SuggestedWeek(ctx context.Context, userID string, now time.Time) (string, time.Time, error) {
	weeks, err := svc.repo.QueryWeeks(ctx, userID, nil)
	if err != nil {
		return "", time.Time{}, errors.Wrap(err, "querying weeks")
	}
	return GenerateWeekName(weeks, false), SuggestedStartDate(weeks, now), nil
}

// Tasks

func (svc *service) CreateTask(ctx context.Context, userID string, nt NewTask) (Task, error) {
	if nt.WeekID != "" {
		if _, err := svc.repo.GetWeek(ctx, userID, nt.WeekID); err != nil {
			return Task{}, err
		}
	}

	now := time.Now().UTC()
	tsk := Task{
		UserID:       userID,
		WeekID:       nt.WeekID,
		SubjectID:    nt.SubjectID,
		AssessmentID: nt.AssessmentID,
		Name:         nt.Name,
		Status:       nt.Status,
		Priority:     nt.Priority,
		DueDate:      nt.DueDate,
		Reminder:     nt.Reminder,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return svc.repo.CreateTask(ctx, tsk)
}

func (svc *service) QueryTasks(ctx context.Context, userID string, filter *TaskFilter, ordering []core.DBOrdering) ([]Task, error) {
	return svc.repo.QueryTasks(ctx, userID, filter, ordering)
}

func (svc *service) GetTask(ctx context.Context, userID, id string) (Task, error) {
	return svc.repo.GetTask(ctx, userID, id)
}

func (svc *service) UpdateTask(ctx context.Context, userID, id string, ut UpdateTask) (Task, error) {
	tsk, err := svc.repo.GetTask(ctx, userID, id)
	if err != nil {
		return Task{}, err
	}

	if ut.WeekID != "" {
		if ut.WeekID == "none" {
			tsk.WeekID = ""
		} else {
			if _, err = svc.repo.GetWeek(ctx, userID, ut.WeekID); err != nil {
				return Task{}, err
			}
			tsk.WeekID = ut.WeekID
		}
	}
	if ut.Name != "" {
		tsk.Name = ut.Name
	}
	if ut.Status != "" {
		tsk.Status = ut.Status
	}
	if ut.Priority != "" {
		tsk.Priority = ut.Priority
	}
	if ut.SubjectID != "" {
		tsk.SubjectID = ut.SubjectID
	}
	if ut.AssessmentID != "" {
		tsk.AssessmentID = ut.AssessmentID
	}
	if ut.DueDate != nil {
		tsk.DueDate = ut.DueDate
	}
	if ut.Reminder != nil {
		tsk.Reminder = ut.Reminder
		tsk.ReminderSentAt = nil
	}
	tsk.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateTask(ctx, tsk)
}

func (svc *service) DeleteTask(ctx context.Context, userID, id string) error {
	return svc.repo.DeleteTask(ctx, userID, id)
}

func (svc *service) UpdateTasksStatus(ctx context.Context, userID string, ids []string, status string) (int, error) {
	var updated int
	for _, id := range ids {
		tsk, err := svc.repo.GetTask(ctx, userID, id)
		if err != nil {
			continue // skip on individual failure
		}
		tsk.Status = status
		tsk.UpdatedAt = time.Now().UTC()
		if _, err = svc.repo.UpdateTask(ctx, tsk); err != nil {
			continue
		}
		updated++
	}
	return updated, nil
}

func (svc *service) DeleteTasks(ctx context.Context, userID string, ids []string) (int, error) {
	var deleted int
	for _, id := range ids {
		if err := svc.repo.DeleteTask(ctx, userID, id); err != nil {
			continue // skip on individual failure
		}
		deleted++
	}
	return deleted, nil
}

// Reminders

func (svc *service) ReminderScan(ctx context.Context, now time.Time) (int, error) {
	tasks, err := svc.repo.QueryDueReminders(ctx, now)
	if err != nil {
		return 0, errors.Wrap(err, "querying due reminders")
	}

	var sent int
	for _, tsk := range tasks {
		usr, err := svc.users.GetByID(ctx, tsk.UserID)
		if err != nil {
			continue
		}
		var due string
		if tsk.DueDate != nil {
			due = tsk.DueDate.Format("Mon, 02 Jan 2006")
		}
		svc.mailSvc.SendMessages(&core.EmailMessage{
			To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
			Subject:      fmt.Sprintf("Reminder: %s", tsk.Name),
			TemplateName: "task_reminder",
			TemplateData: struct {
				Name     string
				TaskName string
				DueDate  string
			}{usr.Name, tsk.Name, due},
		})
		if err = svc.repo.SetTaskReminderSent(ctx, tsk.UserID, tsk.ID, now.UTC()); err != nil {
			continue
		}
		sent++
	}
	return sent, nil
}

func checkOverlap(start, end time.Time, weeks []Week, excludeID string) error {
	if clash, overlap := FindOverlap(start, end, weeks, excludeID); overlap {
		err := fmt.Errorf("dates overlap existing week %q (%s – %s)",
			clash.Name, clash.StartDate.Format("2006-01-02"), clash.EndDate.Format("2006-01-02"))
		return core.NewValidationError(err,
			core.FieldError{Field: "start_date", Error: err.Error()},
			core.FieldError{Field: "end_date", Error: err.Error()},
		)
	}
	return nil
}
