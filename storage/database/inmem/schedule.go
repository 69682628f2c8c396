package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/studia/core"
	"github.com/trezcool/studia/core/schedule"
)

type scheduleRepository struct {
	db *DB
}

var _ schedule.Repository = (*scheduleRepository)(nil) // interface compliance check

func NewScheduleRepository(db *DB) *scheduleRepository {
	return &scheduleRepository{db: db}
}

// Weeks

func (repo *scheduleRepository) CreateWeek(_ context.Context, wk schedule.Week) (schedule.Week, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	wk.ID = uuid.New().String()
	repo.db.weeks[wk.ID] = &wk
	return wk, nil
}

func (repo *scheduleRepository) QueryWeeks(_ context.Context, userID string, _ []core.DBOrdering) ([]schedule.Week, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	weeks := make([]schedule.Week, 0)
	for _, wk := range repo.db.weeks {
		if wk.UserID == userID {
			weeks = append(weeks, *wk)
		}
	}
	schedule.SortWeeks(weeks)
	return weeks, nil
}

func (repo *scheduleRepository) GetWeek(_ context.Context, userID, id string) (schedule.Week, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if wk, ok := repo.db.weeks[id]; ok && wk.UserID == userID {
		return *wk, nil
	}
	return schedule.Week{}, schedule.ErrWeekNotFound
}

func (repo *scheduleRepository) UpdateWeek(_ context.Context, wk schedule.Week) (schedule.Week, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.weeks[wk.ID]
	if !ok || orig.UserID != wk.UserID {
		return schedule.Week{}, schedule.ErrWeekNotFound
	}
	repo.db.weeks[wk.ID] = &wk
	return wk, nil
}

func (repo *scheduleRepository) DeleteWeek(_ context.Context, userID, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	wk, ok := repo.db.weeks[id]
	if !ok || wk.UserID != userID {
		return schedule.ErrWeekNotFound
	}
	delete(repo.db.weeks, id)
	return nil
}

// Tasks

func (repo *scheduleRepository) CreateTask(_ context.Context, tsk schedule.Task) (schedule.Task, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	tsk.ID = uuid.New().String()
	repo.db.tasks[tsk.ID] = &tsk
	return tsk, nil
}

func (repo *scheduleRepository) QueryTasks(
	_ context.Context,
	userID string,
	filter *schedule.TaskFilter,
	_ []core.DBOrdering,
) ([]schedule.Task, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	tasks := make([]schedule.Task, 0)
	for _, tsk := range repo.db.tasks {
		if tsk.UserID != userID {
			continue
		}
		if filter != nil {
			if filter.Status != "" && tsk.Status != filter.Status {
				continue
			}
			if filter.WeekID != "" && tsk.WeekID != filter.WeekID {
				continue
			}
			if filter.SubjectID != "" && tsk.SubjectID != filter.SubjectID {
				continue
			}
			if filter.Unassigned != nil && (tsk.WeekID == "") != *filter.Unassigned {
				continue
			}
		}
		tasks = append(tasks, *tsk)
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].CreatedAt.Before(tasks[j].CreatedAt) })
	return tasks, nil
}

func (repo *scheduleRepository) GetTask(_ context.Context, userID, id string) (schedule.Task, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if tsk, ok := repo.db.tasks[id]; ok && tsk.UserID == userID {
		return *tsk, nil
	}
	return schedule.Task{}, schedule.ErrTaskNotFound
}

func (repo *scheduleRepository) UpdateTask(_ context.Context, tsk schedule.Task) (schedule.Task, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.tasks[tsk.ID]
	if !ok || orig.UserID != tsk.UserID {
		return schedule.Task{}, schedule.ErrTaskNotFound
	}
	repo.db.tasks[tsk.ID] = &tsk
	return tsk, nil
}

func (repo *scheduleRepository) SetTaskWeek(_ context.Context, userID, taskID, weekID string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	tsk, ok := repo.db.tasks[taskID]
	if !ok || tsk.UserID != userID {
		return schedule.ErrTaskNotFound
	}
	tsk.WeekID = weekID
	tsk.UpdatedAt = time.Now().UTC()
	return nil
}

func (repo *scheduleRepository) DeleteTask(_ context.Context, userID, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	tsk, ok := repo.db.tasks[id]
	if !ok || tsk.UserID != userID {
		return schedule.ErrTaskNotFound
	}
	delete(repo.db.tasks, id)
	return nil
}

// Reminders

func (repo *scheduleRepository) QueryDueReminders(_ context.Context, due time.Time) ([]schedule.Task, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	tasks := make([]schedule.Task, 0)
	for _, tsk := range repo.db.tasks {
		if tsk.Reminder == nil || tsk.Reminder.After(due) {
			continue
		}
		if tsk.ReminderSentAt != nil || tsk.Status == schedule.StatusDone {
			continue
		}
		tasks = append(tasks, *tsk)
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].Reminder.Before(*tasks[j].Reminder) })
	return tasks, nil
}

func (repo *scheduleRepository) SetTaskReminderSent(_ context.Context, userID, taskID string, at time.Time) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	tsk, ok := repo.db.tasks[taskID]
	if !ok || tsk.UserID != userID {
		return schedule.ErrTaskNotFound
	}
	sent := at.UTC()
	tsk.ReminderSentAt = &sent
	tsk.UpdatedAt = sent
	return nil
}
