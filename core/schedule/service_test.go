package schedule_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/studia/core"
	"github.com/trezcool/studia/core/schedule"
	"github.com/trezcool/studia/core/user"
	emailsvc "github.com/trezcool/studia/services/email"
	inmemdb "github.com/trezcool/studia/storage/database/inmem"
)

func setup(t *testing.T) (schedule.ServiceInterface, schedule.Repository, user.ServiceInterface) {
	t.Helper()
	conf := core.NewConfig()
	db := inmemdb.New()
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	usrSvc := user.NewService(inmemdb.NewUserRepository(db), mailSvc, conf)
	repo := inmemdb.NewScheduleRepository(db)
	return schedule.NewService(repo, usrSvc, mailSvc, conf), repo, usrSvc
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func tPtr(t time.Time) *time.Time { return &t }

func createWeek(t *testing.T, svc schedule.ServiceInterface, userID, name string, start, end time.Time) schedule.Week {
	t.Helper()
	wk, err := svc.CreateWeek(context.Background(), userID, schedule.NewWeek{
		Name:      name,
		StartDate: start,
		EndDate:   end,
	})
	require.NoError(t, err)
	return wk
}

func createTask(t *testing.T, svc schedule.ServiceInterface, userID string, nt schedule.NewTask) schedule.Task {
	t.Helper()
	if nt.Status == "" {
		nt.Status = schedule.StatusTodo
	}
	if nt.Priority == "" {
		nt.Priority = schedule.PriorityNone
	}
	tsk, err := svc.CreateTask(context.Background(), userID, nt)
	require.NoError(t, err)
	return tsk
}

func Test_service_CreateWeek(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()
	userID := "usr1"

	// name defaulted from the timeline
	wk, err := svc.CreateWeek(ctx, userID, schedule.NewWeek{
		StartDate: date(2026, 1, 5),
		EndDate:   date(2026, 1, 12),
	})
	require.NoError(t, err)
	assert.Equal(t, "Week 1", wk.Name)

	// holiday end date derived from duration
	hol, err := svc.CreateWeek(ctx, userID, schedule.NewWeek{
		StartDate: date(2026, 1, 12),
		IsHoliday: true,
		Duration:  2,
	})
	require.NoError(t, err)
	assert.Equal(t, "Holiday", hol.Name)
	assert.True(t, hol.EndDate.Equal(date(2026, 1, 26)))

	// overlap rejected with field errors
	_, err = svc.CreateWeek(ctx, userID, schedule.NewWeek{
		StartDate: date(2026, 1, 8),
		EndDate:   date(2026, 1, 15),
	})
	require.Error(t, err)
	vErr, ok := errors.Cause(err).(*core.ValidationError)
	require.True(t, ok, "want *core.ValidationError, got %T", err)
	assert.NotEmpty(t, vErr.Fields)

	// back-to-back is allowed
	wk2, err := svc.CreateWeek(ctx, userID, schedule.NewWeek{
		StartDate: date(2026, 1, 26),
		EndDate:   date(2026, 2, 2),
	})
	require.NoError(t, err)
	assert.Equal(t, "Week 2", wk2.Name)

	// end before start rejected
	_, err = svc.CreateWeek(ctx, userID, schedule.NewWeek{
		StartDate: date(2026, 3, 1),
		EndDate:   date(2026, 2, 1),
	})
	require.Error(t, err)
}

func Test_service_UpdateWeek(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()
	userID := "usr1"

	wk1 := createWeek(t, svc, userID, "Week 1", date(2026, 1, 5), date(2026, 1, 12))
	wk2 := createWeek(t, svc, userID, "Week 2", date(2026, 1, 12), date(2026, 1, 19))

	// moving into a sibling's interval is rejected
	_, err := svc.UpdateWeek(ctx, userID, wk2.ID, schedule.UpdateWeek{
		StartDate: tPtr(date(2026, 1, 9)),
	})
	require.Error(t, err)

	// shrinking within the week's own slot is fine
	upd, err := svc.UpdateWeek(ctx, userID, wk1.ID, schedule.UpdateWeek{
		EndDate: tPtr(date(2026, 1, 10)),
		Name:    "Week 1 (short)",
	})
	require.NoError(t, err)
	assert.Equal(t, "Week 1 (short)", upd.Name)
	assert.True(t, upd.EndDate.Equal(date(2026, 1, 10)))
}

func Test_service_DeleteWeek_unassignsTasks(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()
	userID := "usr1"

	wk := createWeek(t, svc, userID, "Week 1", date(2026, 1, 5), date(2026, 1, 12))
	t1 := createTask(t, svc, userID, schedule.NewTask{Name: "Read ch. 3", WeekID: wk.ID})
	t2 := createTask(t, svc, userID, schedule.NewTask{Name: "Lab report", WeekID: wk.ID})
	loose := createTask(t, svc, userID, schedule.NewTask{Name: "Buy calculator"})

	unassigned, err := svc.DeleteWeek(ctx, userID, wk.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, unassigned)

	// tasks survive, unassigned
	for _, id := range []string{t1.ID, t2.ID, loose.ID} {
		tsk, err := svc.GetTask(ctx, userID, id)
		require.NoError(t, err)
		assert.Empty(t, tsk.WeekID)
	}
	_, err = svc.GetWeek(ctx, userID, wk.ID)
	assert.Equal(t, schedule.ErrWeekNotFound, errors.Cause(err))
}

func Test_service_StartWeek(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()
	userID := "usr1"
	now := date(2026, 1, 7) // inside wk1

	wk1 := createWeek(t, svc, userID, "Week 1", date(2026, 1, 5), date(2026, 1, 12))
	wk2 := createWeek(t, svc, userID, "Week 2", date(2026, 1, 12), date(2026, 1, 19))

	todo := createTask(t, svc, userID, schedule.NewTask{Name: "Essay", WeekID: wk1.ID})
	doing := createTask(t, svc, userID, schedule.NewTask{Name: "Revision", WeekID: wk1.ID, Status: schedule.StatusDoing})
	done := createTask(t, svc, userID, schedule.NewTask{Name: "Quiz prep", WeekID: wk1.ID, Status: schedule.StatusDone})

	// target must start after the current week
	_, err := svc.StartWeek(ctx, userID, wk1.ID, now)
	assert.Equal(t, schedule.ErrWeekNotFuture, errors.Cause(err))

	moved, err := svc.StartWeek(ctx, userID, wk2.ID, now)
	require.NoError(t, err)
	assert.Equal(t, 2, moved)

	for _, id := range []string{todo.ID, doing.ID} {
		tsk, err := svc.GetTask(ctx, userID, id)
		require.NoError(t, err)
		assert.Equal(t, wk2.ID, tsk.WeekID)
	}
	// done tasks stay behind
	tsk, err := svc.GetTask(ctx, userID, done.ID)
	require.NoError(t, err)
	assert.Equal(t, wk1.ID, tsk.WeekID)

	// no current week
	_, err = svc.StartWeek(ctx, userID, wk2.ID, date(2026, 6, 1))
	assert.Equal(t, schedule.ErrNoCurrentWeek, errors.Cause(err))
}

func Test_service_SuggestedWeek(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()
	userID := "usr1"
	now := date(2026, 1, 7)

	// empty timeline: Week 1 starting next Monday
	name, start, err := svc.SuggestedWeek(ctx, userID, now)
	require.NoError(t, err)
	assert.Equal(t, "Week 1", name)
	assert.Equal(t, time.Monday, start.Weekday())
	assert.True(t, start.After(now))

	createWeek(t, svc, userID, "Week 1", date(2026, 1, 5), date(2026, 1, 12))

	name, start, err = svc.SuggestedWeek(ctx, userID, now)
	require.NoError(t, err)
	assert.Equal(t, "Week 2", name)
	assert.True(t, start.Equal(date(2026, 1, 12)))
}

func Test_service_UpdateTask(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()
	userID := "usr1"

	wk := createWeek(t, svc, userID, "Week 1", date(2026, 1, 5), date(2026, 1, 12))
	tsk := createTask(t, svc, userID, schedule.NewTask{Name: "Essay", WeekID: wk.ID})

	// "none" unassigns
	tsk, err := svc.UpdateTask(ctx, userID, tsk.ID, schedule.UpdateTask{WeekID: "none"})
	require.NoError(t, err)
	assert.Empty(t, tsk.WeekID)

	// unknown week rejected
	_, err = svc.UpdateTask(ctx, userID, tsk.ID, schedule.UpdateTask{WeekID: "nope"})
	assert.Equal(t, schedule.ErrWeekNotFound, errors.Cause(err))

	// setting a reminder clears any previous sent stamp
	reminder := date(2026, 1, 6)
	tsk, err = svc.UpdateTask(ctx, userID, tsk.ID, schedule.UpdateTask{Reminder: &reminder})
	require.NoError(t, err)
	require.NotNil(t, tsk.Reminder)
	assert.Nil(t, tsk.ReminderSentAt)
}

func Test_service_batchTaskOps(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()
	userID := "usr1"

	t1 := createTask(t, svc, userID, schedule.NewTask{Name: "A"})
	t2 := createTask(t, svc, userID, schedule.NewTask{Name: "B"})
	foreign := createTask(t, svc, "someone-else", schedule.NewTask{Name: "C"})

	// unknown and foreign IDs are skipped, not fatal
	updated, err := svc.UpdateTasksStatus(ctx, userID, []string{t1.ID, t2.ID, foreign.ID, "ghost"}, schedule.StatusDone)
	require.NoError(t, err)
	assert.Equal(t, 2, updated)

	tsk, err := svc.GetTask(ctx, userID, t1.ID)
	require.NoError(t, err)
	assert.Equal(t, schedule.StatusDone, tsk.Status)

	// the foreign task is untouched
	tsk, err = svc.GetTask(ctx, "someone-else", foreign.ID)
	require.NoError(t, err)
	assert.Equal(t, schedule.StatusTodo, tsk.Status)

	deleted, err := svc.DeleteTasks(ctx, userID, []string{t1.ID, foreign.ID, "ghost"})
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)
}

func Test_service_ReminderScan(t *testing.T) {
	svc, repo, usrSvc := setup(t)
	ctx := context.Background()
	now := date(2026, 1, 10)

	usr, err := usrSvc.Create(ctx, user.NewUser{
		Name:            "Jo Studies",
		Email:           "jo@test.cd",
		Password:        "S3cretPass!",
		PasswordConfirm: "S3cretPass!",
	})
	require.NoError(t, err)
	emailsvc.ClearSentMessages() // drop the welcome email

	due := createTask(t, svc, usr.ID, schedule.NewTask{Name: "Submit essay", Reminder: tPtr(date(2026, 1, 9))})
	createTask(t, svc, usr.ID, schedule.NewTask{Name: "Future", Reminder: tPtr(date(2026, 2, 1))})
	createTask(t, svc, usr.ID, schedule.NewTask{Name: "Done already", Status: schedule.StatusDone, Reminder: tPtr(date(2026, 1, 9))})
	createTask(t, svc, usr.ID, schedule.NewTask{Name: "No reminder"})

	sent, err := svc.ReminderScan(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	msgs := emailsvc.GetSentMessages()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Subject, "Submit essay")
	assert.Equal(t, usr.Email, msgs[0].To[0].Address)

	// stamped as sent; a second scan is a no-op
	tsk, err := repo.GetTask(ctx, usr.ID, due.ID)
	require.NoError(t, err)
	assert.NotNil(t, tsk.ReminderSentAt)

	sent, err = svc.ReminderScan(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 0, sent)
}
