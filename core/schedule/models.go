package schedule

import (
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/studia/core"
)

// Task statuses
const (
	StatusTodo  = "todo"
	StatusDoing = "doing"
	StatusDone  = "done"
)

// Task priorities
const (
	PriorityNone   = "none"
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Week is a named, half-open [StartDate, EndDate) interval on the user's
// timeline. Holidays live on the same timeline as regular weeks.
type Week struct {
	ID        string    `json:"id"`
	UserID    string    `json:"-"`
	Name      string    `json:"name"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	IsHoliday bool      `json:"is_holiday"`
	Duration  int       `json:"duration,omitempty"` // in weeks, holidays only
	CreatedAt time.Time `json:"created_at"`         // UTC
	UpdatedAt time.Time `json:"updated_at"`         // UTC
}

// Contains reports whether t falls within the week's [StartDate, EndDate) interval.
func (w Week) Contains(t time.Time) bool {
	return !t.Before(w.StartDate) && t.Before(w.EndDate)
}

type Task struct {
	ID             string     `json:"id"`
	UserID         string     `json:"-"`
	WeekID         string     `json:"week_id,omitempty"` // "" = unassigned
	SubjectID      string     `json:"subject_id,omitempty"`
	AssessmentID   string     `json:"assessment_id,omitempty"`
	Name           string     `json:"name"`
	Status         string     `json:"status"`   // todo | doing | done
	Priority       string     `json:"priority"` // none | low | medium | high
	DueDate        *time.Time `json:"due_date,omitempty"`
	Reminder       *time.Time `json:"reminder,omitempty"`
	ReminderSentAt *time.Time `json:"-"`
	CreatedAt      time.Time  `json:"created_at"` // UTC
	UpdatedAt      time.Time  `json:"updated_at"` // UTC
}

// NewWeek contains information needed to create a new Week.
// Name is optional; the service derives one when empty.
// EndDate may be omitted for holidays carrying a Duration.
type NewWeek struct {
	Name      string    `json:"name"`
	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date"`
	IsHoliday bool      `json:"is_holiday"`
	Duration  int       `json:"duration" validate:"min=0"`
}

func (nw *NewWeek) Validate(validate *validator.Validate) error {
	nw.Name = core.CleanString(nw.Name)
	return validate.Struct(nw)
}

// UpdateWeek defines what information may be provided to modify an existing Week.
type UpdateWeek struct {
	Name      string     `json:"name"`
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
}

func (uw *UpdateWeek) Validate(validate *validator.Validate) error {
	uw.Name = core.CleanString(uw.Name)
	return validate.Struct(uw)
}

// NewTask contains information needed to create a new Task.
type NewTask struct {
	Name         string     `json:"name" validate:"required"`
	Status       string     `json:"status" validate:"omitempty,taskstatus"`
	Priority     string     `json:"priority" validate:"omitempty,taskpriority"`
	WeekID       string     `json:"week_id"`
	SubjectID    string     `json:"subject_id"`
	AssessmentID string     `json:"assessment_id"`
	DueDate      *time.Time `json:"due_date"`
	Reminder     *time.Time `json:"reminder"`
}

func (nt *NewTask) Validate(validate *validator.Validate) error {
	nt.Name = core.CleanString(nt.Name)
	if nt.Status == "" {
		nt.Status = StatusTodo
	}
	if nt.Priority == "" {
		nt.Priority = PriorityNone
	}
	return validate.Struct(nt)
}

// UpdateTask defines what information may be provided to modify an existing Task.
// WeekID may be set to "none" to unassign the task from its week.
type UpdateTask struct {
	Name         string     `json:"name"`
	Status       string     `json:"status" validate:"omitempty,taskstatus"`
	Priority     string     `json:"priority" validate:"omitempty,taskpriority"`
	WeekID       string     `json:"week_id"`
	SubjectID    string     `json:"subject_id"`
	AssessmentID string     `json:"assessment_id"`
	DueDate      *time.Time `json:"due_date"`
	Reminder     *time.Time `json:"reminder"`
}

func (t *UpdateTask) Validate(validate *validator.Validate) error {
	t.Name = core.CleanString(t.Name)
	return validate.Struct(t)
}

// BatchTaskStatus updates the status of several tasks at once.
type BatchTaskStatus struct {
	IDs    []string `json:"ids" validate:"required,min=1"`
	Status string   `json:"status" validate:"required,taskstatus"`
}

func (bt *BatchTaskStatus) Validate(validate *validator.Validate) error {
	return validate.Struct(bt)
}

// BatchTaskDelete deletes several tasks at once.
type BatchTaskDelete struct {
	IDs []string `json:"ids" validate:"required,min=1"`
}

func (bt *BatchTaskDelete) Validate(validate *validator.Validate) error {
	return validate.Struct(bt)
}

type TaskFilter struct {
	Status     string `query:"status"`
	WeekID     string `query:"week"`
	SubjectID  string `query:"subject"`
	Unassigned *bool  `query:"unassigned"`
}

func (tf *TaskFilter) IsEmpty() bool {
	return tf.Status == "" && tf.WeekID == "" && tf.SubjectID == "" && tf.Unassigned == nil
}

var (
	taskStatusTag    = "taskstatus"
	taskStatusText   = "status must be one of 'todo', 'doing' or 'done'"
	taskPriorityTag  = "taskpriority"
	taskPriorityText = "priority must be one of 'none', 'low', 'medium' or 'high'"
)

// InitValidators registers this package's custom validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(taskStatusTag, taskStatusValidation)
	core.RegisterCustomTranslation(validate, translator, taskStatusTag, taskStatusText)

	_ = validate.RegisterValidation(taskPriorityTag, taskPriorityValidation)
	core.RegisterCustomTranslation(validate, translator, taskPriorityTag, taskPriorityText)
}

func taskStatusValidation(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case StatusTodo, StatusDoing, StatusDone:
		return true
	}
	return false
}

func taskPriorityValidation(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case PriorityNone, PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}
