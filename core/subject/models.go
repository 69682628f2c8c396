package subject

import (
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/studia/core"
)

// Assessment contributions
const (
	ContributionIndividual = "individual"
	ContributionGroup      = "group"
)

type Subject struct {
	ID               string    `json:"id"`
	UserID           string    `json:"-"`
	Name             string    `json:"name"`
	Code             string    `json:"code,omitempty"`
	Description      string    `json:"description,omitempty"`
	Term             string    `json:"term,omitempty"`
	CoordinatorName  string    `json:"coordinator_name,omitempty"`
	CoordinatorEmail string    `json:"coordinator_email,omitempty"`
	Archived         bool      `json:"archived"`
	TotalGrade       float64   `json:"total_grade"` // percentage, maintained by the grade aggregation
	CreatedAt        time.Time `json:"created_at"`  // UTC
	UpdatedAt        time.Time `json:"updated_at"`  // UTC
}

type Assessment struct {
	ID           string     `json:"id"`
	SubjectID    string     `json:"subject_id"`
	UserID       string     `json:"-"`
	Name         string     `json:"name"`
	Icon         string     `json:"icon,omitempty"`
	Contribution string     `json:"contribution"` // individual | group
	Weight       float64    `json:"weight"`       // percentage of the subject grade
	Description  string     `json:"description,omitempty"`
	DueDate      *time.Time `json:"due_date,omitempty"`
	Complete     bool       `json:"complete"`
	CreatedAt    time.Time  `json:"created_at"` // UTC
	UpdatedAt    time.Time  `json:"updated_at"` // UTC
}

type Grade struct {
	ID           string    `json:"id"`
	AssessmentID string    `json:"assessment_id"`
	SubjectID    string    `json:"subject_id"`
	UserID       string    `json:"-"`
	Name         string    `json:"name"`
	Value        float64   `json:"value"`      // 0 - 100
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
}

// NewSubject contains information needed to create a new Subject.
type NewSubject struct {
	Name             string `json:"name" validate:"required"`
	Code             string `json:"code"`
	Description      string `json:"description"`
	Term             string `json:"term"`
	CoordinatorName  string `json:"coordinator_name"`
	CoordinatorEmail string `json:"coordinator_email" validate:"omitempty,email"`
}

func (ns *NewSubject) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	ns.Code = core.CleanString(ns.Code)
	ns.CoordinatorEmail = core.CleanString(ns.CoordinatorEmail, true /* lower */)
	return validate.Struct(ns)
}

// UpdateSubject defines what information may be provided to modify an existing Subject.
// Zero-valued fields are left unchanged; Archived toggles via pointer.
type UpdateSubject struct {
	Name             string `json:"name"`
	Code             string `json:"code"`
	Description      string `json:"description"`
	Term             string `json:"term"`
	CoordinatorName  string `json:"coordinator_name"`
	CoordinatorEmail string `json:"coordinator_email" validate:"omitempty,email"`
	Archived         *bool  `json:"archived"`
}

func (us *UpdateSubject) Validate(validate *validator.Validate) error {
	us.Name = core.CleanString(us.Name)
	us.Code = core.CleanString(us.Code)
	us.CoordinatorEmail = core.CleanString(us.CoordinatorEmail, true /* lower */)
	return validate.Struct(us)
}

// NewAssessment contains information needed to create a new Assessment.
// The weight budget check happens in the service where sibling weights are known.
type NewAssessment struct {
	Name         string     `json:"name" validate:"required"`
	Icon         string     `json:"icon"`
	Contribution string     `json:"contribution" validate:"required,contribution"`
	Weight       float64    `json:"weight" validate:"min=0,max=100"`
	Description  string     `json:"description"`
	DueDate      *time.Time `json:"due_date"`
}

func (na *NewAssessment) Validate(validate *validator.Validate) error {
	na.Name = core.CleanString(na.Name)
	return validate.Struct(na)
}

type UpdateAssessment struct {
	Name         string     `json:"name"`
	Icon         string     `json:"icon"`
	Contribution string     `json:"contribution" validate:"omitempty,contribution"`
	Weight       *float64   `json:"weight" validate:"omitempty,min=0,max=100"`
	Description  string     `json:"description"`
	DueDate      *time.Time `json:"due_date"`
	Complete     *bool      `json:"complete"`
}

func (ua *UpdateAssessment) Validate(validate *validator.Validate) error {
	ua.Name = core.CleanString(ua.Name)
	return validate.Struct(ua)
}

// NewGrade contains information needed to record a new Grade.
type NewGrade struct {
	Name  string  `json:"name" validate:"required"`
	Value float64 `json:"value" validate:"min=0,max=100"`
}

func (ng *NewGrade) Validate(validate *validator.Validate) error {
	ng.Name = core.CleanString(ng.Name)
	return validate.Struct(ng)
}

// UpdateGrade defines what information may be provided to modify an existing Grade.
// A nil Value means name-only edit; the subject total is not recomputed then.
type UpdateGrade struct {
	Name  string   `json:"name"`
	Value *float64 `json:"value" validate:"omitempty,min=0,max=100"`
}

func (ug *UpdateGrade) Validate(validate *validator.Validate) error {
	ug.Name = core.CleanString(ug.Name)
	return validate.Struct(ug)
}

type QueryFilter struct {
	Search   string `query:"search"`
	Term     string `query:"term"`
	Archived *bool  `query:"archived"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Term == "" && qf.Archived == nil
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Term = core.CleanString(qf.Term)
}

var (
	contributionTag  = "contribution"
	contributionText = "contribution must be either 'individual' or 'group'"
)

// InitValidators registers this package's custom validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(contributionTag, contributionValidation)
	core.RegisterCustomTranslation(validate, translator, contributionTag, contributionText)
}

func contributionValidation(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case ContributionIndividual, ContributionGroup:
		return true
	}
	return false
}
