package rubric

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/bmwamba/darasa/core"
)

var (
	weightsTag  = "rubricweights"
	weightsText = "criteria weights must sum to 100"
)

func init() {
	core.Validate.RegisterStructValidation(newRubricStructValidation, NewRubric{})
	core.Validate.RegisterStructValidation(updateRubricStructValidation, UpdateRubric{})
	core.RegisterCustomTranslation(weightsTag, weightsText)
}

// Criterion is one weighted grading dimension of a Rubric.
type Criterion struct {
	Name   string `json:"name" validate:"required"`
	Weight int    `json:"weight" validate:"min=1,max=100"`
}

// Rubric is a named set of weighted grading criteria; weights sum to 100.
type Rubric struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Criteria  []Criterion `json:"criteria"`
	CreatedAt time.Time   `json:"created_at"` // UTC
	UpdatedAt time.Time   `json:"updated_at"` // UTC
}

type NewRubric struct {
	Name     string      `json:"name" validate:"required"`
	Criteria []Criterion `json:"criteria" validate:"required,min=1,dive"`
}

func (nr *NewRubric) Validate() error {
	nr.Name = core.CleanString(nr.Name)
	return core.Validate.Struct(nr)
}

type UpdateRubric struct {
	Name     string      `json:"name"`
	Criteria []Criterion `json:"criteria" validate:"omitempty,min=1,dive"`
}

func (ur *UpdateRubric) Validate(orig Rubric) error {
	if name := core.CleanString(ur.Name); name != "" {
		ur.Name = name
	} else {
		ur.Name = orig.Name
	}
	if ur.Criteria == nil {
		ur.Criteria = orig.Criteria
	}
	return core.Validate.Struct(ur)
}

func weightsSumTo100(criteria []Criterion) bool {
	var sum int
	for _, c := range criteria {
		sum += c.Weight
	}
	return sum == 100
}

func newRubricStructValidation(sl validator.StructLevel) {
	nr := sl.Current().Interface().(NewRubric)
	if len(nr.Criteria) > 0 && !weightsSumTo100(nr.Criteria) {
		sl.ReportError(nr.Criteria, "criteria", "Criteria", weightsTag, "")
	}
}

func updateRubricStructValidation(sl validator.StructLevel) {
	ur := sl.Current().Interface().(UpdateRubric)
	if len(ur.Criteria) > 0 && !weightsSumTo100(ur.Criteria) {
		sl.ReportError(ur.Criteria, "criteria", "Criteria", weightsTag, "")
	}
}
