package models

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

// Student is one roster record. ID is nil until the store assigns one on
// first save. The id is never bound from form input, handlers set it from
// the URL path only.
type Student struct {
	ID         *int64 `db:"id" json:"id"`
	Name       string `db:"name" json:"name" validate:"required"`
	Sex        string `db:"sex" json:"sex" validate:"required"`
	BirthDate  string `db:"birth_date" json:"birth_date" validate:"omitempty,datetime=2006-01-02"`
	BirthPlace string `db:"birth_place" json:"birth_place" validate:"required"`
	Department string `db:"department" json:"department" validate:"required"`
	Sno        string `db:"sno" json:"sno" validate:"required"`
}

func (s *Student) IsNew() bool {
	return s.ID == nil
}

func (s *Student) Validate() error {
	validate := validator.New()
	return validate.Struct(s)
}

// FieldErrors flattens validator output into per-field messages keyed by
// struct field name, ready for form redisplay.
func FieldErrors(err error) map[string]string {
	if err == nil {
		return nil
	}

	fieldErrs := make(map[string]string)

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		fieldErrs["Form"] = err.Error()
		return fieldErrs
	}

	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			fieldErrs[fe.Field()] = "is required"
		case "datetime":
			fieldErrs[fe.Field()] = "must look like 2006-01-02"
		default:
			fieldErrs[fe.Field()] = "is invalid"
		}
	}

	return fieldErrs
}
