package server

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/rshade/boqlca/internal/impact"
)

const unitTag = "boqunit"

// MaxLookupItems bounds one lookup request.
const MaxLookupItems = 10000

// newValidator returns a validator that reports JSON field names and knows
// the inventory unit tag.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation(unitTag, func(fl validator.FieldLevel) bool {
		_, err := impact.ParseUnit(fl.Field().String())
		return err == nil
	})
	return v
}

// rowSelection names rows of a session.
type rowSelection struct {
	RowIDs []string `json:"rowIds" validate:"required,min=1,dive,required"`
}

type overrideRequest struct {
	RowIDs  []string `json:"rowIds" validate:"required,min=1,dive,required"`
	EntryID string   `json:"entryId" validate:"required"`
}

type unitRequest struct {
	Unit string `json:"unit" validate:"required,boqunit"`
}

type areaRequest struct {
	RowIDs []string `json:"rowIds" validate:"required,min=1,dive,required"`
	Area   *float64 `json:"area" validate:"required,gte=0"`
}

type reinforcementRequest struct {
	RowIDs  []string `json:"rowIds" validate:"required,min=1,dive,required"`
	KgPerM3 *float64 `json:"kgPerM3" validate:"omitempty,gt=0,lte=1000"`
}

// lookupItem is a permissive wire item: malformed fields are defaulted
// rather than rejected.
type lookupItem struct {
	Element       string `json:"element"`
	MaterialLabel string `json:"materialLabel"`
	Quantity      any    `json:"quantity"`
	Unit          string `json:"unit"`
}
