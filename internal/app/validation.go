package app

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/shikshalaya/sms-services/patro/internal/bsdate"
)

// MarkRequest marks one student's attendance on one BS day
type MarkRequest struct {
	StudentID string `json:"student_id" validate:"required,max=64,studentid"`
	Name      string `json:"name" validate:"omitempty,max=120"`
	Class     string `json:"class" validate:"omitempty,max=32"`
	Date      string `json:"date" validate:"required,bsdate"`
	Status    string `json:"status" validate:"required,oneof=present absent leave holiday"`
	Note      string `json:"note" validate:"omitempty,max=500"`
	Overwrite bool   `json:"overwrite"`
}

// UnmarkRequest removes a student's mark for one BS day
type UnmarkRequest struct {
	StudentID string `json:"student_id" validate:"required,max=64"`
	Date      string `json:"date" validate:"required,bsdate"`
}

// HolidayRequest declares or removes a school holiday
type HolidayRequest struct {
	Date string `json:"date" validate:"required,bsdate"`
	Name string `json:"name" validate:"omitempty,max=120"`
}

// reservedStudentIDs are path segments under /api/attendance/ taken by edit routes
var reservedStudentIDs = map[string]bool{"mark": true, "delete": true}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// bsdate: YYYY-MM-DD that exists in the calendar table
	if err := v.RegisterValidation("bsdate", func(fl validator.FieldLevel) bool {
		_, err := bsdate.Parse(fl.Field().String())
		return err == nil
	}); err != nil {
		panic(err)
	}
	// studentid: usable as a single /api/attendance/{student} path segment
	if err := v.RegisterValidation("studentid", func(fl validator.FieldLevel) bool {
		id := fl.Field().String()
		return !strings.Contains(id, "/") && !reservedStudentIDs[id]
	}); err != nil {
		panic(err)
	}
	return v
}

// decodeAndValidate decodes the JSON body into dst and validates it. On failure
// it writes the error response and returns false.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}
	if err := validate.Struct(dst); err != nil {
		writeValidationError(w, err)
		return false
	}
	return true
}

// writeValidationError reports each failing field with the rule it broke
func writeValidationError(w http.ResponseWriter, err error) {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		http.Error(w, "Invalid input", http.StatusBadRequest)
		return
	}

	fields := make(map[string]string, len(ve))
	for _, fe := range ve {
		fields[fe.Field()] = fe.Tag()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	writeJSON(w, map[string]interface{}{
		"error":  "Validation failed",
		"fields": fields,
	})
}
