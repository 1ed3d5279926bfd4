package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"sort"
	"strings"

	govalidator "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// maxBody bounds request bodies; reward images travel inline as data URIs.
const maxBody = 8 << 20

var validate = newValidator()

func newValidator() *govalidator.Validate {
	v := govalidator.New(govalidator.WithRequiredStructEnabled())
	// Use JSON tag name for field names in error messages.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ─── Request DTOs ───────────────────────────────────────────────────────────
// Amounts accept a JSON number or a numeric string.

type gradeRequest struct {
	Value json.Number `json:"value" validate:"required,numeric"`
}

type correctionRequest struct {
	Amount json.Number `json:"amount" validate:"required,numeric"`
}

type rewardRequest struct {
	Name  string      `json:"name" validate:"required,max=80"`
	Cost  json.Number `json:"cost" validate:"required,numeric"`
	Image string      `json:"image,omitempty" validate:"omitempty,datauri"`
}

// bind decodes and validates the body into dst. It returns nil on success
// or a field → message map.
func bind(w http.ResponseWriter, r *http.Request, dst interface{}) map[string]string {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	if err := dec.Decode(dst); err != nil {
		return map[string]string{"detail": "invalid JSON body: " + err.Error()}
	}
	if err := validate.Struct(dst); err != nil {
		return translate(err)
	}
	return nil
}

func translate(err error) map[string]string {
	fields := make(map[string]string)
	var ve govalidator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			fields[fe.Field()] = "failed '" + fe.Tag() + "' check"
		}
		return fields
	}
	fields["detail"] = err.Error()
	return fields
}

// fieldMessage flattens a field map into one message, ordered by key.
func fieldMessage(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + fields[k]
	}
	return strings.Join(parts, "; ")
}

// parseDecimal converts a validated json.Number.
func parseDecimal(n json.Number) (decimal.Decimal, error) {
	return decimal.NewFromString(n.String())
}
