package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is the shared struct-tag validator behind DecodeValid. A single
// instance is intentional: it caches struct metadata per type. Field names
// in validation errors are reported by their JSON wire name.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// DecodeValid decodes r's JSON body into dst and runs its `validate`
// struct tags. On failure it writes the appropriate problem response and
// returns false; handlers should return immediately in that case.
func DecodeValid(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		BadRequest(w, "invalid_request_body", "request body must be valid JSON")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			BadRequest(w, "validation_failed",
				fmt.Sprintf("field %q failed the %q rule", fe.Field(), fe.Tag()))
			return false
		}
		BadRequest(w, "validation_failed", "request body failed validation")
		return false
	}
	return true
}
