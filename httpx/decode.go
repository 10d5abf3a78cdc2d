package httpx

import (
	"io"
	"reflect"
	"strings"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

func init() {
	// Report errors under JSON names, not Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// DecodeValid decodes a JSON request body into v and checks its
// validate tags. The returned error is suitable for echoing back in a
// 400 response.
func DecodeValid(body io.Reader, v any) error {
	if err := render.DecodeJSON(body, v); err != nil {
		return err
	}
	return validate.Struct(v)
}
