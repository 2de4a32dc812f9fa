package checkin

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"
)

const maxBodyBytes = 1 << 20

// ErrBind wraps request bodies that fail to decode or validate.
var ErrBind = errors.New("invalid request")

type validation struct {
	validate   *validator.Validate
	translator ut.Translator
}

var (
	validationOnce sync.Once //nolint:gochecknoglobals // validator singleton
	validationSvc  *validation
)

// validatorSvc returns the shared validator with English messages that use
// json field names.
func validatorSvc() *validation {
	validationOnce.Do(func() {
		loc := en.New()
		uni := ut.New(loc, loc)
		trans, _ := uni.GetTranslator("en")

		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "" || name == "-" {
				return fld.Name
			}
			return name
		})
		_ = entranslations.RegisterDefaultTranslations(v, trans)
		validationSvc = &validation{validate: v, translator: trans}
	})
	return validationSvc
}

// bindJSON decodes and validates the request body into T.
func bindJSON[T any](r *http.Request) (T, error) {
	var out T
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(&out); err != nil {
		if errors.Is(err, io.EOF) {
			return out, fmt.Errorf("%w: empty body", ErrBind)
		}
		return out, fmt.Errorf("%w: malformed json: %w", ErrBind, err)
	}
	svc := validatorSvc()
	if err := svc.validate.Struct(out); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fe.Translate(svc.translator))
			}
			return out, fmt.Errorf("%w: %s", ErrBind, strings.Join(msgs, "; "))
		}
		return out, fmt.Errorf("%w: %w", ErrBind, err)
	}
	return out, nil
}
