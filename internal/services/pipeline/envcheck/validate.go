// Package envcheck validates a run record against the local machine and
// builds the execution contexts for the GDAL and GRASS tools
//
// Nothing here touches the process environment; the contexts are values
package envcheck

import (
	"reflect"
	"strings"
	"sync"

	"hydroflow/internal/core/runconfig"
	perr "hydroflow/internal/platform/errors"
	"hydroflow/internal/platform/logger"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

type checker struct {
	v     *validator.Validate
	trans ut.Translator
}

var (
	once sync.Once
	chk  *checker
)

// get builds the validator once; messages name fields by their YAML key
func get() *checker {
	once.Do(func() {
		enLoc := en.New()
		uni := ut.New(enLoc, enLoc)
		trans, _ := uni.GetTranslator("en")

		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("yaml"), ",")
			if name == "" || name == "-" {
				return fld.Name
			}
			return name
		})
		_ = en_translations.RegisterDefaultTranslations(v, trans)
		registerShort(v, trans, "dir", "{0} is not an existing directory")
		registerShort(v, trans, "file", "{0} is not an existing file")

		chk = &checker{v: v, trans: trans}
	})
	return chk
}

func registerShort(v *validator.Validate, trans ut.Translator, tag, text string) {
	_ = v.RegisterTranslation(tag, trans,
		func(ut ut.Translator) error { return ut.Add(tag, text, true) },
		func(ut ut.Translator, fe validator.FieldError) string {
			msg, _ := ut.T(tag, fe.Field())
			return msg
		},
	)
}

// partial validates the named struct fields and maps the first failure to
// a project error with the given code
func partial(cfg runconfig.Config, code perr.ErrorCode, fields ...string) error {
	c := get()
	err := c.v.StructPartial(cfg, fields...)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		logger.Get().Error().Err(err).Msg("validator internal error")
		return perr.Wrap(err, perr.ErrorCodeUnknown, "validation error")
	}
	fe := verrs[0]
	return perr.WithField(perr.Newf(code, "%s", fe.Translate(c.trans)), fe.Field())
}
