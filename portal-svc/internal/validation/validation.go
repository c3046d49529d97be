package validation

import (
	"errors"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	emailPattern   = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	letterPattern  = regexp.MustCompile(`[a-zA-Z]`)
	digitPattern   = regexp.MustCompile(`[0-9]`)
	specialPattern = regexp.MustCompile(`[!@#$%^&*(),.?":{}|<>]`)
)

// FieldErrors maps a JSON field name to a user-facing message.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	fields := make([]string, 0, len(fe))
	for f := range fe {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+fe[f])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// messages are keyed by "<field>.<tag>" first, then by tag alone.
var messages = map[string]string{
	"username.min":             "아이디는 4~10자여야 합니다.",
	"username.max":             "아이디는 4~10자여야 합니다.",
	"username.required":        "아이디는 4~10자여야 합니다.",
	"email.email_format":       "올바른 이메일을 입력해주세요.",
	"email.required":           "이메일과 비밀번호를 입력해주세요.",
	"password.required":        "이메일과 비밀번호를 입력해주세요.",
	"password.min":             "비밀번호는 8~15자여야 합니다.",
	"password.max":             "비밀번호는 8~15자여야 합니다.",
	"newPassword.required":     "비밀번호는 8~15자여야 합니다.",
	"newPassword.min":          "비밀번호는 8~15자여야 합니다.",
	"newPassword.max":          "비밀번호는 8~15자여야 합니다.",
	"password_strength":        "비밀번호는 영문, 숫자, 특수문자를 포함해야 합니다.",
	"confirmPassword.eqfield":  "비밀번호가 일치하지 않습니다.",
	"confirmPassword.required": "비밀번호가 일치하지 않습니다.",
	"token.required":           "유효하지 않은 접근입니다.",
	"latitude.required":        "주소 좌표를 확인할 수 없습니다. 주소를 다시 검색해주세요.",
	"longitude.required":       "주소 좌표를 확인할 수 없습니다. 주소를 다시 검색해주세요.",
	"price.gt":                 "가격은 0보다 커야 합니다.",
	"required":                 "필수 입력 항목입니다.",
}

type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	_ = v.RegisterValidation("email_format", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("password_strength", func(fl validator.FieldLevel) bool {
		p := fl.Field().String()
		return letterPattern.MatchString(p) && digitPattern.MatchString(p) && specialPattern.MatchString(p)
	})

	return &Validator{v: v}
}

// Struct returns nil or FieldErrors; only the first failure per field is kept.
func (v *Validator) Struct(s any) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := FieldErrors{}
	for _, fe := range verrs {
		if _, seen := out[fe.Field()]; seen {
			continue
		}
		out[fe.Field()] = message(fe.Field(), fe.Tag())
	}
	return out
}

func message(field, tag string) string {
	if m, ok := messages[field+"."+tag]; ok {
		return m
	}
	if m, ok := messages[tag]; ok {
		return m
	}
	return "올바르지 않은 값입니다."
}
