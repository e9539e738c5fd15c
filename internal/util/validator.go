package util

import (
	"fmt"
	"strings"
	"survey_backend/internal/model"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	registerSurveyRules(v)
	return v
}

func registerSurveyRules(v *validator.Validate) {
	// 空值交给 required/omitempty 处理
	v.RegisterValidation("survey_type", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == "" || model.SurveyType(s).Valid()
	})
	v.RegisterValidation("question_type", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == "" || model.QuestionType(s).Valid()
	})
	v.RegisterValidation("user_role", func(fl validator.FieldLevel) bool {
		return model.UserRole(fl.Field().String()).Valid()
	})
}

// RegisterBindingRules installs the survey rules on gin's binding validator.
func RegisterBindingRules() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		registerSurveyRules(v)
	}
}

// ValidateStruct runs the survey validator and wraps failures in ErrValidation.
func ValidateStruct(s interface{}) error {
	if err := validate.Struct(s); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrValidation, strings.Join(fields, "; "))
		}
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}
