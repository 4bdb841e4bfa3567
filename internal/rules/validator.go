package rules

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	runerrors "github.com/rulerun/rulerun/pkg/errors"
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate

	ruleNamePattern = regexp.MustCompile(`^[a-z0-9_]+$`)
)

func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()

		_ = v.RegisterValidation("rule_name", func(fl validator.FieldLevel) bool {
			return ruleNamePattern.MatchString(fl.Field().String())
		})

		validateInst = v
	})

	return validateInst
}

// ValidateRulefile performs schema validation on every declared rule.
func ValidateRulefile(rf *Rulefile) error {
	if rf == nil {
		return runerrors.NewRuleDefinitionError("", "rulefile is nil", nil)
	}

	for _, rule := range rf.Rules {
		if err := ValidateRule(rule); err != nil {
			return err
		}
	}

	return nil
}

// ValidateRule validates a single rule declaration.
func ValidateRule(rule Rule) error {
	v := validatorInstance()
	if err := v.Struct(rule); err != nil {
		return convertValidationError(rule.Name, err)
	}
	return nil
}

func convertValidationError(rule string, err error) error {
	if err == nil {
		return nil
	}

	if ves, ok := err.(validator.ValidationErrors); ok {
		ve := ves[0]
		field := strings.ToLower(ve.Field())
		msg := fmt.Sprintf("%s failed validation for tag '%s'", field, ve.Tag())
		return runerrors.NewRuleDefinitionError(rule, msg, err)
	}

	return runerrors.NewRuleDefinitionError(rule, err.Error(), err)
}
