package validation

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

type Violations struct {
	Errors map[string][]error
}

func (violations Violations) MarshalJSON() ([]byte, error) {
	errors := make(map[string][]string)
	for fieldName, fieldErrors := range violations.Errors {
		errors[fieldName] = make([]string, len(fieldErrors))
		for index, fieldError := range fieldErrors {
			errors[fieldName][index] = fieldError.Error()
		}
	}

	return json.Marshal(map[string]map[string][]string{
		"errors": errors,
	})
}

func (violations Violations) IsEmpty() bool {
	return len(violations.Errors) == 0
}

// First returns one violation message, for callers that only show a
// single error at a time.
func (violations Violations) First() string {
	for _, fieldErrors := range violations.Errors {
		for _, fieldError := range fieldErrors {
			return fieldError.Error()
		}
	}
	return ""
}

// ValidateMap checks data against rules, keyed by field name. Fields
// without rules pass untouched; a "required" rule also rejects fields
// missing from data entirely.
func ValidateMap(data map[string]any, rules map[string][]string) Violations {
	var violations Violations
	violations.Errors = make(map[string][]error)

	for attributeName, attributeRules := range rules {
		attributeValue := data[attributeName]

		var errorCollection []error
		for _, attributeRule := range attributeRules {
			if err := validate(attributeRule, attributeName, attributeValue); err != nil {
				errorCollection = append(errorCollection, err)
			}
		}

		if len(errorCollection) != 0 {
			violations.Errors[attributeName] = errorCollection
		}
	}

	return violations
}

func validate(rule string, name string, value any) error {
	rule, argument, _ := strings.Cut(rule, ":")

	switch rule {
	case "required":
		err := fmt.Errorf("%s is required", name)

		switch v := value.(type) {
		case nil:
			return err
		case string:
			if v == "" {
				return err
			}
		case []any:
			if len(v) == 0 {
				return err
			}
		}
	case "email":
		v, ok := value.(string)
		if !ok || !emailPattern.MatchString(v) {
			return fmt.Errorf("%s is not a valid email address", name)
		}
	case "min":
		size, err := strconv.Atoi(argument)
		if err != nil {
			return fmt.Errorf("invalid validation rule :: min:%s", argument)
		}

		v, ok := value.(string)
		if !ok || len(v) < size {
			return fmt.Errorf("%s has to be at least %d characters long", name, size)
		}
	default:
		return fmt.Errorf("invalid validation rule :: %s", rule)
	}

	return nil
}
