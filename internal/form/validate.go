package form

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	defaultDescriptionMax = 200
	dateLayout            = "2006-01-02"
)

var validate = validator.New()

// DefaultRules returns the step-one validation rules.
func DefaultRules(descriptionMax int) map[string]string {
	if descriptionMax <= 0 {
		descriptionMax = defaultDescriptionMax
	}
	return map[string]string{
		FieldTitle:                "required",
		FieldDescription:          fmt.Sprintf("required,max=%d", descriptionMax),
		FieldRecruitmentStartDate: "required,datetime=" + dateLayout,
		FieldRecruitmentEndDate:   "required,datetime=" + dateLayout,
	}
}

// Validate checks every ruled field and replaces the error map. It returns
// true when no field failed. Validation never touches values.
func (c *Controller) Validate() bool {
	c.mu.Lock()
	values := copyMap(c.values)
	rules := copyMap(c.rules)
	c.mu.Unlock()

	names := make([]string, 0, len(rules))
	for name := range rules {
		names = append(names, name)
	}
	sort.Strings(names)

	errs := map[string]string{}
	for _, name := range names {
		if err := validate.Var(values[name], rules[name]); err != nil {
			errs[name] = message(err)
		}
	}
	if _, bad := errs[FieldRecruitmentEndDate]; !bad {
		if _, bad := errs[FieldRecruitmentStartDate]; !bad {
			if msg := rangeMessage(values[FieldRecruitmentStartDate], values[FieldRecruitmentEndDate]); msg != "" {
				errs[FieldRecruitmentEndDate] = msg
			}
		}
	}

	c.mu.Lock()
	c.errors = errs
	c.mu.Unlock()
	return len(errs) == 0
}

// ClearErrors empties the error map.
func (c *Controller) ClearErrors() {
	c.mu.Lock()
	c.errors = map[string]string{}
	c.mu.Unlock()
}

func message(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "datetime":
		return "must be a date like 2024-01-31"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

func rangeMessage(start, end string) string {
	if start == "" || end == "" {
		return ""
	}
	from, err := time.Parse(dateLayout, start)
	if err != nil {
		return ""
	}
	to, err := time.Parse(dateLayout, end)
	if err != nil {
		return ""
	}
	if to.Before(from) {
		return "end date must not be before start date"
	}
	return ""
}
