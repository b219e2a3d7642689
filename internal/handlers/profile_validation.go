package handlers

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

func init() {
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// validationMessage turns the first validation failure into the flat error
// string the API returns.
func validationMessage(err error) string {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) || len(validationErrs) == 0 {
		return "Invalid request body"
	}

	failure := validationErrs[0]
	switch failure.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", failure.Field())
	case "min":
		return fmt.Sprintf("%s must contain at least %s item(s)", failure.Field(), failure.Param())
	case "gte":
		return fmt.Sprintf("%s must be %s or greater", failure.Field(), failure.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", failure.Field(), failure.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", failure.Field(), strings.ReplaceAll(failure.Param(), " ", ", "))
	default:
		return fmt.Sprintf("%s is invalid", failure.Field())
	}
}

func validateMenteeProfileUpdateRequest(req updateMenteeProfileRequest) string {
	if req.FullName != nil && strings.TrimSpace(*req.FullName) == "" {
		return "full_name must not be empty"
	}
	if req.Bio != nil && strings.TrimSpace(*req.Bio) == "" {
		return "bio must not be empty"
	}
	if req.Interests != nil {
		for _, interest := range *req.Interests {
			if strings.TrimSpace(interest) == "" {
				return "interests must not contain empty values"
			}
		}
	}
	if req.MaxHourlyRate != nil && *req.MaxHourlyRate < 0 {
		return "max_hourly_rate must be 0 or greater"
	}
	return ""
}

func validateMentorProfileUpdateRequest(req updateMentorProfileRequest) string {
	if req.FullName != nil && strings.TrimSpace(*req.FullName) == "" {
		return "full_name must not be empty"
	}
	if req.Bio != nil && strings.TrimSpace(*req.Bio) == "" {
		return "bio must not be empty"
	}
	if req.Expertise != nil {
		for _, expertise := range *req.Expertise {
			if strings.TrimSpace(expertise) == "" {
				return "expertise must not contain empty values"
			}
		}
	}
	if req.ExperienceYears != nil && *req.ExperienceYears < 0 {
		return "experience_years must be 0 or greater"
	}
	if req.HourlyRate != nil && *req.HourlyRate < 0 {
		return "hourly_rate must be 0 or greater"
	}
	return ""
}
