package validators

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"rideshare/internal/models"
	"rideshare/internal/utils"
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})

	validate.RegisterValidation("coordinates", validateCoordinates)

	validate.RegisterStructValidation(validateRide, models.Ride{})
	validate.RegisterStructValidation(validateChat, models.Chat{})
}

// ValidationError represents a field validation error
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Value   string `json:"value"`
	Message string `json:"message"`
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	var messages []string
	for _, err := range v {
		messages = append(messages, fmt.Sprintf("%s: %s", err.Field, err.Message))
	}
	return strings.Join(messages, "; ")
}

// ValidateStruct validates a struct and returns detailed errors
func ValidateStruct(s interface{}) ValidationErrors {
	var validationErrors ValidationErrors

	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return ValidationErrors{{Field: "", Tag: "invalid", Message: err.Error()}}
	}

	for _, fe := range fieldErrors {
		validationErrors = append(validationErrors, ValidationError{
			Field:   fieldPath(fe),
			Tag:     fe.Tag(),
			Value:   fmt.Sprintf("%v", fe.Value()),
			Message: getErrorMessage(fe),
		})
	}

	return validationErrors
}

// Validate returns a KindValidation error whose context maps each failing field to its message.
func Validate(s interface{}) error {
	errs := ValidateStruct(s)
	if len(errs) == 0 {
		return nil
	}

	appErr := utils.NewError(utils.KindValidation, utils.MsgValidationFailed)
	for _, e := range errs {
		appErr = appErr.With(e.Field, e.Message)
	}
	return appErr
}

func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func getErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", err.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", err.Field(), err.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", err.Field(), err.Param())
	case "len":
		return fmt.Sprintf("%s must have exactly %s items", err.Field(), err.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", err.Field(), err.Param())
	case "unique":
		return fmt.Sprintf("%s must not contain duplicates", err.Field())
	case "url":
		return "Invalid URL"
	case "coordinates":
		return "Invalid GPS coordinates"
	case "gtfield":
		return fmt.Sprintf("%s must be after %s", err.Field(), err.Param())
	case "driver_status":
		return "driver_id must be set exactly when the ride has a driver-bearing status"
	case "ride_days":
		return "recurring rides need at least one ride day"
	case "seat_capacity":
		return "booked and available seats exceed the assigned capacity"
	case "pair_key":
		return "participants must be two distinct sorted ids matching pair_key"
	default:
		return fmt.Sprintf("Validation failed for %s", err.Field())
	}
}

func validateCoordinates(fl validator.FieldLevel) bool {
	coords, ok := fl.Field().Interface().([]float64)
	if !ok || len(coords) != 2 {
		return false
	}

	return utils.IsValidCoordinates(coords[1], coords[0])
}
