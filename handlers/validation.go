package handlers

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/medcenter/clinic-api/apperrors"
	"github.com/medcenter/clinic-api/models"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// bind parses the request body into dst and validates it
func bind(c *fiber.Ctx, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		return apperrors.NewValidationError("The given data was invalid.", map[string][]string{
			"body": {"The request body could not be parsed."},
		})
	}
	return check(dst)
}

// bindOptional is bind for endpoints whose body may be omitted entirely
func bindOptional(c *fiber.Ctx, dst interface{}) error {
	if len(c.Body()) == 0 {
		return check(dst)
	}
	return bind(c, dst)
}

// check validates dst and converts failures to a field keyed validation error
func check(dst interface{}) error {
	err := validate.Struct(dst)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.NewInternalError("validation failed", err)
	}

	fields := make(map[string][]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = append(fields[fe.Field()], message(fe))
	}
	return apperrors.NewValidationError("The given data was invalid.", fields)
}

func message(fe validator.FieldError) string {
	field := strings.ReplaceAll(fe.Field(), "_", " ")
	switch fe.Tag() {
	case "required", "required_if":
		return fmt.Sprintf("The %s field is required.", field)
	case "email":
		return fmt.Sprintf("The %s must be a valid email address.", field)
	case "min":
		return fmt.Sprintf("The %s must be at least %s characters.", field, fe.Param())
	case "max":
		return fmt.Sprintf("The %s may not be greater than %s characters.", field, fe.Param())
	case "len":
		return fmt.Sprintf("The %s must be %s characters.", field, fe.Param())
	case "eqfield":
		return fmt.Sprintf("The %s confirmation does not match.", strings.TrimSuffix(field, " confirmation"))
	case "oneof":
		return fmt.Sprintf("The selected %s is invalid.", field)
	case "datetime":
		return fmt.Sprintf("The %s does not match the format %s.", field, fe.Param())
	case "numeric":
		return fmt.Sprintf("The %s must be a number.", field)
	}
	return fmt.Sprintf("The %s is invalid.", field)
}

func fieldError(field, msg string) error {
	return apperrors.NewValidationError("The given data was invalid.", map[string][]string{field: {msg}})
}

// dateQuery returns the named query parameter, which must be empty or a calendar date
func dateQuery(c *fiber.Ctx, name string) (string, error) {
	date := strings.TrimSpace(c.Query(name))
	if date == "" {
		return "", nil
	}
	if _, err := time.Parse(models.DateLayout, date); err != nil {
		return "", fieldError(name, fmt.Sprintf("The %s does not match the format %s.", strings.ReplaceAll(name, "_", " "), models.DateLayout))
	}
	return date, nil
}

// paramID parses a positive integer route parameter
func paramID(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewNotFoundError("Resource not found")
	}
	return id, nil
}
