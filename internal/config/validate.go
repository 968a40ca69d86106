package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ValidationError locates a problem in a config file, either by position
// (YAML syntax) or by key (value constraints).
type ValidationError struct {
	FilePath string
	Line     int
	Column   int
	Message  string
	Field    string
}

func (e *ValidationError) Error() string {
	switch {
	case e.Line > 0:
		return fmt.Sprintf("%s:%d:%d: %s", e.FilePath, e.Line, e.Column, e.Message)
	case e.Field != "":
		return fmt.Sprintf("%s: field '%s': %s", e.FilePath, e.Field, e.Message)
	default:
		return fmt.Sprintf("%s: %s", e.FilePath, e.Message)
	}
}

// yamlPosition matches the position prefix of yaml.v3 syntax errors, e.g.
// "yaml: line 5: column 3: ".
var yamlPosition = regexp.MustCompile(`^yaml: line (\d+):(?: column (\d+):)? ?`)

// ValidateYAMLSyntax parses the file at path as YAML without decoding it.
// A missing file is not an error.
func ValidateYAMLSyntax(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return &ValidationError{FilePath: path, Message: err.Error()}
	}
	return ValidateYAMLSyntaxFromBytes(data, path)
}

// ValidateYAMLSyntaxFromBytes is ValidateYAMLSyntax for data already read.
// Blank input is valid.
func ValidateYAMLSyntaxFromBytes(data []byte, path string) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	var node yaml.Node
	err := yaml.Unmarshal(data, &node)
	if err == nil {
		return nil
	}
	msg := err.Error()
	line, column := extractLineColumn(msg)
	return &ValidationError{FilePath: path, Line: line, Column: column, Message: yamlReason(msg)}
}

// ValidateConfigValues checks cfg against its struct tags and reports the
// first offending key.
func ValidateConfigValues(cfg *Configuration, filePath string) error {
	if err := newValidator().Struct(cfg); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
			fieldErr := validationErrors[0]
			return &ValidationError{
				FilePath: filePath,
				Field:    fieldErr.Field(),
				Message:  formatValidationError(fieldErr),
			}
		}
		return &ValidationError{
			FilePath: filePath,
			Message:  err.Error(),
		}
	}
	return nil
}

// newValidator reports fields by their koanf key rather than the Go name.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("koanf"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

// extractLineColumn returns the position of a yaml.v3 error message, or 0, 0.
// Messages without a column report column 1.
func extractLineColumn(msg string) (line, column int) {
	m := yamlPosition.FindStringSubmatch(msg)
	if m == nil {
		return 0, 0
	}
	line, _ = strconv.Atoi(m[1])
	column = 1
	if m[2] != "" {
		column, _ = strconv.Atoi(m[2])
	}
	return line, column
}

func yamlReason(msg string) string {
	if loc := yamlPosition.FindStringIndex(msg); loc != nil {
		return msg[loc[1]:]
	}
	return strings.TrimPrefix(msg, "yaml: ")
}

// formatValidationError formats a validation error for a specific field.
func formatValidationError(fieldErr validator.FieldError) string {
	switch fieldErr.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fieldErr.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fieldErr.Param())
	case "url":
		return fmt.Sprintf("must be an absolute URL, got %q", fieldErr.Value())
	case "hostname_port":
		return fmt.Sprintf("must be host:port, got %q", fieldErr.Value())
	case "excludesall":
		return fmt.Sprintf("must not contain any of %q", fieldErr.Param())
	default:
		return fmt.Sprintf("failed validation: %s", fieldErr.Tag())
	}
}
