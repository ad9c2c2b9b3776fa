package validation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/benvon/smart-tasks/internal/models"
	"github.com/go-playground/validator/v10"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	// Register custom validators for enums
	if err := Validate.RegisterValidation("priority", validatePriority); err != nil {
		panic(fmt.Sprintf("failed to register priority validator: %v", err))
	}
	if err := Validate.RegisterValidation("task_status", validateTaskStatus); err != nil {
		panic(fmt.Sprintf("failed to register task_status validator: %v", err))
	}
	if err := Validate.RegisterValidation("subtask_status", validateSubtaskStatus); err != nil {
		panic(fmt.Sprintf("failed to register subtask_status validator: %v", err))
	}
	if err := Validate.RegisterValidation("filter_status", validateFilterStatus); err != nil {
		panic(fmt.Sprintf("failed to register filter_status validator: %v", err))
	}
	if err := Validate.RegisterValidation("theme", validateTheme); err != nil {
		panic(fmt.Sprintf("failed to register theme validator: %v", err))
	}
}

func validatePriority(fl validator.FieldLevel) bool {
	return models.ValidPriority(models.Priority(fl.Field().String()))
}

func validateTaskStatus(fl validator.FieldLevel) bool {
	return models.ValidTaskStatus(models.TaskStatus(fl.Field().String()))
}

func validateSubtaskStatus(fl validator.FieldLevel) bool {
	return models.ValidSubtaskStatus(models.SubtaskStatus(fl.Field().String()))
}

// validateFilterStatus accepts "all" in addition to the task statuses
func validateFilterStatus(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return value == models.StatusAll || models.ValidTaskStatus(models.TaskStatus(value))
}

func validateTheme(fl validator.FieldLevel) bool {
	return models.ValidTheme(models.Theme(fl.Field().String()))
}

// Struct validates s and wraps any failure in models.ErrInvalidInput
func Struct(s any) error {
	if err := Validate.Struct(s); err != nil {
		return fmt.Errorf("%w: %s", models.ErrInvalidInput, err.Error())
	}
	return nil
}

// SanitizeText sanitizes text input by trimming whitespace and removing control characters
func SanitizeText(text string) string {
	// Trim whitespace
	text = strings.TrimSpace(text)

	// Remove control characters except newline and tab
	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}

// SanitizeTags trims each tag, drops empty ones and duplicates, and keeps insertion order
func SanitizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = SanitizeText(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// ValidateTaskStatus validates a TaskStatus string value
func ValidateTaskStatus(value string) error {
	if !models.ValidTaskStatus(models.TaskStatus(value)) {
		return fmt.Errorf("%w: invalid status: %s (must be 'todo', 'in-progress', or 'done')", models.ErrInvalidInput, value)
	}
	return nil
}

// ValidateSubtaskStatus validates a SubtaskStatus string value
func ValidateSubtaskStatus(value string) error {
	if !models.ValidSubtaskStatus(models.SubtaskStatus(value)) {
		return fmt.Errorf("%w: invalid subtask status: %s (must be 'todo' or 'done')", models.ErrInvalidInput, value)
	}
	return nil
}

// ValidatePriority validates a Priority string value
func ValidatePriority(value string) error {
	if !models.ValidPriority(models.Priority(value)) {
		return fmt.Errorf("%w: invalid priority: %s (must be 'high', 'medium', or 'low')", models.ErrInvalidInput, value)
	}
	return nil
}
