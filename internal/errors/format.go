package errors

import (
	"fmt"
	"strings"
)

// UserMessage returns a terminal-friendly one-line error message.
// AskErrors render as message plus suggestion; other errors pass through.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	ae := asAskError(err)
	if ae == nil {
		return err.Error()
	}

	var sb strings.Builder
	sb.WriteString(ae.Message)
	if ae.Suggestion != "" {
		sb.WriteString(" (")
		sb.WriteString(ae.Suggestion)
		sb.WriteString(")")
	}
	return sb.String()
}

// FormatForCLI formats an error for CLI output with its code and hint.
func FormatForCLI(err error) string {
	if err == nil {
		return ""
	}

	ae := asAskError(err)
	if ae == nil {
		return fmt.Sprintf("Error: %s\n", err.Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Error: %s\n", ae.Message))
	if ae.Suggestion != "" {
		sb.WriteString(fmt.Sprintf("  Hint: %s\n", ae.Suggestion))
	}
	sb.WriteString(fmt.Sprintf("  Code: %s\n", ae.Code))
	return sb.String()
}

// LogAttrs formats an error as key-value pairs for slog attributes.
func LogAttrs(err error) map[string]any {
	if err == nil {
		return nil
	}

	ae := asAskError(err)
	if ae == nil {
		return map[string]any{
			"error": err.Error(),
		}
	}

	result := map[string]any{
		"error_code": ae.Code,
		"message":    ae.Message,
		"category":   string(ae.Category),
	}

	if ae.Cause != nil {
		result["cause"] = ae.Cause.Error()
	}

	if ae.Suggestion != "" {
		result["suggestion"] = ae.Suggestion
	}

	for k, v := range ae.Details {
		result["detail_"+k] = v
	}

	return result
}
