package formatters

import (
	"encoding/json"
	"fmt"
	"strings"

	"atscore/internal/types"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	registry.RegisterFormatter("text", "ATSScoreResult", &ScoreTextFormatter{})
	registry.RegisterFormatter("markdown", "ATSScoreResult", &ScoreMarkdownFormatter{})

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	// Try specific formatter first
	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		// Fall back to generic formatter
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case types.ATSScoreResult, *types.ATSScoreResult:
		return "ATSScoreResult"
	default:
		return "any"
	}
}

func asScoreResult(data any) (types.ATSScoreResult, bool) {
	switch v := data.(type) {
	case types.ATSScoreResult:
		return v, true
	case *types.ATSScoreResult:
		if v != nil {
			return *v, true
		}
	}
	return types.ATSScoreResult{}, false
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData), nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

// ScoreTextFormatter handles text formatting for compatibility score results
type ScoreTextFormatter struct{}

func (stf *ScoreTextFormatter) Format(data any) (string, error) {
	result, ok := asScoreResult(data)
	if !ok {
		return "", fmt.Errorf("expected ATSScoreResult, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== ATS COMPATIBILITY SCORE ===\n\n")
	output.WriteString(fmt.Sprintf("Overall Score: %d/100\n", result.GeneralScore))
	if result.JobSpecificScore != nil {
		output.WriteString(fmt.Sprintf("Job-Specific Score: %d/100\n", *result.JobSpecificScore))
	}
	output.WriteString("\n")

	if len(result.GeneralFeedback) > 0 {
		output.WriteString("=== CATEGORY BREAKDOWN ===\n\n")
		for _, fb := range result.GeneralFeedback {
			output.WriteString(fmt.Sprintf("%s: %d/100 (%s priority)\n", categoryLabel(fb.Category), fb.Score, fb.Priority))
			output.WriteString("  ")
			output.WriteString(fb.Feedback)
			output.WriteString("\n\n")
		}
	}

	if len(result.Keywords.Found) > 0 {
		output.WriteString("=== KEYWORDS FOUND ===\n")
		for _, kw := range result.Keywords.Found {
			output.WriteString(fmt.Sprintf("- %s\n", kw))
		}
		output.WriteString("\n")
	}

	if len(result.Keywords.Missing) > 0 {
		output.WriteString("=== KEYWORDS MISSING ===\n")
		for _, kw := range result.Keywords.Missing {
			output.WriteString(fmt.Sprintf("- %s\n", kw))
		}
		output.WriteString("\n")
	}

	if len(result.Suggestions) > 0 {
		output.WriteString("=== SUGGESTIONS ===\n")
		for i, suggestion := range result.Suggestions {
			output.WriteString(fmt.Sprintf("%d. %s\n", i+1, suggestion))
		}
	}

	return output.String(), nil
}

func (stf *ScoreTextFormatter) SupportedType() string {
	return "ATSScoreResult"
}

// ScoreMarkdownFormatter handles markdown formatting for compatibility score results
type ScoreMarkdownFormatter struct{}

func (smf *ScoreMarkdownFormatter) Format(data any) (string, error) {
	result, ok := asScoreResult(data)
	if !ok {
		return "", fmt.Errorf("expected ATSScoreResult, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# ATS Compatibility Score\n\n")
	output.WriteString(fmt.Sprintf("**Overall Score:** %d/100\n\n", result.GeneralScore))
	if result.JobSpecificScore != nil {
		output.WriteString(fmt.Sprintf("**Job-Specific Score:** %d/100\n\n", *result.JobSpecificScore))
	}

	if len(result.GeneralFeedback) > 0 {
		output.WriteString("## Category Breakdown\n\n")
		output.WriteString("| Category | Score | Priority |\n")
		output.WriteString("|----------|-------|----------|\n")
		for _, fb := range result.GeneralFeedback {
			output.WriteString(fmt.Sprintf("| %s | %d/100 | %s |\n", categoryLabel(fb.Category), fb.Score, fb.Priority))
		}
		output.WriteString("\n")
		for _, fb := range result.GeneralFeedback {
			output.WriteString(fmt.Sprintf("### %s\n\n", categoryLabel(fb.Category)))
			output.WriteString(fb.Feedback)
			output.WriteString("\n\n")
		}
	}

	if len(result.Keywords.Found) > 0 {
		output.WriteString("## Keywords Found\n\n")
		for _, kw := range result.Keywords.Found {
			output.WriteString(fmt.Sprintf("- %s\n", kw))
		}
		output.WriteString("\n")
	}

	if len(result.Keywords.Missing) > 0 {
		output.WriteString("## Keywords Missing\n\n")
		for _, kw := range result.Keywords.Missing {
			output.WriteString(fmt.Sprintf("- %s\n", kw))
		}
		output.WriteString("\n")
	}

	if len(result.Suggestions) > 0 {
		output.WriteString("## Suggestions\n\n")
		for i, suggestion := range result.Suggestions {
			output.WriteString(fmt.Sprintf("%d. %s\n", i+1, suggestion))
		}
	}

	return output.String(), nil
}

func (smf *ScoreMarkdownFormatter) SupportedType() string {
	return "ATSScoreResult"
}

// categoryLabel turns a camelCase category key into a display label
func categoryLabel(category string) string {
	switch category {
	case "keywordMatch":
		return "Keyword Match"
	case "formatting":
		return "Formatting"
	case "completeness":
		return "Completeness"
	case "experienceRelevance":
		return "Experience Relevance"
	case "skillsMatch":
		return "Skills Match"
	case "contentQuality":
		return "Content Quality"
	default:
		return category
	}
}

// Global formatter registry
var GlobalRegistry = NewFormatterRegistry()
