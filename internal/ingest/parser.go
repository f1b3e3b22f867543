// Package ingest turns inbox messages into expense submissions.
package ingest

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/quillhq/expenseflow/internal/models"
	"gopkg.in/yaml.v3"
)

// ParsedSubmission is the result of parsing one inbox message.
type ParsedSubmission struct {
	AmountCents int64
	Description string
	Category    string
}

// Amount patterns, ordered by specificity. The first currency-like token
// matched wins.
var amountPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:total|amount|cost|paid|price)[^\d$]*\$?\s*([\d,]+(?:\.\d{1,2})?)`),
	regexp.MustCompile(`\$\s*([\d,]+(?:\.\d{1,2})?)`),
	regexp.MustCompile(`(?i)([\d,]+\.\d{2})\s*(?:usd|dollars)`),
}

// extractAmount extracts the first currency-like amount in cents from text.
// Returns 0 when no amount is found.
func extractAmount(text string) int64 {
	// Strip HTML tags and collapse whitespace.
	text = regexp.MustCompile(`<[^>]*>`).ReplaceAllString(text, " ")
	text = regexp.MustCompile(`\s+`).ReplaceAllString(text, " ")

	for _, pattern := range amountPatterns {
		if matches := pattern.FindStringSubmatch(text); len(matches) > 1 {
			cents, err := models.ParseAmountCents(matches[1])
			if err == nil && cents > 0 {
				return cents
			}
		}
	}
	return 0
}

// defaultCategoryKeywords maps lowercase keywords to suggested categories.
var defaultCategoryKeywords = map[string]string{
	"flight":       "Travel",
	"hotel":        "Travel",
	"airfare":      "Travel",
	"uber":         "Travel",
	"taxi":         "Travel",
	"train":        "Travel",
	"lunch":        "Meals & Entertainment",
	"dinner":       "Meals & Entertainment",
	"breakfast":    "Meals & Entertainment",
	"restaurant":   "Meals & Entertainment",
	"coffee":       "Meals & Entertainment",
	"meal":         "Meals & Entertainment",
	"paper":        "Office Supplies",
	"printer":      "Office Supplies",
	"supplies":     "Office Supplies",
	"stationery":   "Office Supplies",
	"license":      "Software & Subscriptions",
	"software":     "Software & Subscriptions",
	"saas":         "Software & Subscriptions",
	"subscription": "Software & Subscriptions",
	"mileage":      "Mileage",
	"miles":        "Mileage",
	"course":       "Training & Education",
	"conference":   "Training & Education",
	"training":     "Training & Education",
	"book":         "Training & Education",
}

// Parser parses inbox messages into submissions.
type Parser struct {
	keywords map[string]string
}

// NewParser creates a Parser with the built-in category keyword table.
func NewParser() *Parser {
	return &Parser{keywords: defaultCategoryKeywords}
}

// NewParserFromFile creates a Parser whose category keywords are loaded from
// a YAML file mapping keyword -> category. Keywords missing from the file
// fall back to nothing: the file replaces the built-in table.
func NewParserFromFile(path string) (*Parser, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read keyword file: %w", err)
	}

	keywords := make(map[string]string)
	if err := yaml.Unmarshal(data, &keywords); err != nil {
		return nil, fmt.Errorf("failed to parse keyword file: %w", err)
	}

	lowered := make(map[string]string, len(keywords))
	for k, v := range keywords {
		lowered[strings.ToLower(k)] = v
	}
	return &Parser{keywords: lowered}, nil
}

// guessCategory picks a category from keyword matches in the text, falling
// back to "Other".
func (p *Parser) guessCategory(text string) string {
	lowered := strings.ToLower(text)
	for keyword, category := range p.keywords {
		if strings.Contains(lowered, keyword) {
			return category
		}
	}
	return "Other"
}

// Parse extracts a submission from a message's subject and body. It fails
// when no amount can be found; everything else has a fallback.
func (p *Parser) Parse(subject, body string) (*ParsedSubmission, error) {
	amount := extractAmount(subject)
	if amount == 0 {
		amount = extractAmount(body)
	}
	if amount == 0 {
		return nil, fmt.Errorf("no amount found in message")
	}

	description := strings.TrimSpace(subject)
	if description == "" {
		for _, line := range strings.Split(body, "\n") {
			if trimmed := strings.TrimSpace(line); trimmed != "" {
				description = trimmed
				break
			}
		}
	}
	if description == "" {
		description = "Emailed expense"
	}

	return &ParsedSubmission{
		AmountCents: amount,
		Description: description,
		Category:    p.guessCategory(subject + " " + body),
	}, nil
}

// senderEmail extracts the bare address from a From header such as
// "Sarah Miller <sarah@example.com>".
func senderEmail(from string) string {
	if start := strings.Index(from, "<"); start >= 0 {
		if end := strings.Index(from[start:], ">"); end > 0 {
			return strings.TrimSpace(from[start+1 : start+end])
		}
	}
	return strings.TrimSpace(from)
}
