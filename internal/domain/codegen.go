package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

const ruleCodeDateLayout = "20060102"

var ruleCodePattern = regexp.MustCompile(`^PR-(\d{8})-(\d{3,})$`)

// FormatRuleCode builds a rule code for a date and sequence number,
// zero-padding the sequence to three digits
func FormatRuleCode(date time.Time, sequence int) string {
	return fmt.Sprintf("PR-%s-%03d", date.UTC().Format(ruleCodeDateLayout), sequence)
}

// ParseRuleCode splits a rule code into its date and sequence number
func ParseRuleCode(code string) (time.Time, int, error) {
	match := ruleCodePattern.FindStringSubmatch(code)
	if match == nil {
		return time.Time{}, 0, fmt.Errorf("%w: %q", ErrInvalidRuleCode, code)
	}

	date, err := time.ParseInLocation(ruleCodeDateLayout, match[1], time.UTC)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("%w: %q", ErrInvalidRuleCode, code)
	}

	sequence, err := strconv.Atoi(match[2])
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("%w: %q", ErrInvalidRuleCode, code)
	}

	return date, sequence, nil
}

// NextRuleCode derives the next code for a day from the highest code
// already allocated that day. The sequence restarts at 001 each day.
// Allocation itself must be serialized by the caller; this function
// only derives the successor.
func NextRuleCode(today time.Time, latestCodeForToday string) (string, error) {
	if latestCodeForToday == "" {
		return FormatRuleCode(today, 1), nil
	}

	date, sequence, err := ParseRuleCode(latestCodeForToday)
	if err != nil {
		return "", err
	}
	if date.Format(ruleCodeDateLayout) != today.UTC().Format(ruleCodeDateLayout) {
		return FormatRuleCode(today, 1), nil
	}

	return FormatRuleCode(today, sequence+1), nil
}
