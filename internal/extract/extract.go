// Package extract prefills maintenance fields from recognized document text.
// Every field is best-effort and may be nil.
package extract

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/ukydev/maintenance-tracker/internal/interval"
)

// MaxWorksPerformed bounds the length, in characters, of the works-performed text.
const MaxWorksPerformed = 500

// Info holds the fields recovered from free text.
type Info struct {
	ServiceType    *string `json:"service_type"`
	WorksPerformed *string `json:"works_performed"`
	Mileage        *int    `json:"mileage"`
}

// mileagePattern matches an integer, optionally grouped by spaces ("45 000"),
// directly followed by a distance unit.
var mileagePattern = regexp.MustCompile(`(?i)(\d{1,3}(?:[ \x{00A0}\x{2009}\x{202F}]\d{3})+|\d+)\s*(?:км|km|тысяч|тыс|thousand)`)

// Extract classifies raw text into a service type, pulls the first odometer reading
// and keeps a bounded copy of the text as the works performed.
func Extract(raw string) Info {
	var info Info
	if strings.TrimSpace(raw) == "" {
		return info
	}

	if b, ok := interval.Classify(raw); ok {
		label := b.Label
		info.ServiceType = &label
	}

	if m, ok := Mileage(raw); ok {
		info.Mileage = &m
	}

	works := truncate(raw, MaxWorksPerformed)
	info.WorksPerformed = &works

	return info
}

// Mileage returns the first integer that immediately precedes a distance unit.
func Mileage(text string) (int, bool) {
	match := mileagePattern.FindStringSubmatch(text)
	if match == nil {
		return 0, false
	}
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, match[1])
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
