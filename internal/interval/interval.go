// Package interval maps service-type labels to maintenance interval policies.
//
// Resolution is a pure lookup against a fixed, ordered keyword table; every input,
// including the empty string, resolves to some policy.
package interval

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Policy is the distance and time after which the same work is due again.
type Policy struct {
	MileageDelta int `json:"mileage_delta"` // in kilometers
	Months       int `json:"months"`
}

// DefaultPolicy applies when no bucket matches.
var DefaultPolicy = Policy{MileageDelta: 15000, Months: 12}

// Next returns the due point for work done at date with the given odometer reading.
func (p Policy) Next(date time.Time, mileage int) (time.Time, int) {
	return AddMonths(date, p.Months), mileage + p.MileageDelta
}

type matchMode int

// Keywords match anywhere in the lowered text unless a short stem collides with
// common words.
const (
	substring matchMode = iota
	stem                // must start at a word boundary
	word                // must be a whole word
)

type keyword struct {
	text string
	mode matchMode
	// labelOnly keywords are too generic for free text and only apply to labels.
	labelOnly bool
}

// Bucket is a category of service work.
type Bucket struct {
	Name     string
	Label    string
	Policy   Policy
	keywords []keyword
}

var (
	oil = Bucket{
		Name:   "oil",
		Label:  "Oil change",
		Policy: Policy{MileageDelta: 10000, Months: 6},
		keywords: []keyword{
			{text: "oil", mode: substring},
			{text: "масл", mode: substring},
		},
	}
	brakes = Bucket{
		Name:   "brakes",
		Label:  "Brake replacement",
		Policy: Policy{MileageDelta: 50000, Months: 36},
		keywords: []keyword{
			{text: "brake", mode: substring},
			{text: "тормоз", mode: substring},
		},
	}
	tires = Bucket{
		Name:   "tires",
		Label:  "Tire replacement",
		Policy: Policy{MileageDelta: 50000, Months: 48},
		keywords: []keyword{
			{text: "tire", mode: substring},
			{text: "tyre", mode: substring},
			{text: "шин", mode: stem}, // not inside "машина"
			{text: "резин", mode: substring},
		},
	}
	filters = Bucket{
		Name:   "filters",
		Label:  "Filter replacement",
		Policy: Policy{MileageDelta: 15000, Months: 12},
		keywords: []keyword{
			{text: "filter", mode: substring},
			{text: "фильтр", mode: substring},
		},
	}
	diagnostics = Bucket{
		Name:   "diagnostics",
		Label:  "Diagnostics",
		Policy: Policy{MileageDelta: 10000, Months: 6},
		keywords: []keyword{
			{text: "diagnos", mode: substring},
			{text: "inspect", mode: substring},
			{text: "диагност", mode: substring},
			{text: "осмотр", mode: substring},
		},
	}
	scheduled = Bucket{
		Name:   "scheduled",
		Label:  "Scheduled maintenance",
		Policy: Policy{MileageDelta: 15000, Months: 12},
		keywords: []keyword{
			{text: "maintenance", mode: substring},
			{text: "service", mode: substring, labelOnly: true},
			{text: "плановое", mode: substring},
			{text: "техническое обслуживание", mode: substring},
			{text: "то", mode: word, labelOnly: true},
		},
	}
)

// labelOrder is the precedence used for service-type labels.
var labelOrder = []Bucket{oil, brakes, tires, filters, diagnostics, scheduled}

// textOrder is the precedence used when classifying free text such as receipts.
var textOrder = []Bucket{scheduled, oil, filters, brakes, tires, diagnostics}

// Resolve returns the interval policy for a service-type label.
func Resolve(label string) Policy {
	if b, ok := Match(label); ok {
		return b.Policy
	}
	return DefaultPolicy
}

// Match returns the first bucket whose keywords occur in label.
func Match(label string) (Bucket, bool) {
	return firstMatch(labelOrder, strings.ToLower(label), true)
}

// Classify returns the first bucket whose free-text keywords occur in text.
func Classify(text string) (Bucket, bool) {
	return firstMatch(textOrder, strings.ToLower(text), false)
}

// Buckets lists the known categories in label precedence order.
func Buckets() []Bucket {
	out := make([]Bucket, len(labelOrder))
	copy(out, labelOrder)
	return out
}

func firstMatch(order []Bucket, lowered string, label bool) (Bucket, bool) {
	if lowered == "" {
		return Bucket{}, false
	}
	for _, b := range order {
		for _, k := range b.keywords {
			if k.labelOnly && !label {
				continue
			}
			if k.matches(lowered) {
				return b, true
			}
		}
	}
	return Bucket{}, false
}

func (k keyword) matches(s string) bool {
	if k.mode == substring {
		return strings.Contains(s, k.text)
	}
	for i := 0; i < len(s); {
		j := strings.Index(s[i:], k.text)
		if j < 0 {
			return false
		}
		start := i + j
		end := start + len(k.text)
		if boundaryBefore(s, start) && (k.mode == stem || boundaryAfter(s, end)) {
			return true
		}
		i = end
	}
	return false
}

func boundaryBefore(s string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return !isWordRune(r)
}

func boundaryAfter(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return !isWordRune(r)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// AddMonths adds calendar months, clamping to the last day of the target month
// (Jan 31 + 1 month is Feb 28/29, not Mar 2/3).
func AddMonths(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(months), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return first.AddDate(0, 0, d-1)
}
