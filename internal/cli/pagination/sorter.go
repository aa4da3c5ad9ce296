package pagination

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/Joel31000/CarbonConsult/internal/submission"
)

// Submission sort fields.
const (
	FieldCreated = "created"
	FieldTotal   = "total"
	FieldLabel   = "label"
)

// ErrInvalidSortField is returned for a field the sorter does not know.
var ErrInvalidSortField = errors.New("invalid sort field")

// SubmissionSorter orders stored submissions.
type SubmissionSorter struct {
	validFields map[string]bool
}

// NewSubmissionSorter creates a SubmissionSorter.
func NewSubmissionSorter() *SubmissionSorter {
	return &SubmissionSorter{
		validFields: map[string]bool{FieldCreated: true, FieldTotal: true, FieldLabel: true},
	}
}

// IsValidField checks if the field is valid for sorting.
func (s *SubmissionSorter) IsValidField(field string) bool {
	return s.validFields[field]
}

// GetValidFields returns all valid sort fields.
func (s *SubmissionSorter) GetValidFields() []string {
	fields := make([]string, 0, len(s.validFields))
	for field := range s.validFields {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}

// Validate reports whether field can be sorted on. An empty field keeps the
// store order.
func (s *SubmissionSorter) Validate(field string) error {
	if field == "" || s.IsValidField(field) {
		return nil
	}
	return fmt.Errorf("%w: %q (valid: %s)", ErrInvalidSortField, field, strings.Join(s.GetValidFields(), ", "))
}

// Sort returns a sorted copy of subs. An empty or unknown field returns the
// input unchanged.
func (s *SubmissionSorter) Sort(subs []submission.Submission, field, order string) []submission.Submission {
	if !s.IsValidField(field) {
		return subs
	}

	sorted := slices.Clone(subs)
	sort.SliceStable(sorted, func(i, j int) bool {
		if order == SortOrderDesc {
			i, j = j, i
		}
		switch field {
		case FieldCreated:
			return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
		case FieldTotal:
			return sorted[i].Totals.GrandTotal < sorted[j].Totals.GrandTotal
		case FieldLabel:
			return label(sorted[i]) < label(sorted[j])
		default:
			return false
		}
	})
	return sorted
}

func label(s submission.Submission) string {
	if s.Offer == nil {
		return ""
	}
	return s.Offer.Label
}
