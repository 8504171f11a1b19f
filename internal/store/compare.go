package store

import (
	"strings"

	"github.com/robby/casedesk/internal/domain"
)

// Compare totally orders two cases by the given field and direction.
// String columns compare case-insensitively, numeric columns numerically,
// and timestamp columns lexically - ISO 8601 sorts correctly as text, with
// a missing timestamp (empty string) ordering before any real one. Ties are
// left to the caller's stable sort.
func Compare(a, b domain.Case, field domain.SortField, dir domain.SortDir) int {
	var cmp int
	switch field {
	case domain.SortTicketNumber:
		cmp = strings.Compare(strings.ToLower(a.TicketNumber), strings.ToLower(b.TicketNumber))
	case domain.SortTitle:
		cmp = strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
	case domain.SortStatus:
		cmp = intCompare(a.StatusCode, b.StatusCode)
	case domain.SortPriority:
		cmp = intCompare(a.PriorityCode, b.PriorityCode)
	case domain.SortCreatedOn:
		cmp = strings.Compare(a.CreatedOn, b.CreatedOn)
	case domain.SortModifiedOn:
		cmp = strings.Compare(a.ModifiedOn, b.ModifiedOn)
	}

	if dir == domain.SortDesc {
		cmp = -cmp
	}
	return cmp
}

func intCompare(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
