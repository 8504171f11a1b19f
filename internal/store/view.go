package store

import (
	"sort"
	"strings"

	"github.com/robby/casedesk/internal/domain"
)

// Stats are the hero counters, computed over the active scope's unfiltered
// list so they describe the whole dataset regardless of search text.
type Stats struct {
	Total    int
	Active   int
	Resolved int
	High     int
}

// Group is one bucket of the grouped case list. Buckets appear in the order
// their first member appears in the globally sorted list; members keep the
// global sort order.
type Group struct {
	Label    string
	Expanded bool
	Cases    []domain.Case
}

// NoteForm is the note compose draft state.
type NoteForm struct {
	Visible    bool
	Subject    string
	Body       string
	Submitting bool
	Error      string
}

// CaseForm is the new-case draft state.
type CaseForm struct {
	Visible     bool
	Title       string
	Description string
	Submitting  bool
	Error       string
}

// View is an immutable snapshot of everything the presentation renders:
// the active scope's request lifecycle, the derived case projections, the
// open case with its notes, and both drafts.
type View struct {
	ActiveScope   domain.Scope
	TeamAvailable bool
	Loading       bool
	Error         string

	SearchQuery string
	SortField   domain.SortField
	SortDir     domain.SortDir
	GroupBy     domain.GroupBy
	StatFilter  StatFilter

	Stats Stats

	// Cases is the filtered, sorted flat list. Groups is its partition by
	// the group-by label, nil when grouping is off.
	Cases  []domain.Case
	Groups []Group

	Selected     *domain.Case
	Notes        []domain.CaseNote
	NotesLoading bool
	NotesError   string

	NoteForm NoteForm
	CaseForm CaseForm
}

// View derives a fresh snapshot from the current state. Pure with respect
// to the store: same state, same snapshot.
func (s *Store) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	active := s.scopes[s.activeScope]

	v := View{
		ActiveScope:   s.activeScope,
		TeamAvailable: s.teamAvailable,
		Loading:       active.loading,
		Error:         active.err,
		SearchQuery:   s.searchQuery,
		SortField:     s.sortField,
		SortDir:       s.sortDir,
		GroupBy:       s.groupBy,
		StatFilter:    s.statFilter,
		Stats:         computeStats(active.cases),
		NotesLoading:  s.notesLoading,
		NotesError:    s.notesErr,
		NoteForm: NoteForm{
			Visible:    s.noteFormVisible,
			Subject:    s.noteSubject,
			Body:       s.noteBody,
			Submitting: s.noteSubmitting,
			Error:      s.noteSubmitErr,
		},
		CaseForm: CaseForm{
			Visible:     s.caseFormVisible,
			Title:       s.caseTitle,
			Description: s.caseDescription,
			Submitting:  s.caseSubmitting,
			Error:       s.caseSubmitErr,
		},
	}

	if s.selected != nil {
		selected := *s.selected
		v.Selected = &selected
	}
	v.Notes = append([]domain.CaseNote(nil), s.notes...)

	filtered := filterByStat(active.cases, s.statFilter)
	filtered = filterByQuery(filtered, s.searchQuery)

	sorted := append([]domain.Case(nil), filtered...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return Compare(sorted[i], sorted[j], s.sortField, s.sortDir) < 0
	})
	v.Cases = sorted

	if s.groupBy != domain.GroupNone {
		v.Groups = groupCases(sorted, s.groupBy, s.collapsedGroups)
	}

	return v
}

func computeStats(cases []domain.Case) Stats {
	st := Stats{Total: len(cases)}
	for _, c := range cases {
		switch c.StateCode {
		case domain.StateActive:
			st.Active++
		case domain.StateResolved:
			st.Resolved++
		}
		if c.PriorityCode == domain.PriorityHigh {
			st.High++
		}
	}
	return st
}

func filterByStat(cases []domain.Case, filter StatFilter) []domain.Case {
	if filter == StatNone || filter == StatTotal {
		return cases
	}
	kept := make([]domain.Case, 0, len(cases))
	for _, c := range cases {
		switch filter {
		case StatActive:
			if c.StateCode == domain.StateActive {
				kept = append(kept, c)
			}
		case StatResolved:
			if c.StateCode == domain.StateResolved {
				kept = append(kept, c)
			}
		case StatHigh:
			if c.PriorityCode == domain.PriorityHigh {
				kept = append(kept, c)
			}
		}
	}
	return kept
}

// filterByQuery keeps cases where the lowercased query is a substring of
// the ticket number, title, or any label. A field without a label simply
// never matches; that is not an error.
func filterByQuery(cases []domain.Case, query string) []domain.Case {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return cases
	}
	kept := make([]domain.Case, 0, len(cases))
	for _, c := range cases {
		if matches(q, c.TicketNumber, c.Title, c.StatusLabel, c.PriorityLabel, c.CaseTypeLabel) {
			kept = append(kept, c)
		}
	}
	return kept
}

func matches(q string, fields ...string) bool {
	for _, f := range fields {
		if f != "" && strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

// groupCases partitions the sorted list by label, buckets ordered by first
// occurrence.
func groupCases(sorted []domain.Case, key domain.GroupBy, collapsed map[string]bool) []Group {
	groups := make([]Group, 0)
	index := make(map[string]int)
	for _, c := range sorted {
		label := c.GroupLabel(key)
		i, ok := index[label]
		if !ok {
			i = len(groups)
			index[label] = i
			groups = append(groups, Group{
				Label:    label,
				Expanded: !collapsed[label],
			})
		}
		groups[i].Cases = append(groups[i].Cases, c)
	}
	return groups
}
