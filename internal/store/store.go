// Package store provides the view-state layer for the case portal. It owns
// case and note data per scope, the UI selection state, and the derived
// filtered/sorted/grouped projections the presentation renders from,
// following the "deep modules" principle - simple interface hiding the
// derivation and request-lifecycle logic.
//
// Actions never return errors to the caller: every fetch failure is caught
// at the network call and stored as a per-concern message on the next View.
package store

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/robby/casedesk/internal/caseapi"
	"github.com/robby/casedesk/internal/domain"
)

// Service is the slice of the API client the store depends on.
type Service interface {
	ListCases(ctx context.Context, scope domain.Scope) ([]domain.Case, error)
	ListCaseNotes(ctx context.Context, scope domain.Scope, incidentID string) ([]domain.CaseNote, error)
	CreateCaseNote(ctx context.Context, incidentID, subject, body string) error
	CreateCase(ctx context.Context, title, description string) error
}

// StatFilter narrows the case list to the population behind one hero stat.
type StatFilter string

const (
	StatNone     StatFilter = ""
	StatTotal    StatFilter = "total"
	StatActive   StatFilter = "active"
	StatResolved StatFilter = "resolved"
	StatHigh     StatFilter = "high"
)

// scopeState is one scope's dataset with its own request lifecycle. The
// generation counter supersedes in-flight fetches so a stale response is
// never committed over a fresher one.
type scopeState struct {
	cases      []domain.Case
	loading    bool
	err        string
	generation uint64
}

// Store is the single source of truth for the portal's client state. All
// methods are safe for concurrent use; network calls run outside the lock.
type Store struct {
	svc    Service
	logger *zap.Logger

	mu sync.Mutex

	scopes        map[domain.Scope]*scopeState
	teamAvailable bool

	activeScope domain.Scope
	searchQuery string
	sortField   domain.SortField
	sortDir     domain.SortDir
	groupBy     domain.GroupBy
	// collapsedGroups tracks collapsed labels; an empty map means all
	// groups expanded, which is the state every grouping change resets to.
	collapsedGroups map[string]bool
	statFilter      StatFilter

	selected     *domain.Case
	notes        []domain.CaseNote
	notesLoading bool
	notesErr     string
	notesGen     uint64

	noteFormVisible bool
	noteSubject     string
	noteBody        string
	noteSubmitting  bool
	noteSubmitErr   string

	caseFormVisible bool
	caseTitle       string
	caseDescription string
	caseSubmitting  bool
	caseSubmitErr   string
}

// New creates an empty store around the given API service.
func New(svc Service, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		svc:    svc,
		logger: logger,
		scopes: map[domain.Scope]*scopeState{
			domain.ScopeMine: {},
			domain.ScopeTeam: {},
		},
		teamAvailable:   true,
		activeScope:     domain.ScopeMine,
		sortField:       domain.SortModifiedOn,
		sortDir:         domain.SortDesc,
		groupBy:         domain.GroupNone,
		collapsedGroups: make(map[string]bool),
	}
}

// LoadCases fetches the case list for one scope and commits it. A 403 on
// the team scope latches the scope unavailable for the rest of the process
// instead of surfacing an error. Blocks until the fetch completes; callers
// run it from a background command. The two scopes are independent: one
// failing never corrupts the other.
func (s *Store) LoadCases(ctx context.Context, scope domain.Scope) {
	s.mu.Lock()
	if scope == domain.ScopeTeam && !s.teamAvailable {
		s.mu.Unlock()
		return
	}
	st := s.scopes[scope]
	st.generation++
	gen := st.generation
	st.loading = true
	st.err = ""
	s.mu.Unlock()

	cases, err := s.svc.ListCases(ctx, scope)

	s.mu.Lock()
	defer s.mu.Unlock()
	if st.generation != gen {
		// Superseded by a newer refresh.
		return
	}
	st.loading = false

	switch {
	case errors.Is(err, caseapi.ErrTeamForbidden):
		s.logger.Info("team scope forbidden, hiding tab")
		s.teamAvailable = false
		st.cases = nil
		if s.activeScope == domain.ScopeTeam {
			s.activeScope = domain.ScopeMine
			s.clearSelectionLocked()
		}
	case err != nil:
		s.logger.Warn("case list fetch failed", zap.String("scope", string(scope)), zap.Error(err))
		st.err = err.Error()
	default:
		st.cases = cases
	}
}

// SelectTab switches the active scope. The open case closes; search, sort
// and grouping keys survive the switch, but group expansion resets.
func (s *Store) SelectTab(scope domain.Scope) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if scope == domain.ScopeTeam && !s.teamAvailable {
		return
	}
	if scope == s.activeScope {
		return
	}
	s.activeScope = scope
	s.collapsedGroups = make(map[string]bool)
	s.clearSelectionLocked()
}

// SetSearchQuery updates the free-text filter. No network call.
func (s *Store) SetSearchQuery(query string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searchQuery = query
}

// SetGroupBy changes the grouping key and re-expands all groups.
func (s *Store) SetGroupBy(key domain.GroupBy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groupBy = key
	s.collapsedGroups = make(map[string]bool)
}

// ToggleGroup flips one group label between expanded and collapsed.
func (s *Store) ToggleGroup(label string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.collapsedGroups[label] {
		delete(s.collapsedGroups, label)
	} else {
		s.collapsedGroups[label] = true
	}
}

// ToggleStatFilter narrows the list to one hero stat's population, or
// clears the narrowing when the same stat is toggled again.
func (s *Store) ToggleStatFilter(filter StatFilter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.statFilter == filter {
		s.statFilter = StatNone
	} else {
		s.statFilter = filter
	}
}

// Sort orders by the given column. Re-sorting the active column flips the
// direction; a new column starts at its default direction.
func (s *Store) Sort(field domain.SortField) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sortField == field {
		if s.sortDir == domain.SortAsc {
			s.sortDir = domain.SortDesc
		} else {
			s.sortDir = domain.SortAsc
		}
		return
	}
	s.sortField = field
	s.sortDir = domain.DefaultSortDir(field)
}

// OpenCase selects a case and fetches its notes under the active scope. Any
// previous notes and note draft are discarded first. Blocks until the notes
// fetch completes.
func (s *Store) OpenCase(ctx context.Context, c domain.Case) {
	s.mu.Lock()
	selected := c
	s.selected = &selected
	s.notes = nil
	s.notesErr = ""
	s.noteFormVisible = false
	s.noteSubject = ""
	s.noteBody = ""
	s.noteSubmitting = false
	s.noteSubmitErr = ""
	scope := s.activeScope
	s.notesGen++
	gen := s.notesGen
	s.notesLoading = true
	s.mu.Unlock()

	s.fetchNotes(ctx, scope, c.IncidentID, gen)
}

// CloseCase returns to the list view, discarding notes and hiding the note
// form. Any in-flight notes fetch is invalidated.
func (s *Store) CloseCase() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearSelectionLocked()
}

// RefreshNotes re-fetches notes for the selected case. No-op without a
// selection.
func (s *Store) RefreshNotes(ctx context.Context) {
	s.mu.Lock()
	if s.selected == nil {
		s.mu.Unlock()
		return
	}
	incidentID := s.selected.IncidentID
	scope := s.activeScope
	s.notesGen++
	gen := s.notesGen
	s.notesLoading = true
	s.notesErr = ""
	s.mu.Unlock()

	s.fetchNotes(ctx, scope, incidentID, gen)
}

// fetchNotes performs the notes request and commits the result only if it
// still corresponds to the current selection generation.
func (s *Store) fetchNotes(ctx context.Context, scope domain.Scope, incidentID string, gen uint64) {
	notes, err := s.svc.ListCaseNotes(ctx, scope, incidentID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.notesGen != gen {
		// Selection changed while the request was in flight.
		return
	}
	s.notesLoading = false
	if err != nil {
		s.logger.Warn("notes fetch failed", zap.String("incident", incidentID), zap.Error(err))
		s.notesErr = err.Error()
		return
	}
	s.notes = notes
}

// ShowNoteForm opens the note compose form for the selected case.
func (s *Store) ShowNoteForm() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == nil {
		return
	}
	s.noteFormVisible = true
	s.noteSubmitErr = ""
}

// HideNoteForm closes the compose form. The draft text is kept.
func (s *Store) HideNoteForm() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.noteFormVisible = false
	s.noteSubmitErr = ""
}

// SetNoteSubject updates the draft subject.
func (s *Store) SetNoteSubject(subject string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.noteSubject = subject
}

// SetNoteBody updates the draft body.
func (s *Store) SetNoteBody(body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.noteBody = body
}

// SubmitNote creates a note from the draft. A fully blank draft or an
// in-flight submission makes this a no-op; the presentation disables the
// action rather than bouncing off the server. On success the draft clears,
// the form hides and notes refresh; on failure the draft survives and the
// error is surfaced inline. Blocks until done.
func (s *Store) SubmitNote(ctx context.Context) {
	s.mu.Lock()
	if s.selected == nil || s.noteSubmitting {
		s.mu.Unlock()
		return
	}
	subject, body := s.noteSubject, s.noteBody
	if strings.TrimSpace(subject) == "" && strings.TrimSpace(body) == "" {
		s.mu.Unlock()
		return
	}
	incidentID := s.selected.IncidentID
	scope := s.activeScope
	s.noteSubmitting = true
	s.noteSubmitErr = ""
	s.mu.Unlock()

	err := s.svc.CreateCaseNote(ctx, incidentID, subject, body)

	s.mu.Lock()
	s.noteSubmitting = false
	if err != nil {
		s.noteSubmitErr = err.Error()
		s.mu.Unlock()
		return
	}
	s.noteSubject = ""
	s.noteBody = ""
	s.noteFormVisible = false

	stillSelected := s.selected != nil && s.selected.IncidentID == incidentID
	var gen uint64
	if stillSelected {
		s.notesGen++
		gen = s.notesGen
		s.notesLoading = true
		s.notesErr = ""
	}
	s.mu.Unlock()

	if stillSelected {
		s.fetchNotes(ctx, scope, incidentID, gen)
	}
}

// ShowCaseForm opens the new-case form.
func (s *Store) ShowCaseForm() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.caseFormVisible = true
	s.caseSubmitErr = ""
}

// HideCaseForm closes the new-case form, keeping the draft.
func (s *Store) HideCaseForm() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.caseFormVisible = false
	s.caseSubmitErr = ""
}

// SetCaseTitle updates the new-case draft title.
func (s *Store) SetCaseTitle(title string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.caseTitle = title
}

// SetCaseDescription updates the new-case draft description.
func (s *Store) SetCaseDescription(description string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.caseDescription = description
}

// SubmitCase opens a new case from the draft. Requires a non-blank title.
// On success the draft clears, the form hides and the "mine" scope reloads
// so the new case appears. Blocks until done.
func (s *Store) SubmitCase(ctx context.Context) {
	s.mu.Lock()
	if s.caseSubmitting || strings.TrimSpace(s.caseTitle) == "" {
		s.mu.Unlock()
		return
	}
	title, description := s.caseTitle, s.caseDescription
	s.caseSubmitting = true
	s.caseSubmitErr = ""
	s.mu.Unlock()

	err := s.svc.CreateCase(ctx, title, description)

	s.mu.Lock()
	s.caseSubmitting = false
	if err != nil {
		s.caseSubmitErr = err.Error()
		s.mu.Unlock()
		return
	}
	s.caseTitle = ""
	s.caseDescription = ""
	s.caseFormVisible = false
	s.mu.Unlock()

	s.LoadCases(ctx, domain.ScopeMine)
}

// clearSelectionLocked resets everything tied to the open case. Callers
// hold s.mu.
func (s *Store) clearSelectionLocked() {
	s.selected = nil
	s.notes = nil
	s.notesErr = ""
	s.notesLoading = false
	s.notesGen++ // invalidate any in-flight notes fetch
	s.noteFormVisible = false
	s.noteSubject = ""
	s.noteBody = ""
	s.noteSubmitting = false
	s.noteSubmitErr = ""
}
