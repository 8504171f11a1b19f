// Package domain defines the normalized domain types for the case-management
// API. These types represent the core concepts independent of transport and
// presentation concerns.
package domain

import "encoding/json"

// Scope identifies one of the two independent case datasets: cases owned by
// the current user, or cases visible to their team.
type Scope string

const (
	ScopeMine Scope = "me"
	ScopeTeam Scope = "team"
)

// SortField enumerates the Case fields the list view can be ordered by.
type SortField string

const (
	SortTicketNumber SortField = "ticketnumber"
	SortTitle        SortField = "title"
	SortStatus       SortField = "statuscode"
	SortPriority     SortField = "prioritycode"
	SortCreatedOn    SortField = "createdon"
	SortModifiedOn   SortField = "modifiedon"
)

// SortDir is the ordering direction for the active sort field.
type SortDir string

const (
	SortAsc  SortDir = "asc"
	SortDesc SortDir = "desc"
)

// GroupBy enumerates the Case fields whose labels bucket the list into
// collapsible sections. GroupNone shows a flat list.
type GroupBy string

const (
	GroupNone     GroupBy = "none"
	GroupStatus   GroupBy = "statuscode"
	GroupPriority GroupBy = "prioritycode"
	GroupCaseType GroupBy = "casetypecode"
)

// State codes on a Case.
const (
	StateActive    = 0
	StateResolved  = 1
	StateCancelled = 2
)

// Priority codes on a Case.
const (
	PriorityHigh   = 1
	PriorityNormal = 2
	PriorityLow    = 3
)

// Case represents a support incident as served by the remote API. The typed
// fields form a closed set; anything else the server sends is preserved
// untouched in Extra so nothing is dropped on the floor.
type Case struct {
	IncidentID    string `json:"incidentid"`
	TicketNumber  string `json:"ticketnumber"`
	Title         string `json:"title"`
	StatusCode    int    `json:"statuscode"`
	StatusLabel   string `json:"statuscode_label,omitempty"`
	StateCode     int    `json:"statecode"`
	StateLabel    string `json:"statecode_label,omitempty"`
	PriorityCode  int    `json:"prioritycode"`
	PriorityLabel string `json:"prioritycode_label,omitempty"`
	CaseTypeCode  *int   `json:"casetypecode"`
	CaseTypeLabel string `json:"casetypecode_label,omitempty"`
	CreatedOn     string `json:"createdon"`
	ModifiedOn    string `json:"modifiedon"`

	// Extra holds unrecognized passthrough fields. Preserved, never
	// interpreted.
	Extra map[string]json.RawMessage `json:"-"`
}

// CaseNote represents a comment or attachment record on a case. NoteText may
// contain HTML and must be sanitized before display.
type CaseNote struct {
	AnnotationID string `json:"annotationid"`
	Subject      string `json:"subject,omitempty"`
	NoteText     string `json:"notetext,omitempty"`
	IsDocument   bool   `json:"isdocument"`
	FileName     string `json:"filename,omitempty"`
	FileSize     *int64 `json:"filesize"`
	CreatedOn    string `json:"createdon"`
	ModifiedOn   string `json:"modifiedon"`

	Extra map[string]json.RawMessage `json:"-"`
}

// caseAlias avoids recursion into Case's custom JSON methods.
type caseAlias Case

// UnmarshalJSON decodes the typed Case fields and stashes every unknown key
// into Extra.
func (c *Case) UnmarshalJSON(data []byte) error {
	var alias caseAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for _, known := range caseFieldNames {
		delete(raw, known)
	}
	if len(raw) > 0 {
		alias.Extra = raw
	}

	*c = Case(alias)
	return nil
}

// MarshalJSON re-emits the typed fields alongside any preserved extras.
func (c Case) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(caseAlias(c))
	if err != nil {
		return nil, err
	}
	return mergeExtra(data, c.Extra)
}

type noteAlias CaseNote

// UnmarshalJSON decodes the typed CaseNote fields and stashes every unknown
// key into Extra.
func (n *CaseNote) UnmarshalJSON(data []byte) error {
	var alias noteAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for _, known := range noteFieldNames {
		delete(raw, known)
	}
	if len(raw) > 0 {
		alias.Extra = raw
	}

	*n = CaseNote(alias)
	return nil
}

// MarshalJSON re-emits the typed fields alongside any preserved extras.
func (n CaseNote) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(noteAlias(n))
	if err != nil {
		return nil, err
	}
	return mergeExtra(data, n.Extra)
}

var caseFieldNames = []string{
	"incidentid", "ticketnumber", "title",
	"statuscode", "statuscode_label",
	"statecode", "statecode_label",
	"prioritycode", "prioritycode_label",
	"casetypecode", "casetypecode_label",
	"createdon", "modifiedon",
}

var noteFieldNames = []string{
	"annotationid", "subject", "notetext", "isdocument",
	"filename", "filesize", "createdon", "modifiedon",
}

// mergeExtra folds the passthrough fields back into a marshaled object.
// Typed fields win on key collisions.
func mergeExtra(data []byte, extra map[string]json.RawMessage) ([]byte, error) {
	if len(extra) == 0 {
		return data, nil
	}
	var merged map[string]json.RawMessage
	if err := json.Unmarshal(data, &merged); err != nil {
		return nil, err
	}
	for k, v := range extra {
		if _, exists := merged[k]; !exists {
			merged[k] = v
		}
	}
	return json.Marshal(merged)
}

// GroupLabel returns the display label for the given grouping key, falling
// back to "Unknown" when the server supplied no label.
func (c Case) GroupLabel(key GroupBy) string {
	var label string
	switch key {
	case GroupStatus:
		label = c.StatusLabel
	case GroupPriority:
		label = c.PriorityLabel
	case GroupCaseType:
		label = c.CaseTypeLabel
	}
	if label == "" {
		return "Unknown"
	}
	return label
}

// SortFields lists the sortable columns in display order.
var SortFields = []SortField{
	SortTicketNumber,
	SortTitle,
	SortStatus,
	SortPriority,
	SortCreatedOn,
	SortModifiedOn,
}

// DefaultSortDir returns the direction a column starts with when it becomes
// the sort key: newest-first for timestamps, ascending for everything else.
func DefaultSortDir(field SortField) SortDir {
	if field == SortCreatedOn || field == SortModifiedOn {
		return SortDesc
	}
	return SortAsc
}
