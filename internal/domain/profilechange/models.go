package profilechange

import (
	"encoding/json"
	"time"
)

const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
	StatusCancelled = "cancelled"
)

const (
	TypeProfileUpdate  = "Profile Update"
	TypeDocumentUpdate = "Document Update"
)

// Request is the persisted unit an admin reviews. CurrentData holds the
// record snapshot taken at submission time; ProposedChanges holds only what
// differs, plus any staged document uploads.
type Request struct {
	ID              string          `json:"id"`
	EmployeeID      string          `json:"employee_id"`
	RequestedBy     string          `json:"requested_by"`
	RequestType     string          `json:"request_type"`
	Details         string          `json:"details"`
	Status          string          `json:"status"`
	AdminNote       string          `json:"admin_note,omitempty"`
	CurrentData     json.RawMessage `json:"current_data,omitempty"`
	ProposedChanges json.RawMessage `json:"proposed_changes,omitempty"`
	ProcessedBy     string          `json:"processed_by,omitempty"`
	ProcessedAt     *time.Time      `json:"processed_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// ProposedChanges carries only the sub-objects that actually changed.
// Spouses, children and academics are whole-array replacements: member
// identity is positional while editing, so partial patches would misattribute
// fields after an insert or delete.
// Spouses, children and academics deliberately omit omitempty: an empty
// non-nil slice means "replace with none" and must survive the JSON round
// trip, while nil means "unchanged".
type ProposedChanges struct {
	PersonalInfo     map[string]string            `json:"personal_info,omitempty"`
	Family           *FamilyChanges               `json:"family,omitempty"`
	Addresses        map[string]map[string]string `json:"addresses,omitempty"`
	Academics        []map[string]string          `json:"academics"`
	PendingDocuments []PendingDocument            `json:"pending_documents,omitempty"`
	DocumentUpdate   *DocumentUpdate              `json:"document_update,omitempty"`
}

type FamilyChanges struct {
	Father   map[string]any   `json:"father,omitempty"`
	Mother   map[string]any   `json:"mother,omitempty"`
	Spouses  []map[string]any `json:"spouses"`
	Children []map[string]any `json:"children"`
}

// DocumentUpdate is the legacy single-file request shape, kept so older
// stored requests still render.
type DocumentUpdate struct {
	Field        string `json:"field"`
	Path         string `json:"path"`
	URL          string `json:"url,omitempty"`
	DocumentType string `json:"document_type,omitempty"`
}

// HasFieldChanges reports whether any non-document section is populated.
func (p ProposedChanges) HasFieldChanges() bool {
	if len(p.PersonalInfo) > 0 || len(p.Addresses) > 0 || p.Academics != nil {
		return true
	}
	if p.Family != nil {
		if len(p.Family.Father) > 0 || len(p.Family.Mother) > 0 ||
			p.Family.Spouses != nil || p.Family.Children != nil {
			return true
		}
	}
	return false
}

func (p ProposedChanges) HasDocuments() bool {
	return len(p.PendingDocuments) > 0 || p.DocumentUpdate != nil
}

// Target identifies where an uploaded document lands once approved. Exactly
// one of the members is expected to be set; matching precedence is Field,
// then AcademicID, then AcademicIndex, then FamilyMemberID.
type Target struct {
	Field          string `json:"field,omitempty"`
	AcademicID     string `json:"academic_id,omitempty"`
	AcademicIndex  *int   `json:"academic_index,omitempty"`
	FamilyMemberID string `json:"family_member_id,omitempty"`
}

func (t Target) Matches(other Target) bool {
	if t.Field != "" || other.Field != "" {
		return t.Field == other.Field
	}
	if t.AcademicID != "" || other.AcademicID != "" {
		return t.AcademicID == other.AcademicID
	}
	if t.AcademicIndex != nil || other.AcademicIndex != nil {
		return t.AcademicIndex != nil && other.AcademicIndex != nil &&
			*t.AcademicIndex == *other.AcademicIndex
	}
	if t.FamilyMemberID != "" || other.FamilyMemberID != "" {
		return t.FamilyMemberID == other.FamilyMemberID
	}
	return false
}

func (t Target) IsZero() bool {
	return t.Field == "" && t.AcademicID == "" && t.AcademicIndex == nil && t.FamilyMemberID == ""
}

// PendingDocument is a file already uploaded to the pending storage area but
// not yet applied to the permanent record.
type PendingDocument struct {
	Path           string    `json:"path"`
	URL            string    `json:"url"`
	Field          string    `json:"field,omitempty"`
	AcademicID     string    `json:"academic_id,omitempty"`
	AcademicIndex  *int      `json:"academic_index,omitempty"`
	FamilyMemberID string    `json:"family_member_id,omitempty"`
	DocumentType   string    `json:"document_type"`
	UploadedAt     time.Time `json:"uploaded_at"`
}

func (d PendingDocument) Target() Target {
	return Target{
		Field:          d.Field,
		AcademicID:     d.AcademicID,
		AcademicIndex:  d.AcademicIndex,
		FamilyMemberID: d.FamilyMemberID,
	}
}

// ChangeRow is one reviewable previous-vs-proposed line.
type ChangeRow struct {
	Label        string `json:"label"`
	Previous     string `json:"previous"`
	Proposed     string `json:"proposed"`
	IsFile       bool   `json:"is_file,omitempty"`
	IsImage      bool   `json:"is_image,omitempty"`
	PreviousPath string `json:"previous_path,omitempty"`
	PreviousURL  string `json:"previous_url,omitempty"`
	ProposedPath string `json:"proposed_path,omitempty"`
	ProposedURL  string `json:"proposed_url,omitempty"`
}

type Section struct {
	Title string      `json:"title"`
	Rows  []ChangeRow `json:"rows"`
}
