package profilechange

import (
	"encoding/json"

	"brems/internal/platform/storage"
)

// ParseProposed normalizes the stored proposed_changes at the boundary. The
// transport layer has historically double-encoded the JSON column, so the
// value may arrive as a parsed object, a JSON string, or a JSON string
// containing JSON. Anything unparseable degrades to an empty object; the
// review screen must render, never throw.
func ParseProposed(raw any) map[string]any {
	switch v := raw.(type) {
	case nil:
		return map[string]any{}
	case map[string]any:
		return v
	case json.RawMessage:
		return parseJSONObject([]byte(v))
	case []byte:
		return parseJSONObject(v)
	case string:
		return parseJSONObject([]byte(v))
	default:
		return map[string]any{}
	}
}

func parseJSONObject(data []byte) map[string]any {
	if len(data) == 0 {
		return map[string]any{}
	}
	var parsed any
	if err := json.Unmarshal(data, &parsed); err != nil {
		return map[string]any{}
	}
	switch v := parsed.(type) {
	case map[string]any:
		return v
	case string:
		// Double-encoded: the column held a JSON string containing JSON.
		var inner map[string]any
		if err := json.Unmarshal([]byte(v), &inner); err != nil {
			return map[string]any{}
		}
		return inner
	default:
		return map[string]any{}
	}
}

// BuildSections reconstructs the review screen's display sections from a
// request's stored current_data and proposed_changes. Sections with no rows
// are omitted.
func BuildSections(currentData, proposedChanges any) []Section {
	current := ParseProposed(currentData)
	proposed := ParseProposed(proposedChanges)

	var sections []Section

	if docs := decodePendingDocuments(proposed["pending_documents"]); len(docs) > 0 {
		sections = appendSection(sections, "Document Uploads", DiffPendingDocuments(docs, current))
	}

	if legacy := asMap(proposed["document_update"]); len(legacy) > 0 {
		sections = appendSection(sections, "Document Update", legacyDocumentRows(legacy, current))
	}

	sections = appendSection(sections, "Personal Information",
		DiffPersonalInfo(asMap(current["personal_info"]), asMap(proposed["personal_info"])))

	if family := asMap(proposed["family"]); len(family) > 0 {
		sections = appendSection(sections, "Family", DiffFamily(asMap(current["family"]), family))
	}

	if addresses := asMap(proposed["addresses"]); len(addresses) > 0 {
		sections = appendSection(sections, "Addresses", DiffAddresses(asMap(current["addresses"]), addresses))
	}

	// A null academics key means unchanged; only a real array is a proposal.
	if raw, ok := proposed["academics"]; ok && raw != nil {
		sections = appendSection(sections, "Academic Records",
			DiffAcademics(current["academics"], raw))
	}

	return sections
}

func appendSection(sections []Section, title string, rows []ChangeRow) []Section {
	if len(rows) == 0 {
		return sections
	}
	return append(sections, Section{Title: title, Rows: rows})
}

func decodePendingDocuments(raw any) []PendingDocument {
	list := asSlice(raw)
	if len(list) == 0 {
		return nil
	}
	docs := make([]PendingDocument, 0, len(list))
	for _, entry := range list {
		fields := asMap(entry)
		if fields == nil {
			continue
		}
		doc := PendingDocument{
			Path:           normValue(fields["path"]),
			URL:            normValue(fields["url"]),
			Field:          normValue(fields["field"]),
			AcademicID:     normValue(fields["academic_id"]),
			FamilyMemberID: normValue(fields["family_member_id"]),
			DocumentType:   normValue(fields["document_type"]),
		}
		if index, ok := fields["academic_index"].(float64); ok {
			i := int(index)
			doc.AcademicIndex = &i
		}
		if doc.Path == "" {
			continue
		}
		if doc.URL == "" {
			doc.URL = storage.URL(doc.Path)
		}
		docs = append(docs, doc)
	}
	return docs
}

func legacyDocumentRows(legacy, current map[string]any) []ChangeRow {
	path := normValue(legacy["path"])
	if path == "" {
		return nil
	}
	label := normValue(legacy["document_type"])
	if label == "" {
		label = "Document"
	}
	row := ChangeRow{
		Label:        label,
		Proposed:     FileName(path),
		ProposedPath: path,
		ProposedURL:  normValue(legacy["url"]),
		IsFile:       true,
		IsImage:      IsImagePath(path),
	}
	if row.ProposedURL == "" {
		row.ProposedURL = storage.URL(path)
	}
	if field := normValue(legacy["field"]); field != "" {
		if prev := normValue(asMap(current["personal_info"])[field]); prev != "" {
			row.Previous = FileName(prev)
			row.PreviousPath = prev
			row.PreviousURL = storage.URL(prev)
		}
	}
	return []ChangeRow{row}
}
