package profilechange

import (
	"fmt"

	"brems/internal/platform/storage"
)

// DiffFields emits one ChangeRow per field whose proposed value is non-empty
// and differs from the previous value. Clearing a field to empty is therefore
// never reported; see the change-set builder, which applies the same policy,
// so a cleared field cannot be requested through this flow at all.
func DiffFields(fields []FieldDef, labelPrefix string, previous, proposed map[string]any) []ChangeRow {
	var rows []ChangeRow
	for _, def := range fields {
		propCmp := compareValue(def, proposed[def.Key])
		if propCmp == "" {
			continue
		}
		prevCmp := compareValue(def, previous[def.Key])
		if propCmp == prevCmp {
			continue
		}
		if def.DefaultTrue && prevCmp == "" && propCmp == "true" {
			continue
		}
		rows = append(rows, ChangeRow{
			Label:    labelPrefix + def.Label,
			Previous: displayValue(def, previous[def.Key]),
			Proposed: displayValue(def, proposed[def.Key]),
		})
	}
	return rows
}

func DiffPersonalInfo(previous, proposed map[string]any) []ChangeRow {
	return DiffFields(PersonalFields, "", previous, proposed)
}

// DiffFamily walks father, mother, then each spouse and child pair. Spouses
// and children are index-aligned up to the longer side; a member present on
// one side only diffs against the empty person.
func DiffFamily(previous, proposed map[string]any) []ChangeRow {
	var rows []ChangeRow

	rows = append(rows, diffPerson(personFields, "Father", previous["father"], proposed["father"])...)
	rows = append(rows, diffPerson(personFields, "Mother", previous["mother"], proposed["mother"])...)

	prevSpouses := asSlice(previous["spouses"])
	propSpouses := asSlice(proposed["spouses"])
	for i := 0; i < maxLen(prevSpouses, propSpouses); i++ {
		owner := fmt.Sprintf("Spouse %d", i+1)
		rows = append(rows, diffPerson(spouseFields, owner, at(prevSpouses, i), at(propSpouses, i))...)
	}

	prevChildren := asSlice(previous["children"])
	propChildren := asSlice(proposed["children"])
	for i := 0; i < maxLen(prevChildren, propChildren); i++ {
		owner := fmt.Sprintf("Child %d", i+1)
		rows = append(rows, diffPerson(childFields, owner, at(prevChildren, i), at(propChildren, i))...)
	}

	return rows
}

func diffPerson(fields []FieldDef, owner string, previous, proposed any) []ChangeRow {
	prevMap := asMap(previous)
	propMap := asMap(proposed)
	if len(propMap) == 0 {
		return nil
	}
	// Iterating the known field defs skips relation/id/timestamp bookkeeping
	// keys on both sides.
	return DiffFields(fields, owner+" – ", prevMap, propMap)
}

// DiffAddresses iterates exactly the six known keys per address type.
func DiffAddresses(previous, proposed map[string]any) []ChangeRow {
	var rows []ChangeRow
	rows = append(rows, DiffFields(AddressFields, "Present address – ",
		asMap(previous["present"]), asMap(proposed["present"]))...)
	rows = append(rows, DiffFields(AddressFields, "Permanent address – ",
		asMap(previous["permanent"]), asMap(proposed["permanent"]))...)
	return rows
}

// DiffAcademics compares index-aligned pairs up to the longer list. There is
// no matching by content: a record present on one side only is compared
// against the empty record at that index.
func DiffAcademics(previous, proposed any) []ChangeRow {
	prevList := asSlice(previous)
	propList := asSlice(proposed)
	var rows []ChangeRow
	for i := 0; i < maxLen(prevList, propList); i++ {
		prefix := fmt.Sprintf("Academic record %d – ", i+1)
		rows = append(rows, DiffFields(AcademicFields, prefix, asMap(at(prevList, i)), asMap(at(propList, i)))...)
	}
	return rows
}

// DiffPendingDocuments turns each staged upload into exactly one row whose
// proposed side is a file reference and whose previous side is the file
// currently stored at the same logical target, if any.
func DiffPendingDocuments(docs []PendingDocument, currentData map[string]any) []ChangeRow {
	rows := make([]ChangeRow, 0, len(docs))
	for _, doc := range docs {
		row := ChangeRow{
			Label:        doc.DocumentType,
			Proposed:     FileName(doc.Path),
			ProposedPath: doc.Path,
			ProposedURL:  doc.URL,
			IsFile:       true,
			IsImage:      IsImagePath(doc.Path),
		}
		if row.Label == "" {
			row.Label = "Document"
		}
		if prev := currentFileFor(doc.Target(), currentData); prev != "" {
			row.Previous = FileName(prev)
			row.PreviousPath = prev
			row.PreviousURL = storage.URL(prev)
		}
		rows = append(rows, row)
	}
	return rows
}

// currentFileFor resolves the stored file path at a pending document's
// logical target inside a current_data snapshot.
func currentFileFor(target Target, currentData map[string]any) string {
	if target.Field != "" {
		return normValue(asMap(currentData["personal_info"])[target.Field])
	}
	if target.AcademicID != "" {
		for _, entry := range asSlice(currentData["academics"]) {
			record := asMap(entry)
			if normValue(record["id"]) == target.AcademicID {
				return normValue(record["certificate_path"])
			}
		}
		return ""
	}
	if target.AcademicIndex != nil {
		academics := asSlice(currentData["academics"])
		if record := asMap(at(academics, *target.AcademicIndex)); record != nil {
			return normValue(record["certificate_path"])
		}
		return ""
	}
	if target.FamilyMemberID != "" {
		family := asMap(currentData["family"])
		for _, entry := range asSlice(family["children"]) {
			member := asMap(entry)
			if normValue(member["id"]) == target.FamilyMemberID {
				return normValue(member["birth_certificate_path"])
			}
		}
	}
	return ""
}

func asMap(value any) map[string]any {
	switch v := value.(type) {
	case map[string]any:
		return v
	case map[string]string:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = item
		}
		return out
	default:
		return nil
	}
}

func asSlice(value any) []any {
	switch v := value.(type) {
	case []any:
		return v
	case []map[string]any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = item
		}
		return out
	case []map[string]string:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = item
		}
		return out
	default:
		return nil
	}
}

func at(list []any, index int) any {
	if index < 0 || index >= len(list) {
		return nil
	}
	return list[index]
}

func maxLen(a, b []any) int {
	if len(a) > len(b) {
		return len(a)
	}
	return len(b)
}
