package profilechange

import (
	"encoding/json"
	"testing"
)

func TestParseProposedShapes(t *testing.T) {
	object := map[string]any{"personal_info": map[string]any{"phone": "x"}}

	if got := ParseProposed(object); got["personal_info"] == nil {
		t.Fatal("parsed object must pass through")
	}

	encoded, err := json.Marshal(object)
	if err != nil {
		t.Fatal(err)
	}
	if got := ParseProposed(string(encoded)); got["personal_info"] == nil {
		t.Fatal("JSON string must decode")
	}
	if got := ParseProposed(json.RawMessage(encoded)); got["personal_info"] == nil {
		t.Fatal("raw message must decode")
	}

	double, err := json.Marshal(string(encoded))
	if err != nil {
		t.Fatal(err)
	}
	if got := ParseProposed(string(double)); got["personal_info"] == nil {
		t.Fatal("double-encoded JSON must decode")
	}
}

func TestParseProposedDegradesToEmpty(t *testing.T) {
	cases := []any{
		nil,
		"",
		"not json at all",
		`"still not an object"`,
		"[1,2,3]",
		42,
		[]byte("{broken"),
	}
	for _, raw := range cases {
		got := ParseProposed(raw)
		if got == nil || len(got) != 0 {
			t.Fatalf("ParseProposed(%v) = %v, want empty object", raw, got)
		}
	}
}

func TestBuildSectionsOrderAndOmission(t *testing.T) {
	current := map[string]any{
		"personal_info": map[string]any{"phone": "01711111111", "nid_file_path": "employees/emp-1/nid-old.pdf"},
		"family":        map[string]any{"father": map[string]any{"name": "Abdul"}},
		"addresses":     map[string]any{"present": map[string]any{"division": "Dhaka"}},
		"academics":     []any{map[string]any{"exam_name": "SSC"}},
	}
	proposed := map[string]any{
		"pending_documents": []any{
			map[string]any{"path": "pending/emp-1/a.pdf", "field": "nid_file_path", "document_type": "NID"},
		},
		"personal_info": map[string]any{"phone": "01722222222"},
		"family":        map[string]any{"father": map[string]any{"name": "Abdul Karim"}},
		"addresses":     map[string]any{"present": map[string]any{"division": "Khulna"}},
		"academics":     []any{map[string]any{"exam_name": "HSC"}},
	}

	sections := BuildSections(current, proposed)
	wantTitles := []string{"Document Uploads", "Personal Information", "Family", "Addresses", "Academic Records"}
	if len(sections) != len(wantTitles) {
		t.Fatalf("expected %d sections, got %+v", len(wantTitles), sections)
	}
	for i, title := range wantTitles {
		if sections[i].Title != title {
			t.Fatalf("section %d = %q, want %q", i, sections[i].Title, title)
		}
	}

	docRow := sections[0].Rows[0]
	if docRow.PreviousPath != "employees/emp-1/nid-old.pdf" || docRow.ProposedPath != "pending/emp-1/a.pdf" {
		t.Fatalf("document row not resolved: %+v", docRow)
	}
	if docRow.ProposedURL != "/files/pending/emp-1/a.pdf" {
		t.Fatalf("missing url must be derived from the path, got %q", docRow.ProposedURL)
	}
}

func TestBuildSectionsEmptySectionsOmitted(t *testing.T) {
	current := map[string]any{
		"personal_info": map[string]any{"phone": "01711111111"},
	}
	proposed := map[string]any{
		"personal_info": map[string]any{"phone": "01711111111"},
		"family":        map[string]any{},
		"addresses":     map[string]any{},
	}

	if sections := BuildSections(current, proposed); len(sections) != 0 {
		t.Fatalf("no-op proposal must yield no sections, got %+v", sections)
	}
}

func TestBuildSectionsAcademicsNullMeansUnchanged(t *testing.T) {
	current := map[string]any{
		"academics": []any{map[string]any{"exam_name": "SSC"}},
	}

	proposed := map[string]any{"academics": nil}
	if sections := BuildSections(current, proposed); len(sections) != 0 {
		t.Fatalf("null academics must not diff, got %+v", sections)
	}

	// An empty replacement array also renders no rows: emptied values are
	// suppressed everywhere, so the removal applies silently on approval.
	proposed = map[string]any{"academics": []any{}}
	if sections := BuildSections(current, proposed); len(sections) != 0 {
		t.Fatalf("emptied records must not render rows, got %+v", sections)
	}

	// A shrunk but non-empty list shows the surviving records' changes.
	proposed = map[string]any{"academics": []any{map[string]any{"exam_name": "HSC"}}}
	sections := BuildSections(current, proposed)
	if len(sections) != 1 || sections[0].Title != "Academic Records" {
		t.Fatalf("got %+v", sections)
	}
	row := sections[0].Rows[0]
	if row.Previous != "SSC" || row.Proposed != "HSC" {
		t.Fatalf("unexpected row: %+v", row)
	}
}

func TestBuildSectionsFromStoredStrings(t *testing.T) {
	// Requests read back from the database carry both columns as raw JSON.
	currentJSON := []byte(`{"personal_info":{"phone":"01711111111"}}`)
	proposedJSON := []byte(`{"personal_info":{"phone":"01722222222"}}`)

	sections := BuildSections(json.RawMessage(currentJSON), json.RawMessage(proposedJSON))
	if len(sections) != 1 || sections[0].Title != "Personal Information" {
		t.Fatalf("got %+v", sections)
	}
}

func TestDecodePendingDocumentsSkipsPathless(t *testing.T) {
	raw := []any{
		map[string]any{"path": "", "field": "nid_file_path"},
		map[string]any{"path": "pending/emp-1/a.pdf", "academic_index": float64(2)},
		"garbage",
	}

	docs := decodePendingDocuments(raw)
	if len(docs) != 1 {
		t.Fatalf("expected 1 decodable doc, got %+v", docs)
	}
	if docs[0].AcademicIndex == nil || *docs[0].AcademicIndex != 2 {
		t.Fatalf("academic_index not decoded: %+v", docs[0])
	}
	if docs[0].URL != "/files/pending/emp-1/a.pdf" {
		t.Fatalf("url not derived: %q", docs[0].URL)
	}
}

func TestLegacyDocumentRows(t *testing.T) {
	current := map[string]any{
		"personal_info": map[string]any{"profile_picture": "employees/emp-1/old.jpg"},
	}
	legacy := map[string]any{
		"path":          "pending/emp-1/new.jpg",
		"field":         "profile_picture",
		"document_type": "Profile picture",
	}

	rows := legacyDocumentRows(legacy, current)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %+v", rows)
	}
	row := rows[0]
	if row.Label != "Profile picture" || !row.IsImage {
		t.Fatalf("unexpected row: %+v", row)
	}
	if row.PreviousPath != "employees/emp-1/old.jpg" || row.PreviousURL != "/files/employees/emp-1/old.jpg" {
		t.Fatalf("previous not resolved: %+v", row)
	}

	if rows := legacyDocumentRows(map[string]any{"path": ""}, current); rows != nil {
		t.Fatalf("pathless legacy update must render nothing, got %+v", rows)
	}
}
