package profilechange

import (
	"context"
	"errors"
	"testing"
)

type fakeRemover struct {
	deleted []string
	fail    error
}

func (f *fakeRemover) DeletePending(ctx context.Context, employeeID, path string) error {
	if f.fail != nil {
		return f.fail
	}
	f.deleted = append(f.deleted, path)
	return nil
}

func TestTrackerUploadReplacesSameTarget(t *testing.T) {
	tracker := NewTracker("emp-1", nil)

	first := PendingDocument{Path: "pending/emp-1/a.pdf", Field: "nid_file_path"}
	if _, replaced := tracker.Upload(first); replaced {
		t.Fatal("first upload must not report a replacement")
	}

	second := PendingDocument{Path: "pending/emp-1/b.pdf", Field: "nid_file_path"}
	evicted, replaced := tracker.Upload(second)
	if !replaced {
		t.Fatal("same-target upload must evict the prior entry")
	}
	if evicted.Path != first.Path {
		t.Fatalf("evicted %q, want %q", evicted.Path, first.Path)
	}
	if tracker.Len() != 1 {
		t.Fatalf("tracker must hold one entry, got %d", tracker.Len())
	}
}

func TestTrackerUploadDistinctTargetsCoexist(t *testing.T) {
	index0 := 0
	index1 := 0
	tracker := NewTracker("emp-1", nil)

	docs := []PendingDocument{
		{Path: "a.pdf", Field: "nid_file_path"},
		{Path: "b.pdf", Field: "profile_picture"},
		{Path: "c.pdf", AcademicID: "ac-1"},
		{Path: "d.pdf", AcademicIndex: &index0},
		{Path: "e.pdf", FamilyMemberID: "child-1"},
	}
	for _, doc := range docs {
		if _, replaced := tracker.Upload(doc); replaced {
			t.Fatalf("distinct target %+v must not replace", doc.Target())
		}
	}
	if tracker.Len() != len(docs) {
		t.Fatalf("expected %d entries, got %d", len(docs), tracker.Len())
	}

	// Same academic index is the same target.
	evicted, replaced := tracker.Upload(PendingDocument{Path: "f.pdf", AcademicIndex: &index1})
	if !replaced || evicted.Path != "d.pdf" {
		t.Fatalf("index target must match by value, got replaced=%v evicted=%q", replaced, evicted.Path)
	}
}

func TestTargetPrecedence(t *testing.T) {
	index := 0
	withField := Target{Field: "nid_file_path", AcademicID: "ac-1"}
	fieldOnly := Target{Field: "nid_file_path"}
	if !withField.Matches(fieldOnly) {
		t.Fatal("field comparison must win over academic id")
	}

	academic := Target{AcademicID: "ac-1", AcademicIndex: &index}
	academicOnly := Target{AcademicID: "ac-1"}
	if !academic.Matches(academicOnly) {
		t.Fatal("academic id comparison must win over index")
	}

	if (Target{}).Matches(Target{}) {
		t.Fatal("two zero targets never match")
	}
}

func TestTrackerRemoveDeletesServerSideFirst(t *testing.T) {
	remover := &fakeRemover{}
	tracker := NewTracker("emp-1", remover)
	tracker.Upload(PendingDocument{Path: "pending/emp-1/a.pdf", Field: "nid_file_path"})

	if err := tracker.Remove(context.Background(), 0); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if len(remover.deleted) != 1 || remover.deleted[0] != "pending/emp-1/a.pdf" {
		t.Fatalf("server-side delete not issued: %+v", remover.deleted)
	}
	if tracker.Len() != 0 {
		t.Fatal("entry must be dropped after delete")
	}
}

func TestTrackerRemoveKeepsEntryOnDeleteFailure(t *testing.T) {
	remover := &fakeRemover{fail: errors.New("disk gone")}
	tracker := NewTracker("emp-1", remover)
	tracker.Upload(PendingDocument{Path: "pending/emp-1/a.pdf", Field: "nid_file_path"})

	if err := tracker.Remove(context.Background(), 0); err == nil {
		t.Fatal("expected the delete error to propagate")
	}
	if tracker.Len() != 1 {
		t.Fatal("entry must survive a failed delete")
	}
}

func TestTrackerRemoveOutOfRange(t *testing.T) {
	tracker := NewTracker("emp-1", nil)
	if err := tracker.Remove(context.Background(), 0); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestTrackerRemoveByPath(t *testing.T) {
	remover := &fakeRemover{}
	tracker := NewTracker("emp-1", remover)
	tracker.Upload(PendingDocument{Path: "pending/emp-1/a.pdf", Field: "nid_file_path"})
	tracker.Upload(PendingDocument{Path: "pending/emp-1/b.pdf", Field: "profile_picture"})

	if err := tracker.RemoveByPath(context.Background(), "pending/emp-1/b.pdf"); err != nil {
		t.Fatalf("remove by path failed: %v", err)
	}
	if tracker.Len() != 1 {
		t.Fatalf("expected 1 remaining entry, got %d", tracker.Len())
	}
	if err := tracker.RemoveByPath(context.Background(), "pending/emp-1/missing.pdf"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestTrackerFindFor(t *testing.T) {
	tracker := NewTracker("emp-1", nil)
	tracker.Upload(PendingDocument{Path: "a.pdf", AcademicID: "ac-1"})

	doc, ok := tracker.FindFor(Target{AcademicID: "ac-1"})
	if !ok || doc.Path != "a.pdf" {
		t.Fatalf("got ok=%v doc=%+v", ok, doc)
	}
	if _, ok := tracker.FindFor(Target{AcademicID: "ac-2"}); ok {
		t.Fatal("unknown target must not be found")
	}
}

func TestTrackerDetachEmptiesRegistry(t *testing.T) {
	tracker := NewTracker("emp-1", nil)
	tracker.Upload(PendingDocument{Path: "a.pdf", Field: "nid_file_path"})

	docs := tracker.Detach()
	if len(docs) != 1 {
		t.Fatalf("expected 1 detached doc, got %d", len(docs))
	}
	if tracker.Len() != 0 {
		t.Fatal("tracker must be empty after detach")
	}
}

func TestBuildSubmissionNothingToSubmit(t *testing.T) {
	_, _, err := BuildSubmission(ProposedChanges{}, nil)
	if !errors.Is(err, ErrNothingToSubmit) {
		t.Fatalf("got %v, want ErrNothingToSubmit", err)
	}
}

func TestBuildSubmissionDocumentsOnly(t *testing.T) {
	staged := []PendingDocument{{Path: "pending/emp-1/a.pdf", Field: "nid_file_path"}}

	requestType, merged, err := BuildSubmission(ProposedChanges{}, staged)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if requestType != TypeDocumentUpdate {
		t.Fatalf("got %q, want %q", requestType, TypeDocumentUpdate)
	}
	if len(merged.PendingDocuments) != 1 {
		t.Fatalf("staged docs must be merged, got %+v", merged.PendingDocuments)
	}
}

func TestBuildSubmissionFieldChangesWinLabel(t *testing.T) {
	changes := ProposedChanges{PersonalInfo: map[string]string{"phone": "01722222222"}}
	staged := []PendingDocument{{Path: "pending/emp-1/a.pdf", Field: "nid_file_path"}}

	requestType, merged, err := BuildSubmission(changes, staged)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if requestType != TypeProfileUpdate {
		t.Fatalf("got %q, want %q", requestType, TypeProfileUpdate)
	}
	if len(merged.PendingDocuments) != 1 || merged.PersonalInfo["phone"] != "01722222222" {
		t.Fatalf("merged change-set incomplete: %+v", merged)
	}
}

func TestBuildSubmissionEmptyReplacementCounts(t *testing.T) {
	changes := ProposedChanges{Academics: []map[string]string{}}

	requestType, _, err := BuildSubmission(changes, nil)
	if err != nil {
		t.Fatalf("an empty replacement array is submittable, got %v", err)
	}
	if requestType != TypeProfileUpdate {
		t.Fatalf("got %q, want %q", requestType, TypeProfileUpdate)
	}
}

func TestDraftsPerEmployeeIsolation(t *testing.T) {
	drafts := NewDrafts(nil)

	drafts.For("emp-1").Upload(PendingDocument{Path: "a.pdf", Field: "nid_file_path"})
	drafts.For("emp-2").Upload(PendingDocument{Path: "b.pdf", Field: "nid_file_path"})

	if drafts.For("emp-1").Len() != 1 || drafts.For("emp-2").Len() != 1 {
		t.Fatal("sessions must not share state")
	}

	paths := drafts.TrackedPaths()
	if len(paths) != 2 {
		t.Fatalf("expected 2 tracked paths, got %+v", paths)
	}

	docs := drafts.Detach("emp-1")
	if len(docs) != 1 || docs[0].Path != "a.pdf" {
		t.Fatalf("detach returned %+v", docs)
	}
	if drafts.For("emp-1").Len() != 0 {
		t.Fatal("detached employee must start a fresh tracker")
	}
	if drafts.For("emp-2").Len() != 1 {
		t.Fatal("other sessions must be unaffected")
	}

	if docs := drafts.Detach("emp-missing"); docs != nil {
		t.Fatalf("unknown employee must detach nothing, got %+v", docs)
	}
}
