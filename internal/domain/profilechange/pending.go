package profilechange

import (
	"context"
	"sync"
)

// Remover deletes a staged file from the pending storage area.
type Remover interface {
	DeletePending(ctx context.Context, employeeID, path string) error
}

// Tracker is the registry of staged uploads for one employee's editing
// session. It is never shared across edits of different employees. The mutex
// only guards the slice: several uploads can be in flight at once and each
// registers independently on completion.
type Tracker struct {
	mu         sync.Mutex
	employeeID string
	remover    Remover
	docs       []PendingDocument
}

func NewTracker(employeeID string, remover Remover) *Tracker {
	return &Tracker{employeeID: employeeID, remover: remover}
}

// Upload registers a staged document. At most one entry may exist per logical
// target, so a matching prior entry is evicted and returned; the caller is
// responsible for deleting the superseded temp file server-side.
func (t *Tracker) Upload(doc PendingDocument) (evicted PendingDocument, replaced bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	target := doc.Target()
	for i, existing := range t.docs {
		if target.Matches(existing.Target()) {
			evicted = existing
			t.docs[i] = doc
			return evicted, true
		}
	}
	t.docs = append(t.docs, doc)
	return PendingDocument{}, false
}

// Remove deletes the staged file server-side, then drops the entry. If the
// delete fails the entry stays, so the registry never claims a file is gone
// while it may still exist.
func (t *Tracker) Remove(ctx context.Context, index int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if index < 0 || index >= len(t.docs) {
		return ErrNotFound
	}
	doc := t.docs[index]
	if t.remover != nil {
		if err := t.remover.DeletePending(ctx, t.employeeID, doc.Path); err != nil {
			return err
		}
	}
	t.docs = append(t.docs[:index], t.docs[index+1:]...)
	return nil
}

// RemoveByPath is Remove keyed on the staged path instead of the slot.
func (t *Tracker) RemoveByPath(ctx context.Context, path string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i, doc := range t.docs {
		if doc.Path != path {
			continue
		}
		if t.remover != nil {
			if err := t.remover.DeletePending(ctx, t.employeeID, doc.Path); err != nil {
				return err
			}
		}
		t.docs = append(t.docs[:i], t.docs[i+1:]...)
		return nil
	}
	return ErrNotFound
}

// FindFor looks an entry up by logical target, using the same precedence as
// Upload.
func (t *Tracker) FindFor(target Target) (PendingDocument, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, doc := range t.docs {
		if target.Matches(doc.Target()) {
			return doc, true
		}
	}
	return PendingDocument{}, false
}

func (t *Tracker) List() []PendingDocument {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]PendingDocument, len(t.docs))
	copy(out, t.docs)
	return out
}

func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.docs)
}

// Detach empties the registry and returns what it held. Used at submission
// time, when ownership of the staged files moves to the created request.
func (t *Tracker) Detach() []PendingDocument {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := t.docs
	t.docs = nil
	return out
}

// BuildSubmission merges the tracker's staged documents into a change-set and
// derives the request type. It fails fast with ErrNothingToSubmit when both
// the change-set and the staged list are empty; callers must not issue any
// network call in that case.
func BuildSubmission(changes ProposedChanges, staged []PendingDocument) (string, ProposedChanges, error) {
	merged := changes
	if len(staged) > 0 {
		merged.PendingDocuments = staged
	}

	if !merged.HasFieldChanges() && !merged.HasDocuments() {
		return "", ProposedChanges{}, ErrNothingToSubmit
	}

	// Field changes win the label even when documents ride along.
	requestType := TypeDocumentUpdate
	if merged.HasFieldChanges() {
		requestType = TypeProfileUpdate
	}
	return requestType, merged, nil
}

// Drafts hands out per-employee trackers. One editing session owns one
// tracker; sessions for different employees never share state.
type Drafts struct {
	mu         sync.Mutex
	remover    Remover
	byEmployee map[string]*Tracker
}

func NewDrafts(remover Remover) *Drafts {
	return &Drafts{remover: remover, byEmployee: make(map[string]*Tracker)}
}

func (d *Drafts) For(employeeID string) *Tracker {
	d.mu.Lock()
	defer d.mu.Unlock()

	tracker, ok := d.byEmployee[employeeID]
	if !ok {
		tracker = NewTracker(employeeID, d.remover)
		d.byEmployee[employeeID] = tracker
	}
	return tracker
}

// Detach removes the employee's tracker and returns its staged documents.
func (d *Drafts) Detach(employeeID string) []PendingDocument {
	d.mu.Lock()
	tracker, ok := d.byEmployee[employeeID]
	delete(d.byEmployee, employeeID)
	d.mu.Unlock()

	if !ok {
		return nil
	}
	return tracker.Detach()
}

// TrackedPaths lists every staged path across live sessions; the retention
// sweep treats these as referenced.
func (d *Drafts) TrackedPaths() []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	var paths []string
	for _, tracker := range d.byEmployee {
		for _, doc := range tracker.List() {
			paths = append(paths, doc.Path)
		}
	}
	return paths
}
