package repository

import (
	"errors"
	"fmt"
	"sync"

	"notesync/models"
)

var ErrNoteNotFound = errors.New("note not found")

// Notifier receives every mutation the store applies, in mutation order.
type Notifier interface {
	NoteCreated(note models.Note)
	NoteUpdated(note models.Note)
	NoteDeleted(id int)
	FieldChanged(origin string, change models.FieldChange)
}

type NoteRepositoryInterface interface {
	Create() models.Note
	Get(id int) (models.Note, error)
	List() []models.Note
	Update(id int, patch models.NotePatch) (models.Note, error)
	SetField(origin string, id int, field models.Field, value string) (models.FieldChange, error)
	Delete(id int) error
}

type StoreOption func(*NoteRepository)

// WithAcceptEmpty makes Update write explicitly supplied empty strings
// instead of treating them as "no change".
func WithAcceptEmpty(accept bool) StoreOption {
	return func(r *NoteRepository) { r.acceptEmpty = accept }
}

// NoteRepository is the in-memory note store. Notifications are delivered
// while the lock is held, so subscribers observe mutations in order.
type NoteRepository struct {
	mu          sync.RWMutex
	notes       []*models.Note
	nextID      int
	acceptEmpty bool
	notifier    Notifier
}

func NewNoteRepository(notifier Notifier, opts ...StoreOption) *NoteRepository {
	r := &NoteRepository{nextID: 1, notifier: notifier}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *NoteRepository) find(id int) (int, *models.Note) {
	for i, n := range r.notes {
		if n.ID == id {
			return i, n
		}
	}
	return -1, nil
}

func (r *NoteRepository) Create() models.Note {
	r.mu.Lock()
	defer r.mu.Unlock()

	note := &models.Note{
		ID:      r.nextID,
		Title:   models.DefaultTitle,
		Version: 1,
	}
	r.nextID++
	r.notes = append(r.notes, note)

	created := *note
	if r.notifier != nil {
		r.notifier.NoteCreated(created)
	}
	return created
}

func (r *NoteRepository) Get(id int) (models.Note, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, n := r.find(id)
	if n == nil {
		return models.Note{}, fmt.Errorf("get note %d: %w", id, ErrNoteNotFound)
	}
	return *n, nil
}

func (r *NoteRepository) List() []models.Note {
	r.mu.RLock()
	defer r.mu.RUnlock()

	notes := make([]models.Note, 0, len(r.notes))
	for _, n := range r.notes {
		notes = append(notes, *n)
	}
	return notes
}

func (r *NoteRepository) apply(dst *string, v *string) {
	if v == nil {
		return
	}
	if *v == "" && !r.acceptEmpty {
		return
	}
	*dst = *v
}

// Update replaces each supplied field. Unless WithAcceptEmpty is set, an
// empty string leaves the stored value in place.
func (r *NoteRepository) Update(id int, patch models.NotePatch) (models.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, n := r.find(id)
	if n == nil {
		return models.Note{}, fmt.Errorf("update note %d: %w", id, ErrNoteNotFound)
	}
	r.apply(&n.Title, patch.Title)
	r.apply(&n.Content, patch.Content)
	n.Version++

	updated := *n
	if r.notifier != nil {
		r.notifier.NoteUpdated(updated)
	}
	return updated, nil
}

// SetField writes a live edit as given, empty values included. An edit for an
// unknown note is still passed to the notifier, unversioned, and reported as
// ErrNoteNotFound.
func (r *NoteRepository) SetField(origin string, id int, field models.Field, value string) (models.FieldChange, error) {
	if !field.Valid() {
		return models.FieldChange{}, fmt.Errorf("set field %q: %w", field, models.ErrInvalidPayload)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	_, n := r.find(id)
	if n == nil {
		if r.notifier != nil {
			r.notifier.FieldChanged(origin, models.FieldChange{NoteID: id, Field: field, Value: value})
		}
		return models.FieldChange{}, fmt.Errorf("set %s of note %d: %w", field, id, ErrNoteNotFound)
	}
	if field == models.FieldTitle {
		n.Title = value
	} else {
		n.Content = value
	}
	n.Version++

	change := models.FieldChange{NoteID: id, Field: field, Value: value, Version: n.Version}
	if r.notifier != nil {
		r.notifier.FieldChanged(origin, change)
	}
	return change, nil
}

func (r *NoteRepository) Delete(id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i, _ := r.find(id)
	if i < 0 {
		return fmt.Errorf("delete note %d: %w", id, ErrNoteNotFound)
	}
	r.notes = append(r.notes[:i], r.notes[i+1:]...)

	if r.notifier != nil {
		r.notifier.NoteDeleted(id)
	}
	return nil
}
