package client

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"notesync/models"
)

const (
	DefaultDebounce = 300 * time.Millisecond

	// NoNote is the active pointer when no note is open. Ids start at 1.
	NoNote = 0
)

var ErrUnknownNote = errors.New("note not in local cache")

// TextField is an editor input.
type TextField interface {
	Value() string
	SetValue(string)
}

// CaretField is a TextField that exposes its caret. SetCaret is expected to
// clamp offsets past the end of the value.
type CaretField interface {
	TextField
	Caret() int
	SetCaret(int)
}

// Sidebar renders the note list. It is called with the engine locked and
// must not call back into the engine.
type Sidebar interface {
	Render(notes []models.Note, activeID int)
}

// API is the REST surface of the server.
type API interface {
	List(ctx context.Context) ([]models.Note, error)
	Create(ctx context.Context) (models.Note, error)
	Update(ctx context.Context, id int, patch models.NotePatch) (models.Note, error)
	Delete(ctx context.Context, id int) error
}

// Emitter sends live edits on the realtime channel.
type Emitter interface {
	Emit(ctx context.Context, change models.FieldChange) error
}

type Options struct {
	// Debounce is the input pause before an edit is sent. Zero sends on
	// every input and re-renders the sidebar on every save response.
	Debounce time.Duration
	Title    TextField
	Content  TextField
	Sidebar  Sidebar
}

type entry struct {
	note  models.Note
	edits uint64       // local edits made to this note
	acked uint64       // last edit whose save has been answered
	held  *models.Note // full update received while a save was in flight
}

func (e *entry) saving() bool {
	return e.acked < e.edits
}

// Engine keeps one client's note cache, active pointer and editor fields
// consistent with local input and server broadcasts.
type Engine struct {
	api     API
	emitter Emitter
	title   TextField
	content TextField
	sidebar Sidebar

	immediate    bool
	titleInput   *Debouncer
	contentInput *Debouncer

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	notes  []*entry
	active int

	// keystrokes seen per field, and how many of them a flush has picked up
	titleTyped     uint64
	titleFlushed   uint64
	contentTyped   uint64
	contentFlushed uint64
}

func NewEngine(api API, emitter Emitter, opts Options) *Engine {
	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		api:          api,
		emitter:      emitter,
		title:        opts.Title,
		content:      opts.Content,
		sidebar:      opts.Sidebar,
		immediate:    opts.Debounce <= 0,
		titleInput:   NewDebouncer(opts.Debounce),
		contentInput: NewDebouncer(opts.Debounce),
		ctx:          ctx,
		cancel:       cancel,
	}
	if e.title == nil {
		e.title = &Field{}
	}
	if e.content == nil {
		e.content = &Field{}
	}
	if e.sidebar == nil {
		e.sidebar = nopSidebar{}
	}
	return e
}

// Close drops pending edits and cancels in-flight sends started by timers.
func (e *Engine) Close() {
	e.titleInput.Stop()
	e.contentInput.Stop()
	e.cancel()
}

func (e *Engine) find(id int) (int, *entry) {
	for i, n := range e.notes {
		if n.note.ID == id {
			return i, n
		}
	}
	return -1, nil
}

func (e *Engine) snapshot() []models.Note {
	notes := make([]models.Note, 0, len(e.notes))
	for _, n := range e.notes {
		notes = append(notes, n.note)
	}
	return notes
}

func (e *Engine) render() {
	e.sidebar.Render(e.snapshot(), e.active)
}

// Notes returns the cached notes in display order.
func (e *Engine) Notes() []models.Note {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshot()
}

// ActiveID returns the open note, or NoNote.
func (e *Engine) ActiveID() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}

// setPreservingCaret replaces f's value and puts the caret back at the same
// offset when f exposes one.
func setPreservingCaret(f TextField, v string) {
	if f.Value() == v {
		return
	}
	cf, ok := f.(CaretField)
	if !ok {
		f.SetValue(v)
		return
	}
	pos := cf.Caret()
	cf.SetValue(v)
	cf.SetCaret(pos)
}

func (e *Engine) fieldFor(f models.Field) TextField {
	if f == models.FieldTitle {
		return e.title
	}
	return e.content
}

// Load replaces the cache with the server's notes and opens the first one.
func (e *Engine) Load(ctx context.Context) error {
	notes, err := e.api.List(ctx)
	if err != nil {
		log.Println("Error loading notes:", err)
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.notes = e.notes[:0]
	for _, n := range notes {
		e.notes = append(e.notes, &entry{note: n})
	}
	e.render()
	if len(e.notes) > 0 {
		e.openLocked(e.notes[0])
	}
	return nil
}

// Select opens note id in the editor. Edits pending for the previous note are
// sent first.
func (e *Engine) Select(id int) error {
	e.titleInput.Flush()
	e.contentInput.Flush()

	e.mu.Lock()
	defer e.mu.Unlock()
	_, n := e.find(id)
	if n == nil {
		return fmt.Errorf("select %d: %w", id, ErrUnknownNote)
	}
	e.openLocked(n)
	return nil
}

func (e *Engine) openLocked(n *entry) {
	e.active = n.note.ID
	e.title.SetValue(n.note.Title)
	e.content.SetValue(n.note.Content)
	e.render()
}

func (e *Engine) clearEditorLocked() {
	e.active = NoNote
	e.title.SetValue("")
	e.content.SetValue("")
}

// NewNote creates a note on the server and opens it. The response is applied
// directly; the matching broadcast is a no-op when it arrives.
func (e *Engine) NewNote(ctx context.Context) (models.Note, error) {
	e.titleInput.Flush()
	e.contentInput.Flush()

	note, err := e.api.Create(ctx)
	if err != nil {
		log.Println("Error creating note:", err)
		return models.Note{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	_, n := e.find(note.ID)
	if n == nil {
		n = &entry{note: note}
		e.notes = append(e.notes, n)
	}
	e.openLocked(n)
	return note, nil
}

// DeleteNote deletes id on the server. When it was open, the first remaining
// note is opened instead, or the editor is blanked.
func (e *Engine) DeleteNote(ctx context.Context, id int) error {
	if err := e.api.Delete(ctx, id); err != nil {
		log.Println("Error deleting note:", err)
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if i, _ := e.find(id); i >= 0 {
		e.notes = append(e.notes[:i], e.notes[i+1:]...)
	}
	if e.active == id {
		if len(e.notes) > 0 {
			e.openLocked(e.notes[0])
			return nil
		}
		e.clearEditorLocked()
	}
	e.render()
	return nil
}

// TitleInput is called on every keystroke in the title field.
func (e *Engine) TitleInput() {
	e.mu.Lock()
	e.titleTyped++
	e.mu.Unlock()
	e.titleInput.Trigger(func() { e.flush(models.FieldTitle) })
}

// ContentInput is called on every keystroke in the content field.
func (e *Engine) ContentInput() {
	e.mu.Lock()
	e.contentTyped++
	e.mu.Unlock()
	e.contentInput.Trigger(func() { e.flush(models.FieldContent) })
}

// flush sends the current value of field for the active note, if it changed:
// a live edit to the other sessions, then a full save.
func (e *Engine) flush(field models.Field) {
	e.mu.Lock()
	if field == models.FieldTitle {
		e.titleFlushed = e.titleTyped
	} else {
		e.contentFlushed = e.contentTyped
	}
	_, n := e.find(e.active)
	if n == nil {
		e.mu.Unlock()
		return
	}
	value := e.fieldFor(field).Value()
	if field == models.FieldTitle {
		if n.note.Title == value {
			e.mu.Unlock()
			return
		}
		n.note.Title = value
	} else {
		if n.note.Content == value {
			e.mu.Unlock()
			return
		}
		n.note.Content = value
	}
	n.edits++
	seq := n.edits
	id := n.note.ID
	title, content := n.note.Title, n.note.Content
	if field == models.FieldTitle {
		e.render()
	}
	e.mu.Unlock()

	ctx := e.ctx
	change := models.FieldChange{NoteID: id, Field: field, Value: value}
	if e.emitter != nil {
		if err := e.emitter.Emit(ctx, change); err != nil {
			log.Printf("Error sending %s change: %v", field, err)
		}
	}

	saved, err := e.api.Update(ctx, id, models.NotePatch{Title: &title, Content: &content})
	e.saved(id, seq, saved, err)
}

// saved applies the answer to save number seq of note id. Answers overtaken
// by a newer local edit are dropped.
func (e *Engine) saved(id int, seq uint64, note models.Note, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	_, n := e.find(id)
	if n == nil {
		return
	}
	if err != nil {
		log.Println("Error updating note:", err)
		if seq == n.edits {
			n.acked = seq
			e.releaseHeldLocked(n)
		}
		return
	}
	if note.Version > n.note.Version && seq < n.edits {
		// Keep the newer local values; remember how far the server got.
		n.note.Version = note.Version
	}
	if seq != n.edits {
		return
	}
	n.acked = seq

	if n.held != nil && n.held.Version > note.Version {
		note = *n.held
	}
	n.held = nil
	if note.Version < n.note.Version {
		return
	}

	titleChanged := n.note.Title != note.Title
	n.note = note
	if n.note.ID == e.active {
		// Leave a field alone while it holds typing no flush has sent yet.
		if e.titleTyped == e.titleFlushed {
			setPreservingCaret(e.title, note.Title)
		}
		if e.contentTyped == e.contentFlushed {
			setPreservingCaret(e.content, note.Content)
		}
	}
	if titleChanged || e.immediate {
		e.render()
	}
}

func (e *Engine) releaseHeldLocked(n *entry) {
	if n.held == nil {
		return
	}
	held := *n.held
	n.held = nil
	if held.Version >= n.note.Version {
		e.applyNoteLocked(n, held)
	}
}

func (e *Engine) applyNoteLocked(n *entry, note models.Note) {
	n.note = note
	if note.ID == e.active {
		setPreservingCaret(e.title, note.Title)
		setPreservingCaret(e.content, note.Content)
	}
	e.render()
}

// HandleFrame decodes and applies one server frame. Malformed frames are
// logged and dropped.
func (e *Engine) HandleFrame(msg []byte) {
	ev, err := models.DecodeEvent(msg)
	if err != nil {
		log.Println("Invalid server event:", err)
		return
	}
	e.Handle(ev)
}

// Handle applies one broadcast to the cache, the editor and the sidebar.
func (e *Engine) Handle(ev models.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch ev := ev.(type) {
	case models.FieldChanged:
		e.fieldChangedLocked(ev.Change)
	case models.NoteCreated:
		if _, n := e.find(ev.Note.ID); n == nil {
			e.notes = append(e.notes, &entry{note: ev.Note})
			e.render()
		}
	case models.NoteUpdated:
		e.noteUpdatedLocked(ev.Note)
	case models.NoteDeleted:
		if i, _ := e.find(ev.ID); i >= 0 {
			e.notes = append(e.notes[:i], e.notes[i+1:]...)
		}
		if e.active == ev.ID {
			e.clearEditorLocked()
		}
		e.render()
	}
}

func (e *Engine) fieldChangedLocked(c models.FieldChange) {
	_, n := e.find(c.NoteID)
	if n != nil && c.Version != 0 && c.Version < n.note.Version {
		return
	}
	if c.NoteID == e.active {
		setPreservingCaret(e.fieldFor(c.Field), c.Value)
	}
	if n != nil {
		if c.Field == models.FieldTitle {
			n.note.Title = c.Value
		} else {
			n.note.Content = c.Value
		}
		if c.Version > n.note.Version {
			n.note.Version = c.Version
		}
	}
	if c.Field == models.FieldTitle {
		e.render()
	}
}

func (e *Engine) noteUpdatedLocked(note models.Note) {
	_, n := e.find(note.ID)
	if n == nil {
		return
	}
	if note.Version != 0 && note.Version < n.note.Version {
		return
	}
	if n.saving() {
		if n.held == nil || note.Version >= n.held.Version {
			held := note
			n.held = &held
		}
		return
	}
	e.applyNoteLocked(n, note)
}

type nopSidebar struct{}

func (nopSidebar) Render([]models.Note, int) {}
