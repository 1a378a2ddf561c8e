package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

type EventName string

// Sent from client to server.
const (
	EventTitleChange   EventName = "note-title-change"
	EventContentChange EventName = "note-content-change"
)

// Sent from server to clients.
const (
	EventTitleChanged   EventName = "note-title-changed"
	EventContentChanged EventName = "note-content-changed"
	EventNoteCreated    EventName = "note-created"
	EventNoteUpdated    EventName = "note-updated"
	EventNoteDeleted    EventName = "note-deleted"
)

var (
	ErrUnknownEvent   = errors.New("unknown event")
	ErrInvalidPayload = errors.New("invalid payload")
)

// Envelope is the frame exchanged on the realtime channel.
type Envelope struct {
	Event EventName       `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// NoteID decodes from either a JSON number or a numeric string.
type NoteID int

func (id *NoteID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return fmt.Errorf("%w: null note id", ErrInvalidPayload)
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		b = []byte(s)
	}
	n, err := strconv.Atoi(string(b))
	if err != nil {
		return fmt.Errorf("%w: note id %q", ErrInvalidPayload, b)
	}
	*id = NoteID(n)
	return nil
}

type fieldPayload struct {
	NoteID  *NoteID `json:"noteId"`
	Title   *string `json:"title,omitempty"`
	Content *string `json:"content,omitempty"`
	Version uint64  `json:"version,omitempty"`
}

type deletedPayload struct {
	NoteID *NoteID `json:"noteId"`
}

// Event is one decoded server-to-client message.
type Event interface {
	Name() EventName
}

type FieldChanged struct{ Change FieldChange }
type NoteCreated struct{ Note Note }
type NoteUpdated struct{ Note Note }
type NoteDeleted struct{ ID int }

func (e FieldChanged) Name() EventName {
	if e.Change.Field == FieldTitle {
		return EventTitleChanged
	}
	return EventContentChanged
}

func (NoteCreated) Name() EventName { return EventNoteCreated }
func (NoteUpdated) Name() EventName { return EventNoteUpdated }
func (NoteDeleted) Name() EventName { return EventNoteDeleted }

func encode(name EventName, data interface{}) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: name, Data: raw})
}

func changePayload(c FieldChange, withVersion bool) fieldPayload {
	id := NoteID(c.NoteID)
	p := fieldPayload{NoteID: &id}
	value := c.Value
	if c.Field == FieldTitle {
		p.Title = &value
	} else {
		p.Content = &value
	}
	if withVersion {
		p.Version = c.Version
	}
	return p
}

// EncodeFieldChange builds a client-to-server live edit frame.
func EncodeFieldChange(c FieldChange) ([]byte, error) {
	if !c.Field.Valid() {
		return nil, fmt.Errorf("%w: field %q", ErrInvalidPayload, c.Field)
	}
	name := EventContentChange
	if c.Field == FieldTitle {
		name = EventTitleChange
	}
	return encode(name, changePayload(c, false))
}

// EncodeEvent builds a server-to-client frame.
func EncodeEvent(e Event) ([]byte, error) {
	switch ev := e.(type) {
	case FieldChanged:
		if !ev.Change.Field.Valid() {
			return nil, fmt.Errorf("%w: field %q", ErrInvalidPayload, ev.Change.Field)
		}
		return encode(ev.Name(), changePayload(ev.Change, true))
	case NoteCreated:
		return encode(EventNoteCreated, ev.Note)
	case NoteUpdated:
		return encode(EventNoteUpdated, ev.Note)
	case NoteDeleted:
		id := NoteID(ev.ID)
		return encode(EventNoteDeleted, deletedPayload{NoteID: &id})
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownEvent, e)
	}
}

func unwrap(msg []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(msg, &env); err != nil {
		return env, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if len(env.Data) == 0 {
		return env, fmt.Errorf("%w: missing data for %q", ErrInvalidPayload, env.Event)
	}
	return env, nil
}

func decodeChange(data json.RawMessage, field Field) (FieldChange, error) {
	var p fieldPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return FieldChange{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if p.NoteID == nil {
		return FieldChange{}, fmt.Errorf("%w: missing noteId", ErrInvalidPayload)
	}
	value := p.Content
	if field == FieldTitle {
		value = p.Title
	}
	if value == nil {
		return FieldChange{}, fmt.Errorf("%w: missing %s", ErrInvalidPayload, field)
	}
	return FieldChange{NoteID: int(*p.NoteID), Field: field, Value: *value, Version: p.Version}, nil
}

// DecodeFieldChange parses and validates a client-to-server frame.
func DecodeFieldChange(msg []byte) (FieldChange, error) {
	env, err := unwrap(msg)
	if err != nil {
		return FieldChange{}, err
	}
	switch env.Event {
	case EventTitleChange:
		return decodeChange(env.Data, FieldTitle)
	case EventContentChange:
		return decodeChange(env.Data, FieldContent)
	default:
		return FieldChange{}, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Event)
	}
}

func decodeNote(data json.RawMessage) (Note, error) {
	var n struct {
		ID      *NoteID `json:"id"`
		Title   string  `json:"title"`
		Content string  `json:"content"`
		Version uint64  `json:"version"`
	}
	if err := json.Unmarshal(data, &n); err != nil {
		return Note{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if n.ID == nil {
		return Note{}, fmt.Errorf("%w: missing id", ErrInvalidPayload)
	}
	return Note{ID: int(*n.ID), Title: n.Title, Content: n.Content, Version: n.Version}, nil
}

// DecodeEvent parses and validates a server-to-client frame. A deletion may
// carry either {"noteId": id} or the bare id.
func DecodeEvent(msg []byte) (Event, error) {
	env, err := unwrap(msg)
	if err != nil {
		return nil, err
	}
	switch env.Event {
	case EventTitleChanged:
		c, err := decodeChange(env.Data, FieldTitle)
		return FieldChanged{Change: c}, err
	case EventContentChanged:
		c, err := decodeChange(env.Data, FieldContent)
		return FieldChanged{Change: c}, err
	case EventNoteCreated:
		n, err := decodeNote(env.Data)
		return NoteCreated{Note: n}, err
	case EventNoteUpdated:
		n, err := decodeNote(env.Data)
		return NoteUpdated{Note: n}, err
	case EventNoteDeleted:
		var bare NoteID
		if err := json.Unmarshal(env.Data, &bare); err == nil {
			return NoteDeleted{ID: int(bare)}, nil
		}
		var p deletedPayload
		if err := json.Unmarshal(env.Data, &p); err != nil || p.NoteID == nil {
			return nil, fmt.Errorf("%w: note-deleted without noteId", ErrInvalidPayload)
		}
		return NoteDeleted{ID: int(*p.NoteID)}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Event)
	}
}
