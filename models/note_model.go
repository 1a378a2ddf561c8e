package models

// DefaultTitle is the title every new note starts with.
const DefaultTitle = "New Note"

type Note struct {
	ID      int    `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Version uint64 `json:"version"`
}

// NotePatch is the body of a full update. A nil field was not sent.
type NotePatch struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

type Field string

const (
	FieldTitle   Field = "title"
	FieldContent Field = "content"
)

func (f Field) Valid() bool {
	return f == FieldTitle || f == FieldContent
}

// FieldChange is a single-field live edit.
type FieldChange struct {
	NoteID  int
	Field   Field
	Value   string
	Version uint64
}
