package client

import "sync"

// Field is an in-memory CaretField for headless clients. Offsets count runes.
// Like a browser input, assigning a value moves the caret to the end.
type Field struct {
	mu    sync.Mutex
	value []rune
	caret int
}

func NewField(v string) *Field {
	f := &Field{}
	f.SetValue(v)
	return f
}

func (f *Field) Value() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return string(f.value)
}

func (f *Field) SetValue(v string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.value = []rune(v)
	f.caret = len(f.value)
}

func (f *Field) Caret() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.caret
}

func (f *Field) SetCaret(pos int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if pos < 0 {
		pos = 0
	}
	if pos > len(f.value) {
		pos = len(f.value)
	}
	f.caret = pos
}

// Insert types s at the caret.
func (f *Field) Insert(s string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r := []rune(s)
	v := make([]rune, 0, len(f.value)+len(r))
	v = append(v, f.value[:f.caret]...)
	v = append(v, r...)
	v = append(v, f.value[f.caret:]...)
	f.value = v
	f.caret += len(r)
}
