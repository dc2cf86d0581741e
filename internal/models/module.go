package models

// ModuleKind tags the variants of Module.
type ModuleKind string

const (
	KindText   ModuleKind = ModuleTypeText
	KindImages ModuleKind = ModuleTypeImages
)

// Module is a chunk-aligned content stream. Implemented by *TextModule and *ImagesModule.
type Module interface {
	Key() string
	Kind() ModuleKind
	ChunkCount() int
}

// TextModule holds paragraphs per chunk and one opaque editor state per chunk.
type TextModule struct {
	ModuleKey    string     `json:"key"`
	Chunks       [][]string `json:"chunks"`
	EditorStates []string   `json:"editorStates"`
}

func (m *TextModule) Key() string      { return m.ModuleKey }
func (m *TextModule) Kind() ModuleKind { return KindText }
func (m *TextModule) ChunkCount() int  { return len(m.Chunks) }

func (m TextModule) clone() TextModule {
	out := TextModule{ModuleKey: m.ModuleKey, EditorStates: cloneStrings(m.EditorStates)}
	if m.Chunks != nil {
		out.Chunks = make([][]string, len(m.Chunks))
		for i, c := range m.Chunks {
			out.Chunks[i] = cloneStrings(c)
		}
	}
	return out
}

// ImagesModule holds the visuals attached to each chunk.
type ImagesModule struct {
	ModuleKey string     `json:"key"`
	Chunks    [][]Visual `json:"chunks"`
}

func (m *ImagesModule) Key() string      { return m.ModuleKey }
func (m *ImagesModule) Kind() ModuleKind { return KindImages }
func (m *ImagesModule) ChunkCount() int  { return len(m.Chunks) }

func (m ImagesModule) clone() ImagesModule {
	out := ImagesModule{ModuleKey: m.ModuleKey}
	if m.Chunks != nil {
		out.Chunks = make([][]Visual, len(m.Chunks))
		for i, c := range m.Chunks {
			if c != nil {
				out.Chunks[i] = append([]Visual(nil), c...)
			}
		}
	}
	return out
}

// Module resolves key to its text or images module. The returned pointer aliases the
// snapshot and must be treated as read-only.
func (b *Binder) Module(key string) (Module, error) {
	if i, err := b.TextModuleIndex(key); err == nil {
		return &b.Modules.Text.Chunked[i], nil
	}
	if i, err := b.ImagesModuleIndex(key); err == nil {
		return &b.Modules.Images.Chunked[i], nil
	}
	return nil, &ModuleNotFoundError{Key: key}
}

// TextModuleIndex returns the position of the text module with the given key.
func (b *Binder) TextModuleIndex(key string) (int, error) {
	for i := range b.Modules.Text.Chunked {
		if b.Modules.Text.Chunked[i].ModuleKey == key {
			return i, nil
		}
	}
	return -1, &ModuleNotFoundError{Key: key}
}

// ImagesModuleIndex returns the position of the images module with the given key.
func (b *Binder) ImagesModuleIndex(key string) (int, error) {
	for i := range b.Modules.Images.Chunked {
		if b.Modules.Images.Chunked[i].ModuleKey == key {
			return i, nil
		}
	}
	return -1, &ModuleNotFoundError{Key: key}
}
