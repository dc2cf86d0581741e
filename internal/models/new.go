package models

// Default module keys used by NewBinder.
const (
	DefaultTextModuleKey   = "t1"
	DefaultImagesModuleKey = "i1"
)

// NewBinder builds a current-format binder with one language, one text module and
// one images module. Each element of chunks becomes a text chunk with an empty editor
// state and no visuals.
func NewBinder(id, languageCode, title string, chunks ...[]string) *Binder {
	text := TextModule{
		ModuleKey:    DefaultTextModuleKey,
		Chunks:       make([][]string, len(chunks)),
		EditorStates: make([]string, len(chunks)),
	}
	images := ImagesModule{
		ModuleKey: DefaultImagesModuleKey,
		Chunks:    make([][]Visual, len(chunks)),
	}
	for i, c := range chunks {
		text.Chunks[i] = cloneStrings(c)
		if text.Chunks[i] == nil {
			text.Chunks[i] = []string{}
		}
		images.Chunks[i] = []Visual{}
	}
	return &Binder{
		ID:             id,
		BindersVersion: CurrentBindersVersion,
		Languages: []Language{{
			ISO639_1:   languageCode,
			Title:      title,
			ModuleKeys: []string{DefaultTextModuleKey},
			Priority:   0,
		}},
		Modules: Modules{
			Meta: []ModuleMeta{
				{Key: DefaultTextModuleKey, Type: ModuleTypeText, Format: "chunked", Markup: "richtext"},
				{Key: DefaultImagesModuleKey, Type: ModuleTypeImages, Format: "chunked"},
			},
			Text:   TextModules{Chunked: []TextModule{text}},
			Images: ImageModules{Chunked: []ImagesModule{images}},
		},
	}
}
