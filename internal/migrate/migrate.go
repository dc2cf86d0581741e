// Package migrate reads binder JSON of any supported bindersVersion and upgrades it to
// the current format.
package migrate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/hyperjump/binders/internal/models"
	"golang.org/x/mod/semver"
)

// Versions this package understands.
const (
	V030 = "0.3.0"
	V040 = "0.4.0"
)

var (
	// ErrUnsupportedVersion is returned for a bindersVersion outside [V030, V040].
	ErrUnsupportedVersion = errors.New("unsupported bindersVersion")
	// ErrInvalidDocument is returned for input that is not a well-formed binder.
	ErrInvalidDocument = errors.New("invalid binder document")
)

// Defaults fills the visual fields that 0.3.0 documents do not carry.
type Defaults struct {
	FitBehaviour string
	BgColor      string
}

// DefaultVisual returns the defaults used when none are configured.
func DefaultVisual() Defaults {
	return Defaults{FitBehaviour: "fit", BgColor: "transparent"}
}

func (d Defaults) withFallbacks() Defaults {
	def := DefaultVisual()
	if d.FitBehaviour == "" {
		d.FitBehaviour = def.FitBehaviour
	}
	if d.BgColor == "" {
		d.BgColor = def.BgColor
	}
	return d
}

// rawBinder mirrors models.Binder but leaves visuals undecoded, since a 0.3.0 visual
// is a bare URL string.
type rawBinder struct {
	ID             string            `json:"id"`
	BindersVersion string            `json:"bindersVersion"`
	Languages      []models.Language `json:"languages"`
	Modules        struct {
		Meta   []models.ModuleMeta `json:"meta"`
		Text   models.TextModules  `json:"text"`
		Images struct {
			Chunked []struct {
				ModuleKey string              `json:"key"`
				Chunks    [][]json.RawMessage `json:"chunks"`
			} `json:"chunked"`
		} `json:"images"`
	} `json:"modules"`
	Log []models.LogEntry `json:"log"`
}

// Version returns the bindersVersion of a JSON document without decoding the rest.
// A missing version is reported as V030.
func Version(data []byte) (string, error) {
	var head struct {
		BindersVersion string `json:"bindersVersion"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return "", fmt.Errorf("%w: read bindersVersion: %w", ErrInvalidDocument, err)
	}
	if head.BindersVersion == "" {
		return V030, nil
	}
	return head.BindersVersion, nil
}

// NeedsUpgrade reports whether version is older than the current format.
func NeedsUpgrade(version string) bool {
	return semver.Compare(canonical(version), canonical(models.CurrentBindersVersion)) < 0
}

func canonical(version string) string {
	v := strings.TrimSpace(version)
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}

func checkVersion(version string) error {
	v := canonical(version)
	if !semver.IsValid(v) {
		return fmt.Errorf("%w: %q", ErrUnsupportedVersion, version)
	}
	if semver.Compare(v, canonical(V030)) < 0 || semver.Compare(v, canonical(V040)) > 0 {
		return fmt.Errorf("%w: %s", ErrUnsupportedVersion, version)
	}
	return nil
}

// ConstructV040Binder decodes a 0.3.0 or 0.4.0 binder and returns it in 0.4.0 form.
// Image chunks given as bare URL strings become visuals with the configured fit and
// background; visual objects get missing fields filled the same way. Text modules
// without editor states get empty ones. Running it on its own output is a no-op.
func ConstructV040Binder(data []byte, defaults Defaults) (*models.Binder, error) {
	version, err := Version(data)
	if err != nil {
		return nil, err
	}
	if err := checkVersion(version); err != nil {
		return nil, err
	}
	var raw rawBinder
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	defaults = defaults.withFallbacks()

	b := &models.Binder{
		ID:             raw.ID,
		BindersVersion: V040,
		Languages:      raw.Languages,
		Log:            raw.Log,
	}
	b.Modules.Meta = raw.Modules.Meta
	b.Modules.Text = raw.Modules.Text
	for i := range b.Modules.Text.Chunked {
		m := &b.Modules.Text.Chunked[i]
		for len(m.EditorStates) < len(m.Chunks) {
			m.EditorStates = append(m.EditorStates, "")
		}
	}
	for _, rm := range raw.Modules.Images.Chunked {
		m := models.ImagesModule{ModuleKey: rm.ModuleKey, Chunks: make([][]models.Visual, len(rm.Chunks))}
		for ci, chunk := range rm.Chunks {
			m.Chunks[ci] = make([]models.Visual, 0, len(chunk))
			for vi, item := range chunk {
				v, err := decodeVisual(item, defaults)
				if err != nil {
					return nil, fmt.Errorf("%w: images module %s chunk %d visual %d: %w", ErrInvalidDocument, rm.ModuleKey, ci, vi, err)
				}
				m.Chunks[ci] = append(m.Chunks[ci], v)
			}
		}
		b.Modules.Images.Chunked = append(b.Modules.Images.Chunked, m)
	}
	return b, nil
}

func decodeVisual(item json.RawMessage, defaults Defaults) (models.Visual, error) {
	item = bytes.TrimSpace(item)
	if len(item) > 0 && item[0] == '"' {
		var url string
		if err := json.Unmarshal(item, &url); err != nil {
			return models.Visual{}, err
		}
		return models.Visual{URL: url, FitBehaviour: defaults.FitBehaviour, BgColor: defaults.BgColor}, nil
	}
	var v models.Visual
	if err := json.Unmarshal(item, &v); err != nil {
		return models.Visual{}, err
	}
	if v.FitBehaviour == "" {
		v.FitBehaviour = defaults.FitBehaviour
	}
	if v.BgColor == "" {
		v.BgColor = defaults.BgColor
	}
	return v, nil
}

// Decode reads binder JSON of any supported version, upgrades it, and validates the
// result. A binder without an id gets fallbackID. upgraded reports whether the input
// was older than the current format.
func Decode(data []byte, defaults Defaults, fallbackID string) (b *models.Binder, upgraded bool, err error) {
	version, err := Version(data)
	if err != nil {
		return nil, false, err
	}
	b, err = ConstructV040Binder(data, defaults)
	if err != nil {
		return nil, false, err
	}
	if b.ID == "" {
		b.ID = fallbackID
	}
	if err := b.Validate(); err != nil {
		return nil, false, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	return b, NeedsUpgrade(version), nil
}

// Encode writes b as indented JSON.
func Encode(b *models.Binder) ([]byte, error) {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode binder: %w", err)
	}
	return data, nil
}

// Upgrade rewrites binder JSON in the current format. It is idempotent.
func Upgrade(data []byte, defaults Defaults) ([]byte, error) {
	b, err := ConstructV040Binder(data, defaults)
	if err != nil {
		return nil, err
	}
	return Encode(b)
}
