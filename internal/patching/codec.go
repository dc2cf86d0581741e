package patching

import (
	"encoding/json"
	"fmt"
)

// Envelope is the wire form of a patch: its kind plus the variant's JSON.
type Envelope struct {
	Kind Kind            `json:"kind"`
	Data json.RawMessage `json:"data"`
}

type compositeData struct {
	Patches []Envelope `json:"patches"`
}

// MarshalPatch encodes p as an Envelope.
func MarshalPatch(p Patch) ([]byte, error) {
	env, err := ToEnvelope(p)
	if err != nil {
		return nil, err
	}
	return json.Marshal(env)
}

// UnmarshalPatch decodes an Envelope produced by MarshalPatch.
func UnmarshalPatch(data []byte) (Patch, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode patch envelope: %w", err)
	}
	return FromEnvelope(env)
}

// ToEnvelope wraps p. Composites nest their sub-patches as envelopes.
func ToEnvelope(p Patch) (Envelope, error) {
	if p == nil {
		return Envelope{}, fmt.Errorf("encode patch: nil patch")
	}
	var (
		data []byte
		err  error
	)
	switch v := p.(type) {
	case CompositePatch:
		cd := compositeData{Patches: make([]Envelope, 0, len(v.Patches))}
		for _, sub := range v.Patches {
			env, subErr := ToEnvelope(sub)
			if subErr != nil {
				return Envelope{}, subErr
			}
			cd.Patches = append(cd.Patches, env)
		}
		data, err = json.Marshal(cd)
	case *CompositePatch:
		return ToEnvelope(*v)
	default:
		data, err = json.Marshal(p)
	}
	if err != nil {
		return Envelope{}, fmt.Errorf("encode %s patch: %w", p.Kind(), err)
	}
	return Envelope{Kind: p.Kind(), Data: data}, nil
}

// FromEnvelope rebuilds the patch variant named by env.Kind.
func FromEnvelope(env Envelope) (Patch, error) {
	switch env.Kind {
	case KindChunkText:
		var p ChunkTextPatch
		return decodeVariant(env, &p, func() Patch { return p })
	case KindInjectChunk:
		var p InjectChunkPatch
		return decodeVariant(env, &p, func() Patch { return p })
	case KindMergeChunks:
		var p MergeChunksPatch
		return decodeVariant(env, &p, func() Patch { return p })
	case KindMetaTimestamp:
		var p MetaTimestampPatch
		return decodeVariant(env, &p, func() Patch { return p })
	case KindLogUpdate:
		var p LogUpdatePatch
		return decodeVariant(env, &p, func() Patch { return p })
	case KindComposite:
		var cd compositeData
		if err := json.Unmarshal(env.Data, &cd); err != nil {
			return nil, fmt.Errorf("decode composite patch: %w", err)
		}
		subs := make([]Patch, 0, len(cd.Patches))
		for _, sub := range cd.Patches {
			p, err := FromEnvelope(sub)
			if err != nil {
				return nil, err
			}
			subs = append(subs, p)
		}
		return CompositePatch{Patches: subs}, nil
	default:
		return nil, fmt.Errorf("unknown patch kind %q", env.Kind)
	}
}

func decodeVariant(env Envelope, target any, value func() Patch) (Patch, error) {
	if len(env.Data) == 0 {
		return nil, fmt.Errorf("decode %s patch: missing data", env.Kind)
	}
	if err := json.Unmarshal(env.Data, target); err != nil {
		return nil, fmt.Errorf("decode %s patch: %w", env.Kind, err)
	}
	return value(), nil
}
