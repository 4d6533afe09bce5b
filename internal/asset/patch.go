package asset

// Patch is a declarative change to one asset. Value replaces the whole value
// when SetValue is true; Fields are merged into a record value. The value
// type is deliberately absent.
type Patch struct {
	ID       string
	SetValue bool
	Value    any
	Fields   map[string]any
	Meta     map[string]any
	Config   map[string]any
}

// IsEmpty reports whether applying the patch would change nothing.
func (p Patch) IsEmpty() bool {
	return !p.SetValue && len(p.Fields) == 0 && len(p.Meta) == 0 && len(p.Config) == 0
}

// Merge folds other into p so several hook results become a single write.
// Later field values win.
func (p Patch) Merge(other Patch) Patch {
	out := p
	if other.SetValue {
		out.SetValue = true
		out.Value = other.Value
		out.Fields = nil
	}
	out.Fields = mergeInto(out.Fields, other.Fields)
	out.Meta = mergeInto(out.Meta, other.Meta)
	out.Config = mergeInto(out.Config, other.Config)
	return out
}

// Apply returns a copy of a with the patch applied.
func Apply(a Asset, p Patch) Asset {
	out := a.Clone()
	if p.SetValue {
		out.Value = DeepCopy(p.Value)
	}
	if len(p.Fields) > 0 {
		rec, ok := out.Value.(map[string]any)
		if !ok {
			rec = make(map[string]any, len(p.Fields))
		}
		for k, v := range p.Fields {
			rec[k] = DeepCopy(v)
		}
		out.Value = rec
	}
	out.ValueMeta = mergeInto(out.ValueMeta, p.Meta)
	out.Config = mergeInto(out.Config, p.Config)
	return out
}

func mergeInto(dst, src map[string]any) map[string]any {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(map[string]any, len(src))
	} else {
		dst = copyMap(dst)
	}
	for k, v := range src {
		dst[k] = DeepCopy(v)
	}
	return dst
}
