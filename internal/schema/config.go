package schema

// ConfigKey is the asset config entry holding a field schema.
const ConfigKey = "schema"

// FromConfig reads the field schema stored in an asset's config. Entries
// that are not records or lack a key are skipped. Fields accept incoming
// connections unless the entry says otherwise.
func FromConfig(cfg map[string]any) Fields {
	switch raw := cfg[ConfigKey].(type) {
	case Fields:
		return raw
	case []Field:
		return Fields(raw)
	case []any:
		fields := make(Fields, 0, len(raw))
		for _, item := range raw {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if f, ok := fieldFromMap(m); ok {
				fields = append(fields, f)
			}
		}
		return fields
	default:
		return nil
	}
}

// ToConfig renders fields in the JSON-friendly shape FromConfig reads.
func ToConfig(fs Fields) []any {
	out := make([]any, 0, len(fs))
	for _, f := range fs {
		m := map[string]any{
			"key":        f.Key,
			"type":       string(f.Type),
			"connection": map[string]any{"input": f.Connection.Input, "output": f.Connection.Output},
		}
		if f.Label != "" {
			m["label"] = f.Label
		}
		if f.Required {
			m["required"] = true
		}
		if f.Default != nil {
			m["default"] = f.Default
		}
		if len(f.RequiredKeys) > 0 {
			keys := make([]any, len(f.RequiredKeys))
			for i, k := range f.RequiredKeys {
				keys[i] = k
			}
			m["requiredKeys"] = keys
		}
		out = append(out, m)
	}
	return out
}

func fieldFromMap(m map[string]any) (Field, bool) {
	key, _ := m["key"].(string)
	if key == "" {
		return Field{}, false
	}
	f := Field{
		Key:        key,
		Type:       TypeAny,
		Default:    m["default"],
		Connection: Connection{Input: true},
	}
	if s, ok := m["label"].(string); ok {
		f.Label = s
	}
	if s, ok := m["type"].(string); ok {
		f.Type = ParseFieldType(s)
	}
	if b, ok := m["required"].(bool); ok {
		f.Required = b
	}
	if keys, ok := m["requiredKeys"].([]any); ok {
		for _, k := range keys {
			if s, ok := k.(string); ok {
				f.RequiredKeys = append(f.RequiredKeys, s)
			}
		}
	}
	if conn, ok := m["connection"].(map[string]any); ok {
		f.Connection.Input, _ = conn["input"].(bool)
		f.Connection.Output, _ = conn["output"].(bool)
	}
	return f, true
}
