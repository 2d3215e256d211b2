package schema

// Values maps field ids to their string representation. Integers and
// booleans are stored as text ("8080", "true").
type Values map[string]string

// Clone returns an independent copy.
func (v Values) Clone() Values {
	out := make(Values, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}

// Equal reports whether both maps hold the same entries.
func (v Values) Equal(other Values) bool {
	if len(v) != len(other) {
		return false
	}
	for k, val := range v {
		if o, ok := other[k]; !ok || o != val {
			return false
		}
	}
	return true
}

// MergeDefaults yields one entry per schema field: the persisted value when
// present, else the field default, else "". Keys unknown to the schema are
// dropped.
func MergeDefaults(persisted Values, s Schema) Values {
	out := make(Values)
	for _, f := range s.Fields() {
		if v, ok := persisted[f.ID]; ok {
			out[f.ID] = v
			continue
		}
		out[f.ID] = f.Default
	}
	return out
}

// SecretValues returns the non-empty values of password fields.
func SecretValues(values Values, s Schema) []string {
	var out []string
	for _, f := range s.Fields() {
		if f.Type != TypePassword {
			continue
		}
		if v := values[f.ID]; v != "" {
			out = append(out, v)
		}
	}
	return out
}
