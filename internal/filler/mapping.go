package filler

import "medintake/internal/schema"

// Mapping maps schema field names to AcroForm field names on the target
// template. It is static configuration resolved at startup, never inferred
// from document content.
type Mapping map[string]string

// DefaultMapping maps every schema field to an identically named template
// field. Deployments using templates with different field names override
// entries through configuration.
func DefaultMapping(s *schema.Schema) Mapping {
	m := make(Mapping, s.Len())
	for _, f := range s.Fields() {
		m[f.Name] = f.Name
	}
	return m
}

// WithOverrides returns a copy of the mapping with the given overrides
// applied. Override keys must be schema field names; unknown keys are
// ignored.
func (m Mapping) WithOverrides(s *schema.Schema, overrides map[string]string) Mapping {
	out := make(Mapping, len(m))
	for k, v := range m {
		out[k] = v
	}
	for k, v := range overrides {
		if _, ok := s.Lookup(k); ok {
			out[k] = v
		}
	}
	return out
}
