// Package schema defines the closed, versioned enumeration of medical form
// fields the pipeline extracts. Provider output is validated against this
// schema: unknown field names are dropped, values are coerced to the declared
// type, and dates are canonicalized to YYYY-MM-DD.
package schema

// FieldType is the declared type of a schema field.
type FieldType string

const (
	TypeString FieldType = "string"
	TypeBool   FieldType = "bool"
	TypeDate   FieldType = "date"
)

// Field is one entry in the closed schema enumeration.
type Field struct {
	Name        string
	Type        FieldType
	Description string
}

// Version identifies the current field enumeration.
const Version = "v1"

var v1Fields = []Field{
	// Patient demographics
	{"patient_first_name", TypeString, "patient's first (given) name"},
	{"patient_middle_name", TypeString, "patient's middle name or initial"},
	{"patient_last_name", TypeString, "patient's last (family) name"},
	{"date_of_birth", TypeDate, "patient's date of birth"},
	{"gender", TypeString, "patient's gender as written on the form"},
	{"ssn", TypeString, "social security number"},
	{"address_street", TypeString, "street address including apartment or unit"},
	{"address_city", TypeString, "city of residence"},
	{"address_state", TypeString, "state or province of residence"},
	{"address_zip", TypeString, "postal or ZIP code"},
	{"phone_home", TypeString, "home phone number, original formatting preserved"},
	{"phone_cell", TypeString, "cell phone number, original formatting preserved"},
	{"email", TypeString, "email address"},
	{"emergency_contact_name", TypeString, "emergency contact full name"},
	{"emergency_contact_phone", TypeString, "emergency contact phone number"},

	// Insurance
	{"insurance_provider", TypeString, "name of the insurance company"},
	{"insurance_policy_number", TypeString, "insurance policy or member number"},
	{"insurance_group_number", TypeString, "insurance group number"},

	// Medical history (free text)
	{"current_medications", TypeString, "medications currently taken, as written"},
	{"allergies", TypeString, "known allergies, as written"},
	{"chronic_conditions", TypeString, "chronic or ongoing conditions, as written"},

	// Visit
	{"visit_date", TypeDate, "date of the visit or appointment"},
	{"visit_reason", TypeString, "stated reason for the visit"},
	{"symptoms_description", TypeString, "narrative description of symptoms"},

	// Condition flags (checkboxes)
	{"has_diabetes", TypeBool, "diabetes checkbox"},
	{"has_hypertension", TypeBool, "hypertension / high blood pressure checkbox"},
	{"has_heart_disease", TypeBool, "heart disease checkbox"},
	{"has_asthma", TypeBool, "asthma checkbox"},
	{"is_smoker", TypeBool, "tobacco use checkbox"},
	{"is_pregnant", TypeBool, "pregnancy checkbox"},

	// Consent
	{"consent_to_treat", TypeBool, "consent to treatment checkbox"},
	{"hipaa_acknowledgment", TypeBool, "HIPAA privacy notice acknowledgment checkbox"},
	{"patient_signature_date", TypeDate, "date next to the patient's signature"},
}

// Schema is an immutable field enumeration. Instances are process-wide,
// read-only lookup tables, safe for concurrent use.
type Schema struct {
	version string
	fields  []Field
	index   map[string]Field
}

var v1 = newSchema(Version, v1Fields)

func newSchema(version string, fields []Field) *Schema {
	idx := make(map[string]Field, len(fields))
	for _, f := range fields {
		idx[f.Name] = f
	}
	return &Schema{version: version, fields: fields, index: idx}
}

// V1 returns the current schema.
func V1() *Schema {
	return v1
}

// Version returns the schema version identifier.
func (s *Schema) Version() string {
	return s.version
}

// Fields returns the fields in their declared order.
func (s *Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Lookup returns the field with the given name, if it is part of the schema.
func (s *Schema) Lookup(name string) (Field, bool) {
	f, ok := s.index[name]
	return f, ok
}

// Names returns all field names in declared order.
func (s *Schema) Names() []string {
	out := make([]string, len(s.fields))
	for i, f := range s.fields {
		out[i] = f.Name
	}
	return out
}

// Len returns the number of fields in the schema.
func (s *Schema) Len() int {
	return len(s.fields)
}
