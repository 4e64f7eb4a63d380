package telemetry

import "time"

// Field is a parsed integer field that may be absent from a line.
type Field struct {
	Value int
	Valid bool
}

// Record is one decoded telemetry line. Producers emit cardiac and
// conductance lines independently, so any subset of the fields may be
// present; a consumer must not assume a line carries both record types.
type Record struct {
	Timestamp time.Time

	// Cardiac line fields.
	Raw  Field
	BPM  Field
	Beat Field

	// Conductance line fields.
	Filtered Field // Value2
	Signal   Field // Value4
	Contact  Field
}

// HasCardiac reports whether any cardiac field is present.
func (r Record) HasCardiac() bool {
	return r.Raw.Valid || r.BPM.Valid || r.Beat.Valid
}

// HasConductance reports whether any conductance field is present.
func (r Record) HasConductance() bool {
	return r.Filtered.Valid || r.Signal.Valid || r.Contact.Valid
}
