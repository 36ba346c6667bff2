package patient

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// FieldCount number of columns of a patient data row
const FieldCount = 13

// Field positions within a patient row
const (
	SourceID = iota
	FirstName
	MiddleInitial
	LastName
	EmailAddress
	PhoneNumber
	Street
	City
	State
	Zip
	BirthDate
	Action
	SSN
)

// FieldNames column names in row order, also used as sink column names
var FieldNames = [FieldCount]string{
	"source_id", "first_name", "middle_initial", "last_name", "email_address", "phone_number",
	"street", "city", "state", "zip", "birth_date", "action", "ssn",
}

// PatientRecord one decoded row of the patient file. Fields are raw strings exactly as tokenized.
// The zero value is a record with all fields empty.
type PatientRecord struct {
	fields [FieldCount]string
}

// NewPatientRecord builds a record from exactly FieldCount values in row order
func NewPatientRecord(fields ...string) (PatientRecord, error) {
	var r PatientRecord
	if len(fields) != FieldCount {
		return r, errors.Errorf("patient record requires %d fields, got %d", FieldCount, len(fields))
	}
	copy(r.fields[:], fields)
	return r, nil
}

func (r PatientRecord) SourceID() string      { return r.fields[SourceID] }
func (r PatientRecord) FirstName() string     { return r.fields[FirstName] }
func (r PatientRecord) MiddleInitial() string { return r.fields[MiddleInitial] }
func (r PatientRecord) LastName() string      { return r.fields[LastName] }
func (r PatientRecord) EmailAddress() string  { return r.fields[EmailAddress] }
func (r PatientRecord) PhoneNumber() string   { return r.fields[PhoneNumber] }
func (r PatientRecord) Street() string        { return r.fields[Street] }
func (r PatientRecord) City() string          { return r.fields[City] }
func (r PatientRecord) State() string         { return r.fields[State] }
func (r PatientRecord) Zip() string           { return r.fields[Zip] }
func (r PatientRecord) BirthDate() string     { return r.fields[BirthDate] }
func (r PatientRecord) Action() string        { return r.fields[Action] }
func (r PatientRecord) SSN() string           { return r.fields[SSN] }

// Field returns the value at position i, i must be in [0, FieldCount)
func (r PatientRecord) Field(i int) string {
	return r.fields[i]
}

// Fields returns a copy of all values in row order
func (r PatientRecord) Fields() []string {
	result := make([]string, FieldCount)
	copy(result, r.fields[:])
	return result
}

// Format serializes the record as one unquoted delimited line
func (r PatientRecord) Format(delimiter string) string {
	return strings.Join(r.fields[:], delimiter)
}

// String masks the ssn so records can be logged
func (r PatientRecord) String() string {
	ssn := r.SSN()
	if len(ssn) > 4 {
		ssn = strings.Repeat("*", len(ssn)-4) + ssn[len(ssn)-4:]
	}
	return fmt.Sprintf("PatientRecord{sourceId:%s, name:%s %s %s, action:%s, ssn:%s}", r.SourceID(), r.FirstName(), r.MiddleInitial(), r.LastName(), r.Action(), ssn)
}
