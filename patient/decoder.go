package patient

import (
	"github.com/chararch/patientbatch/file"
	"github.com/pkg/errors"
)

// LineDecoder maps one delimited line to a PatientRecord by position
type LineDecoder struct {
	Tokenizer file.LineTokenizer
}

// NewLineDecoder decoder splitting on delimiter, quote 0 disables quoting
func NewLineDecoder(delimiter string, quote rune) *LineDecoder {
	return &LineDecoder{Tokenizer: &file.DelimitedLineTokenizer{Delimiter: delimiter, QuoteCharacter: quote}}
}

// Decode fails unless the line has exactly FieldCount fields, field values are not validated
func (d *LineDecoder) Decode(line string) (PatientRecord, error) {
	var record PatientRecord
	fs, err := d.Tokenizer.Tokenize(line)
	if err != nil {
		return record, err
	}
	if fs.Len() != FieldCount {
		return record, errors.Errorf("incorrect number of fields, expected:%d, actual:%d", FieldCount, fs.Len())
	}
	for i := 0; i < FieldCount; i++ {
		if record.fields[i], err = fs.ReadString(i); err != nil {
			return PatientRecord{}, err
		}
	}
	return record, nil
}

// MapLine implements file.LineMapper
func (d *LineDecoder) MapLine(line string, lineNumber int64) (interface{}, error) {
	record, err := d.Decode(line)
	if err != nil {
		return nil, err
	}
	return record, nil
}
