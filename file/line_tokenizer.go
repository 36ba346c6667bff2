package file

import (
	"encoding/csv"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
)

//FieldSet the tokens of one line, in file order
type FieldSet []string

func (fs FieldSet) Len() int {
	return len(fs)
}

func (fs FieldSet) ReadString(i int) (string, error) {
	if i < 0 || i >= len(fs) {
		return "", errors.Errorf("field index:%v out of range, field count:%v", i, len(fs))
	}
	return fs[i], nil
}

type LineTokenizer interface {
	Tokenize(line string) (FieldSet, error)
}

//DelimitedLineTokenizer splits a line on Delimiter. When QuoteCharacter is set, quoted tokens may contain the delimiter;
//quoting supports '"' with a single-character delimiter.
type DelimitedLineTokenizer struct {
	Delimiter      string
	QuoteCharacter rune
}

func (t *DelimitedLineTokenizer) Tokenize(line string) (FieldSet, error) {
	delimiter := t.Delimiter
	if delimiter == "" {
		delimiter = ","
	}
	if t.QuoteCharacter == 0 {
		return strings.Split(line, delimiter), nil
	}
	if t.QuoteCharacter != '"' || utf8.RuneCountInString(delimiter) != 1 {
		return nil, errors.Errorf("unsupported quoting, delimiter:%q quote:%q", delimiter, t.QuoteCharacter)
	}
	if line == "" {
		return FieldSet{""}, nil
	}
	comma, _ := utf8.DecodeRuneInString(delimiter)
	r := csv.NewReader(strings.NewReader(line))
	r.Comma = comma
	r.LazyQuotes = true
	r.FieldsPerRecord = -1
	record, err := r.Read()
	if err == io.EOF {
		return FieldSet{""}, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "tokenize line")
	}
	return record, nil
}
