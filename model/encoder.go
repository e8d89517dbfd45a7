package model

import (
	"strings"

	"github.com/pkg/errors"
)

// Encoder maps a closed set of labels to integer codes. The code of a label is its
// position in the class list.
type Encoder struct {
	field   string
	classes []string
	codes   map[string]int
}

// NewEncoder builds an encoder for field from the fitted class list.
func NewEncoder(field string, classes []string) (*Encoder, error) {
	if len(classes) == 0 {
		return nil, errors.Errorf("encoder %s has no classes", field)
	}
	codes := make(map[string]int, len(classes))
	for i, c := range classes {
		if _, ok := codes[c]; ok {
			return nil, errors.Errorf("encoder %s has duplicate class %q", field, c)
		}
		codes[c] = i
	}
	cp := make([]string, len(classes))
	copy(cp, classes)
	return &Encoder{field: field, classes: cp, codes: codes}, nil
}

// Field returns the request field this encoder serves.
func (e *Encoder) Field() string {
	return e.field
}

// Classes returns a copy of the known labels in code order.
func (e *Encoder) Classes() []string {
	cp := make([]string, len(e.classes))
	copy(cp, e.classes)
	return cp
}

// Encode returns the code for value. Values outside the vocabulary produce an
// *UnknownCategoryError; there is no fallback bucket.
func (e *Encoder) Encode(value string) (int, error) {
	if strings.TrimSpace(value) == "" {
		return 0, errors.Wrapf(ErrEmptyInput, "field %s", e.field)
	}
	code, ok := e.codes[value]
	if !ok {
		return 0, &UnknownCategoryError{Field: e.field, Value: value}
	}
	return code, nil
}
