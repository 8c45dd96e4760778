package schema

import (
	"encoding/json"
)

//go:generate go tool stringer -type=FieldType -output=fieldtype_string.go

// FieldType is the element type of a form field. The String form of every
// known value is the type name used on the wire.
type FieldType int

const (
	Unknown FieldType = iota // any type the reconciler has no special handling for
	Section
	Repeatable
	TextField
	ChoiceField
	ClassificationField
	AddressField
	PhotoField
	AudioField
	VideoField
	SignatureField
	RecordLinkField

	fieldTypeCount = int(iota)
)

// Format values of a TextField that carry numeric content.
const (
	FormatDecimal = "decimal"
	FormatInteger = "integer"
)

var fieldTypesByName = func() map[string]FieldType {
	m := make(map[string]FieldType, fieldTypeCount)
	for i := 1; i < fieldTypeCount; i++ {
		m[FieldType(i).String()] = FieldType(i)
	}

	return m
}()

// ParseFieldType maps a wire type name to its FieldType, or Unknown.
func ParseFieldType(name string) FieldType {
	if t, ok := fieldTypesByName[name]; ok {
		return t
	}

	return Unknown
}

// IsContainer reports whether fields of this type hold child elements.
func (t FieldType) IsContainer() bool {
	return t == Section || t == Repeatable
}

// IsMedia reports whether the type is one of the captioned attachment types.
func (t FieldType) IsMedia() bool {
	return t == PhotoField || t == AudioField || t == VideoField
}

// Field is one element of a form definition.
type Field struct {
	Key      string `json:"key"`
	DataName string `json:"data_name"`
	Label    string `json:"label,omitempty"`
	// TypeName is the raw type from the definition; Type is its parsed form.
	TypeName string    `json:"type"`
	Type     FieldType `json:"-"`
	Format   string    `json:"format,omitempty"`
	Elements []Field   `json:"elements,omitempty"`
}

// UnmarshalJSON decodes a field and resolves its FieldType.
func (f *Field) UnmarshalJSON(data []byte) error {
	type plain Field

	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}

	*f = Field(p)
	f.Type = ParseFieldType(f.TypeName)

	return nil
}

// NewField builds a field with a consistent Type and TypeName.
func NewField(key, dataName string, t FieldType, children ...Field) Field {
	return Field{
		Key:      key,
		DataName: dataName,
		TypeName: t.String(),
		Type:     t,
		Elements: children,
	}
}

// Form is a form definition: an identified, named tree of fields.
type Form struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Elements []Field `json:"elements"`
}
