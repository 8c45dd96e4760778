package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func surveyTree() []Field {
	return []Field{
		NewField("a1", "site_name", TextField),
		NewField("s1", "details", Section,
			NewField("a2", "plant_type", ChoiceField),
			NewField("r1", "stands", Repeatable,
				NewField("c1", "stand_number", TextField),
				NewField("s2", "stand_extra", Section,
					NewField("c2", "stand_photos", PhotoField),
				),
			),
		),
		NewField("a3", "site_address", AddressField),
	}
}

func TestFlatten(t *testing.T) {
	got := DataNames(Flatten(surveyTree()))

	assert.Equal(t, []string{
		"site_name", "plant_type", "stands", "stand_number", "stand_photos", "site_address",
	}, got)
}

func TestFlatten_Idempotent(t *testing.T) {
	tree := surveyTree()

	assert.Equal(t, Flatten(tree), Flatten(tree))
}

func TestFlatten_Deduplicates(t *testing.T) {
	f := NewField("a1", "site_name", TextField)

	got := Flatten([]Field{f, f})

	assert.Len(t, got, 1)
}

func TestLeaves_DropsRepeatables(t *testing.T) {
	for _, f := range Leaves(surveyTree()) {
		assert.NotEqual(t, Repeatable, f.Type, f.DataName)
	}
}

func TestScope(t *testing.T) {
	tree := surveyTree()

	assert.Equal(t, []string{"site_name", "plant_type", "stands", "site_address"}, DataNames(Scope(tree)))

	stands := Scope(tree)[2]
	require.Equal(t, Repeatable, stands.Type)
	assert.Equal(t, []string{"stand_number", "stand_photos"}, DataNames(Scope(stands.Elements)))
}

func TestFindKey(t *testing.T) {
	key, ok := FindKey(surveyTree(), "stand_photos")
	assert.True(t, ok)
	assert.Equal(t, "c2", key)

	_, ok = FindKey(surveyTree(), "missing")
	assert.False(t, ok)
}

func TestCheckDuplicates(t *testing.T) {
	require.NoError(t, CheckDuplicates(surveyTree()))

	tree := append(surveyTree(), NewField("zz", "stand_number", TextField))
	err := CheckDuplicates(tree)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateDataName))
	assert.Contains(t, err.Error(), "stand_number")

	tree = append(surveyTree(), NewField("a1", "another", TextField))
	err = CheckDuplicates(tree)
	assert.True(t, errors.Is(err, ErrDuplicateKey))
}

func TestParseFieldType(t *testing.T) {
	tests := []struct {
		name string
		want FieldType
	}{
		{"Section", Section},
		{"Repeatable", Repeatable},
		{"ClassificationField", ClassificationField},
		{"RecordLinkField", RecordLinkField},
		{"DateField", Unknown},
		{"", Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseFieldType(tt.name))
		})
	}
}

func TestParseForm(t *testing.T) {
	data := []byte(`{"form": {"id": "f-1", "name": "Survey", "elements": [
		{"key": "a1", "data_name": "site_name", "type": "TextField"},
		{"key": "s1", "data_name": "sec", "type": "Section", "elements": [
			{"key": "a2", "data_name": "depth_m", "type": "TextField", "format": "decimal"},
			{"key": "a3", "data_name": "when", "type": "DateTimeField"}
		]}
	]}}`)

	form, err := ParseForm(data)
	require.NoError(t, err)
	assert.Equal(t, "f-1", form.ID)
	assert.Equal(t, "Survey", form.Name)

	flat := Flatten(form.Elements)
	require.Len(t, flat, 3)
	assert.Equal(t, TextField, flat[0].Type)
	assert.Equal(t, FormatDecimal, flat[1].Format)
	assert.Equal(t, Unknown, flat[2].Type)
	assert.Equal(t, "DateTimeField", flat[2].TypeName)

	bare, err := ParseForm([]byte(`{"id": "f-2", "name": "Bare", "elements": []}`))
	require.NoError(t, err)
	assert.Equal(t, "f-2", bare.ID)
}
