package project

import (
	"encoding/json"

	"app-reconciler/internal/schema"
)

// Value is a projected field value.
type Value interface {
	// Empty reports whether the value carries nothing worth sending.
	Empty() bool
}

// Text is a plain string value.
type Text string

// Empty implements Value.
func (t Text) Empty() bool { return t == "" }

// Choice is the value of a choice or classification field.
type Choice struct {
	ChoiceValues []string `json:"choice_values"`
	OtherValues  []string `json:"other_values"`
}

// Empty implements Value.
func (c Choice) Empty() bool { return len(c.ChoiceValues) == 0 && len(c.OtherValues) == 0 }

// AddressComponents are the column suffixes of an address field, in export
// order.
var AddressComponents = []string{
	"sub_thoroughfare", "thoroughfare", "suite", "locality",
	"sub_admin_area", "admin_area", "postal_code", "country",
}

// Address is the value of an address field.
type Address struct {
	SubThoroughfare string `json:"sub_thoroughfare"`
	Thoroughfare    string `json:"thoroughfare"`
	Suite           string `json:"suite"`
	Locality        string `json:"locality"`
	SubAdminArea    string `json:"sub_admin_area"`
	AdminArea       string `json:"admin_area"`
	PostalCode      string `json:"postal_code"`
	Country         string `json:"country"`
}

// Empty implements Value.
func (a Address) Empty() bool { return a == Address{} }

func (a *Address) set(component, v string) {
	switch component {
	case "sub_thoroughfare":
		a.SubThoroughfare = v
	case "thoroughfare":
		a.Thoroughfare = v
	case "suite":
		a.Suite = v
	case "locality":
		a.Locality = v
	case "sub_admin_area":
		a.SubAdminArea = v
	case "admin_area":
		a.AdminArea = v
	case "postal_code":
		a.PostalCode = v
	case "country":
		a.Country = v
	}
}

// Media is one attachment of a photo, audio or video field.
type Media struct {
	Kind    schema.FieldType
	ID      string
	Caption string
}

// MarshalJSON encodes the id under photo_id, audio_id or video_id.
func (m Media) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{
		mediaIDKey(m.Kind): m.ID,
		"caption":          m.Caption,
	})
}

func mediaIDKey(t schema.FieldType) string {
	switch t {
	case schema.AudioField:
		return "audio_id"
	case schema.VideoField:
		return "video_id"
	default:
		return "photo_id"
	}
}

// MediaList is the value of a media field.
type MediaList []Media

// Empty implements Value.
func (m MediaList) Empty() bool { return len(m) == 0 }

// Link references another record.
type Link struct {
	RecordID string `json:"record_id"`
}

// LinkList is the value of a record link field.
type LinkList []Link

// Empty implements Value.
func (l LinkList) Empty() bool { return len(l) == 0 }

// Repeatable holds the entries of a repeatable field.
type Repeatable []Record

// Empty implements Value.
func (r Repeatable) Empty() bool { return len(r) == 0 }

// Signature is the placeholder emitted for signature fields.
type Signature struct {
	Timestamp   string `json:"timestamp"`
	SignatureID string `json:"signature_id"`
}

// Empty implements Value.
func (s Signature) Empty() bool { return s.SignatureID == "" }

// Record is a projected record, or one entry of a repeatable.
type Record struct {
	// FormID is only set on top-level records.
	FormID     string           `json:"form_id,omitempty"`
	Latitude   *float64         `json:"latitude,omitempty"`
	Longitude  *float64         `json:"longitude,omitempty"`
	FormValues map[string]Value `json:"form_values"`

	// SourceID is the id of the row the record was projected from.
	SourceID string `json:"-"`
}

// Strip deletes empty values from form values, recursing into repeatable
// entries. An entry left without values is kept.
func Strip(values map[string]Value) {
	for key, v := range values {
		if r, ok := v.(Repeatable); ok {
			for i := range r {
				Strip(r[i].FormValues)
			}
		}

		if v == nil || v.Empty() {
			delete(values, key)
		}
	}
}
