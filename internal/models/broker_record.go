package models

// FieldKey names one of the eleven fields a broker record holds.
type FieldKey string

const (
	FieldURL        FieldKey = "url"
	FieldImageLink  FieldKey = "image_link"
	FieldName       FieldKey = "name"
	FieldIsCBI      FieldKey = "is_cbi"
	FieldMemberDate FieldKey = "member_date"
	FieldEmail      FieldKey = "email"
	FieldPhone      FieldKey = "phone"
	FieldCity       FieldKey = "city"
	FieldAddress    FieldKey = "address"
	FieldWebsite    FieldKey = "website"
	FieldSpeciality FieldKey = "speciality"
)

// CBI flag values.
const (
	CBIYes = "Yes"
	CBINo  = "No"
)

// FieldSpec pairs a record key with its human-readable label.
type FieldSpec struct {
	Key   FieldKey
	Label string
}

var fieldSpecs = [...]FieldSpec{
	{FieldURL, "Broker URL"},
	{FieldImageLink, "Broker Image Link"},
	{FieldName, "Broker Name"},
	{FieldIsCBI, "Broker is CBI"},
	{FieldMemberDate, "Broker Member Date"},
	{FieldEmail, "Broker Email"},
	{FieldPhone, "Broker Phone"},
	{FieldCity, "Broker City"},
	{FieldAddress, "Broker Address"},
	{FieldWebsite, "Broker Website"},
	{FieldSpeciality, "Broker Speciality"},
}

// FieldSpecs returns the record schema in field order. The slice is a copy.
func FieldSpecs() []FieldSpec {
	out := make([]FieldSpec, len(fieldSpecs))
	copy(out, fieldSpecs[:])
	return out
}

// Record is one broker profile. Empty strings mean the profile did not carry
// the field; every key is always serialized.
type Record struct {
	URL        string `json:"url" bson:"url"`
	ImageLink  string `json:"image_link" bson:"image_link"`
	Name       string `json:"name" bson:"name"`
	IsCBI      string `json:"is_cbi" bson:"is_cbi"`
	MemberDate string `json:"member_date" bson:"member_date"`
	Email      string `json:"email" bson:"email"`
	Phone      string `json:"phone" bson:"phone"`
	City       string `json:"city" bson:"city"`
	Address    string `json:"address" bson:"address"`
	Website    string `json:"website" bson:"website"`
	Speciality string `json:"speciality" bson:"speciality"`
}

// Value returns the field stored under key, and false for unknown keys.
func (r Record) Value(key FieldKey) (string, bool) {
	switch key {
	case FieldURL:
		return r.URL, true
	case FieldImageLink:
		return r.ImageLink, true
	case FieldName:
		return r.Name, true
	case FieldIsCBI:
		return r.IsCBI, true
	case FieldMemberDate:
		return r.MemberDate, true
	case FieldEmail:
		return r.Email, true
	case FieldPhone:
		return r.Phone, true
	case FieldCity:
		return r.City, true
	case FieldAddress:
		return r.Address, true
	case FieldWebsite:
		return r.Website, true
	case FieldSpeciality:
		return r.Speciality, true
	default:
		return "", false
	}
}

// LabeledValue is a field rendered with its label.
type LabeledValue struct {
	Label string
	Value string
}

// Labeled renders the record in schema order using field labels.
func (r Record) Labeled() []LabeledValue {
	out := make([]LabeledValue, 0, len(fieldSpecs))
	for _, spec := range fieldSpecs {
		v, _ := r.Value(spec.Key)
		out = append(out, LabeledValue{Label: spec.Label, Value: v})
	}
	return out
}
