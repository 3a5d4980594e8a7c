package entity

import "encoding/json"

// ProfileAttribute names one slot of the stored identity. The declaration
// order of Attributes() is load-bearing: classification ties are broken by
// it, first match wins.
type ProfileAttribute string

const (
	AttrFirstName ProfileAttribute = "firstName"
	AttrLastName  ProfileAttribute = "lastName"
	AttrEmail     ProfileAttribute = "email"
	AttrPassword  ProfileAttribute = "password"
	AttrBirthday  ProfileAttribute = "birthday"
	AttrPhone     ProfileAttribute = "phone"
	AttrAddress   ProfileAttribute = "address"
	AttrAddress2  ProfileAttribute = "address2"
	AttrCity      ProfileAttribute = "city"
	AttrState     ProfileAttribute = "state"
	AttrZip       ProfileAttribute = "zip"
	AttrCountry   ProfileAttribute = "country"
	AttrGender    ProfileAttribute = "gender"

	// Birth-date sub-fields. Classified as distinct types when a site splits
	// the date across controls; their values derive from AttrBirthday.
	AttrBirthDay   ProfileAttribute = "birthDay"
	AttrBirthMonth ProfileAttribute = "birthMonth"
	AttrBirthYear  ProfileAttribute = "birthYear"

	// AttrUnknown marks a field the classifier could not place above the
	// confidence threshold. Unknown fields are never filled.
	AttrUnknown ProfileAttribute = "unknown"
)

// Attributes returns the canonical profile attributes in declaration order.
// Derived sub-fields and "unknown" are not part of the canonical set.
func Attributes() []ProfileAttribute {
	return []ProfileAttribute{
		AttrFirstName, AttrLastName, AttrEmail, AttrPassword, AttrBirthday,
		AttrPhone, AttrAddress, AttrAddress2, AttrCity, AttrState, AttrZip,
		AttrCountry, AttrGender,
	}
}

// ProfileKey maps a classified field type to the profile attribute whose
// value feeds it. Identity for everything except the birth-date sub-fields.
func (a ProfileAttribute) ProfileKey() ProfileAttribute {
	switch a {
	case AttrBirthDay, AttrBirthMonth, AttrBirthYear:
		return AttrBirthday
	default:
		return a
	}
}

// CustomKeyword extends the synonym table for one attribute. The attribute
// may be one of the canonical set or a brand-new type introduced by the user.
type CustomKeyword struct {
	Attribute ProfileAttribute `json:"attribute"`
	Keywords  []string         `json:"keywords"`
}

// Profile is the stored identity used to fill forms. Every canonical
// attribute is present in Fields, unset ones as empty strings.
type Profile struct {
	ID           string
	Name         string
	Fields       map[ProfileAttribute]string
	CustomFields []CustomKeyword
}

// NewProfile returns a profile with every canonical attribute present.
func NewProfile(id, name string) Profile {
	fields := make(map[ProfileAttribute]string, len(Attributes()))
	for _, a := range Attributes() {
		fields[a] = ""
	}
	return Profile{ID: id, Name: name, Fields: fields}
}

// Value returns the stored value for an attribute, empty when unset.
func (p Profile) Value(attr ProfileAttribute) string {
	return p.Fields[attr]
}

// Set assigns an attribute value, materialising the map if needed.
func (p *Profile) Set(attr ProfileAttribute, value string) {
	if p.Fields == nil {
		p.Fields = make(map[ProfileAttribute]string)
	}
	p.Fields[attr] = value
}

// The persisted record is flat: id and name next to the attribute fields,
// matching the storage layout consumers already depend on.

type profileRecord struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	CustomFields []CustomKeyword   `json:"customFields,omitempty"`
	Fields       map[string]string `json:"-"`
}

func (p Profile) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, len(p.Fields)+3)
	for _, a := range Attributes() {
		flat[string(a)] = p.Fields[a]
	}
	flat["id"] = p.ID
	flat["name"] = p.Name
	if len(p.CustomFields) > 0 {
		flat["customFields"] = p.CustomFields
	}
	return json.Marshal(flat)
}

func (p *Profile) UnmarshalJSON(data []byte) error {
	var rec profileRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	var flat map[string]json.RawMessage
	if err := json.Unmarshal(data, &flat); err != nil {
		return err
	}
	*p = NewProfile(rec.ID, rec.Name)
	p.CustomFields = rec.CustomFields
	for _, a := range Attributes() {
		if raw, ok := flat[string(a)]; ok {
			var v string
			if err := json.Unmarshal(raw, &v); err == nil {
				p.Fields[a] = v
			}
		}
	}
	return nil
}
