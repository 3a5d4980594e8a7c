package classify

import "signup-agent/internal/domain/entity"

// attributeKeywords pairs one attribute with its synonym list. Table order is
// the tie-break order: when two attributes reach the same confidence, the one
// declared first wins. That bias is deliberate and documented, not an
// accident of map iteration.
type attributeKeywords struct {
	Attr     entity.ProfileAttribute
	Keywords []string
}

// KeywordTable is the ordered synonym table the classifier matches against.
type KeywordTable []attributeKeywords

// DefaultTable returns the built-in synonym table. Sub-field attributes for
// split birth dates come before the whole-date attribute so "birth_month"
// style names land on the sub-field, not the generic birthday entry.
func DefaultTable() KeywordTable {
	return KeywordTable{
		{entity.AttrEmail, []string{"email", "emailaddress", "e-mail", "mail"}},
		{entity.AttrFirstName, []string{"firstname", "first-name", "first_name", "fname", "givenname", "first name"}},
		{entity.AttrLastName, []string{"lastname", "last-name", "last_name", "lname", "surname", "familyname", "last name"}},
		{entity.AttrPassword, []string{"password", "passwd", "pwd", "pass"}},
		{entity.AttrBirthMonth, []string{"birthmonth", "birth-month", "birth_month", "bmonth", "dobmonth", "month of birth"}},
		{entity.AttrBirthDay, []string{"birthday_day", "birthdayday", "birth-day-day", "birth_day", "bday_day", "dobday", "day of birth"}},
		{entity.AttrBirthYear, []string{"birthyear", "birth-year", "birth_year", "byear", "dobyear", "year of birth"}},
		{entity.AttrBirthday, []string{"birthday", "birthdate", "birth-date", "birth_date", "dateofbirth", "date of birth", "dob", "bday"}},
		{entity.AttrPhone, []string{"phone", "phonenumber", "telephone", "mobile", "cell", "tel"}},
		{entity.AttrAddress2, []string{"address2", "address-2", "address_2", "addressline2", "apt", "apartment", "suite", "unit"}},
		{entity.AttrAddress, []string{"address", "address1", "streetaddress", "street", "addr"}},
		{entity.AttrCity, []string{"city", "town", "locality"}},
		{entity.AttrState, []string{"state", "province", "region"}},
		{entity.AttrZip, []string{"zip", "zipcode", "postal", "postalcode", "postcode"}},
		{entity.AttrCountry, []string{"country", "nation"}},
		{entity.AttrGender, []string{"gender", "sex", "salutation", "title"}},
	}
}

// Merge folds custom keyword lists into the table. Keywords for a known
// attribute are appended to its entry; a new attribute gets its own entry at
// the end, so custom types never steal a tie from built-ins.
func (t KeywordTable) Merge(custom []entity.CustomKeyword) KeywordTable {
	merged := make(KeywordTable, len(t))
	copy(merged, t)
	for _, ck := range custom {
		if len(ck.Keywords) == 0 || ck.Attribute == "" {
			continue
		}
		found := false
		for i := range merged {
			if merged[i].Attr == ck.Attribute {
				kws := make([]string, 0, len(merged[i].Keywords)+len(ck.Keywords))
				kws = append(kws, merged[i].Keywords...)
				kws = append(kws, ck.Keywords...)
				merged[i].Keywords = kws
				found = true
				break
			}
		}
		if !found {
			merged = append(merged, attributeKeywords{Attr: ck.Attribute, Keywords: ck.Keywords})
		}
	}
	return merged
}
