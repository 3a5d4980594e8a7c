package entity

import "net/url"

// Retailer is one target site: where its sign-up form lives plus identifying
// metadata. Built-in records (IsCustom=false) are read-only for users; only
// replacing the bundled dataset changes them.
type Retailer struct {
	ID        string                      `json:"id"`
	Name      string                      `json:"name"`
	SignupURL string                      `json:"signupUrl"`
	IsCustom  bool                        `json:"isCustom"`
	Selectors map[string]ProfileAttribute `json:"selectors,omitempty"`
}

// HasValidSignupURL reports whether the sign-up URL is an absolute web
// address. Retailers failing this are skipped before a context is opened.
func (r Retailer) HasValidSignupURL() bool {
	u, err := url.Parse(r.SignupURL)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
