package vault

// StoredCredential is a user's saved login for one external site, held in
// their personal vault. The access token is a rotating secret: every
// successful QR login resolution that uses the credential replaces it with a
// fresh value, invalidating the old one.
type StoredCredential struct {
	ID              string `json:"id"`
	UserID          string `json:"userId"`
	SiteIdentity    string `json:"siteIdentity"`
	LoginIdentifier string `json:"loginIdentifier"`
	Secret          string `json:"secret"`
	AccessToken     string `json:"accessToken"`
}
