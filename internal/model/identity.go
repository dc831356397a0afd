package model

// UserIdentity identifies a pod owner. Identifier is the WebID, RootURL is the
// pod root derived from it and always ends with a slash.
type UserIdentity struct {
	Identifier string `json:"identifier"`
	RootURL    string `json:"root_url"`
}

// Session is the caller's identity together with the bearer credential every
// gateway call is authenticated with.
type Session struct {
	Identity   UserIdentity
	Credential string
}
