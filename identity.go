package signon

import "time"

// Claim types issued by the assembler, JWT-style.
const (
	ClaimSubject    = "sub"
	ClaimName       = "name"
	ClaimEmail      = "email"
	ClaimGivenName  = "given_name"
	ClaimFamilyName = "family_name"
)

// Claim is one verified statement about the signed-in user.
type Claim struct {
	Type   string
	Value  string
	Issuer string
}

// Identity is the normalized result of a successful callback. It is either
// fully present (authentication succeeded) or absent entirely; the handler
// never exposes a partially-authenticated state.
type Identity struct {
	// AuthenticationType the identity was issued under (SignInAs override
	// applied).
	AuthenticationType string

	Claims []Claim

	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration
	Scopes       []string

	// Properties is the surviving state bag, for the host to attach to its
	// own session.
	Properties *Properties
}

// Claim returns the first value of the given type, or "".
func (id *Identity) Claim(typ string) string {
	for _, c := range id.Claims {
		if c.Type == typ {
			return c.Value
		}
	}
	return ""
}

// UserID is the subject id claim, when present.
func (id *Identity) UserID() string { return id.Claim(ClaimSubject) }

// Username is the name claim, when present.
func (id *Identity) Username() string { return id.Claim(ClaimName) }

// Email is the email claim, when present.
func (id *Identity) Email() string { return id.Claim(ClaimEmail) }

// assembleIdentity maps token- and profile-derived fields into claims.
// Pure and deterministic: no I/O, claims only for non-empty sources, never
// a placeholder claim.
func assembleIdentity(tok *TokenResponse, prof *Profile, authType string, props *Properties) *Identity {
	id := &Identity{
		AuthenticationType: authType,
		AccessToken:        tok.AccessToken,
		RefreshToken:       tok.RefreshToken,
		ExpiresIn:          tok.ExpiresIn,
		Scopes:             tok.Scopes,
		Properties:         props,
	}

	add := func(typ, value string) {
		if value != "" {
			id.Claims = append(id.Claims, Claim{Type: typ, Value: value, Issuer: authType})
		}
	}

	add(ClaimSubject, tok.UserID)
	if prof != nil {
		add(ClaimName, prof.Username)
		add(ClaimEmail, prof.Email)
		add(ClaimGivenName, prof.FirstName)
		add(ClaimFamilyName, prof.LastName)
	}
	return id
}
