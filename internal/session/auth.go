package session

// Credential is one allow-list entry.
type Credential struct {
	Username string
	Password string
	Premium  bool
}

// Authenticator validates a username/password pair and returns the matching
// credential on success.
type Authenticator interface {
	Authenticate(username, password string) (Credential, bool)
}

// StaticAuthenticator matches credentials against a fixed in-memory list with
// plain string comparison. Identity here is simulated on purpose; a real
// deployment swaps in a server-backed Authenticator without touching Manager.
type StaticAuthenticator struct {
	creds []Credential
}

// NewStaticAuthenticator builds an authenticator over the given entries.
func NewStaticAuthenticator(creds []Credential) *StaticAuthenticator {
	return &StaticAuthenticator{creds: creds}
}

// DefaultAuthenticator returns the built-in two-entry allow-list.
func DefaultAuthenticator() *StaticAuthenticator {
	return NewStaticAuthenticator([]Credential{
		{Username: "admin", Password: "12345", Premium: true},
		{Username: "user1", Password: "12345", Premium: false},
	})
}

// Authenticate implements Authenticator.
func (a *StaticAuthenticator) Authenticate(username, password string) (Credential, bool) {
	for _, c := range a.creds {
		if c.Username == username && c.Password == password {
			return c, true
		}
	}
	return Credential{}, false
}
