package domain

// User account statuses
const (
	StatusNew      = "new"
	StatusActive   = "active"
	StatusReset    = "reset"
	StatusDisabled = "disabled"
)

// AdminGroup is the distinguished group whose members hold elevated
// capability. It always exists and cannot be deleted.
const AdminGroup = "admin"

// AttrWriteEnabled is the reserved app attribute gating mutating
// operations for machine principals. Value is "True" or "False".
const AttrWriteEnabled = "writeEnabled"

// User is an immutable snapshot of a user document. It never carries the
// password hash; credential checks go through the user service. Callers
// must not mutate a snapshot - changes go through service update calls
// which return a fresh snapshot.
type User struct {
	UserID      string
	Email       string
	Status      string
	ResetCode   string
	ResetExpiry string
	RefreshJti  string
	Attributes  map[string]string
}

// Field returns a named user attribute by its document field name, falling
// back to the open attribute bag. Missing attributes are the empty string.
// Credential fields are not reachable from here.
func (u User) Field(name string) string {
	switch name {
	case "userId":
		return u.UserID
	case "email":
		return u.Email
	case "status":
		return u.Status
	case "resetCode":
		return u.ResetCode
	case "resetExpiry":
		return u.ResetExpiry
	case "refreshJti":
		return u.RefreshJti
	}
	return u.Attributes[name]
}

// Profile returns the non-sensitive projection of the user used by
// member-detail listings and the details endpoint.
func (u User) Profile() map[string]string {
	p := map[string]string{
		"userId": u.UserID,
		"email":  u.Email,
		"status": u.Status,
	}
	for k, v := range u.Attributes {
		p[k] = v
	}
	return p
}

// Group is an immutable snapshot of a group document.
type Group struct {
	GroupID   string
	GroupName string
	Members   []string
}

// HasMember reports whether the given user id is in the member set.
func (g Group) HasMember(userID string) bool {
	for _, m := range g.Members {
		if m == userID {
			return true
		}
	}
	return false
}

// App is an immutable snapshot of an app document. The secret hash is
// never part of the snapshot; the plaintext secret exists only in the
// AppCredentials returned at creation.
type App struct {
	AppID      string
	AppName    string
	Key        string
	Attributes map[string]string
}

// WriteEnabled reports whether the app may perform mutating operations.
func (a App) WriteEnabled() bool {
	return a.Attributes[AttrWriteEnabled] == "True"
}

// AppCredentials is the one-time creation result for an app. The Secret
// field is the only place the plaintext secret ever leaves the service.
type AppCredentials struct {
	AppID   string
	AppName string
	Key     string
	Secret  string
}
