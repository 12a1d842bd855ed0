// ABOUTME: Authorization token record issued by the backend authenticate endpoint
// ABOUTME: Carries subject, expiry, roles and the opaque bearer credential

package session

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/tidwall/sjson"
)

// AnonymousSubject is the reserved subject of the restricted technical session
// the frontend uses before an operator logs in.
const AnonymousSubject = "frontend-anonym"

// AnonymousUserName is the user name reported while no token is present.
const AnonymousUserName = "Anonymous"

// UserID is an opaque user identifier. Older backends send it as a JSON
// number, newer ones as a string; both unmarshal into the string form.
type UserID string

func (u *UserID) UnmarshalJSON(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("empty uid")
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*u = UserID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*u = UserID(n.String())
	return nil
}

func (u UserID) MarshalJSON() ([]byte, error) {
	// Preserve numeric form when the value is numeric
	if _, err := strconv.ParseInt(string(u), 10, 64); err == nil {
		return []byte(u), nil
	}
	return json.Marshal(string(u))
}

// AuthorizationToken is the token record returned by
// GET /api/spvitamin/authenticate.
type AuthorizationToken struct {
	Subject           string    `json:"sub"`
	IssuedAt          time.Time `json:"iat"`
	ExpiresAt         time.Time `json:"exp"`
	UserID            UserID    `json:"uid"`
	Roles             []string  `json:"rls"`
	Source            string    `json:"source"`
	PreferredUsername string    `json:"preferred_username,omitempty"`
	JWT               string    `json:"jwt"`
}

// ValidSeconds returns the remaining validity in whole seconds relative to
// now. A nil token has no validity. Expired tokens yield values <= 0.
func (t *AuthorizationToken) ValidSeconds(now time.Time) int {
	if t == nil {
		return 0
	}
	return int(math.Round(t.ExpiresAt.Sub(now).Seconds()))
}

// DisplayName returns the preferred user name, falling back to the subject.
func (t *AuthorizationToken) DisplayName() string {
	if t == nil {
		return AnonymousUserName
	}
	if t.PreferredUsername != "" {
		return t.PreferredUsername
	}
	return t.Subject
}

// IsAnonymous reports whether the token belongs to the restricted frontend
// session.
func (t *AuthorizationToken) IsAnonymous() bool {
	return t != nil && t.Subject == AnonymousSubject
}

// Redacted serializes the token with the bearer credential stripped. Only
// this form may reach logs.
func (t *AuthorizationToken) Redacted() string {
	if t == nil {
		return "null"
	}
	data, err := json.Marshal(t)
	if err != nil {
		return "{}"
	}
	out, err := sjson.DeleteBytes(data, "jwt")
	if err != nil {
		return "{}"
	}
	return string(out)
}
