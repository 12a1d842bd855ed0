// ABOUTME: Data models for the admin REST API
// ABOUTME: Certificate store entries, server parameters and version info

package client

import (
	"time"

	"github.com/tidwall/gjson"
)

// CertInfo describes one certificate in an entry's chain.
type CertInfo struct {
	IssuerCN  string    `json:"issuerCN"`
	SubjectCN string    `json:"subjectCN"`
	ValidFrom time.Time `json:"validFrom"`
	ValidTo   time.Time `json:"validTo"`
	Valid     bool      `json:"valid"`
}

// KeystoreEntry is one entry of the server's keystore or truststore.
type KeystoreEntry struct {
	Alias    string     `json:"alias"`
	Password string     `json:"password,omitempty"`
	InUse    bool       `json:"inUse"`
	Type     string     `json:"type"`
	Valid    bool       `json:"valid"`
	Chain    []CertInfo `json:"chain"`
}

// TypeAbbr returns the short label used in entry listings.
func (e KeystoreEntry) TypeAbbr() string {
	switch e.Type {
	case "PRIVATE_KEY_ENTRY":
		return "PK"
	default:
		return ""
	}
}

// CertificateFile is an uploaded certificate: base64-encoded file content
// plus the password protecting it.
type CertificateFile struct {
	Content  string `json:"content"`
	Password string `json:"password"`
}

// ImportRequest asks the backend to import one aliased entry of an
// uploaded certificate file.
type ImportRequest struct {
	CertificateFile CertificateFile `json:"certificateFile"`
	Alias           string          `json:"alias"`
}

// ServerParameter is one displayed settings row.
type ServerParameter struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Link  bool   `json:"link"`
}

// VersionInfo is the build metadata of the administered service. The
// payload shape varies between server generations, so the raw document is
// kept and well-known fields are projected out of it.
type VersionInfo struct {
	Raw []byte
}

func (v *VersionInfo) field(paths ...string) string {
	for _, path := range paths {
		if r := gjson.GetBytes(v.Raw, path); r.Exists() {
			return r.String()
		}
	}
	return ""
}

// Version returns the server version string, if present.
func (v *VersionInfo) Version() string {
	return v.field("Version", "version", "build.version")
}

// BuildTime returns the server build timestamp, if present.
func (v *VersionInfo) BuildTime() string {
	return v.field("Build time", "buildTime", "build.time")
}

// Fields flattens the document into displayable name/value pairs, in
// document order.
func (v *VersionInfo) Fields() []ServerParameter {
	var params []ServerParameter
	gjson.ParseBytes(v.Raw).ForEach(func(key, value gjson.Result) bool {
		params = append(params, ServerParameter{Name: key.String(), Value: value.String()})
		return true
	})
	return params
}
