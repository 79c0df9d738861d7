package domain

import "strconv"

// Metadata sources
const (
	MetadataSourceCKAN = "ckan"
	MetadataSourceHTML = "html"
)

// Metadata is the portal's description of one yearly dataset.
// UpdatedAt is the freshness marker the decision engine consumes; the rest
// is carried into the manifest untouched.
type Metadata struct {
	Page         string  `json:"metadata_page"`
	Source       string  `json:"fuente"`
	Author       string  `json:"autor"`
	ContactEmail string  `json:"contacto_email"`
	UpdatedAt    *string `json:"fecha_actualizacion"`
	CreatedAt    *string `json:"fecha_creacion"`
	LicenseName  string  `json:"licencia_nombre"`
	LicenseURL   string  `json:"licencia_url"`
	FileURL      string  `json:"archivo_url"`
	FetchedVia   string  `json:"-"`
}

// Record converts the metadata into the loose map stored in manifests.
// Empty values become null.
func (m *Metadata) Record() map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return map[string]any{
		"metadata_page":       nullable(m.Page),
		"fuente":              nullable(m.Source),
		"autor":               nullable(m.Author),
		"contacto_email":      nullable(m.ContactEmail),
		"fecha_actualizacion": derefNullable(m.UpdatedAt),
		"fecha_creacion":      derefNullable(m.CreatedAt),
		"licencia_nombre":     nullable(m.LicenseName),
		"licencia_url":        nullable(m.LicenseURL),
		"archivo_url":         nullable(m.FileURL),
	}
}

// ErrorRecord is the metadata map recorded when no metadata could be fetched
func ErrorRecord(year int, err error) map[string]any {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return map[string]any{
		"error":         msg,
		"metadata_page": "(year=" + strconv.Itoa(year) + ")",
	}
}

// Content is a downloaded dataset file
type Content struct {
	Body []byte
	Name string
	URL  string
}

// Size returns the body length in bytes
func (c *Content) Size() int {
	if c == nil {
		return 0
	}
	return len(c.Body)
}

// StringPtr returns a pointer to s, or nil when s is empty
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func derefNullable(s *string) any {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}
