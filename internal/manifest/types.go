package manifest

// DefaultNote marks a successful download
const DefaultNote = "descarga_ok"

// Entry describes one downloaded artifact
type Entry struct {
	Source      string         `json:"source"`
	ResourceURL string         `json:"resource_url"`
	Metadata    map[string]any `json:"metadata"`
	Dataset     string         `json:"dataset"`
	Year        int            `json:"year"`
	FileName    string         `json:"file_name"`
	SHA256      string         `json:"sha256"`
	IngestionTS string         `json:"ingestion_ts"`
	LocalPath   string         `json:"local_path"`
	Notes       string         `json:"notes"`
}
