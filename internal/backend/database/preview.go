package database

// Preview is a transient rendition of an uploaded image.
type Preview struct {
	ID          string `db:"id"`
	ContentType string `db:"content_type"`
	Data        []byte `db:"data"` // image bytes, PNG after the preview pipeline
}
