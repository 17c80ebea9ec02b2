package database

import "errors"

// ErrPreviewNotFound is returned when a preview reference was never stored
// or has already been released.
var ErrPreviewNotFound = errors.New("preview not found")

type DatabaseService interface {
	CreateDatabase() error
	DoesDatabaseExist() bool
	Close() error

	// CreatePreview stores image bytes under a fresh reference and returns it.
	CreatePreview(preview *Preview) (string, error)
	GetPreview(id string) (*Preview, error)
	// DeletePreview releases a reference. Deleting an unknown reference
	// returns ErrPreviewNotFound.
	DeletePreview(id string) error
	CountPreviews() (int, error)
}
