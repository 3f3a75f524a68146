package sqlite

import "csvguess/internal/storage"

func init() {
	// registers the backend factory
	storage.Register("sqlite", New)
}
