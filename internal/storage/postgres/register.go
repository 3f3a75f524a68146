package postgres

import "csvguess/internal/storage"

func init() {
	// registers the backend factory
	storage.Register("postgres", New)
}
