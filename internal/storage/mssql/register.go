package mssql

import "csvguess/internal/storage"

func init() {
	// registers the backend factory
	storage.Register("mssql", New)
}
