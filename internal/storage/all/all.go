// Package all registers every storage backend. Import it for side effects
// from commands that select a backend at runtime.
package all

import (
	_ "csvguess/internal/storage/mssql"
	_ "csvguess/internal/storage/postgres"
	_ "csvguess/internal/storage/sqlite"
)
