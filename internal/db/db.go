package db

import "database/sql"

// DB wraps the pooled sql.DB handle shared by all directory operations.
type DB struct {
	*sql.DB
}
