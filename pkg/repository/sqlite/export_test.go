package sqlite

// CloseDB closes the underlying database while keeping the in-memory state,
// so that following writes fail.
func CloseDB(s *SQLite) error {
	return s.db.Close()
}
