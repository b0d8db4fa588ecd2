package config

// NewAuthForTest creates an Auth config for testing purposes
func NewAuthForTest(backend, firebaseAPIKey, firebaseProjectID string) *Auth {
	return &Auth{
		backend:           backend,
		firebaseAPIKey:    firebaseAPIKey,
		firebaseProjectID: firebaseProjectID,
	}
}

// NewRepositoryForTest creates a Repository config for testing purposes
func NewRepositoryForTest(backend, sqlitePath string) *Repository {
	return &Repository{
		backend:    backend,
		sqlitePath: sqlitePath,
	}
}

// NewLoggerForTest creates a Logger config for testing purposes
func NewLoggerForTest(level, format, output string) *Logger {
	return &Logger{
		level:  level,
		format: format,
		output: output,
	}
}
