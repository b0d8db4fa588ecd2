package usecase

import "time"

// AttachmentKey is exported for testing
var AttachmentKey = attachmentKey

// SetAuthCacheClock replaces the clock of the token cache of a password
// backend for testing
func SetAuthCacheClock(uc *PasswordAuthUseCase, now func() time.Time) {
	uc.cache.now = now
}
