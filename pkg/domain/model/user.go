package model

import (
	"strings"
	"time"

	"github.com/secmon-lab/casedesk/pkg/domain/types"
)

// User is an entry of the user directory. Users are registered when they
// sign in and looked up by email when a case is shared.
type User struct {
	ID        types.UserID
	Email     string
	Name      string
	UpdatedAt time.Time
}

// NormalizeEmail lower-cases and trims an email address for lookups
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
