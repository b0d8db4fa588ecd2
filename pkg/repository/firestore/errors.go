package firestore

import "github.com/secmon-lab/casedesk/pkg/domain/interfaces"

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = interfaces.ErrNotFound
