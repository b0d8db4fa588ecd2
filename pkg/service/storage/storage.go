// Package storage provides attachment blob storage backends.
package storage

import "github.com/m-mizutani/goerr/v2"

// ErrObjectNotFound is returned by Get when no object exists under the key
var ErrObjectNotFound = goerr.New("object not found")
