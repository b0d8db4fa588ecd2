package storage

import (
	"context"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/casedesk/pkg/domain/interfaces"
)

// Memory keeps attachment bytes in process
type Memory struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

var _ interfaces.AttachmentStorage = &Memory{}

func NewMemory() *Memory {
	return &Memory{objects: make(map[string][]byte)}
}

func (x *Memory) Put(ctx context.Context, key, mimeType string, data []byte) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.objects[key] = append([]byte(nil), data...)
	return nil
}

func (x *Memory) Get(ctx context.Context, key string) ([]byte, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	data, ok := x.objects[key]
	if !ok {
		return nil, goerr.Wrap(ErrObjectNotFound, "attachment object not found", goerr.V("key", key))
	}
	return append([]byte(nil), data...), nil
}

func (x *Memory) Delete(ctx context.Context, key string) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	delete(x.objects, key)
	return nil
}

// Len returns the number of stored objects
func (x *Memory) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.objects)
}
