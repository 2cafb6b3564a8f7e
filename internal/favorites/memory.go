// SPDX-License-Identifier: MIT

package favorites

import (
	"context"
	"sync"
)

// MemoryBackend keeps favorites for the lifetime of the process only.
type MemoryBackend struct {
	mu   sync.RWMutex
	data []byte
	// FailWrites makes Write return an error; used to exercise persistence failures.
	FailWrites error
	// FailReads makes Read return an error, as an unreachable backend would.
	FailReads error
}

// NewMemoryBackend returns an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

func (m *MemoryBackend) Name() string { return "memory" }

func (m *MemoryBackend) Read(_ context.Context) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.FailReads != nil {
		return nil, false, m.FailReads
	}
	if m.data == nil {
		return nil, false, nil
	}
	out := make([]byte, len(m.data))
	copy(out, m.data)
	return out, true, nil
}

func (m *MemoryBackend) Write(_ context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites != nil {
		return m.FailWrites
	}
	m.data = append(m.data[:0:0], data...)
	return nil
}

func (m *MemoryBackend) Ping(context.Context) error { return nil }

func (m *MemoryBackend) Close() error { return nil }
