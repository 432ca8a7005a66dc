package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/soos-io/cli-extension-sca/internal/scancontext"
	"github.com/soos-io/cli-extension-sca/internal/scanerrors"
	"github.com/soos-io/cli-extension-sca/internal/soosclient"
	"github.com/soos-io/cli-extension-sca/internal/statusstore"
)

// MemoryStatusStore keeps status records in a map and counts calls.
type MemoryStatusStore struct {
	mu      sync.Mutex
	Records map[scancontext.BuildKey]soosclient.ScanHandle
	Saves   int
	Loads   []scancontext.BuildKey
	SaveErr error
}

var _ statusstore.Store = (*MemoryStatusStore)(nil)

func NewMemoryStatusStore() *MemoryStatusStore {
	return &MemoryStatusStore{Records: map[scancontext.BuildKey]soosclient.ScanHandle{}}
}

func (m *MemoryStatusStore) Save(_ context.Context, key scancontext.BuildKey, handle soosclient.ScanHandle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Saves++
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.Records[key] = handle
	return nil
}

func (m *MemoryStatusStore) Load(_ context.Context, key scancontext.BuildKey) (soosclient.ScanHandle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Loads = append(m.Loads, key)
	handle, ok := m.Records[key]
	if !ok {
		return "", scanerrors.New(scanerrors.Persistence, "load status record",
			fmt.Errorf("%w for build %s", statusstore.ErrNotFound, key))
	}
	return handle, nil
}
