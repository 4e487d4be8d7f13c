package store_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/OpenSkyDrones/opensky/internal/content"
	"github.com/OpenSkyDrones/opensky/internal/model"
	"github.com/OpenSkyDrones/opensky/internal/store"
	"github.com/OpenSkyDrones/opensky/internal/testutil"
)

const (
	testServiceDescription = "Serviço de teste com descrição longa o bastante"
)

var errBackendUnavailable = errors.New("backend unavailable")

func newLocalCatalog(testingT *testing.T) (*store.Catalog, *recordingSlots) {
	testingT.Helper()
	slots := &recordingSlots{SlotStore: testutil.NewSlotRepository(testingT)}
	catalog, err := store.NewCatalog(store.CatalogConfig{
		Mode:   store.ModeLocal,
		Slots:  slots,
		Seeds:  content.Default().Seeds,
		Logger: zap.NewNop(),
	})
	require.NoError(testingT, err)
	testingT.Cleanup(catalog.Wait)
	return catalog, slots
}

func newRemoteCatalog(testingT *testing.T) *store.Catalog {
	testingT.Helper()
	catalog, err := store.NewCatalog(store.CatalogConfig{
		Mode:     store.ModeRemote,
		Database: testutil.OpenMigratedSQLiteDatabase(testingT),
		Seeds:    content.Default().Seeds,
		Logger:   zap.NewNop(),
	})
	require.NoError(testingT, err)
	testingT.Cleanup(catalog.Wait)
	return catalog
}

func serviceDraft(title string) model.ServiceDraft {
	return model.ServiceDraft{Title: title, Description: testServiceDescription, Icon: model.ServiceIconDrone}
}

func serviceTitles(services []model.Service) []string {
	titles := make([]string, 0, len(services))
	for _, service := range services {
		titles = append(titles, service.Title)
	}
	return titles
}

// recordingSlots counts slot writes so tests can assert write-through behaviour.
type recordingSlots struct {
	store.SlotStore
	mutex  sync.Mutex
	writes map[string]int
}

func (slots *recordingSlots) Write(ctx context.Context, name string, payload []byte) error {
	slots.mutex.Lock()
	if slots.writes == nil {
		slots.writes = map[string]int{}
	}
	slots.writes[name]++
	slots.mutex.Unlock()
	return slots.SlotStore.Write(ctx, name, payload)
}

func (slots *recordingSlots) writeCount(name string) int {
	slots.mutex.Lock()
	defer slots.mutex.Unlock()
	return slots.writes[name]
}

// stubBackend is a Backend whose operations are supplied per test.
type stubBackend[T any] struct {
	load    func(ctx context.Context) ([]T, error)
	insert  func(ctx context.Context, record T) (T, error)
	replace func(ctx context.Context, identifier string, record T) (T, error)
	remove  func(ctx context.Context, identifier string) error
}

func (backend stubBackend[T]) Load(ctx context.Context) ([]T, error) {
	if backend.load == nil {
		return nil, nil
	}
	return backend.load(ctx)
}

func (backend stubBackend[T]) Insert(ctx context.Context, record T) (T, error) {
	if backend.insert == nil {
		return record, nil
	}
	return backend.insert(ctx, record)
}

func (backend stubBackend[T]) Replace(ctx context.Context, identifier string, record T) (T, error) {
	if backend.replace == nil {
		return record, nil
	}
	return backend.replace(ctx, identifier, record)
}

func (backend stubBackend[T]) Remove(ctx context.Context, identifier string) error {
	if backend.remove == nil {
		return nil
	}
	return backend.remove(ctx, identifier)
}
