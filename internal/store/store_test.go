package store_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/OpenSkyDrones/opensky/internal/content"
	"github.com/OpenSkyDrones/opensky/internal/model"
	"github.com/OpenSkyDrones/opensky/internal/store"
)

const testEventTimeout = 2 * time.Second

func TestListStartsBackgroundRefreshOnce(testingT *testing.T) {
	catalog, slots := newLocalCatalog(testingT)
	ctx := context.Background()

	initial := catalog.Services.List(ctx)
	require.True(testingT, initial.Loading)
	catalog.Services.Wait()

	loaded := catalog.Services.List(ctx)
	require.False(testingT, loaded.Loading)
	require.True(testingT, loaded.Loaded)
	require.Empty(testingT, loaded.Error)
	require.Equal(testingT, []string{"Fotografia Aérea", "Vídeo Aéreo", "Mapeamento", "Inspeções"}, serviceTitles(loaded.Items))
	require.Equal(testingT, 1, slots.writeCount(store.SlotServices))
}

func TestLocalCreatePrependsAndPersists(testingT *testing.T) {
	catalog, slots := newLocalCatalog(testingT)
	ctx := context.Background()
	require.NoError(testingT, catalog.Services.Refresh(ctx))

	before := time.Now().UTC().Add(-time.Second)
	first := catalog.Services.Create(ctx, serviceDraft("Primeiro"))
	second := catalog.Services.Create(ctx, serviceDraft("Segundo"))
	require.True(testingT, first.Success)
	require.True(testingT, second.Success)
	require.NotEmpty(testingT, first.Data.ID)
	require.NotEqual(testingT, first.Data.ID, second.Data.ID)
	require.False(testingT, first.Data.CreatedAt.Before(before))

	titles := serviceTitles(catalog.Services.Snapshot().Items)
	require.Equal(testingT, []string{"Segundo", "Primeiro"}, titles[:2])
	require.Len(testingT, titles, 6)
	require.Equal(testingT, 3, slots.writeCount(store.SlotServices))

	reloaded, err := store.NewCatalog(store.CatalogConfig{Mode: store.ModeLocal, Slots: slots, Seeds: content.Default().Seeds, Logger: zap.NewNop()})
	require.NoError(testingT, err)
	require.NoError(testingT, reloaded.Services.Refresh(ctx))
	require.Equal(testingT, titles, serviceTitles(reloaded.Services.Snapshot().Items))
}

func TestLocalUpdateKeepsIdentity(testingT *testing.T) {
	catalog, _ := newLocalCatalog(testingT)
	ctx := context.Background()
	created := catalog.Services.Create(ctx, serviceDraft("Original"))
	require.True(testingT, created.Success)

	updated := catalog.Services.Update(ctx, created.Data.ID, serviceDraft("Alterado"))
	require.True(testingT, updated.Success)
	require.Equal(testingT, created.Data.ID, updated.Data.ID)
	require.True(testingT, created.Data.CreatedAt.Equal(updated.Data.CreatedAt))

	cached, found := catalog.Services.Get(created.Data.ID)
	require.True(testingT, found)
	require.Equal(testingT, "Alterado", cached.Title)
}

func TestLocalUpdateOfUnknownRecordFails(testingT *testing.T) {
	catalog, _ := newLocalCatalog(testingT)
	ctx := context.Background()
	require.NoError(testingT, catalog.Services.Refresh(ctx))
	before := catalog.Services.Snapshot().Items

	result := catalog.Services.Update(ctx, "missing", serviceDraft("Nada"))
	require.False(testingT, result.Success)
	require.ErrorIs(testingT, result.Err, store.ErrNotFound)
	require.Equal(testingT, before, catalog.Services.Snapshot().Items)
}

func TestLocalDeleteIsIdempotent(testingT *testing.T) {
	catalog, _ := newLocalCatalog(testingT)
	ctx := context.Background()
	require.NoError(testingT, catalog.Services.Refresh(ctx))
	created := catalog.Services.Create(ctx, serviceDraft("Temporário"))
	require.True(testingT, created.Success)

	require.True(testingT, catalog.Services.Delete(ctx, created.Data.ID).Success)
	_, found := catalog.Services.Get(created.Data.ID)
	require.False(testingT, found)

	second := catalog.Services.Delete(ctx, created.Data.ID)
	require.True(testingT, second.Success)
	require.Len(testingT, catalog.Services.Snapshot().Items, 4)
}

func TestRemoteOperationsRoundTrip(testingT *testing.T) {
	catalog := newRemoteCatalog(testingT)
	ctx := context.Background()
	require.NoError(testingT, catalog.Services.Refresh(ctx))
	require.Empty(testingT, catalog.Services.Snapshot().Items)

	first := catalog.Services.Create(ctx, serviceDraft("Primeiro"))
	require.True(testingT, first.Success)
	require.NotEmpty(testingT, first.Data.ID)
	require.False(testingT, first.Data.CreatedAt.IsZero())
	time.Sleep(10 * time.Millisecond)
	second := catalog.Services.Create(ctx, serviceDraft("Segundo"))
	require.True(testingT, second.Success)

	updated := catalog.Services.Update(ctx, first.Data.ID, model.ServiceDraft{
		Title:       "Primeiro revisado",
		Description: testServiceDescription,
		Icon:        model.ServiceIconTower,
	})
	require.True(testingT, updated.Success, updated.Error)
	require.Equal(testingT, first.Data.ID, updated.Data.ID)
	require.Equal(testingT, model.ServiceIconTower, updated.Data.Icon)
	require.Empty(testingT, updated.Data.ImageURL)

	require.NoError(testingT, catalog.Services.Refresh(ctx))
	require.Equal(testingT, []string{"Segundo", "Primeiro revisado"}, serviceTitles(catalog.Services.Snapshot().Items))

	require.True(testingT, catalog.Services.Delete(ctx, second.Data.ID).Success)
	require.NoError(testingT, catalog.Services.Refresh(ctx))
	require.Equal(testingT, []string{"Primeiro revisado"}, serviceTitles(catalog.Services.Snapshot().Items))
}

func TestRemoteUpdateOfUnknownRecordSurfacesBackendError(testingT *testing.T) {
	catalog := newRemoteCatalog(testingT)
	ctx := context.Background()
	created := catalog.Services.Create(ctx, serviceDraft("Existente"))
	require.True(testingT, created.Success)
	before := catalog.Services.Snapshot().Items

	result := catalog.Services.Update(ctx, "missing", serviceDraft("Nada"))
	require.False(testingT, result.Success)
	require.ErrorIs(testingT, result.Err, store.ErrNotFound)
	require.Contains(testingT, result.Error, "Erro ao atualizar serviço")
	require.Equal(testingT, before, catalog.Services.Snapshot().Items)
}

func TestFailedLoadFallsBackToSeed(testingT *testing.T) {
	seed := content.Default().Seeds.Services
	services := store.New(store.ServiceSchema(seed), stubBackend[model.Service]{
		load: func(context.Context) ([]model.Service, error) { return nil, errBackendUnavailable },
	}, store.ModeRemote, zap.NewNop(), nil)

	refreshErr := services.Refresh(context.Background())
	require.ErrorIs(testingT, refreshErr, errBackendUnavailable)

	state := services.Snapshot()
	require.Equal(testingT, seed, state.Items)
	require.Equal(testingT, "Erro ao carregar serviços: backend unavailable", state.Error)
	require.True(testingT, state.Loaded)
}

func TestFailedMutationsLeaveListUnchanged(testingT *testing.T) {
	seed := content.Default().Seeds.Services
	services := store.New(store.ServiceSchema(nil), stubBackend[model.Service]{
		load: func(context.Context) ([]model.Service, error) { return seed, nil },
		insert: func(context.Context, model.Service) (model.Service, error) {
			return model.Service{}, errBackendUnavailable
		},
		replace: func(context.Context, string, model.Service) (model.Service, error) {
			return model.Service{}, errBackendUnavailable
		},
		remove: func(context.Context, string) error { return errBackendUnavailable },
	}, store.ModeRemote, zap.NewNop(), nil)
	ctx := context.Background()
	require.NoError(testingT, services.Refresh(ctx))

	results := []store.Result[model.Service]{
		services.Create(ctx, serviceDraft("Novo")),
		services.Update(ctx, seed[0].ID, serviceDraft("Alterado")),
		services.Delete(ctx, seed[0].ID),
	}
	for _, result := range results {
		require.False(testingT, result.Success)
		require.Nil(testingT, result.Data)
		require.ErrorIs(testingT, result.Err, errBackendUnavailable)
	}
	require.Equal(testingT, "Erro ao criar serviço: backend unavailable", results[0].Error)
	require.Equal(testingT, seed, services.Snapshot().Items)
}

func TestConcurrentMutationOfSameRecordIsRejected(testingT *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	services := store.New(store.ServiceSchema(nil), stubBackend[model.Service]{
		replace: func(_ context.Context, identifier string, record model.Service) (model.Service, error) {
			close(entered)
			<-release
			return record, nil
		},
	}, store.ModeRemote, zap.NewNop(), nil)
	ctx := context.Background()

	firstResult := make(chan store.Result[model.Service], 1)
	go func() {
		firstResult <- services.Update(ctx, "record-1", serviceDraft("Primeiro"))
	}()
	<-entered

	rejectedUpdate := services.Update(ctx, "record-1", serviceDraft("Segundo"))
	require.False(testingT, rejectedUpdate.Success)
	require.ErrorIs(testingT, rejectedUpdate.Err, store.ErrOperationInProgress)
	rejectedDelete := services.Delete(ctx, "record-1")
	require.ErrorIs(testingT, rejectedDelete.Err, store.ErrOperationInProgress)

	close(release)
	require.True(testingT, (<-firstResult).Success)
	require.True(testingT, services.Delete(ctx, "record-1").Success)
}

func TestRefreshOverlappingMutationKeepsMutation(testingT *testing.T) {
	existing := model.Service{ID: "existing", Title: "Existente"}
	removed := model.Service{ID: "removed", Title: "Removido"}
	testCases := []struct {
		name          string
		mutate        func(ctx context.Context, services *store.Store[model.Service, model.ServiceDraft]) store.Result[model.Service]
		expectedTitle []string
	}{
		{
			name: "delete during load",
			mutate: func(ctx context.Context, services *store.Store[model.Service, model.ServiceDraft]) store.Result[model.Service] {
				return services.Delete(ctx, removed.ID)
			},
			expectedTitle: []string{"Existente"},
		},
		{
			name: "create during load",
			mutate: func(ctx context.Context, services *store.Store[model.Service, model.ServiceDraft]) store.Result[model.Service] {
				return services.Create(ctx, serviceDraft("Novo"))
			},
			expectedTitle: []string{"Novo", "Existente", "Removido"},
		},
	}
	for _, testCase := range testCases {
		testCase := testCase
		testingT.Run(testCase.name, func(subTestingT *testing.T) {
			loadCalls := 0
			entered := make(chan struct{})
			release := make(chan struct{})
			services := store.New(store.ServiceSchema(nil), stubBackend[model.Service]{
				load: func(context.Context) ([]model.Service, error) {
					loadCalls++
					if loadCalls > 1 {
						close(entered)
						<-release
					}
					return []model.Service{existing, removed}, nil
				},
				insert: func(_ context.Context, record model.Service) (model.Service, error) {
					record.ID = "created"
					return record, nil
				},
			}, store.ModeRemote, zap.NewNop(), nil)
			ctx := context.Background()
			require.NoError(subTestingT, services.Refresh(ctx))

			refreshResult := make(chan error, 1)
			go func() {
				refreshResult <- services.Refresh(ctx)
			}()
			<-entered

			require.True(subTestingT, testCase.mutate(ctx, services).Success)
			close(release)
			require.NoError(subTestingT, <-refreshResult)

			state := services.Snapshot()
			require.Equal(subTestingT, testCase.expectedTitle, serviceTitles(state.Items))
			require.Empty(subTestingT, state.Error)
			require.True(subTestingT, state.Loaded)
		})
	}
}

func TestLocalTestimonialDeleteRemovesItFromSlot(testingT *testing.T) {
	catalog, slots := newLocalCatalog(testingT)
	ctx := context.Background()
	require.NoError(testingT, catalog.Testimonials.Refresh(ctx))

	created := catalog.Testimonials.Create(ctx, model.TestimonialDraft{ClientName: "Bruna", Testimonial: "Imagens aéreas impecáveis!", Rating: 5})
	require.True(testingT, created.Success, created.Error)
	require.Contains(testingT, storedTestimonialIDs(testingT, slots), created.Data.ID)

	require.True(testingT, catalog.Testimonials.Delete(ctx, created.Data.ID).Success)

	for _, testimonial := range catalog.Testimonials.List(ctx).Items {
		require.NotEqual(testingT, created.Data.ID, testimonial.ID)
	}
	require.NotContains(testingT, storedTestimonialIDs(testingT, slots), created.Data.ID)
}

func storedTestimonialIDs(testingT *testing.T, slots store.SlotStore) []string {
	testingT.Helper()
	payload, found, err := slots.Read(context.Background(), store.SlotTestimonials)
	require.NoError(testingT, err)
	require.True(testingT, found)
	var testimonials []model.Testimonial
	require.NoError(testingT, json.Unmarshal(payload, &testimonials))
	identifiers := make([]string, 0, len(testimonials))
	for _, testimonial := range testimonials {
		identifiers = append(identifiers, testimonial.ID)
	}
	return identifiers
}

func TestMutationsRequireIdentifier(testingT *testing.T) {
	services := store.New(store.ServiceSchema(nil), stubBackend[model.Service]{}, store.ModeLocal, nil, nil)
	require.ErrorIs(testingT, services.Update(context.Background(), " ", serviceDraft("x")).Err, store.ErrMissingIdentifier)
	require.ErrorIs(testingT, services.Delete(context.Background(), "").Err, store.ErrMissingIdentifier)
}

func TestStoresDoNotShareState(testingT *testing.T) {
	catalog, _ := newLocalCatalog(testingT)
	ctx := context.Background()
	require.NoError(testingT, catalog.RefreshAll(ctx))

	created := catalog.Services.Create(ctx, serviceDraft("Isolado"))
	require.True(testingT, created.Success)

	require.Len(testingT, catalog.Portfolio.Snapshot().Items, 4)
	require.Len(testingT, catalog.Testimonials.Snapshot().Items, 4)
	require.Len(testingT, catalog.Contacts.Snapshot().Items, 2)
	_, found := catalog.Portfolio.Get(created.Data.ID)
	require.False(testingT, found)
}

func TestMutationsPublishChanges(testingT *testing.T) {
	catalog, _ := newLocalCatalog(testingT)
	ctx := context.Background()
	require.NoError(testingT, catalog.RefreshAll(ctx))
	subscription := catalog.Changes().Subscribe()
	defer subscription.Close()

	created := catalog.Testimonials.Create(ctx, model.TestimonialDraft{ClientName: "Ana", Testimonial: "Ótimo trabalho aéreo!", Rating: 5})
	require.True(testingT, created.Success)

	var changes []store.Change
	deadline := time.After(testEventTimeout)
	for len(changes) < 1 {
		select {
		case change := <-subscription.Changes():
			if change.Kind == store.ChangeCreated {
				changes = append(changes, change)
			}
		case <-deadline:
			testingT.Fatal("timeout waiting for change")
		}
	}
	require.Equal(testingT, store.CollectionTestimonials, changes[0].Collection)
	require.Equal(testingT, created.Data.ID, changes[0].RecordID)
	require.Equal(testingT, 5, changes[0].Count)
}

func TestNewCatalogValidatesConfiguration(testingT *testing.T) {
	testCases := []struct {
		name          string
		configuration store.CatalogConfig
		expectedError error
	}{
		{name: "remote without database", configuration: store.CatalogConfig{Mode: store.ModeRemote}, expectedError: store.ErrMissingDatabase},
		{name: "local without slots", configuration: store.CatalogConfig{Mode: store.ModeLocal}, expectedError: store.ErrMissingSlots},
		{name: "unknown mode", configuration: store.CatalogConfig{Mode: "hybrid"}, expectedError: store.ErrUnknownMode},
	}
	for _, testCase := range testCases {
		testCase := testCase
		testingT.Run(testCase.name, func(subTestingT *testing.T) {
			catalog, err := store.NewCatalog(testCase.configuration)
			require.Nil(subTestingT, catalog)
			require.True(subTestingT, errors.Is(err, testCase.expectedError))
		})
	}
}
