package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"wbanalytics_api/internal/models"
	"wbanalytics_api/internal/storage"
)

type fakeStore struct {
	cabinets map[int64]*models.Cabinet
	nextID   int64
	products []models.Product
	history  []models.SyncHistory
}

func newFakeStore() *fakeStore {
	return &fakeStore{cabinets: make(map[int64]*models.Cabinet), nextID: 1}
}

func (s *fakeStore) SyncHistory(context.Context) ([]models.SyncHistory, error) {
	return s.history, nil
}

func (s *fakeStore) Products(context.Context) ([]models.Product, error) {
	return s.products, nil
}

func (s *fakeStore) Cabinets(context.Context) ([]models.Cabinet, error) {
	out := make([]models.Cabinet, 0, len(s.cabinets))
	for _, c := range s.cabinets {
		out = append(out, *c)
	}
	return out, nil
}

func (s *fakeStore) CreateCabinet(_ context.Context, name, encryptedToken string) (*models.Cabinet, error) {
	c := &models.Cabinet{ID: s.nextID, Name: name, APIToken: encryptedToken}
	s.cabinets[c.ID] = c
	s.nextID++
	return c, nil
}

func (s *fakeStore) UpdateCabinet(_ context.Context, id int64, name, encryptedToken string) (*models.Cabinet, error) {
	c, ok := s.cabinets[id]
	if !ok {
		return nil, fmt.Errorf("cabinet %d: %w", id, storage.ErrNotFound)
	}
	c.Name = name
	if encryptedToken != "" {
		c.APIToken = encryptedToken
	}
	return c, nil
}

func (s *fakeStore) DeleteCabinet(_ context.Context, id int64) error {
	if _, ok := s.cabinets[id]; !ok {
		return fmt.Errorf("cabinet %d: %w", id, storage.ErrNotFound)
	}
	delete(s.cabinets, id)
	return nil
}

type fakeTrigger struct {
	kinds []models.SyncType
}

func (t *fakeTrigger) SyncAll(_ context.Context, kind models.SyncType) error {
	t.kinds = append(t.kinds, kind)
	return nil
}

type fakeEncryptor struct{}

func (fakeEncryptor) Encrypt(plaintext string) (string, error) { return "enc:" + plaintext, nil }

func okProbe(context.Context, string) error { return nil }

func newTestHandler(store *fakeStore, trigger *fakeTrigger, probe TokenProbe) *Handler {
	if probe == nil {
		probe = okProbe
	}
	return NewHandler(store, trigger, probe, fakeEncryptor{}, 10, zap.NewNop())
}

func doRequest(h *Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		encoded, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(encoded)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}
	req := httptest.NewRequest(method, path, reqBody)
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	h := newTestHandler(newFakeStore(), &fakeTrigger{}, nil)

	rec := doRequest(h, http.MethodGet, "/healthz", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTriggerSyncEnqueues(t *testing.T) {
	trigger := &fakeTrigger{}
	h := newTestHandler(newFakeStore(), trigger, nil)

	rec := doRequest(h, http.MethodPost, "/api/v1/sync/sales", nil)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, []models.SyncType{models.SyncSales}, trigger.kinds)
}

func TestTriggerSyncRejectsUnknownKind(t *testing.T) {
	trigger := &fakeTrigger{}
	h := newTestHandler(newFakeStore(), trigger, nil)

	rec := doRequest(h, http.MethodPost, "/api/v1/sync/bogus", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, trigger.kinds)
}

func TestProductsMarksLowStock(t *testing.T) {
	store := newFakeStore()
	store.products = []models.Product{
		{NmID: 1, StockWB: 3},
		{NmID: 2, StockWB: 50},
	}
	h := newTestHandler(store, &fakeTrigger{}, nil)

	rec := doRequest(h, http.MethodGet, "/api/v1/products", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var views []productView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	require.Len(t, views, 2)
	assert.True(t, views[0].LowStock)
	assert.False(t, views[1].LowStock)
}

func TestCreateCabinetProbesAndEncryptsToken(t *testing.T) {
	store := newFakeStore()
	h := newTestHandler(store, &fakeTrigger{}, nil)

	rec := doRequest(h, http.MethodPost, "/api/v1/cabinets/", cabinetRequest{
		Name:     "main",
		APIToken: "raw-token",
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, store.cabinets, 1)
	assert.Equal(t, "enc:raw-token", store.cabinets[1].APIToken)
	// токен не утекает в ответ
	assert.NotContains(t, rec.Body.String(), "raw-token")
}

func TestCreateCabinetRejectsBadToken(t *testing.T) {
	store := newFakeStore()
	badProbe := TokenProbe(func(context.Context, string) error {
		return errors.New("401 from upstream")
	})
	h := newTestHandler(store, &fakeTrigger{}, badProbe)

	rec := doRequest(h, http.MethodPost, "/api/v1/cabinets/", cabinetRequest{
		Name:     "main",
		APIToken: "bad-token",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, store.cabinets)
}

func TestCreateCabinetValidatesInput(t *testing.T) {
	h := newTestHandler(newFakeStore(), &fakeTrigger{}, nil)

	rec := doRequest(h, http.MethodPost, "/api/v1/cabinets/", cabinetRequest{Name: "no-token"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateCabinetKeepsTokenWhenOmitted(t *testing.T) {
	store := newFakeStore()
	_, err := store.CreateCabinet(context.Background(), "old", "enc:old-token")
	require.NoError(t, err)
	h := newTestHandler(store, &fakeTrigger{}, nil)

	rec := doRequest(h, http.MethodPut, "/api/v1/cabinets/1", cabinetRequest{Name: "renamed"})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "renamed", store.cabinets[1].Name)
	assert.Equal(t, "enc:old-token", store.cabinets[1].APIToken)
}

func TestUpdateCabinetNotFound(t *testing.T) {
	h := newTestHandler(newFakeStore(), &fakeTrigger{}, nil)

	rec := doRequest(h, http.MethodPut, "/api/v1/cabinets/99", cabinetRequest{Name: "x"})

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteCabinet(t *testing.T) {
	store := newFakeStore()
	_, err := store.CreateCabinet(context.Background(), "main", "enc:t")
	require.NoError(t, err)
	h := newTestHandler(store, &fakeTrigger{}, nil)

	rec := doRequest(h, http.MethodDelete, "/api/v1/cabinets/1", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, store.cabinets)

	rec = doRequest(h, http.MethodDelete, "/api/v1/cabinets/1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSyncStatusEndpoint(t *testing.T) {
	store := newFakeStore()
	store.history = []models.SyncHistory{
		{CabinetID: 1, SyncType: models.SyncSales, Status: models.StatusSuccess},
	}
	h := newTestHandler(store, &fakeTrigger{}, nil)

	rec := doRequest(h, http.MethodGet, "/api/v1/sync/status", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var rows []models.SyncHistory
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, models.StatusSuccess, rows[0].Status)
}
