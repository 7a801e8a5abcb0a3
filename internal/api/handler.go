package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"wbanalytics_api/internal/models"
	"wbanalytics_api/internal/storage"
	"wbanalytics_api/metrics"
	"wbanalytics_api/pkg/middleware"
)

// Store -- read/write-срез хранилища для HTTP-слоя.
type Store interface {
	SyncHistory(ctx context.Context) ([]models.SyncHistory, error)
	Products(ctx context.Context) ([]models.Product, error)
	Cabinets(ctx context.Context) ([]models.Cabinet, error)
	CreateCabinet(ctx context.Context, name, encryptedToken string) (*models.Cabinet, error)
	UpdateCabinet(ctx context.Context, id int64, name, encryptedToken string) (*models.Cabinet, error)
	DeleteCabinet(ctx context.Context, id int64) error
}

// Trigger ставит fan-out заданий в очередь планировщика.
type Trigger interface {
	SyncAll(ctx context.Context, kind models.SyncType) error
}

// TokenProbe проверяет токен пробным запросом к statistics-api
// до того, как кабинет будет сохранен.
type TokenProbe func(ctx context.Context, token string) error

type Encryptor interface {
	Encrypt(plaintext string) (string, error)
}

type Handler struct {
	store    Store
	trigger  Trigger
	probe    TokenProbe
	secrets  Encryptor
	lowStock int
	log      *zap.Logger
}

func NewHandler(store Store, trigger Trigger, probe TokenProbe, secrets Encryptor, lowStockThreshold int, log *zap.Logger) *Handler {
	return &Handler{
		store:    store,
		trigger:  trigger,
		probe:    probe,
		secrets:  secrets,
		lowStock: lowStockThreshold,
		log:      log,
	}
}

func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.PrometheusMiddleware)

	r.Get("/healthz", h.health)
	r.Method(http.MethodGet, "/metrics", metrics.MetricsHandler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/sync/status", h.syncStatus)
		r.Post("/sync/{kind}", h.triggerSync)
		r.Get("/products", h.products)

		r.Route("/cabinets", func(r chi.Router) {
			r.Get("/", h.listCabinets)
			r.Post("/", h.createCabinet)
			r.Put("/{id}", h.updateCabinet)
			r.Delete("/{id}", h.deleteCabinet)
		})
	})
	return r
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) syncStatus(w http.ResponseWriter, r *http.Request) {
	rows, err := h.store.SyncHistory(r.Context())
	if err != nil {
		h.serverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *Handler) triggerSync(w http.ResponseWriter, r *http.Request) {
	kind := models.SyncType(chi.URLParam(r, "kind"))
	if !kind.Valid() {
		writeError(w, http.StatusBadRequest, "unknown sync type")
		return
	}
	if err := h.trigger.SyncAll(r.Context(), kind); err != nil {
		h.serverError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "enqueued"})
}

type productView struct {
	models.Product
	LowStock bool `json:"low_stock"`
}

func (h *Handler) products(w http.ResponseWriter, r *http.Request) {
	products, err := h.store.Products(r.Context())
	if err != nil {
		h.serverError(w, err)
		return
	}
	views := make([]productView, 0, len(products))
	for _, p := range products {
		views = append(views, productView{Product: p, LowStock: p.StockWB < h.lowStock})
	}
	writeJSON(w, http.StatusOK, views)
}

type cabinetRequest struct {
	Name     string `json:"name"`
	APIToken string `json:"api_token"`
}

func (h *Handler) listCabinets(w http.ResponseWriter, r *http.Request) {
	cabinets, err := h.store.Cabinets(r.Context())
	if err != nil {
		h.serverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cabinets)
}

func (h *Handler) createCabinet(w http.ResponseWriter, r *http.Request) {
	var req cabinetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" || req.APIToken == "" {
		writeError(w, http.StatusBadRequest, "name and api_token are required")
		return
	}

	// невалидный токен отбивается синхронно, на этапе создания
	if err := h.probe(r.Context(), req.APIToken); err != nil {
		writeError(w, http.StatusBadRequest, "invalid API token: "+err.Error())
		return
	}
	encrypted, err := h.secrets.Encrypt(req.APIToken)
	if err != nil {
		h.serverError(w, err)
		return
	}

	cabinet, err := h.store.CreateCabinet(r.Context(), req.Name, encrypted)
	if err != nil {
		h.serverError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, cabinet)
}

func (h *Handler) updateCabinet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid cabinet id")
		return
	}
	var req cabinetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	encrypted := ""
	if req.APIToken != "" {
		if err := h.probe(r.Context(), req.APIToken); err != nil {
			writeError(w, http.StatusBadRequest, "invalid API token: "+err.Error())
			return
		}
		if encrypted, err = h.secrets.Encrypt(req.APIToken); err != nil {
			h.serverError(w, err)
			return
		}
	}

	cabinet, err := h.store.UpdateCabinet(r.Context(), id, req.Name, encrypted)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "cabinet not found")
		return
	}
	if err != nil {
		h.serverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cabinet)
}

func (h *Handler) deleteCabinet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid cabinet id")
		return
	}
	err = h.store.DeleteCabinet(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "cabinet not found")
		return
	}
	if err != nil {
		h.serverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) serverError(w http.ResponseWriter, err error) {
	h.log.Error("request failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
