package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"partstream/config"
	"partstream/models"
	"partstream/repository"
	"partstream/scheduler"
	"partstream/scraper"
	"partstream/search"

	"github.com/gorilla/mux"
)

type Handlers struct {
	productRepo *repository.ProductRepository
	sourceRepo  *repository.SourceRepository
	configRepo  *repository.ConfigRepository
	aggregator  *search.Aggregator
	matcher     *search.Matcher
	sessions    *scraper.SessionManager
	taskManager *scheduler.TaskManager
	cfg         *config.SearchConfig
}

func NewHandlers(productRepo *repository.ProductRepository, sourceRepo *repository.SourceRepository, configRepo *repository.ConfigRepository, aggregator *search.Aggregator, matcher *search.Matcher, sessions *scraper.SessionManager, cfg *config.SearchConfig) *Handlers {
	h := &Handlers{
		productRepo: productRepo,
		sourceRepo:  sourceRepo,
		configRepo:  configRepo,
		aggregator:  aggregator,
		matcher:     matcher,
		sessions:    sessions,
		cfg:         cfg,
	}

	h.taskManager = scheduler.NewTaskManager(h.runSearch, cfg.MaxSearchWorkers)

	return h
}

// Close shuts down the handlers' background workers
func (h *Handlers) Close() {
	if h.taskManager != nil {
		h.taskManager.Stop()
	}
}

// runSearch executes a full unified search (used by the task manager and
// the synchronous endpoint)
func (h *Handlers) runSearch(query string, mode models.SearchMode) ([]models.UnifiedSearchResult, error) {
	var sources []models.ExternalSource
	if mode != models.SearchModeLocal {
		var err error
		sources, err = h.sourceRepo.GetActiveSources()
		if err != nil {
			return nil, err
		}
	}

	results := h.aggregator.Search(context.Background(), query, sources, mode)
	return results, nil
}

// resolveMode picks the search mode: explicit query parameter first, then
// the persisted configuration, then the env default
func (h *Handlers) resolveMode(requested string) models.SearchMode {
	switch models.SearchMode(requested) {
	case models.SearchModeLocal:
		return models.SearchModeLocal
	case models.SearchModeGlobal:
		return models.SearchModeGlobal
	}

	mode, err := h.configRepo.GetSearchMode(models.SearchMode(h.cfg.DefaultMode))
	if err != nil {
		log.Printf("Failed to read search mode, using default: %v", err)
		return models.SearchMode(h.cfg.DefaultMode)
	}
	return mode
}

// Search runs a unified search synchronously
func (h *Handlers) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	mode := h.resolveMode(r.URL.Query().Get("mode"))

	var sources []models.ExternalSource
	if mode != models.SearchModeLocal {
		var err error
		sources, err = h.sourceRepo.GetActiveSources()
		if err != nil {
			log.Printf("Failed to load sources: %v", err)
			writeError(w, http.StatusInternalServerError, "Failed to load external sources")
			return
		}
	}

	results := h.aggregator.Search(r.Context(), query, sources, mode)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"query":   query,
		"mode":    mode,
		"results": results,
	})
}

// SearchAsyncRequest is the payload for async searches
type SearchAsyncRequest struct {
	Query string `json:"query"`
	Mode  string `json:"mode"`
}

// SearchAsync queues a unified search and returns a task handle
func (h *Handlers) SearchAsync(w http.ResponseWriter, r *http.Request) {
	var req SearchAsyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	task := h.taskManager.SubmitTask(req.Query, h.resolveMode(req.Mode))
	writeJSON(w, http.StatusAccepted, task)
}

// GetTaskStatus returns an async search task by ID
func (h *Handlers) GetTaskStatus(w http.ResponseWriter, r *http.Request) {
	taskID := mux.Vars(r)["taskId"]

	task, exists := h.taskManager.GetTask(taskID)
	if !exists {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}

	writeJSON(w, http.StatusOK, task)
}

// GetTaskStats returns task manager statistics
func (h *Handlers) GetTaskStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.taskManager.GetStats())
}

// GetActiveTasks returns the async search tasks still queued or running
func (h *Handlers) GetActiveTasks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.taskManager.GetActiveTasks())
}

// GetProducts returns the full catalog
func (h *Handlers) GetProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.productRepo.GetAllProducts()
	if err != nil {
		log.Printf("Failed to get products: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to get products")
		return
	}

	writeJSON(w, http.StatusOK, products)
}

// CreateProduct adds a catalog entry and rebuilds the search index
func (h *Handlers) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req models.SaveProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Name == "" || req.Code == "" {
		writeError(w, http.StatusBadRequest, "name and code are required")
		return
	}

	product, err := h.productRepo.CreateProduct(&req)
	if err != nil {
		log.Printf("Failed to create product: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to create product")
		return
	}

	h.rebuildIndex()
	writeJSON(w, http.StatusCreated, product)
}

// UpdateProduct edits a catalog entry and rebuilds the search index
func (h *Handlers) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req models.SaveProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	product, err := h.productRepo.UpdateProduct(id, &req)
	if err != nil {
		log.Printf("Failed to update product %s: %v", id, err)
		writeError(w, http.StatusNotFound, "Product not found")
		return
	}

	h.rebuildIndex()
	writeJSON(w, http.StatusOK, product)
}

// DeleteProduct removes a catalog entry and rebuilds the search index
func (h *Handlers) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.productRepo.DeleteProduct(id); err != nil {
		log.Printf("Failed to delete product %s: %v", id, err)
		writeError(w, http.StatusNotFound, "Product not found")
		return
	}

	h.rebuildIndex()
	w.WriteHeader(http.StatusNoContent)
}

// rebuildIndex refreshes the fuzzy matcher after a catalog write
func (h *Handlers) rebuildIndex() {
	products, err := h.productRepo.GetAllProducts()
	if err != nil {
		log.Printf("Failed to reload catalog after write: %v", err)
		return
	}
	h.matcher.Rebuild(products)
}

// GetSources returns all configured external sources
func (h *Handlers) GetSources(w http.ResponseWriter, r *http.Request) {
	sources, err := h.sourceRepo.GetAllSources()
	if err != nil {
		log.Printf("Failed to get sources: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to get sources")
		return
	}

	writeJSON(w, http.StatusOK, sources)
}

// CreateSource adds an external source
func (h *Handlers) CreateSource(w http.ResponseWriter, r *http.Request) {
	var req models.SaveSourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Name == "" || req.URLTemplate == "" {
		writeError(w, http.StatusBadRequest, "nombre and url_base are required")
		return
	}

	source, err := h.sourceRepo.CreateSource(&req)
	if err != nil {
		log.Printf("Failed to create source: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to create source")
		return
	}

	writeJSON(w, http.StatusCreated, source)
}

// UpdateSource edits an external source
func (h *Handlers) UpdateSource(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req models.SaveSourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	source, err := h.sourceRepo.UpdateSource(id, &req)
	if err != nil {
		log.Printf("Failed to update source %s: %v", id, err)
		writeError(w, http.StatusNotFound, "Source not found")
		return
	}

	writeJSON(w, http.StatusOK, source)
}

// DeleteSource removes an external source
func (h *Handlers) DeleteSource(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.sourceRepo.DeleteSource(id); err != nil {
		log.Printf("Failed to delete source %s: %v", id, err)
		writeError(w, http.StatusNotFound, "Source not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// StartSession opens the login surface for a source. The flow runs in the
// background; nothing is awaited by the caller.
func (h *Handlers) StartSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	source, err := h.sourceRepo.GetSourceByID(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "Source not found")
		return
	}

	handle := h.sessions.Manage(source)
	writeJSON(w, http.StatusAccepted, map[string]string{
		"source_id": handle.SourceID,
		"status":    "session_started",
	})
}

// GetSearchMode returns the persisted search mode
func (h *Handlers) GetSearchMode(w http.ResponseWriter, r *http.Request) {
	mode, err := h.configRepo.GetSearchMode(models.SearchMode(h.cfg.DefaultMode))
	if err != nil {
		log.Printf("Failed to get search mode: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to get search mode")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"search_mode": string(mode)})
}

// SetSearchMode persists the search mode
func (h *Handlers) SetSearchMode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SearchMode string `json:"search_mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	mode := models.SearchMode(req.SearchMode)
	if mode != models.SearchModeLocal && mode != models.SearchModeGlobal {
		writeError(w, http.StatusBadRequest, "search_mode must be local or global")
		return
	}

	if err := h.configRepo.SetSearchMode(mode); err != nil {
		log.Printf("Failed to set search mode: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to set search mode")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"search_mode": string(mode)})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
