package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tandt53/apilot/internal/events"
	"github.com/tandt53/apilot/internal/models"
	"github.com/tandt53/apilot/internal/parser"
	"github.com/tandt53/apilot/internal/reconcile"
	"github.com/tandt53/apilot/internal/stats"
	"github.com/tandt53/apilot/internal/storage"
)

// Handler handles API requests
type Handler struct {
	store          storage.Storage
	statsCollector *stats.Collector
	eventService   *events.Service
	parser         *parser.Parser
	analyzer       *reconcile.Analyzer
	executor       *reconcile.Executor
}

// NewHandler creates a new API handler
func NewHandler(store storage.Storage, statsCollector *stats.Collector, eventService *events.Service) *Handler {
	return &Handler{
		store:          store,
		statsCollector: statsCollector,
		eventService:   eventService,
		parser:         parser.New(),
		analyzer:       reconcile.NewAnalyzer(store),
		executor:       reconcile.NewExecutor(store, eventService, statsCollector),
	}
}

// importPayload is the request body shared by analyze and import. Callers
// supply either a raw document to parse or pre-built endpoints.
type importPayload struct {
	Content   string               `json:"content"`
	Filename  string               `json:"filename"`
	Endpoints []*models.Endpoint   `json:"endpoints"`
	Options   models.ImportOptions `json:"options"`
	Enrich    bool                 `json:"enrich"`
}

// resolveEndpoints turns an import payload into the incoming endpoint batch
func (h *Handler) resolveEndpoints(p *importPayload) ([]*models.Endpoint, error) {
	endpoints := p.Endpoints
	if len(endpoints) == 0 && p.Content != "" {
		result, err := h.parser.Parse(p.Content, p.Filename)
		if err != nil {
			return nil, err
		}
		endpoints = result.Endpoints
	}

	if p.Enrich {
		for i, e := range endpoints {
			endpoints[i] = reconcile.ApplyDefaults(e)
		}
	}
	return endpoints, nil
}

// ListSpecs returns all specs with endpoint counts, raw documents omitted
func (h *Handler) ListSpecs(c *gin.Context) {
	var specs []*models.Spec
	var err error
	if c.Query("latest") == "true" {
		specs, err = h.store.GetLatestSpecs()
	} else {
		specs, err = h.store.GetAllSpecs()
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	result := make([]map[string]interface{}, len(specs))
	for i, spec := range specs {
		endpoints, _ := h.store.GetEndpointsBySpec(spec.ID)
		result[i] = map[string]interface{}{
			"id":            spec.ID,
			"name":          spec.Name,
			"version":       spec.Version,
			"description":   spec.Description,
			"format":        spec.Format,
			"versionGroup":  spec.VersionGroup,
			"isLatest":      spec.IsLatest,
			"createdAt":     spec.CreatedAt,
			"updatedAt":     spec.UpdatedAt,
			"endpointCount": len(endpoints),
		}
	}

	c.JSON(http.StatusOK, result)
}

// CreateSpec parses an uploaded document and stores the spec with its
// endpoints
func (h *Handler) CreateSpec(c *gin.Context) {
	var input models.SpecInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	parseResult, err := h.parser.Parse(input.Content, input.Filename)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid specification: " + err.Error()})
		return
	}

	if input.Name != "" {
		parseResult.Spec.Name = input.Name
	}
	if input.Description != "" {
		parseResult.Spec.Description = input.Description
	}

	if err := h.store.CreateSpec(parseResult.Spec); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	for _, e := range parseResult.Endpoints {
		if err := h.store.CreateEndpoint(e); err != nil {
			// Rollback spec on error
			h.store.DeleteEndpointsBySpec(parseResult.Spec.ID)
			h.store.DeleteSpec(parseResult.Spec.ID)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":            parseResult.Spec.ID,
		"name":          parseResult.Spec.Name,
		"version":       parseResult.Spec.Version,
		"format":        parseResult.Spec.Format,
		"endpointCount": len(parseResult.Endpoints),
	})
}

// GetSpec returns a single spec
func (h *Handler) GetSpec(c *gin.Context) {
	spec, err := h.store.GetSpec(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Spec not found"})
		return
	}

	c.JSON(http.StatusOK, spec)
}

// UpdateSpec updates spec metadata
func (h *Handler) UpdateSpec(c *gin.Context) {
	spec, err := h.store.GetSpec(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Spec not found"})
		return
	}

	var update models.SpecUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if update.Name != nil {
		spec.Name = *update.Name
	}
	if update.Description != nil {
		spec.Description = *update.Description
	}
	spec.UpdatedAt = time.Now()

	if err := h.store.UpdateSpec(spec); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, spec)
}

// DeleteSpec deletes a spec with its endpoints and events
func (h *Handler) DeleteSpec(c *gin.Context) {
	id := c.Param("id")

	h.store.DeleteEndpointsBySpec(id)
	if err := h.store.DeleteSpec(id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Spec not found"})
		return
	}

	h.eventService.ClearBySpec(id)

	c.JSON(http.StatusOK, gin.H{"message": "Spec deleted"})
}

// ListEndpoints returns all endpoints for a spec
func (h *Handler) ListEndpoints(c *gin.Context) {
	endpoints, err := h.store.GetEndpointsBySpec(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, endpoints)
}

// AnalyzeImport compares an incoming batch against a stored spec without
// writing anything
func (h *Handler) AnalyzeImport(c *gin.Context) {
	specID := c.Param("id")
	if _, err := h.store.GetSpec(specID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Spec not found"})
		return
	}

	var payload importPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	incoming, err := h.resolveEndpoints(&payload)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid import document: " + err.Error()})
		return
	}
	if len(incoming) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Nothing to analyze: provide endpoints or content"})
		return
	}

	start := time.Now()
	analysis, err := h.analyzer.Analyze(incoming, specID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	h.statsCollector.RecordAnalysis(specID, time.Since(start))

	c.JSON(http.StatusOK, analysis)
}

// ApplyImport merges an incoming batch into a stored spec under the
// requested duplicate policy
func (h *Handler) ApplyImport(c *gin.Context) {
	specID := c.Param("id")
	if _, err := h.store.GetSpec(specID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Spec not found"})
		return
	}

	var payload importPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	incoming, err := h.resolveEndpoints(&payload)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid import document: " + err.Error()})
		return
	}
	if len(incoming) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Nothing to import: provide endpoints or content"})
		return
	}

	result, err := h.executor.Apply(c.Request.Context(), incoming, specID, payload.Options)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	status := http.StatusOK
	if result.Failed > 0 {
		status = http.StatusMultiStatus
	}
	c.JSON(status, result)
}

// ImportAsNewVersion stores the incoming batch as a new spec version
// instead of merging into the existing one
func (h *Handler) ImportAsNewVersion(c *gin.Context) {
	base, err := h.store.GetSpec(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Spec not found"})
		return
	}

	var payload struct {
		importPayload
		Version string `json:"version"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if payload.Version == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Version is required"})
		return
	}

	incoming, err := h.resolveEndpoints(&payload.importPayload)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid import document: " + err.Error()})
		return
	}

	spec, result, err := h.executor.ApplyAsNewVersion(c.Request.Context(), base, payload.Version, incoming)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"spec": spec, "result": result})
}

// GetEndpoint returns a single endpoint
func (h *Handler) GetEndpoint(c *gin.Context) {
	e, err := h.store.GetEndpoint(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Endpoint not found"})
		return
	}

	c.JSON(http.StatusOK, e)
}

// UpdateEndpoint replaces the stored endpoint definition in place. Identity
// fields keep their stored values.
func (h *Handler) UpdateEndpoint(c *gin.Context) {
	existing, err := h.store.GetEndpoint(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Endpoint not found"})
		return
	}

	var update models.Endpoint
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	update.ID = existing.ID
	update.SpecID = existing.SpecID
	update.Method = existing.Method
	update.Path = existing.Path
	update.CreatedAt = existing.CreatedAt
	update.UpdatedAt = time.Now()

	if err := h.store.UpdateEndpoint(&update); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, &update)
}

// DeleteEndpoint deletes an endpoint unless test cases still point at it
func (h *Handler) DeleteEndpoint(c *gin.Context) {
	id := c.Param("id")

	count, err := h.store.CountTestCasesByEndpoint(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if count > 0 {
		c.JSON(http.StatusConflict, gin.H{
			"error":         "Endpoint has linked test cases; deprecate it instead",
			"affectedTests": count,
		})
		return
	}

	if err := h.store.DeleteEndpoint(id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Endpoint not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Endpoint deleted"})
}

// GetCompleteness scores how much metadata an endpoint carries
func (h *Handler) GetCompleteness(c *gin.Context) {
	e, err := h.store.GetEndpoint(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Endpoint not found"})
		return
	}

	c.JSON(http.StatusOK, reconcile.CalculateCompleteness(e))
}

// GetEnrichedEndpoint previews the endpoint with smart defaults applied,
// without persisting the enrichment
func (h *Handler) GetEnrichedEndpoint(c *gin.Context) {
	e, err := h.store.GetEndpoint(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Endpoint not found"})
		return
	}

	c.JSON(http.StatusOK, reconcile.ApplyDefaults(e))
}

// GetSampleBody synthesizes an example request body from the endpoint's
// schema
func (h *Handler) GetSampleBody(c *gin.Context) {
	e, err := h.store.GetEndpoint(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Endpoint not found"})
		return
	}

	c.JSON(http.StatusOK, reconcile.BuildBodyFromSchema(e.Request.Body))
}

// ListTestCasesByEndpoint returns test cases currently linked to an endpoint
func (h *Handler) ListTestCasesByEndpoint(c *gin.Context) {
	testCases, err := h.store.GetTestCasesByCurrentEndpoint(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, testCases)
}

// CreateTestCase creates a test case linked to an endpoint
func (h *Handler) CreateTestCase(c *gin.Context) {
	var input struct {
		EndpointID string `json:"endpointId"`
		models.TestCaseInput
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	endpoint, err := h.store.GetEndpoint(input.EndpointID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Endpoint not found"})
		return
	}

	now := time.Now()
	tc := &models.TestCase{
		ID:                uuid.New().String(),
		Name:              input.Name,
		Description:       input.Description,
		SourceEndpointID:  endpoint.ID,
		CurrentEndpointID: endpoint.ID,
		Method:            endpoint.Method,
		Path:              endpoint.Path,
		Headers:           input.Headers,
		Body:              input.Body,
		ExpectedStatus:    input.ExpectedStatus,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := h.store.CreateTestCase(tc); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, tc)
}

// GetTestCase returns a single test case
func (h *Handler) GetTestCase(c *gin.Context) {
	tc, err := h.store.GetTestCase(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Test case not found"})
		return
	}

	c.JSON(http.StatusOK, tc)
}

// UpdateTestCase updates a test case's own fields. Endpoint links are
// managed by the merge executor, not this endpoint.
func (h *Handler) UpdateTestCase(c *gin.Context) {
	tc, err := h.store.GetTestCase(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Test case not found"})
		return
	}

	var input models.TestCaseInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if input.Name != "" {
		tc.Name = input.Name
	}
	if input.Description != "" {
		tc.Description = input.Description
	}
	if input.Headers != nil {
		tc.Headers = input.Headers
	}
	if input.Body != "" {
		tc.Body = input.Body
	}
	if input.ExpectedStatus != 0 {
		tc.ExpectedStatus = input.ExpectedStatus
	}
	tc.UpdatedAt = time.Now()

	if err := h.store.UpdateTestCase(tc); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, tc)
}

// DeleteTestCase deletes a test case
func (h *Handler) DeleteTestCase(c *gin.Context) {
	if err := h.store.DeleteTestCase(c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Test case not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Test case deleted"})
}

// ListEvents returns recorded import events, newest first
func (h *Handler) ListEvents(c *gin.Context) {
	filter := &models.EventFilter{Limit: 100}

	if specID := c.Query("specId"); specID != "" {
		filter.SpecID = specID
	}
	if eventType := c.Query("type"); eventType != "" {
		filter.Type = eventType
	}
	if endpointID := c.Query("endpointId"); endpointID != "" {
		filter.EndpointID = endpointID
	}
	if limit := c.Query("limit"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil && n > 0 {
			filter.Limit = n
		}
	}

	c.JSON(http.StatusOK, h.eventService.GetEvents(filter))
}

// GetEvent returns a single recorded event
func (h *Handler) GetEvent(c *gin.Context) {
	event := h.eventService.GetEvent(c.Param("id"))
	if event == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
		return
	}

	c.JSON(http.StatusOK, event)
}

// ClearEvents clears recorded events, optionally for one spec
func (h *Handler) ClearEvents(c *gin.Context) {
	if specID := c.Query("specId"); specID != "" {
		h.eventService.ClearBySpec(specID)
	} else {
		h.eventService.Clear()
	}
	c.JSON(http.StatusOK, gin.H{"message": "Events cleared"})
}

// GetGlobalStats returns global import statistics
func (h *Handler) GetGlobalStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.statsCollector.GlobalStats())
}

// GetSpecStats returns import statistics for one spec
func (h *Handler) GetSpecStats(c *gin.Context) {
	id := c.Param("id")
	if _, err := h.store.GetSpec(id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Spec not found"})
		return
	}

	c.JSON(http.StatusOK, h.statsCollector.SpecStats(id))
}

// ResetStats resets all statistics
func (h *Handler) ResetStats(c *gin.Context) {
	h.statsCollector.Reset()
	c.JSON(http.StatusOK, gin.H{"message": "Statistics reset"})
}

// HealthCheck returns health status
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
