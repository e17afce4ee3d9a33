package http

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"fleet-service/internal/http/middleware"
	"fleet-service/internal/service"
	"fleet-service/internal/storage"
)

type Handler struct {
	vehicleService   *service.VehicleService
	telemetryService *service.TelemetryService
	ingestService    *service.IngestService
	authService      *service.AuthService
	maxUploadBytes   int64
	log              zerolog.Logger
}

func NewHandler(
	vehicleService *service.VehicleService,
	telemetryService *service.TelemetryService,
	ingestService *service.IngestService,
	authService *service.AuthService,
	maxUploadBytes int64,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		vehicleService:   vehicleService,
		telemetryService: telemetryService,
		ingestService:    ingestService,
		authService:      authService,
		maxUploadBytes:   maxUploadBytes,
		log:              log,
	}
}

func (h *Handler) Register(r *gin.Engine, authMiddleware gin.HandlerFunc) {
	api := r.Group("/api")

	api.POST("/register", h.register)
	api.POST("/login", h.login)

	protected := api.Group("/")
	protected.Use(authMiddleware)

	protected.GET("/user", h.currentUser)

	protected.GET("/vehicles", h.listVehicles)
	protected.POST("/vehicles", h.createVehicle)
	protected.GET("/vehicles/:id", h.getVehicle)
	protected.PUT("/vehicles/:id", h.updateVehicle)
	protected.DELETE("/vehicles/:id", h.deleteVehicle)
	protected.GET("/vehicles/:id/latest-position", h.latestPosition)

	// Strict per-vehicle tracking stream: upload requires each point to
	// carry the vehicle's own plate; reads come back in route order.
	protected.POST("/vehicles/:id/tracking", h.uploadTracking)
	protected.GET("/vehicles/:id/tracking", h.getTracking)

	protected.GET("/gps-data", h.queryGpsData)
	protected.POST("/upload-json", h.uploadJSON)
	protected.GET("/upload-history", h.uploadHistory)
	protected.GET("/stats", h.stats)
}

func (h *Handler) register(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
		Name     string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	user, err := h.authService.Register(c.Request.Context(), service.RegisterInput{
		Username: req.Username,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

func (h *Handler) login(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	token, user, err := h.authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

func (h *Handler) currentUser(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	user, err := h.authService.CurrentUser(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *Handler) listVehicles(c *gin.Context) {
	vehicles, err := h.vehicleService.List(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, vehicles)
}

func (h *Handler) getVehicle(c *gin.Context) {
	vehicle, err := h.vehicleService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, vehicle)
}

func (h *Handler) createVehicle(c *gin.Context) {
	var req struct {
		Plate        string  `json:"plate"`
		Model        string  `json:"model"`
		DeviceID     string  `json:"deviceId"`
		Status       string  `json:"status"`
		Manufacturer *string `json:"manufacturer"`
		Notes        *string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	vehicle, err := h.vehicleService.Create(c.Request.Context(), service.CreateVehicleInput{
		Plate:        req.Plate,
		Model:        req.Model,
		DeviceID:     req.DeviceID,
		Status:       req.Status,
		Manufacturer: req.Manufacturer,
		Notes:        req.Notes,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, vehicle)
}

func (h *Handler) updateVehicle(c *gin.Context) {
	var req struct {
		Plate        *string `json:"plate"`
		Model        *string `json:"model"`
		DeviceID     *string `json:"deviceId"`
		Status       *string `json:"status"`
		Manufacturer *string `json:"manufacturer"`
		Notes        *string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	vehicle, err := h.vehicleService.Update(c.Request.Context(), c.Param("id"), service.UpdateVehicleInput{
		Plate:        req.Plate,
		Model:        req.Model,
		DeviceID:     req.DeviceID,
		Status:       req.Status,
		Manufacturer: req.Manufacturer,
		Notes:        req.Notes,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, vehicle)
}

func (h *Handler) deleteVehicle(c *gin.Context) {
	if err := h.vehicleService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) latestPosition(c *gin.Context) {
	point, err := h.telemetryService.Latest(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, point)
}

func (h *Handler) uploadTracking(c *gin.Context) {
	// Read one byte past the limit so an oversized body is detected
	// instead of silently truncated into broken JSON.
	data, err := io.ReadAll(io.LimitReader(c.Request.Body, h.maxUploadBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("failed to read request body"))
		return
	}
	if int64(len(data)) > h.maxUploadBytes {
		c.JSON(http.StatusBadRequest, errorResponse("request body too large"))
		return
	}

	processed, err := h.ingestService.IngestForVehicle(c.Request.Context(), c.Param("id"), data)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"processedCount": processed})
}

func (h *Handler) getTracking(c *gin.Context) {
	points, err := h.telemetryService.Route(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"trackingData": points})
}

func (h *Handler) queryGpsData(c *gin.Context) {
	points, err := h.telemetryService.Query(c.Request.Context(), service.QueryInput{
		VehicleID: strings.TrimSpace(c.Query("vehicleId")),
		DeviceID:  strings.TrimSpace(c.Query("deviceId")),
		StartDate: strings.TrimSpace(c.Query("startDate")),
		EndDate:   strings.TrimSpace(c.Query("endDate")),
		Limit:     strings.TrimSpace(c.Query("limit")),
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, points)
}

func (h *Handler) uploadJSON(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("no file uploaded"))
		return
	}

	if file.Size > h.maxUploadBytes {
		c.JSON(http.StatusBadRequest, errorResponse("file too large"))
		return
	}

	contentType := file.Header.Get("Content-Type")
	if !strings.HasSuffix(strings.ToLower(file.Filename), ".json") && contentType != "application/json" {
		c.JSON(http.StatusBadRequest, errorResponse("only JSON files are allowed"))
		return
	}

	src, err := file.Open()
	if err != nil {
		h.handleError(c, err)
		return
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		h.handleError(c, err)
		return
	}

	result, err := h.ingestService.IngestBatch(c.Request.Context(), data, file.Filename, file.Size)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) uploadHistory(c *gin.Context) {
	history, err := h.ingestService.History(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, history)
}

func (h *Handler) stats(c *gin.Context) {
	stats, err := h.telemetryService.Stats(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse(err.Error()))
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, errorResponse(err.Error()))
	case errors.Is(err, service.ErrInvalidJSON), errors.Is(err, service.ErrNotArray):
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
	case errors.Is(err, storage.ErrDuplicatePlate),
		errors.Is(err, storage.ErrDuplicateDeviceID),
		errors.Is(err, storage.ErrDuplicateUsername):
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
	case errors.Is(err, service.ErrInvalidInput):
		var validationErr *service.ValidationError
		if errors.As(err, &validationErr) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "validation failed",
				"details": validationErr.Fields,
			})
			return
		}
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
	default:
		h.log.Error().Err(err).Msg("handler error")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
	}
}

func errorResponse(message string) gin.H {
	return gin.H{
		"error": message,
	}
}
