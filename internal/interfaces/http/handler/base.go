package handler

import (
	"errors"
	"net/http"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stoptime/backend/internal/domain/billing"
	"github.com/stoptime/backend/internal/domain/shared"
	"github.com/stoptime/backend/internal/infrastructure/logger"
	"github.com/stoptime/backend/internal/interfaces/http/dto"
	"github.com/stoptime/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

func getRequestID(c *gin.Context) string {
	return c.GetString(middleware.RequestIDKey)
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response with the status derived from code
func (h *BaseHandler) Error(c *gin.Context, code, message string) {
	resp := dto.NewErrorResponseWithRequestID(code, message, getRequestID(c))
	c.JSON(dto.GetHTTPStatus(resp.Error.Code), resp)
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, dto.ErrCodeBadRequest, message)
}

// BindError answers a request that failed to bind
func (h *BaseHandler) BindError(c *gin.Context, err error) {
	middleware.HandleValidationError(c, err)
}

// HandleError converts service errors to HTTP responses. Validation and
// reference errors carry their per-field and per-id details.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	requestID := getRequestID(c)

	var validationErr *billing.ValidationError
	if errors.As(err, &validationErr) {
		resp := dto.NewErrorResponseWithRequestID(validationErr.Code, validationErr.Message, requestID)
		resp.Error.Details = validationDetails(validationErr.Fields)
		c.JSON(dto.GetHTTPStatus(resp.Error.Code), resp)
		return
	}

	var referenceErr *billing.ReferenceError
	if errors.As(err, &referenceErr) {
		resp := dto.NewErrorResponseWithRequestID(referenceErr.Code, referenceErr.Message, requestID)
		for _, ref := range referenceErr.References {
			resp.Error.References = append(resp.Error.References, dto.ReferenceDetail{
				Kind:   string(ref.Kind),
				ID:     ref.ID.String(),
				Reason: ref.Reason,
			})
		}
		c.JSON(dto.GetHTTPStatus(resp.Error.Code), resp)
		return
	}

	if domainErr, ok := shared.AsDomainError(err); ok {
		h.Error(c, domainErr.Code, domainErr.Message)
		return
	}

	logger.FromContext(c.Request.Context()).Error("Unhandled error", zap.Error(err))
	h.Error(c, dto.ErrCodeInternal, "An unexpected error occurred")
}

func validationDetails(fields map[string]string) []dto.ValidationDetail {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	details := make([]dto.ValidationDetail, len(names))
	for i, name := range names {
		details[i] = dto.ValidationDetail{Field: name, Message: fields[name]}
	}
	return details
}

// parseID reads a UUID path parameter, answering 400 when it is malformed
func (h *BaseHandler) parseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		h.BadRequest(c, "Invalid "+param+" format")
		return uuid.Nil, false
	}
	return id, true
}

// parseOptionalID reads an optional UUID query parameter
func (h *BaseHandler) parseOptionalID(c *gin.Context, key string) (*uuid.UUID, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		h.BadRequest(c, "Invalid "+key+" format")
		return nil, false
	}
	return &id, true
}

// queryBool reads an optional boolean query parameter such as ?force=true
func queryBool(c *gin.Context, key string) bool {
	v, err := strconv.ParseBool(c.Query(key))
	return err == nil && v
}
