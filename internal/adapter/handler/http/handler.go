package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/quickcart/orders/internal/core/domain"
)

var errorStatusMap = map[error]int{
	domain.ErrInternal:        http.StatusInternalServerError,
	domain.ErrDataNotFound:    http.StatusNotFound,
	domain.ErrConflictingData: http.StatusConflict,

	domain.ErrUnauthorized:               http.StatusUnauthorized,
	domain.ErrEmptyAuthorizationHeader:   http.StatusUnauthorized,
	domain.ErrInvalidAuthorizationHeader: http.StatusUnauthorized,
	domain.ErrInvalidAuthorizationType:   http.StatusUnauthorized,
	domain.ErrInvalidToken:               http.StatusUnauthorized,
	domain.ErrExpiredToken:               http.StatusUnauthorized,
	domain.ErrForbidden:                  http.StatusForbidden,

	domain.ErrBadRequest: http.StatusBadRequest,

	domain.ErrEmptyOrder:               http.StatusBadRequest,
	domain.ErrInvalidCoupon:            http.StatusBadRequest,
	domain.ErrProductUnavailable:       http.StatusBadRequest,
	domain.ErrOrderNotCancellable:      http.StatusUnprocessableEntity,
	domain.ErrOrderNotReturnable:       http.StatusUnprocessableEntity,
	domain.ErrPaymentAlreadyCompleted:  http.StatusConflict,
	domain.ErrInvalidPayment:           http.StatusBadRequest,
	domain.ErrRefundExceedsPayment:     http.StatusUnprocessableEntity,
	domain.ErrPaymentNotCompleted:      http.StatusUnprocessableEntity,
	domain.ErrUnsupportedPaymentMethod: http.StatusBadRequest,
}

type errorResponse struct {
	Error string `json:"error"`
}

type Handler struct {
	logger *zap.Logger
}

func NewHandler(logger *zap.Logger) *Handler {
	return &Handler{logger: logger}
}

// handleValidationError sends an error response for some specific request validation error
func (h *Handler) handleValidationError(ctx *gin.Context, err error) {
	ctx.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
}

func (h *Handler) handleError(ctx *gin.Context, err error) {
	ctx.JSON(statusForError(h.logger, err), errorResponse{Error: err.Error()})
}

func statusForError(logger *zap.Logger, err error) int {
	var stockErr *domain.InsufficientStockError
	if errors.As(err, &stockErr) {
		return http.StatusConflict
	}
	var transitionErr *domain.TransitionError
	if errors.As(err, &transitionErr) {
		return http.StatusUnprocessableEntity
	}

	statusCode, ok := errorStatusMap[err]
	if !ok {
		statusCode = http.StatusInternalServerError
		logger.Error("error processing request", zap.Error(err))
	}
	return statusCode
}

// handleSuccess sends a success response with the specified status code and optional data
func (h *Handler) handleSuccessWithStatus(ctx *gin.Context, data any, status int) {
	if data != nil {
		ctx.JSON(status, data)
	} else {
		ctx.Status(status)
	}
}

func (h *Handler) handleSuccess(ctx *gin.Context, data any) {
	h.handleSuccessWithStatus(ctx, data, http.StatusOK)
}
