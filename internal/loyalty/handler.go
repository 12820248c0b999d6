package loyalty

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/richxcame/ride-loyalty/pkg/common"
)

// Handler serves the read-only loyalty API
type Handler struct {
	service *Service
}

// NewHandler creates a new loyalty read API handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// GetLoyaltyInfo returns a rider's tier and point balance
// GET /loyalty/:rider_id
func (h *Handler) GetLoyaltyInfo(c *gin.Context) {
	riderID, err := primitive.ObjectIDFromHex(c.Param("rider_id"))
	if err != nil {
		common.AppErrorResponse(c, common.NewAppError(common.CodeValidation, "invalid rider id"))
		return
	}

	info, err := h.service.GetLoyaltyInfo(c.Request.Context(), riderID)
	if err != nil {
		var appErr *common.AppError
		if errors.As(err, &appErr) {
			common.AppErrorResponse(c, appErr)
			return
		}
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to get loyalty info")
		return
	}

	c.JSON(http.StatusOK, info)
}

// GetRideCount returns the number of rides a rider has completed. A known
// rider with no rides yields nbr_ride 0; an unknown rider is a 404.
// GET /nbr_rides/:rider_id
func (h *Handler) GetRideCount(c *gin.Context) {
	riderID, err := primitive.ObjectIDFromHex(c.Param("rider_id"))
	if err != nil {
		common.AppErrorResponse(c, common.NewAppError(common.CodeValidation, "invalid rider id"))
		return
	}

	count, err := h.service.GetRideCount(c.Request.Context(), riderID)
	if err != nil {
		var appErr *common.AppError
		if errors.As(err, &appErr) {
			common.AppErrorResponse(c, appErr)
			return
		}
		common.ErrorResponse(c, http.StatusInternalServerError, "failed to count rides")
		return
	}

	c.JSON(http.StatusOK, RideCountInfo{NbrRide: count})
}
