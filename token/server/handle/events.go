package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/token-overlay/tokend/internal/util"
	"github.com/token-overlay/tokend/token/server/handle/api"
)

// SpentRequest is the host's notification that a tracked output was consumed
// by a later transaction.
type SpentRequest struct {
	Topic    string `json:"topic" binding:"required"`
	Outpoint string `json:"outpoint" binding:"required"`
}

// EvictedRequest is the host's instruction to permanently remove an output,
// independent of normal spend tracking.
type EvictedRequest struct {
	Outpoint string `json:"outpoint" binding:"required"`
}

// Spent is a handler function for handling spend notifications.
func (h *Handler) Spent(ctx *gin.Context) {
	req := &SpentRequest{}
	if err := ctx.ShouldBindJSON(req); err != nil {
		ctx.JSON(http.StatusBadRequest, api.RespErr(api.CodeParamsInvalid, err.Error()))
		return
	}
	outpoint := util.StringToOutpoint(req.Outpoint)
	if outpoint == nil {
		ctx.JSON(http.StatusBadRequest, api.RespErr(api.CodeParamsInvalid, "malformed outpoint"))
		return
	}
	if err := h.LookupService().OutputSpent(ctx, req.Topic, outpoint); err != nil {
		ctx.JSON(http.StatusInternalServerError, api.RespErr(api.CodeDbError, err.Error()))
		return
	}
	ctx.JSON(http.StatusOK, api.RespOK(nil))
}

// Evicted is a handler function for handling forced evictions.
func (h *Handler) Evicted(ctx *gin.Context) {
	req := &EvictedRequest{}
	if err := ctx.ShouldBindJSON(req); err != nil {
		ctx.JSON(http.StatusBadRequest, api.RespErr(api.CodeParamsInvalid, err.Error()))
		return
	}
	outpoint := util.StringToOutpoint(req.Outpoint)
	if outpoint == nil {
		ctx.JSON(http.StatusBadRequest, api.RespErr(api.CodeParamsInvalid, "malformed outpoint"))
		return
	}
	if err := h.LookupService().OutputEvicted(ctx, outpoint); err != nil {
		ctx.JSON(http.StatusInternalServerError, api.RespErr(api.CodeDbError, err.Error()))
		return
	}
	ctx.JSON(http.StatusOK, api.RespOK(nil))
}
