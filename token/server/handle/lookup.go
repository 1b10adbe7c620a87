package handle

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gogf/gf/v2/util/gconv"

	"github.com/token-overlay/tokend/internal/util"
	"github.com/token-overlay/tokend/token/index"
	"github.com/token-overlay/tokend/token/lookup"
	"github.com/token-overlay/tokend/token/server/handle/api"
)

// Lookup is a handler function for handling lookup questions.
// It dispatches the question to the lookup service and returns the matching
// outpoints.
func (h *Handler) Lookup(ctx *gin.Context) {
	question := &lookup.Question{}
	if err := ctx.ShouldBindJSON(question); err != nil {
		ctx.JSON(http.StatusBadRequest, api.RespErr(api.CodeParamsInvalid, err.Error()))
		return
	}

	outpoints, err := h.options.lookup.Lookup(ctx, question)
	if err != nil {
		switch {
		case errors.Is(err, lookup.ErrUnknownService):
			ctx.JSON(http.StatusBadRequest, api.RespErr(api.CodeUnknownService, err.Error()))
		case errors.Is(err, lookup.ErrMalformedOutpoint),
			errors.Is(err, index.ErrInvalidPagination),
			errors.Is(err, index.ErrInvalidDateRange):
			ctx.JSON(http.StatusBadRequest, api.RespErr(api.CodeParamsInvalid, err.Error()))
		default:
			ctx.JSON(http.StatusInternalServerError, api.RespErr(api.CodeDbError, err.Error()))
		}
		return
	}
	ctx.JSON(http.StatusOK, api.RespOK(outpointList(outpoints)))
}

// Output is a handler function for point lookups by outpoint. It returns the
// full record, not just the reference projection.
func (h *Handler) Output(ctx *gin.Context) {
	outpoint := util.StringToOutpoint(ctx.Param("outpoint"))
	if outpoint == nil {
		ctx.JSON(http.StatusBadRequest, api.RespErr(api.CodeParamsInvalid, "malformed outpoint"))
		return
	}
	record, err := h.LookupService().FindByOutpoint(ctx, outpoint)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, api.RespErr(api.CodeDbError, err.Error()))
		return
	}
	if record == nil {
		ctx.Status(http.StatusNotFound)
		return
	}
	ctx.JSON(http.StatusOK, api.RespOK(record))
}

// TokenOutputs is a handler function listing the outpoints of one token
// series with limit, skip and sort query parameters.
func (h *Handler) TokenOutputs(ctx *gin.Context) {
	tokenId := ctx.Param("tokenId")
	page := &index.Page{
		Limit:     gconv.Int(ctx.DefaultQuery("limit", "0")),
		Skip:      gconv.Int(ctx.DefaultQuery("skip", "0")),
		SortOrder: ctx.DefaultQuery("sort", ""),
	}
	outpoints, err := h.Store().FindByTokenId(ctx, tokenId, page)
	if err != nil {
		if errors.Is(err, index.ErrInvalidPagination) || errors.Is(err, index.ErrInvalidDateRange) {
			ctx.JSON(http.StatusBadRequest, api.RespErr(api.CodeParamsInvalid, err.Error()))
			return
		}
		ctx.JSON(http.StatusInternalServerError, api.RespErr(api.CodeDbError, err.Error()))
		return
	}
	ctx.JSON(http.StatusOK, api.RespOK(outpointList(outpoints)))
}

func outpointList(outpoints []*util.OutPoint) gin.H {
	list := make([]gin.H, 0, len(outpoints))
	for _, op := range outpoints {
		list = append(list, gin.H{
			"transactionId": op.TxId(),
			"outputIndex":   op.Index,
		})
	}
	return gin.H{"outputs": list}
}
