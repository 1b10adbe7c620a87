package handle

import (
	"encoding/hex"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/token-overlay/tokend/constants"
	"github.com/token-overlay/tokend/internal/util"
	"github.com/token-overlay/tokend/token/server/handle/api"
	"github.com/token-overlay/tokend/token/topic"
)

// AdmitRequest is the host's admission request: a hex encoded transaction
// graph plus the input indices already retained by this topic.
type AdmitRequest struct {
	Graph         string   `json:"graph" binding:"required"`
	PreviousCoins []uint32 `json:"previousCoins"`
}

// Admit is a handler function for handling admission requests.
// It validates the request, runs the admission validator and persists every
// admitted output before reporting the decision.
func (h *Handler) Admit(ctx *gin.Context) {
	req := &AdmitRequest{}
	if err := ctx.ShouldBindJSON(req); err != nil {
		ctx.JSON(http.StatusBadRequest, api.RespErr(api.CodeParamsInvalid, err.Error()))
		return
	}
	rawGraph, err := hex.DecodeString(req.Graph)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, api.RespErr(api.CodeParamsInvalid, "graph is not valid hex"))
		return
	}
	if err := h.doAdmit(ctx, rawGraph, req.PreviousCoins); err != nil {
		ctx.JSON(http.StatusInternalServerError, api.RespErr(api.CodeError500, err.Error()))
		return
	}
}

// doAdmit is a helper function for handling admission requests. A protocol
// violation is a decision, not a transport failure, so it is reported inside
// the response envelope; only storage problems surface as server errors.
func (h *Handler) doAdmit(ctx *gin.Context, rawGraph []byte, previousCoins []uint32) error {
	admittance, err := h.Manager().IdentifyAdmissibleOutputs(ctx, rawGraph, previousCoins)
	if err != nil {
		switch {
		case errors.Is(err, topic.ErrImbalance):
			ctx.JSON(http.StatusOK, api.RespErr(api.CodeProtocolViolation, err.Error()))
			return nil
		case errors.Is(err, topic.ErrNoAdmissibleOutputs):
			ctx.JSON(http.StatusOK, api.RespErr(api.CodeNoAdmissions, err.Error()))
			return nil
		default:
			ctx.JSON(http.StatusBadRequest, api.RespErr(api.CodeParamsInvalid, err.Error()))
			return nil
		}
	}

	graph, err := topic.ParseGraph(rawGraph)
	if err != nil {
		return err
	}
	txId := graph.Subject.TxHash().String()

	// Admitted outputs are independent keys, so they persist concurrently.
	// Any failed store fails the whole request rather than silently passing
	// as a successful admission.
	errWg := &errgroup.Group{}
	for _, vout := range admittance.OutputsToAdmit {
		vout := vout
		errWg.Go(func() error {
			outpoint := util.NewOutPoint(txId, vout)
			script := graph.Subject.TxOut[vout].PkScript
			return h.LookupService().OutputAdmitted(ctx, constants.TopicName, outpoint, script)
		})
	}
	if err := errWg.Wait(); err != nil {
		return err
	}

	ctx.JSON(http.StatusOK, api.RespOK(admittance))
	return nil
}
