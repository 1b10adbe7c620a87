package handle

import "github.com/gin-contrib/pprof"

func (h *Handler) InitRouter() {
	if h.options.enablePProf {
		pprof.Register(h.Engine())
	}
	h.Engine().POST("/admit", h.Admit)
	h.Engine().POST("/spent", h.Spent)
	h.Engine().POST("/evicted", h.Evicted)
	h.Engine().POST("/lookup", h.Lookup)
	h.Engine().GET("/output/:outpoint", h.Output)
	h.Engine().GET("/token/:tokenId/outputs", h.TokenOutputs)
}
