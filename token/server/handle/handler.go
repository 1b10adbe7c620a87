package handle

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/token-overlay/tokend/internal/signal"
	"github.com/token-overlay/tokend/token/index"
	"github.com/token-overlay/tokend/token/log"
	"github.com/token-overlay/tokend/token/lookup"
	"github.com/token-overlay/tokend/token/server/handle/middlewares"
	"github.com/token-overlay/tokend/token/topic"
)

type Options struct {
	addr        string
	testnet     bool
	enablePProf bool
	engine      *gin.Engine
	store       index.Store
	lookup      *lookup.Service
	manager     *topic.Manager
}

type Option func(*Options)

func WithAddr(addr string) Option {
	return func(options *Options) {
		options.addr = addr
	}
}

func WithTestNet(testnet bool) Option {
	return func(options *Options) {
		options.testnet = testnet
	}
}

func WithEnablePProf(enablePProf bool) Option {
	return func(options *Options) {
		options.enablePProf = enablePProf
	}
}

func WithEngine(g *gin.Engine) Option {
	return func(options *Options) {
		options.engine = g
	}
}

func WithStore(store index.Store) Option {
	return func(options *Options) {
		options.store = store
	}
}

func WithLookup(l *lookup.Service) Option {
	return func(options *Options) {
		options.lookup = l
	}
}

func WithManager(m *topic.Manager) Option {
	return func(options *Options) {
		options.manager = m
	}
}

type Handler struct {
	options *Options
	srv     *http.Server
}

func New(opts ...Option) (*Handler, error) {
	h := &Handler{}
	h.options = &Options{}
	for _, opt := range opts {
		opt(h.options)
	}
	if h.options.addr == "" {
		h.options.addr = ":8335"
		if h.options.testnet {
			h.options.addr = ":18335"
		}
	}
	if h.options.store == nil {
		return nil, fmt.Errorf("store is nil")
	}
	if h.options.manager == nil {
		h.options.manager = topic.NewManager()
	}
	if h.options.lookup == nil {
		h.options.lookup = lookup.New(h.options.store)
	}
	if h.options.engine == nil {
		h.options.engine = gin.New()
	}
	return h, nil
}

func (h *Handler) Engine() *gin.Engine {
	return h.options.engine
}

func (h *Handler) Store() index.Store {
	return h.options.store
}

func (h *Handler) LookupService() *lookup.Service {
	return h.options.lookup
}

func (h *Handler) Manager() *topic.Manager {
	return h.options.manager
}

func (h *Handler) Run() error {
	h.Engine().Use(middlewares.Logger(), gin.Recovery())
	h.InitRouter()

	h.srv = &http.Server{
		Addr:    h.options.addr,
		Handler: h.Engine(),
	}
	signal.AddInterruptHandler(func() {
		if err := h.srv.Shutdown(context.Background()); err != nil {
			log.Srv.Errorf("server shutdown: %v", err)
		}
	})

	log.Srv.Infof("token overlay server listening on %s", h.options.addr)
	if err := h.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Srv.Error(err)
		os.Exit(1)
	}
	return nil
}
