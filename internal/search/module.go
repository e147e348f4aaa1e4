package search

import (
	"forum_search_backend/internal/events"
	apphttp "forum_search_backend/internal/http"
	"forum_search_backend/internal/search/handler"
	"forum_search_backend/internal/search/ports"
	"forum_search_backend/internal/search/scan"
	"forum_search_backend/internal/search/service"
	"forum_search_backend/platform/config"
	"forum_search_backend/platform/logger"
	"forum_search_backend/platform/validator"
)

type Module struct {
	handler *handler.Handler
	service *service.Service
	log     *logger.Logger
}

// NewModule wires the scanner and service over store.
func NewModule(store ports.Store, cfg config.SearchConfig, bus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	scanner := scan.NewScanner(store, ScanOptions(cfg), log)
	svc := service.New(scanner, store, bus, service.OptionsFromConfig(cfg), log)
	h := handler.New(svc, val)

	return &Module{handler: h, service: svc, log: log}
}

// ScanOptions reads the scan bounds from the search config.
func ScanOptions(cfg config.SearchConfig) scan.Options {
	return scan.Options{
		MaxTopics:          cfg.GetSearchMaxTopics(),
		MaxRepliesPerTopic: cfg.GetSearchMaxRepliesPerTopic(),
		BatchSize:          cfg.GetSearchBatchSize(),
		ResultCap:          cfg.GetSearchResultCap(),
		FetchConcurrency:   cfg.GetSearchFetchConcurrency(),
	}
}

func (m *Module) Name() string {
	return "search"
}

func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterHandlers subscribes the module's event handlers.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.SearchCompleted{}.EventName(), service.PartialScanLogger(m.log))
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.V1.Group("/search")
	group.Use(ctx.RateLimit)
	m.handler.RegisterRoutes(group)
}

var (
	_ apphttp.Module          = (*Module)(nil)
	_ apphttp.EventSubscriber = (*Module)(nil)
)
