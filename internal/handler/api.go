package handler

import (
	"github.com/daypilot/internal/service"
	"gorm.io/gorm"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db        *gorm.DB
	plans     *service.PlanService
	exits     *service.ExitTimeService
	gates     *service.GateTemplateService
	routines  *service.RoutineService
	stores    *service.StoreCatalogService
	optimizer *service.ShoppingOptimizer
}

// NewAPI constructs a handler set with shared services.
func NewAPI(gdb *gorm.DB) *API {
	travel := service.NewHaversineTravelEstimator()
	plans := service.NewPlanService(gdb)

	return &API{
		db:        gdb,
		plans:     plans,
		exits:     service.NewExitTimeService(gdb, travel, plans),
		gates:     service.NewGateTemplateService(gdb),
		routines:  service.NewRoutineService(gdb),
		stores:    service.NewStoreCatalogService(gdb),
		optimizer: service.NewShoppingOptimizer(travel, service.TravelDrive),
	}
}

// DB exposes the underlying gorm instance for tests.
func (a *API) DB() *gorm.DB {
	return a.db
}
