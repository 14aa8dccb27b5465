package qp

import (
	"github.com/colonyops/qp/internal/core/agent"
	"github.com/colonyops/qp/internal/core/config"
	"github.com/colonyops/qp/internal/core/logging"
	"github.com/colonyops/qp/internal/store/planfs"
)

// App is the central entry point for all qp operations.
// Commands consume App instead of cherry-picking raw dependencies.
type App struct {
	Plans     *PlanService
	Optimizer *Optimizer
	Doctor    *DoctorService

	Config *config.Config
	Store  *planfs.Store
	Root   string
}

// NewApp constructs an App from explicit dependencies.
func NewApp(root string, store *planfs.Store, invoker *agent.Invoker, cfg *config.Config) *App {
	return &App{
		Plans:     NewPlanService(store, invoker, cfg, root, logging.Component("plans")),
		Optimizer: NewOptimizer(store, invoker, cfg, logging.Component("optimizer")),
		Doctor:    NewDoctorService(store, cfg),
		Config:    cfg,
		Store:     store,
		Root:      root,
	}
}
