package qp

import (
	"context"

	"github.com/colonyops/qp/internal/core/config"
	"github.com/colonyops/qp/internal/core/doctor"
	"github.com/colonyops/qp/internal/store/planfs"
)

// DoctorService runs health checks on the qp setup.
type DoctorService struct {
	store  *planfs.Store
	config *config.Config
}

// NewDoctorService creates a new DoctorService.
func NewDoctorService(store *planfs.Store, cfg *config.Config) *DoctorService {
	return &DoctorService{
		store:  store,
		config: cfg,
	}
}

// RunChecks executes all doctor checks and returns results. configFiles are
// the files the configuration was loaded from.
func (d *DoctorService) RunChecks(ctx context.Context, configFiles []string, autofix bool) []doctor.Result {
	checks := []doctor.Check{
		doctor.NewRootCheck(d.store.Root(), d.store.PlansDir(), autofix),
		doctor.NewConfigCheck(d.config, configFiles),
		doctor.NewToolsCheck(d.config.Commands()),
		doctor.NewPlansCheck(d.store, autofix),
	}
	return doctor.RunAll(ctx, checks)
}
