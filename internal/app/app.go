package app

import (
	"time"

	"github.com/mingleapp/mingle-server/internal/config"
	"github.com/mingleapp/mingle-server/internal/database"
	"github.com/mingleapp/mingle-server/internal/jobs"
	"github.com/mingleapp/mingle-server/internal/middleware"
	"github.com/mingleapp/mingle-server/internal/repositories"
	"github.com/mingleapp/mingle-server/internal/scheduler"
	"github.com/mingleapp/mingle-server/internal/services"
	"github.com/mingleapp/mingle-server/internal/tools"
	"gorm.io/gorm"
)

// App wires the broker together: repositories, services, the chat tool
// surface, and the reconciliation scheduler. The conversational layer
// mounts Tools; main owns the Scheduler lifecycle.
type App struct {
	DB        *gorm.DB
	Tools     *tools.Toolset
	Scheduler *scheduler.Scheduler
}

func New(cfg *config.Config) (*App, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}

	if err := database.AutoMigrate(db); err != nil {
		return nil, err
	}

	intentRepo := repositories.NewIntentRepository(db)
	matchRepo := repositories.NewMatchRepository(db)
	userRepo := repositories.NewUserRepository(db)
	poiRepo := repositories.NewPOIRepository(db)

	engine := services.NewMatchingEngine(intentRepo, matchRepo, userRepo, services.EngineConfig{
		SearchRadiusKm: cfg.SearchRadiusKm,
		MinMatchScore:  cfg.MinMatchScore,
		ConfirmWindow:  cfg.GetConfirmWindow(),
	})

	intentService := services.NewIntentService(intentRepo, matchRepo, engine, cfg.GetIntentTTL())

	confirmService := services.NewConfirmationService(matchRepo, services.ConfirmConfig{
		ActivityLead:   cfg.GetActivityLead(),
		ExtraOpenSlots: cfg.ExtraOpenSlots,
	})

	limiter := middleware.NewRateLimiter(cfg.IntentRatePerUser, time.Minute)

	toolset := tools.NewToolset(intentService, confirmService, userRepo, poiRepo,
		limiter, cfg.ConfirmTokenSecret)

	reconciliation := jobs.NewReconciliation(intentRepo, matchRepo, userRepo,
		cfg.GetConfirmWindow())

	sched := scheduler.New()
	sched.Register(scheduler.Job{
		Name:     "expire_old_intents",
		Interval: cfg.GetIntentExpiryInterval(),
		Handler:  reconciliation.ExpireOldIntents,
	})
	sched.Register(scheduler.Job{
		Name:     "handle_expired_matches",
		Interval: cfg.GetMatchExpiryInterval(),
		Handler:  reconciliation.HandleExpiredMatches,
	})

	return &App{
		DB:        db,
		Tools:     toolset,
		Scheduler: sched,
	}, nil
}
