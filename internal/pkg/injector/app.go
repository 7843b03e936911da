package injector

import (
	"github.com/lk2023060901/offer-sourcing/internal/conf"
	"github.com/lk2023060901/offer-sourcing/internal/pkg/logger"
	"github.com/lk2023060901/offer-sourcing/internal/server"
	"github.com/lk2023060901/offer-sourcing/internal/sourcing/biz"
)

// App encapsulates all application dependencies
type App struct {
	Config     *conf.Config
	Logger     *logger.Logger
	HTTPServer *server.HTTPServer
	Aggregator *biz.Aggregator
	cleanup    func()
}

// Cleanup releases all resources
func (a *App) Cleanup() {
	if a.cleanup != nil {
		a.cleanup()
	}
}

func newApp(
	config *conf.Config,
	log *logger.Logger,
	httpServer *server.HTTPServer,
	aggregator *biz.Aggregator,
) (*App, func()) {
	app := &App{
		Config:     config,
		Logger:     log,
		HTTPServer: httpServer,
		Aggregator: aggregator,
	}
	cleanup := func() {
		log.Info("application stopped")
	}
	app.cleanup = cleanup
	return app, cleanup
}
