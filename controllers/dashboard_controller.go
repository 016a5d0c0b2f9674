package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/phillip/ngo-admin-console/analytics"
	"github.com/phillip/ngo-admin-console/config"
	"github.com/phillip/ngo-admin-console/models"
	"github.com/phillip/ngo-admin-console/store"
)

// Dashboard loads events, volunteers and NGO profiles together and answers
// only once all three are in. One failed fetch fails the dashboard.
func Dashboard(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := requestContext(c, cfg)
		defer cancel()

		var (
			events     []models.Event
			volunteers []models.VolunteerProfile
			ngos       []models.NGOProfile
		)
		log := cfg.Logger()
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			events, err = fetchAll[models.Event](gctx, cfg.DB, store.Events, log)
			return err
		})
		g.Go(func() (err error) {
			volunteers, err = fetchAll[models.VolunteerProfile](gctx, cfg.DB, store.Volunteers, log)
			return err
		})
		g.Go(func() (err error) {
			ngos, err = fetchAll[models.NGOProfile](gctx, cfg.DB, store.NGOs, log)
			return err
		})
		if err := g.Wait(); err != nil {
			unavailable(c, cfg, "could not load dashboard data", err)
			return
		}

		d := analytics.BuildDashboard(events, volunteers, ngos,
			analytics.EventOptions{Location: cfg.Location}, cfg.Normalizer())
		c.JSON(http.StatusOK, d)
	}
}

// fetchAll reads a whole collection, skipping records that do not decode.
func fetchAll[T any](ctx context.Context, db store.Store, coll string, log *zap.SugaredLogger) ([]T, error) {
	docs, err := db.GetAll(ctx, coll)
	if err != nil {
		return nil, err
	}
	return store.DecodeAll[T](docs, func(id any, err error) {
		log.Warnw("skipping malformed record", "collection", coll, "id", id, "error", err)
	}), nil
}
