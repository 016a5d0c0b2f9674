package accounts

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/phillip/ngo-admin-console/models"
	"github.com/phillip/ngo-admin-console/store"
)

// DefaultLookupLimit bounds concurrent profile lookups per resolve call.
const DefaultLookupLimit = 16

// Resolver joins accounts with the profile stored under the same id.
type Resolver struct {
	store store.Store
	log   *zap.SugaredLogger
	limit int
	now   func() time.Time
}

func NewResolver(s store.Store, log *zap.SugaredLogger, limit int) *Resolver {
	if limit <= 0 {
		limit = DefaultLookupLimit
	}
	return &Resolver{store: s, log: log, limit: limit, now: time.Now}
}

// WithClock overrides the clock used for age computation.
func (r *Resolver) WithClock(now func() time.Time) *Resolver {
	r.now = now
	return r
}

// NGOs resolves every account against ngo_profiles. The result has one entry
// per account in input order; missing profiles yield defaults.
func (r *Resolver) NGOs(ctx context.Context, accs []models.Account) ([]models.NGOAccount, error) {
	profiles, err := lookupAll[models.NGOProfile](ctx, r, store.NGOs, accs)
	if err != nil {
		return nil, err
	}
	out := make([]models.NGOAccount, len(accs))
	for i, acc := range accs {
		out[i] = models.MergeNGO(acc, profiles[i])
	}
	return out, nil
}

func (r *Resolver) Volunteers(ctx context.Context, accs []models.Account) ([]models.VolunteerAccount, error) {
	profiles, err := lookupAll[models.VolunteerProfile](ctx, r, store.Volunteers, accs)
	if err != nil {
		return nil, err
	}
	now := r.now()
	out := make([]models.VolunteerAccount, len(accs))
	for i, acc := range accs {
		out[i] = models.MergeVolunteer(acc, profiles[i], now)
	}
	return out, nil
}

// lookupAll fetches one profile per account concurrently. Each goroutine
// writes only its own slot. Only context errors abort the batch; any other
// lookup failure is logged and treated as a missing profile.
func lookupAll[P any](ctx context.Context, r *Resolver, coll string, accs []models.Account) ([]*P, error) {
	out := make([]*P, len(accs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.limit)

	for i, acc := range accs {
		if acc.ID == "" {
			continue
		}
		g.Go(func() error {
			p, err := lookup[P](gctx, r, coll, acc.ID)
			if err != nil {
				return err
			}
			out[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func lookup[P any](ctx context.Context, r *Resolver, coll, id string) (*P, error) {
	doc, err := r.store.GetByID(ctx, coll, id)
	switch {
	case err == nil:
	case errors.Is(err, store.ErrNotFound):
		return nil, nil
	case ctx.Err() != nil:
		return nil, ctx.Err()
	default:
		r.log.Warnw("profile lookup failed, using defaults", "collection", coll, "id", id, "error", err)
		return nil, nil
	}

	var p P
	if err := store.Decode(doc, &p); err != nil {
		r.log.Warnw("malformed profile, using defaults", "collection", coll, "id", id, "error", err)
		return nil, nil
	}
	return &p, nil
}
