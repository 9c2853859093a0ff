package controllers

import (
	"context"
	"net/http"

	"github.com/leafline/dispensary-backend/api/responses"
	pkgerrors "github.com/leafline/dispensary-backend/pkg/errors"
	"github.com/leafline/dispensary-backend/pkg/logger"
)

// DependencyPinger is satisfied by the db and redis clients.
type DependencyPinger interface {
	Ping(ctx context.Context) error
}

// HealthController answers liveness and readiness probes.
type HealthController struct {
	db    DependencyPinger
	cache DependencyPinger
	logg  *logger.Logger
}

func NewHealthController(db, cache DependencyPinger, logg *logger.Logger) *HealthController {
	return &HealthController{db: db, cache: cache, logg: logg}
}

func (c *HealthController) Live(w http.ResponseWriter, r *http.Request) {
	responses.WriteSuccess(w, map[string]string{"status": "ok"})
}

// Ready fails when a backing dependency is unreachable so load balancers stop
// routing to this instance.
func (c *HealthController) Ready(w http.ResponseWriter, r *http.Request) {
	if c.db != nil {
		if err := c.db.Ping(r.Context()); err != nil {
			responses.WriteError(r.Context(), c.logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database unreachable"))
			return
		}
	}
	if c.cache != nil {
		if err := c.cache.Ping(r.Context()); err != nil {
			responses.WriteError(r.Context(), c.logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cache unreachable"))
			return
		}
	}
	responses.WriteSuccess(w, map[string]string{"status": "ready"})
}
