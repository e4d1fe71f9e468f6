package controllers

import (
	"context"
	"net/http"

	"github.com/shopvista/storefront/api/responses"
	"github.com/shopvista/storefront/pkg/config"
	pkgerrors "github.com/shopvista/storefront/pkg/errors"
	"github.com/shopvista/storefront/pkg/localstore"
	"github.com/shopvista/storefront/pkg/logger"
)

type catalogPinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-ShopVista-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady verifies the local store and the remote collection service are
// both reachable before reporting ready.
func HealthReady(cfg *config.Config, logg *logger.Logger, store localstore.Pinger, catalog catalogPinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-ShopVista-Env", cfg.App.Env)

		if store != nil {
			if err := store.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "local store unreachable"))
				return
			}
		}
		if catalog != nil {
			if err := catalog.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "catalog service unreachable"))
				return
			}
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
