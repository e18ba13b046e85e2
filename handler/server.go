package handler

import (
	"net/http"
	"time"

	"termpool/core"
	"termpool/handler/middleware"
	"termpool/handler/render"
	"termpool/handler/rest"

	"github.com/go-chi/chi"
	"github.com/go-redis/redis"
	"github.com/twitchtv/twirp"
)

// Server server
type Server struct {
	system    *core.System
	redis     *redis.Client
	vaultz    core.IVaultService
	enginez   core.IEngineService
	paramz    core.IParamService
	requests  core.IRequestStore
	debts     core.IDebtStore
	payments  core.IPaymentStore
	transfers core.ITransferStore
}

// New new server function
func New(
	system *core.System,
	redis *redis.Client,
	vaultz core.IVaultService,
	enginez core.IEngineService,
	paramz core.IParamService,
	requests core.IRequestStore,
	debts core.IDebtStore,
	payments core.IPaymentStore,
	transfers core.ITransferStore,
) Server {
	return Server{
		system:    system,
		redis:     redis,
		vaultz:    vaultz,
		enginez:   enginez,
		paramz:    paramz,
		requests:  requests,
		debts:     debts,
		payments:  payments,
		transfers: transfers,
	}
}

// HandleRestAPI handle restful apis
func (s Server) HandleRestAPI() http.Handler {
	r := chi.NewRouter()
	r.Use(resetRoutePath)
	r.Use(middleware.Idempotency(s.redis, 24*time.Hour))
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		render.Error(w, twirp.NotFoundError("not found"))
	})

	r.Mount("/", rest.Handle(
		s.system,
		s.vaultz,
		s.enginez,
		s.paramz,
		s.requests,
		s.debts,
		s.payments,
		s.transfers,
	))

	return r
}

func resetRoutePath(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if c := chi.RouteContext(ctx); c != nil {
			c.RoutePath = r.URL.Path
		}

		next.ServeHTTP(w, r)
	}

	return http.HandlerFunc(fn)
}
