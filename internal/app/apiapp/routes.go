package apiapp

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ivankudzin/adconsole/internal/config"
	adssvc "github.com/ivankudzin/adconsole/internal/services/ads"
	authsvc "github.com/ivankudzin/adconsole/internal/services/auth"
	"github.com/ivankudzin/adconsole/internal/services/idcodec"
	"github.com/ivankudzin/adconsole/internal/transport/http/handlers"
)

type Dependencies struct {
	AdsService *adssvc.Service
	IDCodec    *idcodec.Codec
	JWTManager *authsvc.JWTManager
	Logger     *zap.Logger
	Config     config.Config
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	adsHandler := handlers.NewAdsHandler(deps.AdsService, deps.IDCodec)
	healthHandler := handlers.NewHealthHandler()
	authMW := AuthMiddleware(deps.JWTManager, deps.Logger)

	r.Get("/healthz", healthHandler.Get)

	r.Route("/sites/{siteID}/ads/{ref}", func(r chi.Router) {
		r.Use(authMW)
		r.Get("/", adsHandler.Get)
		r.Put("/", adsHandler.SubmitEdit)
		r.Delete("/", adsHandler.Delete)
		r.Post("/approve", adsHandler.Approve)
		r.Post("/status", adsHandler.ChangeStatus)
	})
}
