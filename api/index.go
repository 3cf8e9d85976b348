package handler

import (
	"campusbook/config"
	"campusbook/di"
	"campusbook/shared/logger"
	"campusbook/transport/http/response"
	"net/http"
	"sync"

	"github.com/rs/zerolog/log"
)

var (
	once    sync.Once
	service http.Handler
	initErr error
)

// Handler is the serverless entry point; the service graph is built once per instance.
func Handler(w http.ResponseWriter, r *http.Request) {
	r.RequestURI = r.URL.String()

	once.Do(func() {
		cfg := config.Get()

		logger.InitLogger()

		logger.SetLogLevel(cfg)

		service, initErr = di.InitializeService()
	})

	if initErr != nil {
		log.Error().Err(initErr).Msg("failed to initialize service")
		response.WithUnhealthy(w)

		return
	}

	service.ServeHTTP(w, r)
}
