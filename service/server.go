package service

import (
	"net/http"

	"bookcatalog/cache"
	"bookcatalog/models"

	"go.uber.org/zap"
)

// Server carries the dependencies shared by all handlers.
type Server struct {
	Library      models.Library
	RequestCache cache.RequestCacher
	Logger       *zap.Logger
}

func NewServer(library models.Library, requestCache cache.RequestCacher, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Server{
		Library:      library,
		RequestCache: requestCache,
		Logger:       logger,
	}
}

// Handler returns the complete HTTP handler, including method override.
func (server *Server) Handler() (http.Handler, error) {
	routes, err := server.SetupRoutes()
	if err != nil {
		return nil, err
	}

	return MethodOverride(routes), nil
}
