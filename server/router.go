package server

import (
	"net/http"

	"rockfall/server/handler"
)

func Route(cfg handler.GameConfig) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/ws", handler.NewAcceptHandler(cfg))
	mux.Handle("/health", handler.NewHealthHandler())
	return mux
}
