package api

import (
	"context"
	"log"
	"net/http"

	"github.com/zlnvch/canvashub/api/rest"
	"github.com/zlnvch/canvashub/api/ws"
	"github.com/zlnvch/canvashub/cache"
	"github.com/zlnvch/canvashub/mq"
	"github.com/zlnvch/canvashub/service"
	"github.com/zlnvch/canvashub/store"
	"github.com/zlnvch/canvashub/worker"
)

type CanvasHubAPI struct {
	restHandler *rest.Handler
	wsHandler   *ws.Handler
	shutdownCtx context.Context
}

func NewCanvasHubAPI(
	projectStore store.ProjectStore,
	purgeQueue mq.MessageQueue,
	projectCache cache.ProjectCache,
	jwtSecret []byte,
	shutdownCtx context.Context,
) (*CanvasHubAPI, error) {
	wsHub := ws.NewHub(projectCache)
	err := wsHub.InitSubscriptions(shutdownCtx)
	if err != nil {
		log.Printf("Failed to start WS Hub subscriptions service: %v", err)
		return &CanvasHubAPI{}, err
	}
	go wsHub.Run()

	purgeConsumer := worker.NewPurgeConsumer(purgeQueue, projectStore, projectCache)
	go purgeConsumer.Run(shutdownCtx)

	svc, err := service.NewService(projectStore, projectCache, purgeQueue, nil, jwtSecret)
	if err != nil {
		log.Printf("Failed to create service: %v", err)
		return &CanvasHubAPI{}, err
	}

	restHandler := rest.NewHandler(svc)
	wsHandler := ws.NewHandler(svc, wsHub)

	return &CanvasHubAPI{
		restHandler: restHandler,
		wsHandler:   wsHandler,
		shutdownCtx: shutdownCtx,
	}, nil
}

func (a *CanvasHubAPI) RegisterRoutes(mux *http.ServeMux, requiredOrigin string) {
	mux.HandleFunc("GET /health", a.restHandler.HandleHealth)

	mux.HandleFunc("POST /projects/create", a.restHandler.HandleCreateProject)
	mux.HandleFunc("POST /projects/upload", a.restHandler.HandleUploadProject)
	mux.HandleFunc("GET /projects", a.restHandler.HandleListProjects)
	mux.HandleFunc("GET /projects/{id}", a.restHandler.HandleGetProject)
	mux.HandleFunc("PUT /projects/{id}", a.restHandler.HandleSaveProject)
	mux.HandleFunc("DELETE /projects/{id}", a.restHandler.HandleDeleteProject)

	wsUpgrader := a.wsHandler.NewWsUpgrader(requiredOrigin)
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		a.wsHandler.ServeWS(wsUpgrader, w, r, a.shutdownCtx)
	})
}
