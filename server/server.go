package server

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/ray-remotestate/kitchen/handlers"
	"github.com/ray-remotestate/kitchen/middlewares"
	"github.com/ray-remotestate/kitchen/models"
)

type Server struct {
	Router *mux.Router
	server *http.Server
}

const (
	readTimeout       = 5 * time.Minute
	readHeaderTimeout = 30 * time.Second
	writeTimeout      = 5 * time.Minute
)

func SetupRoutes(tickets *handlers.TicketHandler, queues *handlers.QueueHandler) *Server {
	router := mux.NewRouter()
	authRoutes := router.PathPrefix("/api").Subrouter()
	authRoutes.Use(middlewares.AuthMiddleware)

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, `{"alive": true}`)
	}).Methods("GET")
	router.HandleFunc("/stats", tickets.GetStats).Methods("GET")

	authRoutes.HandleFunc("/tickets", tickets.CreateTicket).Methods("POST")
	authRoutes.HandleFunc("/tickets", tickets.ListTickets).Methods("GET")
	authRoutes.HandleFunc("/tickets/{id}", tickets.GetTicket).Methods("GET")
	authRoutes.HandleFunc("/tickets/{id}/cancel", tickets.CancelTicket).Methods("POST")
	authRoutes.HandleFunc("/lines/{id}/status", tickets.SetLineStatus).Methods("PATCH")

	authRoutes.HandleFunc("/queues", queues.ListQueues).Methods("GET")
	authRoutes.HandleFunc("/queues/{id}/view", queues.GetQueueView).Methods("GET")

	// station configuration is manager only
	admin := authRoutes.PathPrefix("/admin").Subrouter()
	admin.Use(middlewares.RoleBasedMiddleware(models.RoleManager))

	admin.HandleFunc("/queues", queues.CreateQueue).Methods("POST")
	admin.HandleFunc("/queues/{id}", queues.DeleteQueue).Methods("DELETE")
	admin.HandleFunc("/queues/{id}/assignments", queues.AssignProduct).Methods("POST")
	admin.HandleFunc("/assignments/{id}", queues.RemoveAssignment).Methods("DELETE")

	return &Server{
		Router: router,
	}
}

func (svr *Server) Run(port string) error {
	svr.server = &http.Server{
		Addr:              port,
		Handler:           svr.Router,
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
	}
	return svr.server.ListenAndServe()
}

func (svr *Server) Shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return svr.server.Shutdown(ctx)
}
