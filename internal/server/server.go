package server

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/ewoodward/routinely/internal/config"
	"github.com/ewoodward/routinely/internal/handlers"
	"github.com/ewoodward/routinely/internal/middleware"
	"github.com/ewoodward/routinely/internal/repository"
	"github.com/ewoodward/routinely/internal/services"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

type Server struct {
	router *chi.Mux
	config config.Config
}

func New(database *sql.DB, cfg config.Config) *Server {
	routineRepo := repository.NewRoutineRepository(database)
	templateRepo := repository.NewRecurringTemplateRepository(database)
	occurrenceRepo := repository.NewTaskOccurrenceRepository(database)
	dayOrderRepo := repository.NewDayOrderRepository(database)
	groupRepo := repository.NewTaskGroupRepository(database)
	scheduleRepo := repository.NewRoutineScheduleRepository(database)
	tokenRepo := repository.NewAPITokenRepository(database)

	bulkService := services.NewBulkTaskService(routineRepo, templateRepo, occurrenceRepo, dayOrderRepo, groupRepo, scheduleRepo)

	routineHandler := handlers.NewRoutineHandler(routineRepo, bulkService)
	taskHandler := handlers.NewTaskHandler(bulkService)
	dayOrderHandler := handlers.NewDayOrderHandler(dayOrderRepo)

	router := chi.NewRouter()

	router.Use(chimiddleware.Logger)
	router.Use(chimiddleware.Recoverer)
	router.Use(chimiddleware.Compress(5))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	router.Group(func(r chi.Router) {
		if cfg.RequireAuth {
			r.Use(middleware.APITokenAuth(tokenRepo))
		}

		r.Post("/api/routines", routineHandler.Create)
		r.Patch("/api/routines/{id}", routineHandler.Patch)
		r.Get("/api/routines/{id}/full-data", routineHandler.FullData)

		r.Post("/api/routines/{id}/tasks/bulk-assign", taskHandler.BulkAssign)
		r.Post("/api/routines/{id}/tasks/bulk-update-recurring", taskHandler.BulkUpdateRecurring)
		r.Post("/api/routines/{id}/tasks/bulk-delete", taskHandler.BulkDelete)
		r.Put("/api/routines/{id}/templates/{templateId}/days", taskHandler.UpdateTemplateDays)

		r.Get("/api/routines/{id}/day-orders", dayOrderHandler.List)
		r.Post("/api/routines/{id}/day-orders/bulk", dayOrderHandler.BulkUpdate)
	})

	return &Server{
		router: router,
		config: cfg,
	}
}

// Router exposes the assembled handler for tests and embedding.
func (server *Server) Router() http.Handler {
	return server.router
}

func (server *Server) Start() error {
	address := ":" + server.config.Port
	slog.Info("starting server", "address", address)
	return http.ListenAndServe(address, server.router)
}
