// Package httpapi exposes the webhook surface: contact-change events from
// the CRM and scheduled-delivery callbacks from the automation flow.
package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/Telyonok/Congratulator-Plugin/internal/app"
	"github.com/Telyonok/Congratulator-Plugin/internal/domain/contact"
	"github.com/Telyonok/Congratulator-Plugin/internal/infra/alert"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

type Server struct {
	dispatcher *app.Dispatcher
	definer    *app.GenderDefiner
	delivery   *app.DeliveryService
	contacts   contact.Repository
	alerts     alert.Notifier
	log        *logrus.Logger
}

func NewServer(
	dispatcher *app.Dispatcher,
	definer *app.GenderDefiner,
	delivery *app.DeliveryService,
	contacts contact.Repository,
	alerts alert.Notifier,
	log *logrus.Logger,
) *Server {
	return &Server{
		dispatcher: dispatcher,
		definer:    definer,
		delivery:   delivery,
		contacts:   contacts,
		alerts:     alerts,
		log:        log,
	}
}

// Router builds the webhook HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Post("/hooks/contact-events", s.handleContactEvent)
	r.Post("/hooks/scheduled-deliveries", s.handleScheduledDelivery)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
