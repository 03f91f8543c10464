package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/samandr77/crm/docs" // swagger docs
)

func NewRouter(h *Handler, mw *Middleware) http.Handler {
	mux := chi.NewRouter()
	mux.Use(mw.Log, mw.Recover, mw.Cors, mw.Metrics)

	mux.Handle("/metrics", promhttp.Handler())

	mux.Route("/api", func(r chi.Router) {
		r.Get("/health", h.HealthHandler)
		r.Get("/swagger/*", httpSwagger.Handler())
		r.Post("/auth/login", h.Login)

		r.Group(func(r chi.Router) {
			r.Use(mw.BearerAuth)

			r.Get("/auth/me", h.Me)
			r.Get("/dashboard", h.Dashboard)

			r.Route("/users", func(r chi.Router) {
				r.Use(mw.AdminOnly)
				r.Get("/", h.Users)
				r.Post("/", h.CreateUser)
				r.Delete("/{id}", h.DeleteUser)
			})

			r.Route("/groups", func(r chi.Router) {
				r.Get("/", h.Groups)
				r.With(mw.AdminOnly).Post("/", h.CreateGroup)
			})

			r.Route("/customers", func(r chi.Router) {
				r.Get("/", h.Customers)
				r.Post("/", h.CreateCustomer)
				r.Get("/{id}", h.Customer)
				r.Patch("/{id}", h.UpdateCustomer)
				r.Put("/{id}/status", h.UpdateCustomerStatus)

				r.Group(func(r chi.Router) {
					r.Use(mw.AdminOnly)
					r.Get("/pending", h.PendingCustomers)
					r.Post("/{id}/approve", h.ApproveCustomer)
					r.Post("/{id}/reject", h.RejectCustomer)
					r.Delete("/{id}", h.DeleteCustomer)
				})
			})

			r.Route("/services", func(r chi.Router) {
				r.Get("/", h.Services)
				r.Post("/", h.CreateService)
			})

			r.Route("/tasks", func(r chi.Router) {
				r.Get("/", h.Tasks)
				r.Post("/", h.CreateTask)
				r.Patch("/{id}", h.UpdateTask)
			})

			r.Route("/payments", func(r chi.Router) {
				r.Get("/", h.Payments)
				r.Post("/", h.CreatePayment)
				r.Patch("/{id}", h.UpdatePayment)
			})

			r.Route("/documents", func(r chi.Router) {
				r.Get("/", h.Documents)
				r.Post("/", h.CreateDocument)
				r.Put("/{id}/status", h.UpdateDocumentStatus)
				r.Post("/{id}/file", h.UploadDocumentFile)
				r.Get("/{id}/file", h.DocumentFile)
			})

			r.Route("/meetings", func(r chi.Router) {
				r.Get("/", h.Meetings)
				r.Post("/", h.CreateMeeting)

				r.Group(func(r chi.Router) {
					r.Use(mw.AdminOnly)
					r.Get("/pending", h.PendingMeetings)
					r.Post("/{id}/approve", h.ApproveMeeting)
					r.Post("/{id}/reject", h.RejectMeeting)
				})
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", h.Notifications)
				r.Get("/unread", h.UnreadNotifications)
				r.Post("/read-all", h.MarkAllNotificationsRead)
				r.Post("/{id}/read", h.MarkNotificationRead)
				r.With(mw.AdminOnly).Post("/", h.Notify)
			})
		})
	})

	return mux
}
