package handler

import (
	"net/http"

	"tixify/internal/auth"
	"tixify/internal/model"
	"tixify/internal/queue"
	"tixify/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Services struct {
	Events         service.EventService
	Tiers          service.TierService
	Checkout       service.CheckoutService
	Tickets        service.TicketService
	Reconciliation queue.Queue[model.ReconciliationCase]
}

func NewRouter(authn *auth.Authenticator, svc Services, middleware ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(middleware...)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	organizer := api.Group("", RequireRole(authn, auth.RoleOrganizer))
	door := api.Group("", RequireRole(authn, auth.RoleStaff, auth.RoleOrganizer))

	NewCheckoutHandler(svc.Checkout).RegisterRoutes(api)
	NewEventHandler(svc.Events, svc.Tiers).RegisterRoutes(api, organizer)
	NewTicketHandler(svc.Tickets).RegisterRoutes(api, organizer, door)
	NewOpsHandler(svc.Reconciliation, svc.Events).RegisterRoutes(organizer)

	return r
}
