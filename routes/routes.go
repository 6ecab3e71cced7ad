package routes

import (
	"intake/appointments"
	"intake/availability"
	"intake/hubs"
	"intake/middleware"
	"intake/ratelim"
	"intake/schedule"
	"intake/slots"
	"net/http"

	"github.com/julienschmidt/httprouter"
)

func AddStaticRoutes(router *httprouter.Router) {
	router.ServeFiles("/static/hubpic/*filepath", http.Dir("static/hubpic"))
}

func AddHubRoutes(router *httprouter.Router) {
	router.GET("/api/hubs", hubs.GetHubs)
	router.GET("/api/hubs/:hubid", hubs.GetHub)
	router.POST("/api/hubs", middleware.RequireAdmin(hubs.CreateHub))
	router.PUT("/api/hubs/:hubid", middleware.RequireAdmin(hubs.EditHub))
	router.DELETE("/api/hubs/:hubid", middleware.RequireAdmin(hubs.DeleteHub))
	router.POST("/api/hubs/:hubid/photo", middleware.RequireAdmin(hubs.UploadHubPhoto))
}

func AddAvailabilityRoutes(router *httprouter.Router) {
	router.GET("/api/availability", ratelim.RateLimit(middleware.OptionalAuth(availability.GetAvailability)))
	router.POST("/api/availability", middleware.RequireAdmin(availability.ToggleDayOff))
}

func AddAdminRoutes(router *httprouter.Router) {
	router.GET("/api/admin/slot-capacities", middleware.RequireAdmin(slots.GetSlotCapacities))
	router.POST("/api/admin/slot-capacities", middleware.RequireAdmin(slots.SetSlotCapacities))

	router.GET("/api/admin/appointment-slots", middleware.RequireAdmin(slots.GetSlots))
	router.POST("/api/admin/appointment-slots", middleware.RequireAdmin(slots.UpsertSlotRow))
	router.PUT("/api/admin/appointment-slots", middleware.RequireAdmin(slots.BulkUpdateSlots))

	router.GET("/api/admin/hub-config", middleware.RequireAdmin(schedule.GetHubConfig))
	router.POST("/api/admin/hub-config", middleware.RequireAdmin(schedule.UpdateHubConfig))
}

func AddAppointmentRoutes(router *httprouter.Router) {
	router.POST("/api/appointments", ratelim.RateLimit(middleware.Authenticate(appointments.CreateAppointment)))
	router.GET("/api/appointments", middleware.Authenticate(appointments.GetMyAppointments))
	router.GET("/api/appointments/hub", middleware.RequireAdmin(appointments.GetHubAppointments))
	router.PATCH("/api/appointments/:id/cancel", ratelim.RateLimit(middleware.Authenticate(appointments.CancelAppointment)))
	router.GET("/api/appointments/:id/slip", middleware.Authenticate(appointments.PrintSlip))
}
