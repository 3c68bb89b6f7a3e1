package api

import (
	"log"
	stdhttp "net/http"

	intconfig "shuttle/internal/config"
	"shuttle/internal/domain"
	h "shuttle/internal/http/handlers"
	"shuttle/internal/http/middleware"

	"github.com/gin-gonic/gin"
)

func NewRouter(env intconfig.Env, hd *h.Handler) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(), gin.Recovery(), middleware.CORS(env.CORSAllowedOrigins))
	if env.MetricsEnabled && hd.Metrics != nil {
		r.Use(middleware.Metrics(hd.Metrics))
		r.GET("/metrics", gin.WrapH(hd.Metrics.Handler()))
	}

	if err := r.SetTrustedProxies(nil); err != nil {
		log.Printf("warning: failed to set trusted proxies: %v", err)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"error":  "route not found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})

	auth := middleware.Auth(tokenParser{hd})
	admin := middleware.RequireRoles(domain.RoleAdmin)
	driver := middleware.RequireRoles(domain.RoleDriver)
	student := middleware.RequireRoles(domain.RoleStudent)
	studentOrAdmin := middleware.RequireRoles(domain.RoleStudent, domain.RoleAdmin)
	driverOrAdmin := middleware.RequireRoles(domain.RoleDriver, domain.RoleAdmin)

	api := r.Group("/api")
	{
		api.GET("/health", hd.Health)
		api.GET("/db-check", hd.DBCheck)

		// Auth
		authGroup := api.Group("/auth")
		authGroup.POST("/login", hd.Login)
		authGroup.POST("/register/student", hd.RegisterStudent)
		authGroup.POST("/register/driver", hd.RegisterDriver)

		// Catalog
		api.GET("/routes", hd.ListRoutes)
		api.GET("/routes/:code", hd.RouteDetail)

		// Tracking
		api.GET("/vehicles/:id/location", auth, hd.LatestLocation)
		api.GET("/live-map", auth, hd.LiveMap)

		// Bookings
		bookings := api.Group("/bookings", auth, studentOrAdmin)
		bookings.POST("", student, hd.CreateBooking)
		bookings.GET("", hd.ListBookings)
		bookings.GET("/:code", hd.GetBooking)
		bookings.POST("/:code/cancel", hd.CancelBooking)
		bookings.GET("/:code/track", hd.TrackBooking)
		bookings.GET("/:code/e-ticket", hd.BookingTicket)
		bookings.GET("/:code/receipt", hd.PaymentReceipt)

		// Driver
		drv := api.Group("/driver", auth, driver)
		drv.POST("/location", hd.RecordLocation)
		drv.GET("/trips", hd.DriverTrips)
		drv.GET("/schedule", hd.DriverSchedule)
		drv.GET("/earnings", hd.DriverEarnings)
		drv.POST("/trips/:id/start", hd.StartTrip)
		drv.POST("/trips/:id/complete", hd.CompleteTrip)

		api.GET("/trips/:id", auth, driverOrAdmin, hd.GetTrip)

		// Admin
		adm := api.Group("/admin", auth, admin)
		adm.GET("/routes", hd.AdminRoutes)
		adm.POST("/routes", hd.CreateRoute)
		adm.POST("/routes/:code/stops", hd.AddStop)
		adm.POST("/routes/:code/schedules", hd.AddSchedule)
		adm.GET("/trips", hd.ListTrips)
		adm.POST("/trips", hd.EnsureTrip)
		adm.PUT("/trips/:id/driver", hd.AssignTripDriver)
		adm.POST("/trips/:id/cancel", hd.CancelTrip)
		adm.POST("/bookings/:code/confirm", hd.ConfirmBooking)
		adm.POST("/bookings/:code/payment", hd.SettlePayment)
		adm.POST("/bookings/:code/payment/fail", hd.FailPayment)
		adm.GET("/drivers", hd.ListDrivers)
		adm.PUT("/drivers/:id/approve", hd.ApproveDriver)
		adm.PUT("/drivers/:id/vehicle", hd.AssignVehicle)
		adm.POST("/vehicles", hd.CreateVehicle)
		adm.GET("/vehicles", hd.ListVehicles)
		adm.GET("/students", hd.ListStudents)
		adm.GET("/reports", hd.AdminReports)
	}

	return r
}

// tokenParser verifies bearer tokens with the handler's JWT settings.
type tokenParser struct{ hd *h.Handler }

func (t tokenParser) ParseToken(raw string) (domain.Principal, error) {
	return t.hd.Auth("").ParseToken(raw)
}
