package stubapi

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type route struct {
	Method  string
	Path    string
	Handler gin.HandlerFunc
}

func NewRouter(engine *gin.Engine, h *Handler, auth *AuthMiddleware) {
	// Recovery must be outermost to catch panics from other middleware
	engine.Use(CustomRecovery())
	engine.Use(cors.Default())
	engine.Use(LoggingMiddleware(h.logger))

	engine.GET("/health", healthCheck)

	if gin.Mode() == gin.DebugMode {
		engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	apiGroup := engine.Group("/api")
	{
		users := apiGroup.Group("/users")
		{
			addRoutes(users, []route{
				{Method: http.MethodPost, Path: "/login", Handler: h.Login},
				{Method: http.MethodPost, Path: "/register", Handler: h.Register},
				{Method: http.MethodPost, Path: "/verify-login-otp", Handler: h.VerifyLoginOTP},
				{Method: http.MethodPost, Path: "/verify-register-otp", Handler: h.VerifyRegisterOTP},
				{Method: http.MethodPost, Path: "/resend-otp", Handler: h.ResendOTP},
			})

			authed := users.Group("")
			authed.Use(auth.RequireAuth())
			addRoutes(authed, []route{
				{Method: http.MethodGet, Path: "/:id", Handler: h.GetUserProfile},
				{Method: http.MethodPut, Path: "/:id/otp-preference", Handler: h.UpdateOTPPreference},
			})
		}

		events := apiGroup.Group("/events")
		{
			addRoutes(events, []route{
				{Method: http.MethodGet, Path: "", Handler: h.ListEvents},
				{Method: http.MethodGet, Path: "/:id", Handler: h.GetEvent},
			})

			authed := events.Group("")
			authed.Use(auth.RequireAuth())
			addRoutes(authed, []route{
				{Method: http.MethodPost, Path: "/:id/lock", Handler: h.LockSeats},
			})

			admin := events.Group("")
			admin.Use(auth.RequireAuth(), auth.RequireAdmin())
			addRoutes(admin, []route{
				{Method: http.MethodPost, Path: "", Handler: h.CreateEvent},
			})
		}

		locks := apiGroup.Group("/locks")
		locks.Use(auth.RequireAuth())
		{
			addRoutes(locks, []route{
				{Method: http.MethodPost, Path: "/:lockId/cancel", Handler: h.CancelLock},
			})
		}

		bookings := apiGroup.Group("/bookings")
		bookings.Use(auth.RequireAuth())
		{
			addRoutes(bookings, []route{
				{Method: http.MethodPost, Path: "/confirm", Handler: h.ConfirmBooking},
				{Method: http.MethodGet, Path: "", Handler: h.ListBookings},
				{Method: http.MethodGet, Path: "/:id", Handler: h.GetBooking},
			})
		}

		payments := apiGroup.Group("/payments")
		payments.Use(auth.RequireAuth())
		{
			addRoutes(payments, []route{
				{Method: http.MethodPost, Path: "/:id/process", Handler: h.ProcessPayment},
			})
		}

		cancellations := apiGroup.Group("/cancellations")
		cancellations.Use(auth.RequireAuth())
		{
			addRoutes(cancellations, []route{
				{Method: http.MethodPost, Path: "/:id/cancel", Handler: h.CancelBooking},
			})
		}
	}
}

// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func addRoutes(g *gin.RouterGroup, rs []route) {
	for _, r := range rs {
		switch r.Method {
		case http.MethodGet:
			g.GET(r.Path, r.Handler)
		case http.MethodPost:
			g.POST(r.Path, r.Handler)
		case http.MethodPut:
			g.PUT(r.Path, r.Handler)
		case http.MethodPatch:
			g.PATCH(r.Path, r.Handler)
		case http.MethodDelete:
			g.DELETE(r.Path, r.Handler)
		default:
			g.Any(r.Path, r.Handler)
		}
	}
}
