package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/devconnect/devconnect-server/internal/auth"
	"github.com/devconnect/devconnect-server/internal/config"
	"github.com/devconnect/devconnect-server/internal/core"
	"github.com/devconnect/devconnect-server/internal/service/feed"
	"github.com/devconnect/devconnect-server/internal/service/profiles"
	"github.com/devconnect/devconnect-server/internal/service/requests"
	"github.com/devconnect/devconnect-server/internal/store"
)

// Services groups everything the HTTP layer exposes.
type Services struct {
	Auth     *auth.Service
	Profiles *profiles.Service
	Requests *requests.Service
	Feed     *feed.Service
	Store    store.Store
	Hub      *core.Hub
}

// NewServer builds the HTTP server with all routes registered.
func NewServer(svcs Services, cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger))

	authHandlers := NewAuthHandlers(svcs.Auth, logger)
	profileHandlers := NewProfileHandlers(svcs.Profiles, logger)
	requestHandlers := NewRequestHandlers(svcs.Requests, logger)
	userHandlers := NewUserHandlers(svcs.Feed, logger)
	chatHandlers := NewChatHandlers(svcs.Store, svcs.Profiles, logger)
	wsHandler := NewWSHandler(svcs.Hub, svcs.Auth, cfg.MessageRateLimit, logger)

	router.GET("/health", healthHandler)

	router.POST("/signup", authHandlers.Signup)
	router.POST("/login", authHandlers.Login)
	router.POST("/logout", authHandlers.Logout)

	authed := router.Group("/", AuthMiddleware(svcs.Auth, logger))
	{
		authed.GET("/profile/view", profileHandlers.View)
		authed.PATCH("/profile/edit", profileHandlers.Edit)

		authed.POST("/request/send/:status/:userId", requestHandlers.Send)
		authed.POST("/request/review/:status/:userId", requestHandlers.Review)
		authed.GET("/user/requests/received", requestHandlers.Received)
		authed.GET("/user/connections", requestHandlers.Connections)
		authed.GET("/feed", userHandlers.Feed)

		authed.GET("/chat/:peerId", chatHandlers.History)
	}

	// The socket endpoint authenticates itself from the token query
	// parameter, so it sits outside the middleware group.
	router.GET("/ws", gin.WrapH(wsHandler))

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
