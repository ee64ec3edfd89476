package app

import (
	"context"
	"net/http"

	"identity-service/internal/auth/handler"
	"identity-service/internal/auth/provider"
	"identity-service/internal/auth/provider/apple"
	"identity-service/internal/auth/provider/google"
	"identity-service/internal/auth/resolver"
	"identity-service/internal/auth/service"
	"identity-service/internal/config"
	"identity-service/internal/middleware"
	"identity-service/internal/session"
	"identity-service/internal/user"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gin-gonic/gin"
)

func setupHTTP(ctx context.Context, cfg config.Config) (*gin.Engine, func() error, error) {

	infra, err := setupInfra(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	// ----------------------------
	// Dependencies
	// ----------------------------

	directory := user.NewPostgresDirectory(infra.DB)
	identityResolver := resolver.NewDirectoryResolver(directory)

	issuer, err := session.NewIssuer(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		return nil, nil, err
	}

	// The OIDC libraries reuse this context for discovery and for later
	// signing-key refreshes, so it must outlive startup. Bounding the
	// HTTP client instead caps every provider request, the first one
	// included, without killing the key refresh loop.
	discoveryCtx := oidc.ClientContext(ctx, &http.Client{
		Timeout: cfg.ProviderTimeout,
	})

	appleVerifier, err := apple.New(discoveryCtx, cfg.AppleClientID)
	if err != nil {
		return nil, nil, err
	}

	googleVerifier, err := google.New(
		discoveryCtx,
		cfg.GoogleClientID,
		cfg.GoogleClientSecret,
		cfg.GoogleRedirectURL,
	)
	if err != nil {
		return nil, nil, err
	}

	verifier := provider.NewVerifier(appleVerifier, googleVerifier)

	authService := service.New(
		directory,
		verifier,
		identityResolver,
		issuer,
		cfg.ProviderTimeout,
		cfg.DirectoryTimeout,
	)

	authHandler := handler.NewHandler(authService, googleVerifier)
	authMiddleware := middleware.NewAuthMiddleware(issuer)

	// ----------------------------
	// Router
	// ----------------------------

	router := gin.New()
	router.Use(gin.Recovery())

	authHandler.RegisterRoutes(router, authMiddleware.RequireAuth())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ----------------------------
	// Cleanup
	// ----------------------------

	return router, func() error {
		return infra.DB.Close()
	}, nil
}
