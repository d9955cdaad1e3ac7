package main

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/taikhoandev/driveshare/internal/auth/token"
	"github.com/taikhoandev/driveshare/internal/config"
	"github.com/taikhoandev/driveshare/internal/db"
	"github.com/taikhoandev/driveshare/internal/graph"
	"github.com/taikhoandev/driveshare/internal/logging"
	"github.com/taikhoandev/driveshare/internal/proxy/handlers"
	"github.com/taikhoandev/driveshare/internal/proxy/middleware"
	"github.com/taikhoandev/driveshare/internal/share"
	"github.com/taikhoandev/driveshare/internal/version"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		// The server still serves; upstream-backed endpoints will fail with
		// a config error until the credentials are provided.
		log.Printf("warning: %v", err)
	}

	database, err := db.InitDB(cfg.Server.DBPath)
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	tokenManager := token.NewManager(cfg.SharePoint.TenantID, cfg.SharePoint.ClientID, cfg.SharePoint.ClientSecret)
	graphClient := graph.NewClient(tokenManager, cfg.SharePoint.Domain, cfg.SharePoint.SitePath)
	minter := share.NewMinter(cfg.Server.LinkSigningKey, cfg.LinkTTL())

	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestID)

	r.Get("/healthz", handlers.HealthHandler())

	r.Route("/api", func(r chi.Router) {
		// Read endpoints stay open; minted links must keep working for
		// anyone holding them.
		r.Get("/quota", handlers.QuotaHandler(graphClient))
		r.Get("/files", handlers.ListUploadsHandler(database))
		r.Get("/files/content", handlers.ContentHandler(graphClient, minter))
		r.Get("/files/{itemID}", handlers.ItemInfoHandler(graphClient, minter, cfg))

		// Mutating endpoints require the generated API key.
		r.Group(func(r chi.Router) {
			r.Use(middleware.APIKeyAuth(database))
			r.Post("/files", handlers.UploadHandler(graphClient, minter, database, cfg))
			r.Post("/files/link", handlers.CreateLinkHandler(graphClient, minter, cfg))
		})
	})

	addr := cfg.Addr()
	log.Printf("driveshare %s starting on http://%s", version.Version, addr)
	log.Printf("proxying site %s%s", cfg.SharePoint.Domain, cfg.SharePoint.SitePath)

	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}

// requestID injects an X-Request-ID (incoming or generated) into the request
// context for log correlation.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := handlers.GetOrGenerateRequestID(r)
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(logging.WithRequestID(r.Context(), id)))
	})
}
