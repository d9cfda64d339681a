package app

import (
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/unrolled/secure"

	"github.com/atlas-billing/atlas-billing/web"
)

// Router assembles the HTTP routing tree with the full middleware stack.
func (a *App) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(30 * time.Second))
	r.Use(chimiddleware.Compress(5))
	r.Use(httprate.LimitByIP(a.Config.RateLimitPerMinute, time.Minute))

	secureMiddleware := secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "same-origin",
		ContentSecurityPolicy: "default-src 'self'; img-src 'self' data:",
		IsDevelopment:         !a.Config.IsProduction(),
	})
	r.Use(secureMiddleware.Handler)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("ok"))
	})

	// Static assets and uploads bypass sessions entirely.
	staticFS, _ := fs.Sub(web.FS, "static")
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))
	r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(a.Uploads.Dir()))))

	r.Group(func(r chi.Router) {
		r.Use(SessionMiddleware(a.Sessions, a.Logger))
		r.Use(CSRFMiddleware(a.CSRF, a.Logger))

		r.Get("/", a.reportsHandler.Dashboard)

		r.Route("/customers", a.customersHandler.MountRoutes)
		r.Route("/products", a.productsHandler.MountRoutes)
		r.Route("/invoices", a.invoicesHandler.MountRoutes)
		r.Route("/quotes", a.quotesHandler.MountRoutes)
		r.Route("/reminders", a.remindersHandler.MountRoutes)
		r.Route("/reports", a.reportsHandler.MountRoutes)
		r.Route("/settings", a.settingsHandler.MountRoutes)
	})

	return r
}
