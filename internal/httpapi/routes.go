package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/DoyleJ11/profit-backend/internal/hub"
	"github.com/DoyleJ11/profit-backend/internal/overlay"
	"github.com/DoyleJ11/profit-backend/internal/store"
	"github.com/DoyleJ11/profit-backend/internal/web"
	"github.com/DoyleJ11/profit-backend/internal/ws"
)

type Deps struct {
	Hub      *hub.Hub
	History  store.History
	Pages    *web.Pages
	Renderer overlay.Renderer
	Logger   *zap.Logger
}

func SetupRoutes(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Renderer == nil {
		d.Renderer = overlay.PNGRenderer{}
	}
	if d.History == nil {
		d.History = store.NewMemory()
	}
	a := &Handlers{hub: d.Hub, history: d.History, renderer: d.Renderer, log: d.Logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(d.Logger))
	r.Use(middleware.Recoverer)

	// Pages
	if d.Pages != nil {
		r.Get("/", d.Pages.Handler(web.PageHome, "Home", web.Home))
		r.Get("/live", d.Pages.Handler(web.PageLive, "Live Detection", web.Live))
		r.Get("/upload", d.Pages.Handler(web.PageUpload, "Upload", web.Upload))
	}
	r.Post("/menu/toggle", web.ToggleMenu)

	r.Get("/healthz", Healthz)
	r.Get("/ws/live", ws.Handler(d.Hub, d.Logger))

	r.Route("/api", func(r chi.Router) {
		r.Route("/live/sessions", func(r chi.Router) {
			r.Post("/", a.CreateSession)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", a.GetSession)
				r.Delete("/", a.DeleteSession)
				r.Post("/start", a.StartSession)
				r.Post("/stop", a.StopSession)
				r.Get("/overlay.png", a.SessionOverlay)
			})
		})

		r.Route("/uploads", func(r chi.Router) {
			r.Post("/", a.CreateUpload)
			r.Get("/limits", Limits)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", a.GetUpload)
				r.Delete("/", a.DeleteUpload)
				r.Put("/file", a.PutFile)
				r.Delete("/file", a.RemoveFile)
				r.Post("/drop", a.DropFile)
				r.Post("/analyze", a.Analyze)
				r.Get("/media", a.Media)
				r.Get("/overlay.png", a.UploadOverlay)
				r.Post("/playback", a.Playback)
			})
		})

		r.Route("/history", func(r chi.Router) {
			r.Get("/sessions", a.SessionHistory)
			r.Get("/analyses", a.AnalysisHistory)
		})
	})
	return r
}

func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Debug("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("took", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
