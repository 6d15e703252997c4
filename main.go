package main

import (
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"designer-pro/canvas"
	"designer-pro/handlers/api/designs"
	"designer-pro/handlers/api/imagesearch"
	"designer-pro/handlers/api/settings"
	"designer-pro/handlers/api/uploads"
	"designer-pro/handlers/auth"
	"designer-pro/handlers/websocket"
	authMiddleware "designer-pro/middleware"
	"designer-pro/render"
	"designer-pro/stores"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func setupRouter(store stores.Store, exporter *render.Exporter, hub *websocket.Hub) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Logger)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Content-Length", "X-CSRF-Token", "Origin", "X-Requested-With"},
		ExposedHeaders:   []string{"Content-Disposition", "X-Skipped-Images"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.AuthJWT)
			r.Use(authMiddleware.RequireAdmin)
			r.Route("/marketing", func(r chi.Router) {
				r.Route("/designs", func(r chi.Router) {
					r.Get("/", designs.HandleList(store))
					r.Post("/", designs.HandleCreate(store, hub))
					r.Route("/{id}", func(r chi.Router) {
						r.Get("/", designs.HandleGet(store))
						r.Delete("/", designs.HandleDelete(store, hub))
						r.Get("/export", designs.HandleExport(store, exporter))
					})
				})
				r.Get("/templates", designs.HandleTemplates())
				r.Post("/upload-background", uploads.HandleUploadBackground(store))
				r.Get("/images/search", imagesearch.HandleSearch())
			})
		})

		r.Get("/settings/public", settings.HandlePublic(settings.FromEnv()))
	})

	r.Get(uploads.PathPrefix+"{name}", uploads.HandleServe(store))

	return r
}

func waitForShutdown(hub *websocket.Hub, store stores.Store) {
	signalC := make(chan os.Signal, 1)
	signal.Notify(signalC, os.Interrupt, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	s := <-signalC

	logrus.WithField("signal", s).Info("Shutting down")
	hub.Close()
	if c, ok := store.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			logrus.WithField("error", err).Warn("Failed to close store")
		}
	}
	os.Exit(0)
}

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found")
	}

	listenAddress := flag.String("listen", ":3002", "The address to listen on.")
	logLevel := flag.String("loglevel", "info", "The log level (debug, info, warn, error).")
	flag.Parse()

	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %v", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	auth.InitAuth()
	imagesearch.Init()
	if path := os.Getenv("TEMPLATES_FILE"); path != "" {
		if err := canvas.LoadTemplates(path); err != nil {
			logrus.WithFields(logrus.Fields{"error": err, "path": path}).Fatal("Failed to load templates")
		}
	}
	store := stores.GetStore()

	loader := render.NewLoader(render.WithAssets(uploads.PathPrefix, store))
	exporter := render.NewExporter(loader)
	hub := websocket.NewHub()

	r := setupRouter(store, exporter, hub)
	r.Mount("/socket.io/", hub.Server().ServeHandler(nil))

	logrus.WithField("addr", *listenAddress).Info("starting server")
	go func() {
		if err := http.ListenAndServe(*listenAddress, r); err != nil {
			logrus.WithField("event", "start server").Fatal(err)
		}
	}()

	logrus.Debug("Server is running in the background")
	waitForShutdown(hub, store)
}
