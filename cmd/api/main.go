package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/gorilla/sessions"
	"github.com/joho/godotenv"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/google"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/hikinggallery/gallery-api/internal/auth"
	"github.com/hikinggallery/gallery-api/internal/config"
	"github.com/hikinggallery/gallery-api/internal/gallery"
	"github.com/hikinggallery/gallery-api/internal/handlers"
	"github.com/hikinggallery/gallery-api/internal/objectstore"
	"github.com/hikinggallery/gallery-api/internal/store"
	"github.com/hikinggallery/gallery-api/models"
	"github.com/hikinggallery/gallery-api/pkg/logger"
)

func main() {
	// Initialize environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file loaded:", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Error loading config:", err)
	}

	zlog, err := logger.New()
	if err != nil {
		log.Fatal("Error building logger:", err)
	}
	defer zlog.Sync()

	// OAUTH
	goth.UseProviders(google.New(cfg.Auth.GoogleKey, cfg.Auth.GoogleSecret, cfg.Auth.CallbackURL))

	// Session store
	maxAge := 86400 * 30
	isProd := false
	sessionStore := sessions.NewCookieStore([]byte(cfg.Auth.SessionSecret))
	sessionStore.MaxAge(maxAge)
	sessionStore.Options.Path = "/"
	sessionStore.Options.HttpOnly = true
	sessionStore.Options.Secure = isProd
	gothic.Store = sessionStore

	// Database connection
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{})
	if err != nil {
		zlog.Fatal("Failed to connect to database", zap.Error(err))
	}

	// Auto migrate models
	if err := db.AutoMigrate(models.ImageList{}, models.Image{}); err != nil {
		zlog.Fatal("Failed to auto migrate models", zap.Error(err))
	}

	// Create custom HTTP client with TLS config
	tr := &http.Transport{
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
			MaxVersion: tls.VersionTLS13,
		},
	}
	httpClient := &http.Client{Transport: tr}

	// S3-compatible object storage configuration
	awsCfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithHTTPClient(httpClient),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.Storage.AccessKeyID, cfg.Storage.SecretAccessKey, "")),
		awsconfig.WithRegion("auto"),
	)
	if err != nil {
		zlog.Fatal("Failed to load storage config", zap.Error(err))
	}
	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.Storage.AccountID))
	})

	bucket := objectstore.New(s3Client, cfg.Storage.Bucket, cfg.Storage.PublicBaseURL, zlog)
	st := store.New(db, zlog)
	svc := gallery.NewService(st, bucket, zlog)
	cache := gallery.NewCache(zlog)

	// Chi
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "healthy")
	})

	// User auth
	r.Get("/auth/{provider}/callback", func(w http.ResponseWriter, r *http.Request) {
		handlers.LoginCallbackHandler(w, r, zlog)
	})
	r.Post("/logout/{provider}", func(w http.ResponseWriter, r *http.Request) {
		gothic.Logout(w, r)
	})
	r.Post("/auth/{provider}", func(w http.ResponseWriter, r *http.Request) {
		if gothUser, err := gothic.CompleteUserAuth(w, r); err == nil {
			fmt.Fprintf(w, "User already authenticated: %s\n", gothUser.Email)
		} else {
			gothic.BeginAuthHandler(w, r)
		}
	})

	// Public view routes
	r.Route("/gallery-api", func(r chi.Router) {
		r.Get("/folders", func(w http.ResponseWriter, r *http.Request) {
			handlers.FoldersHandler(w, r, svc, zlog)
		})
		r.Post("/images", func(w http.ResponseWriter, r *http.Request) {
			handlers.ImagesHandler(w, r, svc, zlog)
		})
		r.Get("/timeline/data", func(w http.ResponseWriter, r *http.Request) {
			handlers.TimelineHandler(w, r, svc, cache, true, true, zlog)
		})
		r.Get("/timeline/data/head", func(w http.ResponseWriter, r *http.Request) {
			handlers.TimelineHandler(w, r, svc, cache, true, false, zlog)
		})
		r.Get("/timeline/data/tail", func(w http.ResponseWriter, r *http.Request) {
			handlers.TimelineHandler(w, r, svc, cache, false, true, zlog)
		})
		r.Post("/timeline/images", func(w http.ResponseWriter, r *http.Request) {
			handlers.TimelineImagesHandler(w, r, svc, cache, zlog)
		})

		// Edit routes for the authenticated admin
		r.Route("/edit", func(r chi.Router) {
			r.Use(auth.AdminOnly(cfg.Auth.AdminEmail))
			r.Use(httprate.Limit(
				20,
				1*time.Minute,
				httprate.WithKeyFuncs(httprate.KeyByIP, httprate.KeyByEndpoint),
			))
			r.Get("/data", func(w http.ResponseWriter, r *http.Request) {
				handlers.EditDataHandler(w, r, svc, zlog)
			})
			r.Post("/images-lists", func(w http.ResponseWriter, r *http.Request) {
				handlers.AddListHandler(w, r, svc, zlog)
			})
			r.Put("/images-lists/{listId}/name", func(w http.ResponseWriter, r *http.Request) {
				handlers.UpdateListNameHandler(w, r, svc, zlog)
			})
			r.Delete("/images-lists/{listId}", func(w http.ResponseWriter, r *http.Request) {
				handlers.DeleteListHandler(w, r, svc, zlog)
			})
			r.Delete("/images-lists/{listId}/images/{imageId}", func(w http.ResponseWriter, r *http.Request) {
				handlers.DeleteImageHandler(w, r, svc, zlog)
			})
			r.Post("/images", func(w http.ResponseWriter, r *http.Request) {
				handlers.AddImageHandler(w, r, svc, zlog)
			})
			r.Post("/images/signed-url", func(w http.ResponseWriter, r *http.Request) {
				handlers.SignedURLHandler(w, r, svc, zlog)
			})
			r.Put("/images/{imageId}/description", func(w http.ResponseWriter, r *http.Request) {
				handlers.UpdateImageDescriptionHandler(w, r, svc, zlog)
			})
			r.Post("/import", func(w http.ResponseWriter, r *http.Request) {
				handlers.ImportFolderHandler(w, r, svc, zlog)
			})
			r.Post("/cache/rebuild", func(w http.ResponseWriter, r *http.Request) {
				handlers.RebuildCacheHandler(w, r, svc, cache, zlog)
			})
		})
	})

	zlog.Info("Starting API server", zap.String("addr", cfg.Server.Addr))
	if err := http.ListenAndServe(cfg.Server.Addr, r); err != nil {
		zlog.Fatal("Server stopped", zap.Error(err))
	}
}
