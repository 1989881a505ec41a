package main

import (
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/gin-gonic/gin"

	"github.com/calebmartin/portfolio/internal/csrf"
	"github.com/calebmartin/portfolio/internal/form"
	"github.com/calebmartin/portfolio/internal/mailer"
)

// app wires the site's pieces together; handlers hang off it so tests
// can build one against an in-memory database.
type app struct {
	cfg       Config
	log       *slog.Logger
	db        *sql.DB
	store     *messageStore
	tokens    *csrf.Store
	mail      *mailer.Mailer
	limiter   *rateLimiter
	validator *form.Validator

	adminToken  string
	hashingSalt string
}

func main() {
	cfg := loadConfig()
	logger := newLogger(cfg)

	db, err := openDB(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "path", cfg.DBPath, "err", err)
		os.Exit(1)
	}
	defer db.Close()

	tokens, err := csrf.NewStore(db, cfg.CSRFTokenTTL)
	if err != nil {
		logger.Error("failed to init csrf store", "err", err)
		os.Exit(1)
	}

	a := &app{
		cfg:       cfg,
		log:       logger,
		db:        db,
		store:     &messageStore{db: db},
		tokens:    tokens,
		mail:      mailer.New(cfg.SMTP),
		limiter:   newRateLimiter(cfg.ContactRateLimit, cfg.ContactRateWindow),
		validator: form.NewValidator(),
	}
	a.initAdmin()

	if !cfg.SMTP.Enabled {
		logger.Warn("SMTP not configured; contact messages will be stored but not emailed")
	}

	r := a.newRouter()

	go a.maintenanceLoop()

	logger.Info("listening", "port", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func (a *app) newRouter() *gin.Engine {
	if !a.cfg.isDev() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()
	r.LoadHTMLGlob("templates/*")

	r.Static("/images", "./images")
	r.Static("/static", "./static")

	r.Use(a.visitorTrackingMiddleware())

	// Home page route
	r.GET("/", func(c *gin.Context) {
		c.HTML(http.StatusOK, "index.html", gin.H{
			"tagline":  heroTagline,
			"aboutMe":  aboutMe,
			"skills":   skills,
			"projects": projects,
		})
	})

	// HTMX content fragments
	r.GET("/work-content", func(c *gin.Context) {
		c.HTML(http.StatusOK, "work-content.html", gin.H{"jobs": jobs})
	})
	r.GET("/education-content", func(c *gin.Context) {
		c.HTML(http.StatusOK, "education-content.html", gin.H{"education": education})
	})

	a.registerContactRoutes(r)
	a.setupAdminRoutes(r)

	return r
}

// maintenanceLoop sweeps expired csrf tokens and old visitor rows for
// as long as the process lives.
func (a *app) maintenanceLoop() {
	a.cleanupOldVisitorData()

	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for range ticker.C {
		if n, err := a.tokens.Sweep(); err != nil {
			a.log.Error("csrf sweep failed", "err", err)
		} else if n > 0 {
			a.log.Debug("swept expired csrf tokens", "count", n)
		}
		a.cleanupOldVisitorData()
	}
}
