// admin.go - privacy-conscious admin surface: visitor metrics and the
// contact message inbox.
package main

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"database/sql"
	"encoding/hex"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// VisitorMetric is one tracked page view. IPs are stored hashed, never
// raw.
type VisitorMetric struct {
	ID        int64     `json:"id"`
	HashedIP  string    `json:"hashed_ip"`
	UserAgent string    `json:"user_agent"`
	Path      string    `json:"path"`
	Timestamp time.Time `json:"timestamp"`
}

type AdminStats struct {
	TotalVisitors    int64            `json:"total_visitors"`
	UniqueVisitors   int64            `json:"unique_visitors"`
	VisitorsToday    int64            `json:"visitors_today"`
	VisitorsThisWeek int64            `json:"visitors_this_week"`
	TotalMessages    int64            `json:"total_messages"`
	UnreadMessages   int64            `json:"unread_messages"`
	RecentMessages   []ContactMessage `json:"recent_messages"`
	RecentVisitors   []VisitorMetric  `json:"recent_visitors"`
}

// initAdmin generates the session token and IP-hashing salt for this
// process.
func (a *app) initAdmin() {
	a.adminToken = generateToken()
	a.hashingSalt = generateToken()

	a.log.Info("admin access available at /admin/login")
	if a.cfg.isDev() {
		a.log.Debug("admin token (dev only)", "token", a.adminToken)
	}
}

func generateToken() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		panic("failed to generate admin token: " + err.Error())
	}
	return hex.EncodeToString(buf)
}

// hashIP hashes an IP with the process salt, consistent per IP so
// unique-visitor counts still work. Truncated for storage efficiency.
func (a *app) hashIP(ip string) string {
	hash := sha256.New()
	hash.Write([]byte(ip + a.hashingSalt))
	return hex.EncodeToString(hash.Sum(nil))[:16]
}

// adminAuthMiddleware checks the admin session cookie.
func (a *app) adminAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie("admin_token")
		if err != nil || subtle.ConstantTimeCompare([]byte(token), []byte(a.adminToken)) != 1 {
			c.Redirect(http.StatusFound, "/admin/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

// visitorTrackingMiddleware records page views with hashed IPs. Static
// assets, admin pages, and the API are skipped, and Do Not Track is
// respected.
func (a *app) visitorTrackingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/static/") ||
			strings.HasPrefix(path, "/images/") ||
			strings.HasPrefix(path, "/admin/") ||
			strings.HasPrefix(path, "/api/") ||
			strings.HasPrefix(path, "/favicon") ||
			strings.HasPrefix(path, "/privacy") {
			c.Next()
			return
		}

		if c.GetHeader("DNT") == "1" {
			c.Next()
			return
		}

		go a.trackVisitor(c.ClientIP(), c.GetHeader("User-Agent"), path)
		c.Next()
	}
}

func (a *app) trackVisitor(ip, userAgent, path string) {
	_, err := a.db.Exec(`
		INSERT INTO visitors (hashed_ip, user_agent, path, timestamp)
		VALUES (?, ?, ?, ?)
	`, a.hashIP(ip), userAgent, path, time.Now())
	if err != nil {
		a.log.Error("error recording visitor", "err", err)
	}
}

// cleanupOldVisitorData removes visitor rows older than 12 months.
func (a *app) cleanupOldVisitorData() {
	result, err := a.db.Exec(`
		DELETE FROM visitors
		WHERE timestamp < datetime('now', '-12 months')
	`)
	if err != nil {
		a.log.Error("error cleaning up old visitor data", "err", err)
		return
	}

	if n, _ := result.RowsAffected(); n > 0 {
		a.log.Info("privacy cleanup removed old visitor records", "count", n)
	}
}

func (a *app) adminStats() (*AdminStats, error) {
	stats := &AdminStats{}

	if err := a.db.QueryRow(`SELECT COUNT(*) FROM visitors`).Scan(&stats.TotalVisitors); err != nil {
		return nil, err
	}
	if err := a.db.QueryRow(`SELECT COUNT(DISTINCT hashed_ip) FROM visitors`).Scan(&stats.UniqueVisitors); err != nil {
		return nil, err
	}
	if err := a.db.QueryRow(`
		SELECT COUNT(*) FROM visitors
		WHERE DATE(timestamp) = DATE('now')
	`).Scan(&stats.VisitorsToday); err != nil {
		return nil, err
	}
	if err := a.db.QueryRow(`
		SELECT COUNT(*) FROM visitors
		WHERE timestamp >= datetime('now', '-7 days')
	`).Scan(&stats.VisitorsThisWeek); err != nil {
		return nil, err
	}

	total, unread, err := a.store.counts()
	if err != nil {
		return nil, err
	}
	stats.TotalMessages = total
	stats.UnreadMessages = unread

	stats.RecentMessages, err = a.store.list(10)
	if err != nil {
		return nil, err
	}

	rows, err := a.db.Query(`
		SELECT id, hashed_ip, user_agent, path, timestamp
		FROM visitors
		ORDER BY timestamp DESC
		LIMIT 50
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var v VisitorMetric
		if err := rows.Scan(&v.ID, &v.HashedIP, &v.UserAgent, &v.Path, &v.Timestamp); err != nil {
			continue
		}
		stats.RecentVisitors = append(stats.RecentVisitors, v)
	}

	return stats, nil
}

func (a *app) setupAdminRoutes(r *gin.Engine) {
	r.GET("/privacy", func(c *gin.Context) {
		c.HTML(http.StatusOK, "privacy.html", gin.H{
			"title": "Privacy Policy",
		})
	})

	r.GET("/admin/login", func(c *gin.Context) {
		c.HTML(http.StatusOK, "admin-login.html", gin.H{
			"title": "Admin Login",
		})
	})

	r.POST("/admin/login", func(c *gin.Context) {
		username := c.PostForm("username")
		password := c.PostForm("password")

		adminUsername := a.cfg.AdminUsername
		adminPassword := a.cfg.AdminPassword

		// Dev fallbacks; production must set the env vars.
		if adminUsername == "" {
			adminUsername = "admin"
			if a.cfg.isDev() {
				a.log.Warn("using default admin username; set ADMIN_USERNAME")
			}
		}
		if adminPassword == "" {
			adminPassword = "admin123"
			if a.cfg.isDev() {
				a.log.Warn("using default admin password; set ADMIN_PASSWORD")
			}
		}

		userOK := subtle.ConstantTimeCompare([]byte(username), []byte(adminUsername)) == 1
		passOK := subtle.ConstantTimeCompare([]byte(password), []byte(adminPassword)) == 1
		if userOK && passOK {
			c.SetCookie("admin_token", a.adminToken, 3600*24, "/admin", "", false, true)
			a.log.Info("admin login successful", "ip", a.hashIP(c.ClientIP()))
			c.Redirect(http.StatusFound, "/admin/dashboard")
		} else {
			a.log.Warn("failed admin login attempt", "ip", a.hashIP(c.ClientIP()))
			c.HTML(http.StatusUnauthorized, "admin-login.html", gin.H{
				"error": "Invalid credentials",
			})
		}
	})

	r.GET("/admin/logout", func(c *gin.Context) {
		c.SetCookie("admin_token", "", -1, "/admin", "", false, true)
		c.Redirect(http.StatusFound, "/admin/login")
	})

	adminGroup := r.Group("/admin")
	adminGroup.Use(a.adminAuthMiddleware())

	adminGroup.GET("/dashboard", func(c *gin.Context) {
		stats, err := a.adminStats()
		if err != nil {
			a.log.Error("error loading admin stats", "err", err)
			c.HTML(http.StatusInternalServerError, "admin-error.html", gin.H{
				"error": "Failed to load statistics",
			})
			return
		}
		c.HTML(http.StatusOK, "admin-dashboard.html", gin.H{
			"stats": stats,
		})
	})

	adminGroup.GET("/api/stats", func(c *gin.Context) {
		stats, err := a.adminStats()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, stats)
	})

	// Contact inbox
	adminGroup.GET("/messages", func(c *gin.Context) {
		msgs, err := a.store.list(200)
		if err != nil {
			c.HTML(http.StatusInternalServerError, "admin-error.html", gin.H{
				"error": "Failed to load messages",
			})
			return
		}
		c.HTML(http.StatusOK, "admin-messages.html", gin.H{
			"messages": msgs,
		})
	})

	adminGroup.POST("/messages/:id/read", func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
			return
		}
		if err := a.store.markRead(id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update message"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "marked as read"})
	})

	adminGroup.DELETE("/messages/:id", func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
			return
		}
		if err := a.store.delete(id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
				return
			}
			a.log.Error("error deleting message", "id", id, "err", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete message"})
			return
		}
		a.log.Info("message deleted by admin", "id", id, "ip", a.hashIP(c.ClientIP()))
		c.JSON(http.StatusOK, gin.H{"message": "message deleted"})
	})

	adminGroup.GET("/visitors", func(c *gin.Context) {
		rows, err := a.db.Query(`
			SELECT id, hashed_ip, user_agent, path, timestamp
			FROM visitors
			ORDER BY timestamp DESC
			LIMIT 200
		`)
		if err != nil {
			c.HTML(http.StatusInternalServerError, "admin-error.html", gin.H{
				"error": "Failed to load visitors",
			})
			return
		}
		defer rows.Close()

		var visitors []VisitorMetric
		for rows.Next() {
			var v VisitorMetric
			if err := rows.Scan(&v.ID, &v.HashedIP, &v.UserAgent, &v.Path, &v.Timestamp); err != nil {
				continue
			}
			visitors = append(visitors, v)
		}

		c.HTML(http.StatusOK, "admin-visitors.html", gin.H{
			"visitors": visitors,
		})
	})

	// Stats export for backups or analysis
	adminGroup.GET("/export/stats", func(c *gin.Context) {
		stats, err := a.adminStats()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Header("Content-Disposition", "attachment; filename=site-stats.json")
		c.JSON(http.StatusOK, stats)
	})
}
