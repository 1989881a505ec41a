package main

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/calebmartin/portfolio/internal/csrf"
	"github.com/calebmartin/portfolio/internal/form"
	"github.com/calebmartin/portfolio/internal/mailer"
)

type submitStatus int

const (
	submitOK submitStatus = iota
	submitInvalid
	submitBadToken
	submitRateLimited
	submitMailFailed
)

func (a *app) registerContactRoutes(r *gin.Engine) {
	// HTMX fragment with a fresh token embedded
	r.GET("/contact-form", a.contactFormFragment)
	r.GET("/api/csrf-token", a.issueCSRFToken)

	// JSON API and the HTMX form post share one pipeline
	r.POST("/api/contact", a.submitContactJSON)
	r.POST("/contact", a.submitContactForm)
}

// processSubmission runs the server-side pipeline: rate limit,
// validation (including the honeypot), CSRF redemption, storage, mail.
// Validation reuses the same Validator the client-side controller runs,
// so the two can never disagree on what a valid submission is.
func (a *app) processSubmission(ctx context.Context, ip string, d form.Data) (submitStatus, form.Result) {
	if !a.limiter.allow(ip) {
		a.log.Warn("contact submission rate limited", "ip", a.hashIP(ip))
		return submitRateLimited, form.Result{}
	}

	res := a.validator.Validate(d)
	if !res.IsValid {
		if strings.TrimSpace(d.Website) != "" {
			// Spam trap hit. The response stays generic; only the log
			// knows the real reason.
			a.log.Debug("honeypot tripped", "ip", a.hashIP(ip))
		}
		return submitInvalid, res
	}

	if err := a.tokens.Consume(d.CSRFToken); err != nil {
		if !errors.Is(err, csrf.ErrInvalidToken) {
			a.log.Error("csrf store failure", "err", err)
		}
		return submitBadToken, form.Result{}
	}

	msg := &ContactMessage{
		Name:    d.Name,
		Email:   d.Email,
		Subject: d.Subject,
		Message: d.Message,
	}
	if err := a.store.save(msg); err != nil {
		// Mail can still go out; the inbox copy is best-effort.
		a.log.Error("failed to store contact message", "err", err)
	}

	sendCtx, cancel := context.WithTimeout(ctx, a.cfg.SMTP.Timeout())
	defer cancel()
	if err := a.mail.Send(sendCtx, d); err != nil {
		var disabled mailer.ErrDisabled
		if errors.As(err, &disabled) {
			a.log.Warn("mail disabled, message stored only", "id", msg.ID)
			return submitOK, form.Result{IsValid: true}
		}
		a.log.Error("failed to send contact email", "id", msg.ID, "err", err)
		return submitMailFailed, form.Result{}
	}

	a.log.Info("contact message delivered", "id", msg.ID, "ip", a.hashIP(ip))
	return submitOK, form.Result{IsValid: true}
}

func (a *app) issueCSRFToken(c *gin.Context) {
	token, err := a.tokens.Issue()
	if err != nil {
		a.log.Error("failed to issue csrf token", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (a *app) contactFormFragment(c *gin.Context) {
	token, err := a.tokens.Issue()
	if err != nil {
		a.log.Error("failed to issue csrf token", "err", err)
		c.HTML(http.StatusOK, "contact-error.html", gin.H{
			"error": "Sorry, the contact form is unavailable right now. Please try again later.",
		})
		return
	}
	c.HTML(http.StatusOK, "contact.html", gin.H{
		"title":     "Contact Me",
		"csrfToken": token,
	})
}

func (a *app) submitContactJSON(c *gin.Context) {
	var d form.Data
	if err := c.ShouldBindJSON(&d); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	// Header wins over the body copy when both are present.
	if h := c.GetHeader("X-CSRF-Token"); h != "" {
		d.CSRFToken = h
	}

	status, res := a.processSubmission(c.Request.Context(), c.ClientIP(), d)
	switch status {
	case submitOK:
		c.JSON(http.StatusOK, gin.H{"ok": true})
	case submitInvalid:
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "errors": res.Errors})
	case submitBadToken:
		c.JSON(http.StatusForbidden, gin.H{"error": "invalid or expired form token"})
	case submitRateLimited:
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many messages, please slow down"})
	default:
		c.JSON(http.StatusBadGateway, gin.H{"error": "could not deliver your message, please try again later"})
	}
}

// submitContactForm handles the HTMX form post and answers with an
// HTML fragment either way, like every other fragment route.
func (a *app) submitContactForm(c *gin.Context) {
	d := form.Data{
		Name:      c.PostForm("fullName"),
		Email:     c.PostForm("email"),
		Subject:   c.PostForm("subject"),
		Message:   c.PostForm("message"),
		Website:   c.PostForm("website"),
		CSRFToken: c.PostForm("csrfToken"),
	}

	status, res := a.processSubmission(c.Request.Context(), c.ClientIP(), d)
	if status == submitOK {
		c.HTML(http.StatusOK, "contact-success.html", gin.H{
			"success": "Thank you for your message! I'll get back to you soon.",
		})
		return
	}

	var msg string
	switch status {
	case submitInvalid:
		msg = form.GenericInvalidMessage
		if len(res.Errors) > 0 {
			msg = res.Errors[0]
		}
	case submitBadToken:
		msg = "Your form session expired. Please reload the page and try again."
	case submitRateLimited:
		msg = "You're sending messages too quickly. Please wait a moment and try again."
	default:
		msg = "Sorry, there was an error sending your message. Please try again later."
	}
	c.HTML(http.StatusOK, "contact-error.html", gin.H{"error": msg})
}
