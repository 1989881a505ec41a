package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/calebmartin/portfolio/internal/csrf"
	"github.com/calebmartin/portfolio/internal/form"
	"github.com/calebmartin/portfolio/internal/mailer"
)

func newTestApp(t *testing.T, smtp mailer.Config, limit int) *app {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := openDB(":memory:")
	if err != nil {
		t.Fatalf("openDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	tokens, err := csrf.NewStore(db, time.Minute)
	if err != nil {
		t.Fatalf("csrf.NewStore: %v", err)
	}

	a := &app{
		cfg: Config{
			Env:               "test",
			SMTP:              smtp,
			ContactRateLimit:  limit,
			ContactRateWindow: time.Minute,
		},
		log:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		db:        db,
		store:     &messageStore{db: db},
		tokens:    tokens,
		mail:      mailer.New(smtp),
		limiter:   newRateLimiter(limit, time.Minute),
		validator: form.NewValidator(),
	}
	a.initAdmin()
	return a
}

func validPayload(token string) form.Data {
	return form.Data{
		Name:      "Jo",
		Email:     "jo@x.com",
		Subject:   "Hi",
		Message:   "Hello there",
		CSRFToken: token,
	}
}

func postJSON(t *testing.T, r *gin.Engine, d form.Data) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/contact", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSubmitContactJSONSuccess(t *testing.T) {
	a := newTestApp(t, mailer.Config{}, 100)
	r := a.newRouter()

	token, err := a.tokens.Issue()
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	w := postJSON(t, r, validPayload(token))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", w.Code, w.Body.String())
	}

	// The message is stored even with mail disabled.
	msgs, err := a.store.list(10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("stored %d messages, want 1", len(msgs))
	}
	if msgs[0].Email != "jo@x.com" {
		t.Errorf("stored email = %q, want jo@x.com", msgs[0].Email)
	}
}

func TestSubmitContactJSONReusedToken(t *testing.T) {
	a := newTestApp(t, mailer.Config{}, 100)
	r := a.newRouter()

	token, _ := a.tokens.Issue()

	if w := postJSON(t, r, validPayload(token)); w.Code != http.StatusOK {
		t.Fatalf("first submit status = %d, want 200", w.Code)
	}
	if w := postJSON(t, r, validPayload(token)); w.Code != http.StatusForbidden {
		t.Errorf("reused token status = %d, want 403", w.Code)
	}
}

func TestSubmitContactJSONHeaderTokenWins(t *testing.T) {
	a := newTestApp(t, mailer.Config{}, 100)
	r := a.newRouter()

	token, _ := a.tokens.Issue()

	body, _ := json.Marshal(validPayload("bogus-body-token"))
	req := httptest.NewRequest(http.MethodPost, "/api/contact", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-CSRF-Token", token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 when the header token is valid", w.Code)
	}
}

func TestSubmitContactJSONInvalidEmail(t *testing.T) {
	a := newTestApp(t, mailer.Config{}, 100)
	r := a.newRouter()

	token, _ := a.tokens.Issue()
	d := validPayload(token)
	d.Email = "not-an-email"

	w := postJSON(t, r, d)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if !strings.Contains(w.Body.String(), "valid email") {
		t.Errorf("response should name the email problem, got %s", w.Body.String())
	}

	// Validation failed before the token was touched; nothing stored.
	if msgs, _ := a.store.list(10); len(msgs) != 0 {
		t.Errorf("invalid submission stored %d messages, want 0", len(msgs))
	}
}

func TestSubmitContactJSONHoneypot(t *testing.T) {
	a := newTestApp(t, mailer.Config{}, 100)
	r := a.newRouter()

	token, _ := a.tokens.Issue()
	d := validPayload(token)
	d.Website = "https://spam.example"

	w := postJSON(t, r, d)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}

	// The response must not reveal the spam detection.
	lower := strings.ToLower(w.Body.String())
	for _, word := range []string{"spam", "honeypot", "bot", "website"} {
		if strings.Contains(lower, word) {
			t.Errorf("response leaks spam detection: %s", w.Body.String())
		}
	}

	if msgs, _ := a.store.list(10); len(msgs) != 0 {
		t.Errorf("spam submission stored %d messages, want 0", len(msgs))
	}
}

func TestSubmitContactJSONRateLimited(t *testing.T) {
	a := newTestApp(t, mailer.Config{}, 1)
	r := a.newRouter()

	token, _ := a.tokens.Issue()
	if w := postJSON(t, r, validPayload(token)); w.Code != http.StatusOK {
		t.Fatalf("first submit status = %d, want 200", w.Code)
	}

	token, _ = a.tokens.Issue()
	if w := postJSON(t, r, validPayload(token)); w.Code != http.StatusTooManyRequests {
		t.Errorf("second submit status = %d, want 429", w.Code)
	}
}

func TestSubmitContactJSONMailFailure(t *testing.T) {
	// Port 1 on localhost has no SMTP server; the dial fails fast.
	smtp := mailer.Config{
		Enabled:        true,
		Host:           "127.0.0.1",
		Port:           1,
		Username:       "site@example.com",
		Password:       "secret",
		To:             "owner@example.com",
		TimeoutSeconds: 2,
	}
	a := newTestApp(t, smtp, 100)
	r := a.newRouter()

	token, _ := a.tokens.Issue()
	w := postJSON(t, r, validPayload(token))
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", w.Code)
	}

	// The message survives the delivery failure.
	if msgs, _ := a.store.list(10); len(msgs) != 1 {
		t.Errorf("stored %d messages, want 1", len(msgs))
	}
}

func TestIssueCSRFTokenEndpoint(t *testing.T) {
	a := newTestApp(t, mailer.Config{}, 100)
	r := a.newRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/csrf-token", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var body struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if body.Token == "" {
		t.Fatal("endpoint returned an empty token")
	}
	if err := a.tokens.Consume(body.Token); err != nil {
		t.Errorf("issued token should be redeemable: %v", err)
	}
}

func TestContactFormFragmentEmbedsToken(t *testing.T) {
	a := newTestApp(t, mailer.Config{}, 100)
	r := a.newRouter()

	req := httptest.NewRequest(http.MethodGet, "/contact-form", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, `name="csrfToken"`) {
		t.Error("fragment should embed a csrfToken input")
	}
	if !strings.Contains(body, `name="website"`) {
		t.Error("fragment should include the honeypot field")
	}
}

func TestSubmitContactFormHTMX(t *testing.T) {
	a := newTestApp(t, mailer.Config{}, 100)
	r := a.newRouter()

	token, _ := a.tokens.Issue()
	values := url.Values{
		"fullName":  {"Jo"},
		"email":     {"jo@x.com"},
		"subject":   {"Hi"},
		"message":   {"Hello there"},
		"csrfToken": {token},
	}
	req := httptest.NewRequest(http.MethodPost, "/contact", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Thank you") {
		t.Errorf("expected the success fragment, got %s", w.Body.String())
	}
}

// End to end: the controller drives the real client against the real
// server, covering the full client/server contract in one pass.
func TestControllerAgainstServer(t *testing.T) {
	a := newTestApp(t, mailer.Config{}, 100)
	srv := httptest.NewServer(a.newRouter())
	defer srv.Close()

	client := form.NewClient(form.ClientConfig{Endpoint: srv.URL + "/api/contact"},
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctrl := form.NewController(client)

	token, _ := a.tokens.Issue()
	ctrl.SetCSRFToken(token)
	ctrl.UpdateField(form.FieldName, "Jo")
	ctrl.UpdateField(form.FieldEmail, "jo@x.com")
	ctrl.UpdateField(form.FieldSubject, "Hi")
	ctrl.UpdateField(form.FieldMessage, "Hello there")

	if err := ctrl.Submit(context.Background()); err != nil {
		t.Fatalf("Submit() = %v, want nil", err)
	}
	if st := ctrl.State(); !st.Succeeded {
		t.Error("controller should record success")
	}

	if msgs, _ := a.store.list(10); len(msgs) != 1 {
		t.Errorf("server stored %d messages, want 1", len(msgs))
	}

	// The consumed token cannot carry a second submission.
	if err := ctrl.Submit(context.Background()); err == nil {
		t.Error("resubmitting with a used token should fail")
	} else if st := ctrl.State(); st.SubmitError == "" {
		t.Error("rejected resubmission should leave a user-visible error")
	}
}
