package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/phillip/ngo-admin-console/accounts"
	"github.com/phillip/ngo-admin-console/analytics"
	"github.com/phillip/ngo-admin-console/audit"
	"github.com/phillip/ngo-admin-console/auth"
	"github.com/phillip/ngo-admin-console/config"
	"github.com/phillip/ngo-admin-console/middleware"
	"github.com/phillip/ngo-admin-console/models"
	"github.com/phillip/ngo-admin-console/notify"
	"github.com/phillip/ngo-admin-console/store"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// mailbox records messages instead of sending them.
type mailbox struct {
	mu   sync.Mutex
	msgs []notify.Message
	err  error
}

func (b *mailbox) Send(_ context.Context, msg notify.Message) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	b.msgs = append(b.msgs, msg)
	return nil
}

func (b *mailbox) sent() []notify.Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]notify.Message(nil), b.msgs...)
}

func (b *mailbox) fail(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.err = err
}

type fakeImages struct {
	mu       sync.Mutex
	uploaded []string
	deleted  []string
}

func (f *fakeImages) Upload(_ context.Context, r io.Reader, filename string) (string, error) {
	if _, err := io.ReadAll(r); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	url := "https://res.cloudinary.com/demo/image/upload/v1/events/" + filename
	f.uploaded = append(f.uploaded, url)
	return url, nil
}

func (f *fakeImages) Delete(_ context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, url)
	return nil
}

type harness struct {
	cfg    *config.Config
	db     *store.Memory
	mail   *mailbox
	audit  *audit.Recorder
	images *fakeImages
	router *gin.Engine
	token  string
}

func setup(t *testing.T) *harness {
	t.Helper()
	log := zap.NewNop().Sugar()
	h := &harness{
		db:     store.NewMemory(),
		mail:   &mailbox{},
		audit:  &audit.Recorder{},
		images: &fakeImages{},
	}
	h.cfg = &config.Config{
		App:      config.AppConfig{RequestTimeout: 5 * time.Second},
		Log:      log,
		DB:       h.db,
		Tokens:   auth.NewTokenManager("test-secret", "test", time.Hour),
		Revoker:  auth.NewMemoryRevoker(),
		Notifier: notify.NewNotifier(h.mail, notify.Brand{Name: "VolunTrek", From: "noreply@voluntrek.org"}, time.Second, log),
		Audit:    h.audit,
		Images:   h.images,
		Location: time.UTC,
	}
	h.cfg.Accounts = accounts.NewService(h.db, accounts.NewResolver(h.db, log, 4), h.audit, log)
	h.router = h.routes()

	token, _, err := h.cfg.Tokens.Issue("a1", "root", models.RoleAdmin)
	require.NoError(t, err)
	h.token = token
	return h
}

func (h *harness) routes() *gin.Engine {
	cfg := h.cfg
	r := gin.New()
	r.GET("/healthz", Health(cfg))
	r.POST("/auth/login", Login(cfg))

	a := r.Group("")
	a.Use(middleware.AuthMiddleware(cfg))
	a.POST("/auth/logout", Logout(cfg))
	a.GET("/auth/me", Me(cfg))
	a.GET("/dashboard", Dashboard(cfg))
	a.GET("/ngo-accounts", ListNGOAccounts(cfg))
	a.GET("/ngo-accounts/:id", GetNGOAccount(cfg))
	a.PATCH("/ngo-accounts/:id", UpdateNGOAccount(cfg))
	a.DELETE("/ngo-accounts/:id", DeleteNGOAccount(cfg))
	a.GET("/volunteer-accounts", ListVolunteerAccounts(cfg))
	a.GET("/volunteer-accounts/:id", GetVolunteerAccount(cfg))
	a.PATCH("/volunteer-accounts/:id", UpdateVolunteerAccount(cfg))
	a.DELETE("/volunteer-accounts/:id", DeleteVolunteerAccount(cfg))
	a.GET("/ngo-approval", ListPendingNGOs(cfg))
	a.POST("/ngo-approval/:id/approve", ApproveNGO(cfg))
	a.POST("/ngo-approval/:id/reject", RejectNGO(cfg))
	a.POST("/events", CreateEvent(cfg))
	a.GET("/events", ListEvents(cfg))
	a.GET("/events/:id", GetEvent(cfg))
	a.PATCH("/events/:id", UpdateEvent(cfg))
	a.DELETE("/events/:id", DeleteEvent(cfg))
	a.POST("/api/email", SendStatusEmail(cfg))
	a.POST("/api/email/event-notification", SendEventEmail(cfg))
	return r
}

func (h *harness) put(t *testing.T, coll, id string, doc bson.M) {
	t.Helper()
	require.NoError(t, h.db.Set(context.Background(), coll, id, doc))
}

func (h *harness) do(t *testing.T, method, path string, body any, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+h.token)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func (h *harness) seedNGO(t *testing.T, id, email, name, status string) {
	t.Helper()
	h.put(t, store.Users, id, bson.M{"email": email, "role": models.RoleNGO})
	h.put(t, store.NGOs, id, bson.M{"organizationName": name, "verificationStatus": status})
}

// ---------------- AUTH ----------------

func TestLogin(t *testing.T) {
	h := setup(t)
	_, err := auth.CreateAdmin(context.Background(), h.db, "root", "correct-horse")
	require.NoError(t, err)
	hash, err := auth.HashPassword("ngo-password")
	require.NoError(t, err)
	h.put(t, store.Admins, "x", bson.M{"username": "ngo-user", "passwordHash": hash, "role": models.RoleNGO})

	tests := []struct {
		name     string
		body     gin.H
		code     int
		errorMsg string
	}{
		{"unknown user", gin.H{"username": "nobody", "password": "whatever1"}, http.StatusUnauthorized, "User not found"},
		{"wrong password", gin.H{"username": "root", "password": "wrong-pass"}, http.StatusUnauthorized, "Invalid credentials"},
		{"not an admin", gin.H{"username": "ngo-user", "password": "ngo-password"}, http.StatusForbidden, "Access denied. Only admins can log in."},
		{"missing password", gin.H{"username": "root"}, http.StatusBadRequest, "username and password are required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := h.do(t, http.MethodPost, "/auth/login", tt.body)
			assert.Equal(t, tt.code, w.Code)
			assert.Equal(t, tt.errorMsg, decode[gin.H](t, w)["error"])
		})
	}

	w := h.do(t, http.MethodPost, "/auth/login", gin.H{"username": "root", "password": "correct-horse"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode[struct {
		Token string           `json:"token"`
		User  models.AdminUser `json:"user"`
	}](t, w)
	assert.NotEmpty(t, body.Token)
	assert.Equal(t, "root", body.User.Username)
	assert.NotContains(t, w.Body.String(), "passwordHash")

	h.token = body.Token
	w = h.do(t, http.MethodGet, "/auth/me", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "root", decode[gin.H](t, w)["username"])

	w = h.do(t, http.MethodPost, "/auth/logout", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = h.do(t, http.MethodGet, "/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code, "logged out token is refused")
}

// ---------------- DASHBOARD ----------------

type brokenStore struct {
	store.Store
}

func (brokenStore) GetAll(context.Context, string) ([]store.Document, error) {
	return nil, errors.New("connection refused")
}

func (brokenStore) Query(context.Context, string, store.Query) ([]store.Document, error) {
	return nil, errors.New("connection refused")
}

func TestDashboard(t *testing.T) {
	h := setup(t)
	h.put(t, store.Events, "e1", bson.M{
		"title":         "Tree planting",
		"createdAt":     time.Date(2024, time.January, 10, 9, 0, 0, 0, time.UTC),
		"categories":    bson.A{"Environment", "Education"},
		"acceptedCount": 5,
	})
	h.put(t, store.Events, "e2", bson.M{
		"title":         "Beach cleanup",
		"createdAt":     time.Date(2024, time.March, 5, 9, 0, 0, 0, time.UTC),
		"category":      "Environment",
		"acceptedCount": 3,
	})
	h.put(t, store.Events, "e3", bson.M{"title": "Draft", "category": "Environment", "acceptedCount": 4})
	h.put(t, store.Volunteers, "v1", bson.M{
		"fullName":      "Amina",
		"skills":        bson.M{"tech": bson.A{"Go", "SQL"}},
		"fieldOfStudy":  "Computer Science",
		"highestDegree": "Bachelors",
	})
	h.put(t, store.NGOs, "n1", bson.M{
		"areasOfOperation":    bson.A{"Urban"},
		"targetBeneficiaries": bson.A{"Children"},
		"verificationStatus":  models.StatusVerified,
	})

	w := h.do(t, http.MethodGet, "/dashboard", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	d := decode[analytics.Dashboard](t, w)

	assert.Equal(t, 2, d.Events.TotalEvents)
	assert.Equal(t, 8, d.Events.TotalJoined)
	assert.Equal(t, map[string]int{"Environment": 2, "Education": 1}, d.Events.Categories)
	require.Len(t, d.Events.Monthly, 12)
	assert.Equal(t, analytics.MonthCount{Month: "Jan", Events: 1, Joined: 5}, d.Events.Monthly[0])
	assert.Equal(t, analytics.MonthCount{Month: "Mar", Events: 1, Joined: 3}, d.Events.Monthly[2])

	assert.Equal(t, 1, d.Volunteers.Total)
	assert.Equal(t, 1, d.Volunteers.Skills["Go"])
	assert.Equal(t, 1, d.NGOs.Verification[models.StatusVerified])
	assert.Len(t, d.NGOs.Areas, len(analytics.Areas))
	assert.Len(t, d.Charts.Beneficiaries, len(analytics.Beneficiaries))
}

func TestDashboardKeepsRecordsWithOddValues(t *testing.T) {
	h := setup(t)
	h.put(t, store.Volunteers, "v1", bson.M{
		"fullName":     "Ada",
		"dateOfBirth":  "15/06/2000",
		"skills":       bson.M{"tech": bson.A{"Go"}, "misc": 7},
		"fieldOfStudy": "Law",
	})
	h.put(t, store.Volunteers, "v2", bson.M{"fullName": "Baraka", "dateOfBirth": "1990-12-31", "skills": bson.M{"tech": "Go"}})
	h.put(t, store.NGOs, "n1", bson.M{"areasOfOperation": 3, "verificationStatus": "Pending"})

	w := h.do(t, http.MethodGet, "/dashboard", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	d := decode[analytics.Dashboard](t, w)

	assert.Equal(t, 2, d.Volunteers.Total)
	assert.Equal(t, 2, d.Volunteers.Skills["Go"])
	assert.Equal(t, 1, d.Volunteers.FieldsOfStudy["Law"])
	assert.Equal(t, 1, d.NGOs.Total)
	assert.Equal(t, 1, d.NGOs.Verification[models.StatusPending])
}

func TestDashboardStoreFailureIsRetryable(t *testing.T) {
	h := setup(t)
	h.cfg.DB = brokenStore{Store: h.db}

	w := h.do(t, http.MethodGet, "/dashboard", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, true, decode[gin.H](t, w)["retryable"])
}

// ---------------- ACCOUNTS ----------------

func TestNGOAccounts(t *testing.T) {
	h := setup(t)
	h.seedNGO(t, "n1", "hello@green.org", "Green Earth", models.StatusVerified)
	h.seedNGO(t, "n2", "info@water.org", "Clean Water", models.StatusPending)
	h.put(t, store.Users, "n3", bson.M{"email": "", "role": models.RoleNGO})
	h.put(t, store.Users, "v1", bson.M{"email": "v@x.org", "role": models.RoleVolunteer})

	w := h.do(t, http.MethodGet, "/ngo-accounts", nil)
	require.Equal(t, http.StatusOK, w.Code)
	all := decode[[]models.NGOAccount](t, w)
	require.Len(t, all, 3)
	assert.Equal(t, models.NotAvailable, all[2].OrganizationName)
	assert.Equal(t, models.NoEmailAvailable, all[2].Email)

	w = h.do(t, http.MethodGet, "/ngo-accounts?q=water", nil)
	filtered := decode[[]models.NGOAccount](t, w)
	require.Len(t, filtered, 1)
	assert.Equal(t, "n2", filtered[0].ID)

	w = h.do(t, http.MethodGet, "/ngo-accounts/v1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code, "volunteer ids are not NGO accounts")

	w = h.do(t, http.MethodPatch, "/ngo-accounts/n1", gin.H{"phoneNumber": "+254700000000", "address": "Nairobi"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[struct {
		Account models.NGOAccount `json:"account"`
	}](t, w)
	assert.Equal(t, "+254700000000", updated.Account.PhoneNumber)
	assert.Equal(t, "Nairobi", updated.Account.Address)

	w = h.do(t, http.MethodPatch, "/ngo-accounts/n1", gin.H{"email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(t, http.MethodPatch, "/ngo-accounts/n1", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(t, http.MethodDelete, "/ngo-accounts/n1?cascade=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	_, err := h.db.GetByID(context.Background(), store.NGOs, "n1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	w = h.do(t, http.MethodDelete, "/ngo-accounts/n2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	_, err = h.db.GetByID(context.Background(), store.NGOs, "n2")
	assert.NoError(t, err, "profile survives without cascade")

	assert.Contains(t, h.audit.Types(), audit.AccountDeleted)
	assert.Contains(t, h.audit.Types(), audit.AccountUpdated)
}

func TestVolunteerAccounts(t *testing.T) {
	h := setup(t)
	h.put(t, store.Users, "v1", bson.M{"email": "amina@x.org", "role": models.RoleVolunteer})
	h.put(t, store.Volunteers, "v1", bson.M{"fullName": "Amina Odhiambo", "location": "Kisumu"})
	h.put(t, store.Users, "v2", bson.M{"email": "brian@x.org", "role": models.RoleVolunteer})

	w := h.do(t, http.MethodGet, "/volunteer-accounts?q=amina", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]models.VolunteerAccount](t, w)
	require.Len(t, list, 1)
	assert.Equal(t, "Kisumu", list[0].Address)

	w = h.do(t, http.MethodPatch, "/volunteer-accounts/v2", gin.H{"fullName": "Brian", "dateOfBirth": "1999-01-02"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := decode[struct {
		Account models.VolunteerAccount `json:"account"`
	}](t, w)
	assert.Equal(t, "Brian", got.Account.FullName)
	assert.Equal(t, "1999-01-02", got.Account.DateOfBirth)
	assert.True(t, got.Account.HasProfile)

	w = h.do(t, http.MethodPatch, "/volunteer-accounts/v2", gin.H{"dateOfBirth": "yesterday"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "dateOfBirth", decode[gin.H](t, w)["field"])

	w = h.do(t, http.MethodDelete, "/volunteer-accounts/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// ---------------- APPROVAL ----------------

func TestApprovalFlow(t *testing.T) {
	h := setup(t)
	h.seedNGO(t, "n1", "hello@green.org", "Green Earth", models.StatusPending)
	h.seedNGO(t, "n2", "info@water.org", "Clean Water", models.StatusPending)
	h.seedNGO(t, "n3", "done@x.org", "Done", models.StatusVerified)
	h.put(t, store.Users, "n4", bson.M{"email": "noprofile@x.org", "role": models.RoleNGO})

	w := h.do(t, http.MethodGet, "/ngo-approval", nil)
	require.Equal(t, http.StatusOK, w.Code)
	pending := decode[[]models.NGOAccount](t, w)
	require.Len(t, pending, 2)

	w = h.do(t, http.MethodPost, "/ngo-approval/n1/approve", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode[struct {
		Account      models.NGOAccount `json:"account"`
		Notification notify.Result     `json:"notification"`
	}](t, w)
	assert.Equal(t, models.StatusVerified, res.Account.VerificationStatus)
	assert.Equal(t, notify.StatusSent, res.Notification.Status)

	doc, err := h.db.GetByID(context.Background(), store.NGOs, "n1")
	require.NoError(t, err)
	assert.Equal(t, "root", doc["verifiedBy"])
	assert.NotNil(t, doc["verifiedAt"])

	sent := h.mail.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "hello@green.org", sent[0].To)
	assert.Equal(t, "Your NGO Account Has Been Approved", sent[0].Subject)

	w = h.do(t, http.MethodPost, "/ngo-approval/n2/reject", gin.H{"reason": "Incomplete registration documents"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	doc, err = h.db.GetByID(context.Background(), store.NGOs, "n2")
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, doc["verificationStatus"])
	assert.Equal(t, "Incomplete registration documents", doc["rejectionReason"])
	sent = h.mail.sent()
	require.Len(t, sent, 2)
	assert.Contains(t, sent[1].Text, "Incomplete registration documents")

	w = h.do(t, http.MethodPost, "/ngo-approval/n4/approve", nil)
	assert.Equal(t, http.StatusNotFound, w.Code, "account without a profile cannot be approved")

	w = h.do(t, http.MethodPost, "/ngo-approval/n1/approve", nil)
	assert.Equal(t, http.StatusConflict, w.Code, "already verified")
	assert.Equal(t, "NGO is not pending approval", decode[gin.H](t, w)["error"])
	w = h.do(t, http.MethodPost, "/ngo-approval/n3/reject", gin.H{"reason": "late"})
	assert.Equal(t, http.StatusConflict, w.Code)
	doc, err = h.db.GetByID(context.Background(), store.NGOs, "n3")
	require.NoError(t, err)
	assert.Equal(t, models.StatusVerified, doc["verificationStatus"])
	assert.Len(t, h.mail.sent(), 2, "no mail for a refused decision")

	w = h.do(t, http.MethodGet, "/ngo-approval", nil)
	assert.Empty(t, decode[[]models.NGOAccount](t, w))

	assert.Equal(t, []string{audit.NGOVerified, audit.NGORejected}, h.audit.Types())
}

func TestApprovalSurvivesEmailFailure(t *testing.T) {
	h := setup(t)
	h.seedNGO(t, "n1", "hello@green.org", "Green Earth", models.StatusPending)
	h.mail.fail(notify.ErrCredentials)

	w := h.do(t, http.MethodPost, "/ngo-approval/n1/approve", nil)
	require.Equal(t, http.StatusOK, w.Code)
	res := decode[struct {
		Notification notify.Result `json:"notification"`
	}](t, w)
	assert.Equal(t, notify.KindAuth, res.Notification.Kind)

	doc, err := h.db.GetByID(context.Background(), store.NGOs, "n1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusVerified, doc["verificationStatus"])
}

// ---------------- EMAIL ENDPOINTS ----------------

func TestStatusEmailEndpoint(t *testing.T) {
	refused := &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}

	tests := []struct {
		name    string
		data    gin.H
		sendErr error
		code    int
		errMsg  string
		sends   int
	}{
		{"approved", gin.H{"email": "a@x.org", "organizationName": "Green", "status": "approved"}, nil, http.StatusOK, "", 1},
		{"rejected with reason", gin.H{"email": "a@x.org", "organizationName": "Green", "status": "rejected", "rejectionReason": "docs"}, nil, http.StatusOK, "", 1},
		{"missing fields", gin.H{"email": "a@x.org"}, nil, http.StatusBadRequest, "Missing required fields", 0},
		{"unknown status", gin.H{"email": "a@x.org", "organizationName": "Green", "status": "unknown"}, nil, http.StatusBadRequest, "Invalid status value", 0},
		{"bad credentials", gin.H{"email": "a@x.org", "organizationName": "Green", "status": "approved"}, notify.ErrCredentials, http.StatusUnauthorized, "Failed to send email", 0},
		{"connection refused", gin.H{"email": "a@x.org", "organizationName": "Green", "status": "approved"}, refused, http.StatusServiceUnavailable, "Failed to send email", 0},
		{"other failure", gin.H{"email": "a@x.org", "organizationName": "Green", "status": "approved"}, errors.New("mailbox full"), http.StatusInternalServerError, "Failed to send email", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := setup(t)
			h.mail.fail(tt.sendErr)

			w := h.do(t, http.MethodPost, "/api/email", gin.H{"data": tt.data})
			assert.Equal(t, tt.code, w.Code, w.Body.String())
			body := decode[gin.H](t, w)
			if tt.errMsg == "" {
				assert.Equal(t, true, body["success"])
				assert.Equal(t, "Email sent successfully", body["message"])
			} else {
				assert.Equal(t, tt.errMsg, body["error"])
			}
			assert.Len(t, h.mail.sent(), tt.sends)
		})
	}
}

func TestEventEmailEndpoint(t *testing.T) {
	h := setup(t)
	w := h.do(t, http.MethodPost, "/api/email/event-notification", gin.H{"data": gin.H{
		"email":            "ngo@x.org",
		"organizationName": "Green",
		"eventTitle":       "Tree planting",
		"eventDate":        "2025-04-01",
	}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Event notification email sent successfully", decode[gin.H](t, w)["message"])
	require.Len(t, h.mail.sent(), 1)
	assert.Equal(t, "New Event Created: Tree planting", h.mail.sent()[0].Subject)

	w = h.do(t, http.MethodPost, "/api/email/event-notification", gin.H{"data": gin.H{"email": "ngo@x.org"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[gin.H](t, w)["details"], "eventTitle")
}

func TestEmailEndpointsRejectUnreadableBody(t *testing.T) {
	for _, path := range []string{"/api/email", "/api/email/event-notification"} {
		t.Run(path, func(t *testing.T) {
			h := setup(t)
			w := h.do(t, http.MethodPost, path, "not an object")
			require.Equal(t, http.StatusBadRequest, w.Code)
			body := decode[gin.H](t, w)
			assert.Equal(t, "Missing required fields", body["error"])
			assert.Equal(t, "EMISSING", body["code"])
			assert.NotEmpty(t, body["details"])

			w = h.do(t, http.MethodPost, path, gin.H{"data": "just a string"})
			require.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "EMISSING", decode[gin.H](t, w)["code"])
			assert.Empty(t, h.mail.sent())
		})
	}
}

// ---------------- EVENTS ----------------

func validEvent(ngoID string) gin.H {
	return gin.H{
		"title":           "Tree planting",
		"description":     "Plant 500 seedlings",
		"location":        "Karura Forest",
		"date":            "2025-04-01",
		"time":            "09:00",
		"category":        "Environment",
		"maxParticipants": 40,
		"ngoId":           ngoID,
	}
}

func TestCreateEventValidation(t *testing.T) {
	h := setup(t)
	h.seedNGO(t, "n1", "hello@green.org", "Green Earth", models.StatusVerified)

	w := h.do(t, http.MethodPost, "/events", gin.H{"title": "Only a title"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decode[struct {
		Missing []string `json:"missing"`
	}](t, w)
	assert.ElementsMatch(t, []string{"description", "location", "date", "time", "category", "ngoId", "maxParticipants"}, body.Missing)

	bad := validEvent("n1")
	bad["maxParticipants"] = -3
	w = h.do(t, http.MethodPost, "/events", bad)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(t, http.MethodPost, "/events", validEvent("ghost"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "NGO not found", decode[gin.H](t, w)["error"])

	assert.Empty(t, h.mail.sent())
}

func TestEventLifecycle(t *testing.T) {
	h := setup(t)
	h.seedNGO(t, "n1", "hello@green.org", "Green Earth", models.StatusVerified)
	h.put(t, store.Events, "old", bson.M{
		"title":     "Older event",
		"category":  "Health",
		"createdAt": time.Date(2023, time.May, 1, 0, 0, 0, 0, time.UTC),
	})

	w := h.do(t, http.MethodPost, "/events", validEvent("n1"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[struct {
		Event        models.Event  `json:"event"`
		Notification notify.Result `json:"notification"`
	}](t, w)
	ev := created.Event
	require.NotEmpty(t, ev.ID)
	assert.Equal(t, models.EventActive, ev.Status)
	assert.Equal(t, 0, ev.CurrentParticipants)
	assert.Equal(t, "root", ev.CreatedBy)
	assert.Equal(t, "Green Earth", ev.NgoName)
	assert.Equal(t, notify.StatusSent, created.Notification.Status)
	require.Len(t, h.mail.sent(), 1)
	assert.Equal(t, "hello@green.org", h.mail.sent()[0].To)
	assert.Equal(t, "New Event Created: Tree planting", h.mail.sent()[0].Subject)

	w = h.do(t, http.MethodGet, "/events", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]models.Event](t, w)
	require.Len(t, list, 2)
	assert.Equal(t, ev.ID, list[0].ID, "newest first")
	etag := w.Header().Get("ETag")
	require.NotEmpty(t, etag)
	assert.NotEmpty(t, w.Header().Get("Last-Modified"))

	w = h.do(t, http.MethodGet, "/events", nil, "If-None-Match", etag)
	assert.Equal(t, http.StatusNotModified, w.Code)

	w = h.do(t, http.MethodGet, "/events?q=health", nil)
	assert.Len(t, decode[[]models.Event](t, w), 1)

	// stored times have millisecond precision
	time.Sleep(5 * time.Millisecond)
	w = h.do(t, http.MethodPatch, "/events/"+ev.ID, gin.H{"status": "completed", "maxParticipants": 60})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[struct {
		Event models.Event `json:"event"`
	}](t, w)
	assert.Equal(t, models.EventCompleted, updated.Event.Status)
	assert.Equal(t, 60, updated.Event.MaxParticipants)

	w = h.do(t, http.MethodGet, "/events", nil, "If-None-Match", etag)
	assert.Equal(t, http.StatusOK, w.Code, "update changes the list validator")

	w = h.do(t, http.MethodPatch, "/events/"+ev.ID, gin.H{"status": "archived"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(t, http.MethodPatch, "/events/"+ev.ID, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(t, http.MethodDelete, "/events/"+ev.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = h.do(t, http.MethodGet, "/events/"+ev.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	assert.Equal(t, []string{audit.EventCreated, audit.EventDeleted}, h.audit.Types())
}

func TestEventImages(t *testing.T) {
	h := setup(t)
	h.seedNGO(t, "n1", "hello@green.org", "Green Earth", models.StatusVerified)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range validEvent("n1") {
		require.NoError(t, mw.WriteField(k, toString(v)))
	}
	fw, err := mw.CreateFormFile("images", "poster.png")
	require.NoError(t, err)
	_, err = fw.Write([]byte("png-bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/events", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+h.token)
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	ev := decode[struct {
		Event models.Event `json:"event"`
	}](t, w).Event
	require.Len(t, ev.Images, 1)
	assert.Equal(t, h.images.uploaded, ev.Images)

	w = h.do(t, http.MethodDelete, "/events/"+ev.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, ev.Images, h.images.deleted)
}

func toString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	}
	return ""
}

func TestHealth(t *testing.T) {
	h := setup(t)
	w := h.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
