package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"safe-haven/pkg/config"
	"safe-haven/pkg/response"
	"safe-haven/services/api-service/models"
	"safe-haven/services/api-service/store"
)

// Fixed clock and OTP so flows are deterministic.
var (
	testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	testOTP = "123456"
)

const testPassword = "password123"

// --- in-memory stores ---

type fakeUserStore struct {
	users map[string]*models.User
	err   error
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[string]*models.User{}}
}

func (f *fakeUserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeUserStore) FindByID(_ context.Context, id string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, store.ErrInvalidID
	}
	u, ok := f.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserStore) Insert(_ context.Context, u *models.User) error {
	if f.err != nil {
		return f.err
	}
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return store.ErrDuplicateEmail
		}
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	cp := *u
	f.users[u.ID.Hex()] = &cp
	return nil
}

func (f *fakeUserStore) Update(_ context.Context, u *models.User) error {
	if f.err != nil {
		return f.err
	}
	if _, ok := f.users[u.ID.Hex()]; !ok {
		return store.ErrNotFound
	}
	cp := *u
	f.users[u.ID.Hex()] = &cp
	return nil
}

func (f *fakeUserStore) Delete(_ context.Context, id string) error {
	if f.err != nil {
		return f.err
	}
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return store.ErrInvalidID
	}
	if _, ok := f.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.users, id)
	return nil
}

func (f *fakeUserStore) List(_ context.Context, limit int64) ([]models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]models.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeUserStore) Count(_ context.Context) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return int64(len(f.users)), nil
}

type fakeIncidentStore struct {
	incidents map[string]*models.Incident
	err       error
}

func newFakeIncidentStore() *fakeIncidentStore {
	return &fakeIncidentStore{incidents: map[string]*models.Incident{}}
}

func (f *fakeIncidentStore) Insert(_ context.Context, i *models.Incident) error {
	if f.err != nil {
		return f.err
	}
	if i.ID.IsZero() {
		i.ID = primitive.NewObjectID()
	}
	cp := *i
	f.incidents[i.ID.Hex()] = &cp
	return nil
}

func (f *fakeIncidentStore) FindByID(_ context.Context, id string) (*models.Incident, error) {
	if f.err != nil {
		return nil, f.err
	}
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, store.ErrInvalidID
	}
	i, ok := f.incidents[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *i
	return &cp, nil
}

func (f *fakeIncidentStore) List(_ context.Context, status models.IncidentStatus, limit int64) ([]models.Incident, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]models.Incident, 0, len(f.incidents))
	for _, i := range f.incidents {
		if status != "" && i.Status != status {
			continue
		}
		out = append(out, *i)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeIncidentStore) ListByReporter(_ context.Context, reporterID string) ([]models.Incident, error) {
	if f.err != nil {
		return nil, f.err
	}
	oid, err := primitive.ObjectIDFromHex(reporterID)
	if err != nil {
		return nil, store.ErrInvalidID
	}
	out := []models.Incident{}
	for _, i := range f.incidents {
		if i.ReportedBy == oid {
			out = append(out, *i)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeIncidentStore) SetStatus(_ context.Context, id string, status models.IncidentStatus, moderatorID string, reason string) (*models.Incident, error) {
	if f.err != nil {
		return nil, f.err
	}
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, store.ErrInvalidID
	}
	i, ok := f.incidents[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	i.Status = status
	i.ModeratedBy, _ = primitive.ObjectIDFromHex(moderatorID)
	i.ModerationReason = reason
	cp := *i
	return &cp, nil
}

func (f *fakeIncidentStore) Delete(_ context.Context, id string) error {
	if f.err != nil {
		return f.err
	}
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return store.ErrInvalidID
	}
	if _, ok := f.incidents[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.incidents, id)
	return nil
}

func (f *fakeIncidentStore) Count(_ context.Context) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return int64(len(f.incidents)), nil
}

func (f *fakeIncidentStore) CountByStatus(_ context.Context, status models.IncidentStatus) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	var n int64
	for _, i := range f.incidents {
		if i.Status == status {
			n++
		}
	}
	return n, nil
}

func (f *fakeIncidentStore) CountBySeverity(_ context.Context, severity models.Severity) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	var n int64
	for _, i := range f.incidents {
		if i.Severity == severity {
			n++
		}
	}
	return n, nil
}

func (f *fakeIncidentStore) CountSince(_ context.Context, since time.Time) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	var n int64
	for _, i := range f.incidents {
		if !i.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (f *fakeIncidentStore) ReportsPerDay(_ context.Context, since time.Time) ([]store.DayCount, error) {
	if f.err != nil {
		return nil, f.err
	}
	buckets := map[string]int64{}
	for _, i := range f.incidents {
		if i.CreatedAt.Before(since) {
			continue
		}
		buckets[i.CreatedAt.UTC().Format("2006-01-02")]++
	}
	out := make([]store.DayCount, 0, len(buckets))
	for day, n := range buckets {
		out = append(out, store.DayCount{Date: day, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func (f *fakeIncidentStore) CategoryDistribution(_ context.Context) ([]store.CategoryCount, error) {
	if f.err != nil {
		return nil, f.err
	}
	buckets := map[string]int64{}
	for _, i := range f.incidents {
		buckets[string(i.Category)]++
	}
	out := make([]store.CategoryCount, 0, len(buckets))
	for cat, n := range buckets {
		out = append(out, store.CategoryCount{Category: cat, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out, nil
}

type fakeArchiveStore struct {
	archived []models.ArchivedIncident
	err      error
}

func (f *fakeArchiveStore) Insert(_ context.Context, a *models.ArchivedIncident) error {
	if f.err != nil {
		return f.err
	}
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	f.archived = append(f.archived, *a)
	return nil
}

func (f *fakeArchiveStore) ListByReporter(_ context.Context, reporterID string) ([]models.ArchivedIncident, error) {
	if f.err != nil {
		return nil, f.err
	}
	oid, err := primitive.ObjectIDFromHex(reporterID)
	if err != nil {
		return nil, store.ErrInvalidID
	}
	out := []models.ArchivedIncident{}
	for _, a := range f.archived {
		if a.ReportedBy == oid {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DeletedAt.After(out[j].DeletedAt) })
	return out, nil
}

// --- fake mailer and publisher ---

type sentOTP struct {
	To   string
	Code string
}

type sentNotice struct {
	To     string
	Title  string
	Status string
	Reason string
}

type fakeMailer struct {
	otps    []sentOTP
	notices []sentNotice
	err     error
}

func (f *fakeMailer) SendOTP(to, code string) error {
	if f.err != nil {
		return f.err
	}
	f.otps = append(f.otps, sentOTP{To: to, Code: code})
	return nil
}

func (f *fakeMailer) SendModerationNotice(to, title, status, reason string) error {
	if f.err != nil {
		return f.err
	}
	f.notices = append(f.notices, sentNotice{To: to, Title: title, Status: status, Reason: reason})
	return nil
}

type fakePublisher struct {
	events []IncidentEvent
	err    error
}

func (f *fakePublisher) Publish(_ context.Context, _ string, payload interface{}) error {
	if f.err != nil {
		return f.err
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	var ev IncidentEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return err
	}
	f.events = append(f.events, ev)
	return nil
}

// --- fixture ---

type fixture struct {
	app       *App
	handler   http.Handler
	users     *fakeUserStore
	incidents *fakeIncidentStore
	archive   *fakeArchiveStore
	mail      *fakeMailer
	events    *fakePublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.ExpiryDays = 7
	cfg.Queue.Name = "incident_events"

	f := &fixture{
		users:     newFakeUserStore(),
		incidents: newFakeIncidentStore(),
		archive:   &fakeArchiveStore{},
		mail:      &fakeMailer{},
		events:    &fakePublisher{},
	}
	f.app = NewApp(cfg, zap.NewNop(), f.users, f.incidents, f.archive, f.mail, f.events, nil)
	f.app.now = func() time.Time { return testNow }
	f.app.newOTP = func() (string, error) { return testOTP, nil }
	f.handler = f.app.Routes()
	return f
}

func (f *fixture) seedUser(t *testing.T, role models.Role, verified bool) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)

	u := &models.User{
		ID:         primitive.NewObjectID(),
		Name:       "Test " + string(role),
		Email:      primitive.NewObjectID().Hex() + "@example.com",
		Password:   string(hash),
		Role:       role,
		Status:     models.StatusActive,
		IsVerified: verified,
		CreatedAt:  testNow.Add(-24 * time.Hour),
	}
	require.NoError(t, f.users.Insert(context.Background(), u))
	return u
}

func (f *fixture) seedIncident(t *testing.T, reporter *models.User, status models.IncidentStatus, mutate func(*models.Incident)) *models.Incident {
	t.Helper()
	i := &models.Incident{
		ID:              primitive.NewObjectID(),
		Title:           "Bike stolen outside the library",
		Description:     "Lock was cut sometime in the afternoon",
		Category:        models.CategoryTheft,
		Severity:        models.SeverityMedium,
		Latitude:        51.5,
		Longitude:       -0.12,
		Location:        "Central Library",
		ReportedBy:      reporter.ID,
		ReportedByEmail: reporter.Email,
		Status:          status,
		CreatedAt:       testNow.Add(-time.Hour),
	}
	if mutate != nil {
		mutate(i)
	}
	require.NoError(t, f.incidents.Insert(context.Background(), i))
	return i
}

func (f *fixture) token(t *testing.T, userID string) string {
	t.Helper()
	tok, err := f.app.issueToken(userID)
	require.NoError(t, err)
	return tok
}

func (f *fixture) do(t *testing.T, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)
	return rr
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) response.APIResponse {
	t.Helper()
	var env response.APIResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	return env
}

// decodeData re-marshals the envelope's Data field into out.
func decodeData(t *testing.T, rr *httptest.ResponseRecorder, out interface{}) response.APIResponse {
	t.Helper()
	env := decodeEnvelope(t, rr)
	raw, err := json.Marshal(env.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, out))
	return env
}
