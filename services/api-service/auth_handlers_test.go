package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"safe-haven/services/api-service/models"
)

func TestRegisterVerifyLoginFlow(t *testing.T) {
	f := newFixture(t)

	// register
	rr := f.do(t, http.MethodPost, "/api/auth/register", map[string]string{
		"name":     "Ada",
		"email":    "Ada@Example.com",
		"password": testPassword,
	}, "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	require.Len(t, f.mail.otps, 1)
	assert.Equal(t, "ada@example.com", f.mail.otps[0].To)
	assert.Equal(t, testOTP, f.mail.otps[0].Code)

	stored, err := f.users.FindByEmail(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.False(t, stored.IsVerified)
	assert.Equal(t, models.RoleUser, stored.Role)

	// wrong code first
	rr = f.do(t, http.MethodPost, "/api/auth/verify-otp", map[string]string{
		"email": "ada@example.com",
		"otp":   "000000",
	}, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "Invalid OTP")

	// right code
	rr = f.do(t, http.MethodPost, "/api/auth/verify-otp", map[string]string{
		"email": "ada@example.com",
		"otp":   testOTP,
	}, "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var verified struct {
		Token string             `json:"token"`
		User  models.UserSummary `json:"user"`
	}
	decodeData(t, rr, &verified)
	assert.NotEmpty(t, verified.Token)
	assert.Equal(t, "ada@example.com", verified.User.Email)

	// the OTP is cleared, so replaying it fails on the verified guard
	rr = f.do(t, http.MethodPost, "/api/auth/verify-otp", map[string]string{
		"email": "ada@example.com",
		"otp":   testOTP,
	}, "")
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Contains(t, rr.Body.String(), "User already verified")

	// login
	rr = f.do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "ada@example.com",
		"password": testPassword,
	}, "")
	require.Equal(t, http.StatusOK, rr.Code)

	var login struct {
		Token string `json:"token"`
	}
	decodeData(t, rr, &login)
	require.NotEmpty(t, login.Token)

	// the issued token works against a protected route
	rr = f.do(t, http.MethodGet, "/api/auth/me", nil, login.Token)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "ada@example.com")
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t)

	cases := []struct {
		name    string
		payload map[string]string
		message string
	}{
		{"missing fields", map[string]string{"email": "a@b.com"}, "Name, Email, and Password are required"},
		{"bad email", map[string]string{"name": "A", "email": "not-an-email", "password": testPassword}, "Invalid email format"},
		{"short password", map[string]string{"name": "A", "email": "a@b.com", "password": "12345"}, "Password must be at least 6 characters"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := f.do(t, http.MethodPost, "/api/auth/register", tc.payload, "")
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Contains(t, rr.Body.String(), tc.message)
		})
	}
}

func TestRegisterVerifiedEmailConflicts(t *testing.T) {
	f := newFixture(t)
	u := f.seedUser(t, models.RoleUser, true)

	rr := f.do(t, http.MethodPost, "/api/auth/register", map[string]string{
		"name":     "Someone Else",
		"email":    u.Email,
		"password": testPassword,
	}, "")
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Contains(t, rr.Body.String(), "User already exists")
	assert.Empty(t, f.mail.otps)
}

func TestRegisterUnverifiedRefreshesOTP(t *testing.T) {
	f := newFixture(t)
	u := f.seedUser(t, models.RoleUser, false)
	u.OTP = "999999"
	u.OTPExpires = testNow.Add(-time.Hour)
	require.NoError(t, f.users.Update(context.Background(), u))

	rr := f.do(t, http.MethodPost, "/api/auth/register", map[string]string{
		"name":     "New Name",
		"email":    u.Email,
		"password": "fresh-password",
	}, "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	stored, err := f.users.FindByEmail(context.Background(), u.Email)
	require.NoError(t, err)
	assert.Equal(t, "New Name", stored.Name)
	assert.Equal(t, testOTP, stored.OTP)
	assert.Equal(t, testNow.Add(otpValidity), stored.OTPExpires)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("fresh-password")))
	require.Len(t, f.mail.otps, 1)
}

func TestRegisterEmailSendFailure(t *testing.T) {
	f := newFixture(t)
	f.mail.err = fmt.Errorf("smtp unreachable")

	rr := f.do(t, http.MethodPost, "/api/auth/register", map[string]string{
		"name":     "Ada",
		"email":    "ada@example.com",
		"password": testPassword,
	}, "")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), "Error sending email")

	// the unverified record stays so the call can simply be retried
	stored, err := f.users.FindByEmail(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.False(t, stored.IsVerified)
}

func TestVerifyOTPExpired(t *testing.T) {
	f := newFixture(t)
	u := f.seedUser(t, models.RoleUser, false)
	u.OTP = testOTP
	u.OTPExpires = testNow.Add(-time.Minute)
	require.NoError(t, f.users.Update(context.Background(), u))

	rr := f.do(t, http.MethodPost, "/api/auth/verify-otp", map[string]string{
		"email": u.Email,
		"otp":   testOTP,
	}, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "OTP expired")
}

func TestVerifyOTPUnknownEmail(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, http.MethodPost, "/api/auth/verify-otp", map[string]string{
		"email": "nobody@example.com",
		"otp":   testOTP,
	}, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "Invalid user")
}

func TestLoginInvalidCredentials(t *testing.T) {
	f := newFixture(t)
	u := f.seedUser(t, models.RoleUser, true)

	// unknown email and wrong password are indistinguishable
	for _, payload := range []map[string]string{
		{"email": "nobody@example.com", "password": testPassword},
		{"email": u.Email, "password": "wrong-password"},
	} {
		rr := f.do(t, http.MethodPost, "/api/auth/login", payload, "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Contains(t, rr.Body.String(), "Invalid credentials")
	}
}

func TestMeRequiresToken(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, http.MethodGet, "/api/auth/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestMeNeverLeaksSecrets(t *testing.T) {
	f := newFixture(t)
	u := f.seedUser(t, models.RoleUser, true)
	u.OTP = "555555"
	require.NoError(t, f.users.Update(context.Background(), u))

	rr := f.do(t, http.MethodGet, "/api/auth/me", nil, f.token(t, u.ID.Hex()))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.NotContains(t, rr.Body.String(), "555555")
	assert.NotContains(t, rr.Body.String(), u.Password)
}

func TestCheckEmail(t *testing.T) {
	type verdict struct {
		Format     bool `json:"format"`
		Disposable bool `json:"disposable"`
		DNS        bool `json:"dns"`
	}
	type result struct {
		Email     string `json:"email"`
		Available bool   `json:"available"`
		Reason    string `json:"reason"`
	}

	newProbe := func(t *testing.T, v verdict) *fixture {
		t.Helper()
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprintf(w, `{"format":%t,"disposable":%t,"dns":%t}`, v.Format, v.Disposable, v.DNS)
		}))
		t.Cleanup(upstream.Close)
		f := newFixture(t)
		f.app.cfg.Upstream.EmailCheckURL = upstream.URL
		return f
	}

	t.Run("invalid format", func(t *testing.T) {
		f := newFixture(t)
		rr := f.do(t, http.MethodPost, "/api/auth/check-email", map[string]string{"email": "not-an-email"}, "")
		require.Equal(t, http.StatusOK, rr.Code)
		var out result
		decodeData(t, rr, &out)
		assert.False(t, out.Available)
		assert.Equal(t, "Invalid email format", out.Reason)
	})

	t.Run("already registered", func(t *testing.T) {
		f := newFixture(t)
		u := f.seedUser(t, models.RoleUser, true)
		rr := f.do(t, http.MethodPost, "/api/auth/check-email", map[string]string{"email": u.Email}, "")
		require.Equal(t, http.StatusOK, rr.Code)
		var out result
		decodeData(t, rr, &out)
		assert.False(t, out.Available)
		assert.Equal(t, "Email already registered", out.Reason)
	})

	t.Run("disposable domain", func(t *testing.T) {
		f := newProbe(t, verdict{Format: true, Disposable: true, DNS: true})
		rr := f.do(t, http.MethodPost, "/api/auth/check-email", map[string]string{"email": "a@mailinator.com"}, "")
		require.Equal(t, http.StatusOK, rr.Code)
		var out result
		decodeData(t, rr, &out)
		assert.False(t, out.Available)
		assert.Equal(t, "Disposable email addresses are not allowed", out.Reason)
	})

	t.Run("no mx records", func(t *testing.T) {
		f := newProbe(t, verdict{Format: true, Disposable: false, DNS: false})
		rr := f.do(t, http.MethodPost, "/api/auth/check-email", map[string]string{"email": "a@nodns.example"}, "")
		require.Equal(t, http.StatusOK, rr.Code)
		var out result
		decodeData(t, rr, &out)
		assert.False(t, out.Available)
		assert.Equal(t, "Email domain cannot receive mail", out.Reason)
	})

	t.Run("deliverable", func(t *testing.T) {
		f := newProbe(t, verdict{Format: true, Disposable: false, DNS: true})
		rr := f.do(t, http.MethodPost, "/api/auth/check-email", map[string]string{"email": "a@example.com"}, "")
		require.Equal(t, http.StatusOK, rr.Code)
		var out result
		decodeData(t, rr, &out)
		assert.True(t, out.Available)
	})

	t.Run("upstream down defaults to available", func(t *testing.T) {
		f := newFixture(t)
		f.app.cfg.Upstream.EmailCheckURL = "http://127.0.0.1:1"
		rr := f.do(t, http.MethodPost, "/api/auth/check-email", map[string]string{"email": "a@example.com"}, "")
		require.Equal(t, http.StatusOK, rr.Code)
		var out result
		decodeData(t, rr, &out)
		assert.True(t, out.Available)
	})
}
