package main

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"safe-haven/pkg/middleware"
	"safe-haven/pkg/response"
	"safe-haven/pkg/token"
	"safe-haven/services/api-service/models"
	"safe-haven/services/api-service/store"
)

const otpValidity = 10 * time.Minute

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func isValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// generateOTP returns a 6-digit numeric code.
func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func (a *App) issueToken(userID string) (string, error) {
	ttl := time.Duration(a.cfg.JWT.ExpiryDays) * 24 * time.Hour
	return token.Generate([]byte(a.cfg.JWT.Secret), userID, ttl)
}

func (a *App) handleRegister(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request payload", "")
		return
	}

	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))

	if input.Name == "" || input.Email == "" || input.Password == "" {
		response.Error(w, http.StatusBadRequest, "Name, Email, and Password are required", "")
		return
	}
	if !isValidEmail(input.Email) {
		response.Error(w, http.StatusBadRequest, "Invalid email format", "")
		return
	}
	if len(input.Password) < 6 {
		response.Error(w, http.StatusBadRequest, "Password must be at least 6 characters", "")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to process registration", "")
		return
	}

	otp, err := a.newOTP()
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to process registration", "")
		return
	}

	existing, err := a.users.FindByEmail(r.Context(), input.Email)
	switch {
	case err == nil:
		if existing.IsVerified {
			response.Error(w, http.StatusConflict, "User already exists", "")
			return
		}
		// Unverified re-registration: refresh OTP, name and password.
		existing.Name = input.Name
		existing.Password = string(hash)
		existing.OTP = otp
		existing.OTPExpires = a.now().Add(otpValidity)
		if err := a.users.Update(r.Context(), existing); err != nil {
			a.log.Error("failed to update unverified user", zap.Error(err))
			response.Error(w, http.StatusInternalServerError, "Failed to process registration", "")
			return
		}

	case errors.Is(err, store.ErrNotFound):
		user := &models.User{
			Name:       input.Name,
			Email:      input.Email,
			Password:   string(hash),
			Role:       models.RoleUser,
			Status:     models.StatusActive,
			IsVerified: false,
			OTP:        otp,
			OTPExpires: a.now().Add(otpValidity),
			CreatedAt:  a.now(),
		}
		if err := a.users.Insert(r.Context(), user); err != nil {
			if errors.Is(err, store.ErrDuplicateEmail) {
				response.Error(w, http.StatusConflict, "User already exists", "")
				return
			}
			a.log.Error("failed to save user", zap.Error(err))
			response.Error(w, http.StatusInternalServerError, "Failed to save user", "")
			return
		}

	default:
		a.log.Error("failed to look up user", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Failed to process registration", "")
		return
	}

	// A failed send is surfaced, not swallowed; the unverified record stays
	// behind and the same call can be retried.
	if err := a.mail.SendOTP(input.Email, otp); err != nil {
		a.log.Error("failed to send otp email", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Error sending email", "")
		return
	}

	response.Success(w, http.StatusOK, "OTP sent", map[string]string{"email": input.Email})
}

func (a *App) handleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email string `json:"email"`
		OTP   string `json:"otp"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request payload", "")
		return
	}
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))

	user, err := a.users.FindByEmail(r.Context(), input.Email)
	if errors.Is(err, store.ErrNotFound) {
		response.Error(w, http.StatusNotFound, "Invalid user", "")
		return
	}
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to verify OTP", "")
		return
	}

	if user.IsVerified {
		response.Error(w, http.StatusConflict, "User already verified", "")
		return
	}
	if user.OTP == "" || user.OTP != input.OTP {
		response.Error(w, http.StatusBadRequest, "Invalid OTP", "")
		return
	}
	if a.now().After(user.OTPExpires) {
		response.Error(w, http.StatusBadRequest, "OTP expired", "")
		return
	}

	user.IsVerified = true
	user.OTP = ""
	user.OTPExpires = time.Time{}
	if err := a.users.Update(r.Context(), user); err != nil {
		a.log.Error("failed to mark user verified", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Failed to verify OTP", "")
		return
	}

	tok, err := a.issueToken(user.ID.Hex())
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to generate token", "")
		return
	}

	response.Success(w, http.StatusOK, "Email verified", map[string]interface{}{
		"token": tok,
		"user":  models.NewUserSummary(user),
	})
}

func (a *App) handleLogin(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request payload", "")
		return
	}
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))

	if input.Email == "" || input.Password == "" {
		response.Error(w, http.StatusBadRequest, "Email and Password are required", "")
		return
	}

	// Unknown email and bad password produce the same answer so accounts
	// cannot be enumerated.
	user, err := a.users.FindByEmail(r.Context(), input.Email)
	if err != nil {
		response.Error(w, http.StatusUnauthorized, "Invalid credentials", "")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)) != nil {
		response.Error(w, http.StatusUnauthorized, "Invalid credentials", "")
		return
	}

	tok, err := a.issueToken(user.ID.Hex())
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to generate token", "")
		return
	}

	response.Success(w, http.StatusOK, "Login successful", map[string]interface{}{
		"token": tok,
		"user":  models.NewUserSummary(user),
	})
}

// handleCheckEmail is a best-effort availability probe: a local uniqueness
// check plus a third-party disposable-domain lookup. It is race-prone
// against concurrent registration and is a UX hint, not a guarantee.
func (a *App) handleCheckEmail(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request payload", "")
		return
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))

	reply := func(available bool, reason string) {
		response.Success(w, http.StatusOK, "Email availability checked", map[string]interface{}{
			"email":     email,
			"available": available,
			"reason":    reason,
		})
	}

	if !isValidEmail(email) {
		reply(false, "Invalid email format")
		return
	}

	if _, err := a.users.FindByEmail(r.Context(), email); err == nil {
		reply(false, "Email already registered")
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		response.Error(w, http.StatusInternalServerError, "Failed to check email", "")
		return
	}

	verdict, err := a.checkDeliverability(r, email)
	if err != nil {
		// Upstream problems never block registration.
		a.log.Warn("email deliverability check failed", zap.Error(err))
		reply(true, "")
		return
	}
	if verdict.Disposable {
		reply(false, "Disposable email addresses are not allowed")
		return
	}
	if !verdict.DNS {
		reply(false, "Email domain cannot receive mail")
		return
	}
	reply(true, "")
}

type deliverabilityVerdict struct {
	Format     bool `json:"format"`
	Disposable bool `json:"disposable"`
	DNS        bool `json:"dns"`
}

func (a *App) checkDeliverability(r *http.Request, email string) (*deliverabilityVerdict, error) {
	endpoint := fmt.Sprintf("%s/email/%s/json",
		strings.TrimRight(a.cfg.Upstream.EmailCheckURL, "/"), url.PathEscape(email))

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("deliverability check returned %d", resp.StatusCode)
	}

	var verdict deliverabilityVerdict
	if err := json.NewDecoder(resp.Body).Decode(&verdict); err != nil {
		return nil, err
	}
	return &verdict, nil
}

func (a *App) handleMe(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.UserID(r)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "No token, authorization denied", "")
		return
	}

	user, err := a.users.FindByID(r.Context(), id)
	if err != nil {
		response.Error(w, http.StatusNotFound, "User not found", "")
		return
	}

	response.Success(w, http.StatusOK, "User profile fetched", user)
}
