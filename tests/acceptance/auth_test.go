package acceptance

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mbayedev/immoka/internal/dto"
)

type envelope struct {
	Success   bool            `json:"success"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
	Errors    json.RawMessage `json:"errors"`
	Timestamp string          `json:"timestamp"`
}

func (s *Suite) postJSON(path string, payload any) *http.Response {
	body, err := json.Marshal(payload)
	s.Require().NoError(err)

	resp, err := http.Post(s.App.BaseURL+path, "application/json", bytes.NewBuffer(body))
	s.Require().NoError(err)
	return resp
}

func (s *Suite) decodeEnvelope(resp *http.Response) envelope {
	var env envelope
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&env))
	return env
}

func (s *Suite) register(email string) envelope {
	resp := s.postJSON("/api/v1/auth/register", dto.RegisterRequest{
		Name:     "Fatou Ndiaye",
		Email:    email,
		Password: "Password123",
	})
	defer resp.Body.Close()
	s.Require().Equal(http.StatusCreated, resp.StatusCode)
	return s.decodeEnvelope(resp)
}

func (s *Suite) activate(email string) {
	_, err := s.Postgres.DB.Exec(
		`UPDATE users SET is_active = TRUE, email_verified = TRUE WHERE email = $1`, email)
	s.Require().NoError(err)
}

func (s *Suite) verificationToken(email string) string {
	var token string
	err := s.Postgres.DB.QueryRow(
		`SELECT verification_token FROM users WHERE email = $1`, email).Scan(&token)
	s.Require().NoError(err)
	return token
}

func (s *Suite) TestRegister_Success() {
	env := s.register("test@example.com")

	s.True(env.Success)

	var data struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
		User         struct {
			IdentityKey   string `json:"identityKey"`
			Email         string `json:"email"`
			IsActive      bool   `json:"isActive"`
			EmailVerified bool   `json:"emailVerified"`
		} `json:"user"`
	}
	s.Require().NoError(json.Unmarshal(env.Data, &data))

	s.NotEmpty(data.AccessToken)
	s.NotEmpty(data.RefreshToken, "both tokens travel in the body as well as in cookies")
	s.NotEmpty(data.User.IdentityKey)
	s.Equal("test@example.com", data.User.Email)
	s.False(data.User.IsActive, "accounts start inactive until email verification")
	s.False(data.User.EmailVerified)
}

func (s *Suite) TestRegister_DuplicateEmail() {
	s.register("duplicate@example.com")

	resp := s.postJSON("/api/v1/auth/register", dto.RegisterRequest{
		Name:     "Fatou Ndiaye",
		Email:    "duplicate@example.com",
		Password: "Password123",
	})
	defer resp.Body.Close()

	s.Equal(http.StatusConflict, resp.StatusCode)
	env := s.decodeEnvelope(resp)
	s.False(env.Success)
}

func (s *Suite) TestRegister_InvalidEmail() {
	resp := s.postJSON("/api/v1/auth/register", dto.RegisterRequest{
		Name:     "Fatou Ndiaye",
		Email:    "invalid-email",
		Password: "Password123",
	})
	defer resp.Body.Close()

	s.Equal(http.StatusBadRequest, resp.StatusCode)
}

func (s *Suite) TestLogin_RequiresActivation() {
	s.register("inactive@example.com")

	resp := s.postJSON("/api/v1/auth/login", dto.LoginRequest{
		Email:    "inactive@example.com",
		Password: "Password123",
	})
	defer resp.Body.Close()

	s.Equal(http.StatusForbidden, resp.StatusCode)
}

func (s *Suite) TestLogin_Success() {
	s.register("login@example.com")
	s.activate("login@example.com")

	resp := s.postJSON("/api/v1/auth/login", dto.LoginRequest{
		Email:    "login@example.com",
		Password: "Password123",
	})
	defer resp.Body.Close()

	s.Equal(http.StatusOK, resp.StatusCode)

	env := s.decodeEnvelope(resp)
	var data struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}
	s.Require().NoError(json.Unmarshal(env.Data, &data))
	s.NotEmpty(data.AccessToken)
	s.NotEmpty(data.RefreshToken)

	var hasAccess, hasRefresh bool
	for _, cookie := range resp.Cookies() {
		switch cookie.Name {
		case "accessToken":
			hasAccess = cookie.Value != ""
		case "refreshToken":
			hasRefresh = cookie.Value != "" && cookie.HttpOnly
		}
	}
	s.True(hasAccess, "access token cookie should be set")
	s.True(hasRefresh, "refresh token cookie should be set and HttpOnly")
}

func (s *Suite) TestLogin_WrongPassword() {
	s.register("wrongpass@example.com")
	s.activate("wrongpass@example.com")

	resp := s.postJSON("/api/v1/auth/login", dto.LoginRequest{
		Email:    "wrongpass@example.com",
		Password: "NotThePassword",
	})
	defer resp.Body.Close()

	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (s *Suite) TestVerifyEmail_Flow() {
	s.register("verify@example.com")
	token := s.verificationToken("verify@example.com")

	resp, err := http.Get(s.App.BaseURL + "/api/v1/auth/verify-email/" + token)
	s.Require().NoError(err)
	resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)

	// The same token a second time reports the account as already active.
	resp2, err := http.Get(s.App.BaseURL + "/api/v1/auth/verify-email/" + token)
	s.Require().NoError(err)
	defer resp2.Body.Close()
	s.Equal(http.StatusUnauthorized, resp2.StatusCode)
}

func (s *Suite) TestVerifyEmail_UnknownToken() {
	resp, err := http.Get(s.App.BaseURL + "/api/v1/auth/verify-email/not-a-real-token")
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (s *Suite) TestVerifyEmail_ExpiredToken() {
	s.register("expired@example.com")
	token := s.verificationToken("expired@example.com")

	_, err := s.Postgres.DB.Exec(
		`UPDATE users SET verification_token_expires = NOW() - INTERVAL '1 hour' WHERE email = $1`,
		"expired@example.com")
	s.Require().NoError(err)

	resp, err := http.Get(s.App.BaseURL + "/api/v1/auth/verify-email/" + token)
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal(http.StatusGone, resp.StatusCode)
}

func (s *Suite) TestRefreshToken_Rotation() {
	s.register("refresh@example.com")
	s.activate("refresh@example.com")

	loginResp := s.postJSON("/api/v1/auth/login", dto.LoginRequest{
		Email:    "refresh@example.com",
		Password: "Password123",
	})
	loginResp.Body.Close()
	s.Require().Equal(http.StatusOK, loginResp.StatusCode)

	var refreshCookie *http.Cookie
	for _, cookie := range loginResp.Cookies() {
		if cookie.Name == "refreshToken" {
			refreshCookie = cookie
		}
	}
	s.Require().NotNil(refreshCookie)

	req, err := http.NewRequest(http.MethodPost, s.App.BaseURL+"/api/v1/auth/refresh-token", nil)
	s.Require().NoError(err)
	req.AddCookie(refreshCookie)

	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	s.Equal(http.StatusOK, resp.StatusCode)

	env := s.decodeEnvelope(resp)
	resp.Body.Close()
	var rotated struct {
		RefreshToken string `json:"refreshToken"`
	}
	s.Require().NoError(json.Unmarshal(env.Data, &rotated))
	s.NotEmpty(rotated.RefreshToken)
	s.NotEqual(refreshCookie.Value, rotated.RefreshToken)

	// The rotated-out token must be rejected on replay.
	req2, err := http.NewRequest(http.MethodPost, s.App.BaseURL+"/api/v1/auth/refresh-token", nil)
	s.Require().NoError(err)
	req2.AddCookie(refreshCookie)

	resp2, err := http.DefaultClient.Do(req2)
	s.Require().NoError(err)
	defer resp2.Body.Close()
	s.Equal(http.StatusUnauthorized, resp2.StatusCode)
}

func (s *Suite) TestSessionRegistry_Bounded() {
	s.register("devices@example.com")
	s.activate("devices@example.com")

	for i := 0; i < 7; i++ {
		resp := s.postJSON("/api/v1/auth/login", dto.LoginRequest{
			Email:    "devices@example.com",
			Password: "Password123",
		})
		resp.Body.Close()
		s.Require().Equal(http.StatusOK, resp.StatusCode, fmt.Sprintf("login %d should succeed", i+1))
	}

	var count int
	err := s.Postgres.DB.QueryRow(
		`SELECT COUNT(*) FROM refresh_sessions rs
		 JOIN users u ON u.identity_key = rs.user_key
		 WHERE u.email = $1`, "devices@example.com").Scan(&count)
	s.Require().NoError(err)
	s.Equal(5, count, "only the five most recent sessions survive")
}
