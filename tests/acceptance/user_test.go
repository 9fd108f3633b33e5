package acceptance

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"
)

func (s *Suite) authedRequest(method, path, token string, payload any) *http.Response {
	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		s.Require().NoError(err)
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, s.App.BaseURL+path, body)
	s.Require().NoError(err)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	return resp
}

func (s *Suite) promoteToMaster(email string) {
	_, err := s.Postgres.DB.Exec(`UPDATE users SET role = 'master' WHERE email = $1`, email)
	s.Require().NoError(err)
}

func (s *Suite) TestGetProfile() {
	token := s.authToken("profile@example.com")

	resp := s.authedRequest(http.MethodGet, "/api/v1/users/profile", token, nil)
	defer resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)

	env := s.decodeEnvelope(resp)
	var data struct {
		User struct {
			Email string `json:"email"`
			Role  string `json:"role"`
		} `json:"user"`
	}
	s.Require().NoError(json.Unmarshal(env.Data, &data))
	s.Equal("profile@example.com", data.User.Email)
	s.Equal("user", data.User.Role)
}

func (s *Suite) TestGetProfile_RequiresAuth() {
	resp, err := http.Get(s.App.BaseURL + "/api/v1/users/profile")
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (s *Suite) TestUpdateProfile() {
	token := s.authToken("rename@example.com")

	resp := s.authedRequest(http.MethodPut, "/api/v1/users/profile", token,
		map[string]string{"name": "Moussa Sarr"})
	defer resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)

	var name string
	err := s.Postgres.DB.QueryRow(
		`SELECT name FROM users WHERE email = $1`, "rename@example.com").Scan(&name)
	s.Require().NoError(err)
	s.Equal("Moussa Sarr", name)
}

func (s *Suite) TestChangePassword_RevokesSessions() {
	token := s.authToken("rotate@example.com")

	resp := s.authedRequest(http.MethodPost, "/api/v1/auth/change-password", token,
		map[string]string{
			"currentPassword": "Password123",
			"newPassword":     "NewPassword456",
		})
	resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)

	var count int
	err := s.Postgres.DB.QueryRow(
		`SELECT COUNT(*) FROM refresh_sessions rs
		 JOIN users u ON u.identity_key = rs.user_key
		 WHERE u.email = $1`, "rotate@example.com").Scan(&count)
	s.Require().NoError(err)
	s.Equal(0, count)

	// Only the new password works from now on.
	oldLogin := s.postJSON("/api/v1/auth/login", map[string]string{
		"email": "rotate@example.com", "password": "Password123",
	})
	oldLogin.Body.Close()
	s.Equal(http.StatusUnauthorized, oldLogin.StatusCode)

	newLogin := s.postJSON("/api/v1/auth/login", map[string]string{
		"email": "rotate@example.com", "password": "NewPassword456",
	})
	newLogin.Body.Close()
	s.Equal(http.StatusOK, newLogin.StatusCode)
}

func (s *Suite) TestChangePassword_InvalidatesOldAccessToken() {
	token := s.authToken("stale@example.com")

	// iat claims carry second precision; land the change in a later
	// second than the token.
	time.Sleep(1100 * time.Millisecond)

	resp := s.authedRequest(http.MethodPost, "/api/v1/auth/change-password", token,
		map[string]string{
			"currentPassword": "Password123",
			"newPassword":     "NewPassword456",
		})
	resp.Body.Close()
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	// The access token minted before the change is no longer accepted.
	profile := s.authedRequest(http.MethodGet, "/api/v1/users/profile", token, nil)
	profile.Body.Close()
	s.Equal(http.StatusUnauthorized, profile.StatusCode)
}

func (s *Suite) TestLogoutAll() {
	token := s.authToken("multi@example.com")
	for i := 0; i < 2; i++ {
		resp := s.postJSON("/api/v1/auth/login", map[string]string{
			"email": "multi@example.com", "password": "Password123",
		})
		resp.Body.Close()
		s.Require().Equal(http.StatusOK, resp.StatusCode)
	}

	resp := s.authedRequest(http.MethodPost, "/api/v1/auth/logout-all", token, nil)
	defer resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)

	env := s.decodeEnvelope(resp)
	var data struct {
		SessionsRevoked int `json:"sessionsRevoked"`
	}
	// authToken records two sessions (registration and login), plus the
	// two extra logins above.
	s.Require().NoError(json.Unmarshal(env.Data, &data))
	s.Equal(4, data.SessionsRevoked)
}

func (s *Suite) TestAdmin_RequiresMasterRole() {
	token := s.authToken("plain@example.com")

	resp := s.authedRequest(http.MethodGet, "/api/v1/admin/users", token, nil)
	defer resp.Body.Close()
	s.Equal(http.StatusForbidden, resp.StatusCode)
}

func (s *Suite) TestAdmin_ListUsers() {
	s.authToken("alice@example.com")
	s.authToken("bob@example.com")

	s.register("admin@example.com")
	s.activate("admin@example.com")
	s.promoteToMaster("admin@example.com")
	master := s.loginToken("admin@example.com")

	resp := s.authedRequest(http.MethodGet, "/api/v1/admin/users?search=alice", master, nil)
	defer resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)

	env := s.decodeEnvelope(resp)
	var data struct {
		Users []struct {
			Email string `json:"email"`
		} `json:"users"`
		Pagination struct {
			Total int `json:"total"`
		} `json:"pagination"`
	}
	s.Require().NoError(json.Unmarshal(env.Data, &data))
	s.Require().Len(data.Users, 1)
	s.Equal("alice@example.com", data.Users[0].Email)
	s.Equal(1, data.Pagination.Total)
}

func (s *Suite) loginToken(email string) string {
	resp := s.postJSON("/api/v1/auth/login", map[string]string{
		"email": email, "password": "Password123",
	})
	defer resp.Body.Close()
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	env := s.decodeEnvelope(resp)
	var data struct {
		AccessToken string `json:"accessToken"`
	}
	s.Require().NoError(json.Unmarshal(env.Data, &data))
	return data.AccessToken
}

func (s *Suite) TestAdmin_ToggleStatus() {
	s.authToken("target@example.com")

	s.register("root@example.com")
	s.activate("root@example.com")
	s.promoteToMaster("root@example.com")
	master := s.loginToken("root@example.com")

	var targetKey string
	err := s.Postgres.DB.QueryRow(
		`SELECT identity_key FROM users WHERE email = $1`, "target@example.com").Scan(&targetKey)
	s.Require().NoError(err)

	resp := s.authedRequest(http.MethodPatch, "/api/v1/admin/users/"+targetKey+"/toggle-status", master, nil)
	resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)

	var isActive bool
	err = s.Postgres.DB.QueryRow(
		`SELECT is_active FROM users WHERE email = $1`, "target@example.com").Scan(&isActive)
	s.Require().NoError(err)
	s.False(isActive)

	// A deactivated account cannot log in.
	login := s.postJSON("/api/v1/auth/login", map[string]string{
		"email": "target@example.com", "password": "Password123",
	})
	login.Body.Close()
	s.Equal(http.StatusForbidden, login.StatusCode)
}

func (s *Suite) TestAdmin_UpdateRole() {
	s.authToken("promotee@example.com")

	s.register("chief@example.com")
	s.activate("chief@example.com")
	s.promoteToMaster("chief@example.com")
	master := s.loginToken("chief@example.com")

	var targetKey string
	err := s.Postgres.DB.QueryRow(
		`SELECT identity_key FROM users WHERE email = $1`, "promotee@example.com").Scan(&targetKey)
	s.Require().NoError(err)

	resp := s.authedRequest(http.MethodPatch, "/api/v1/admin/users/"+targetKey+"/role", master,
		map[string]string{"role": "client"})
	resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)

	var role string
	err = s.Postgres.DB.QueryRow(
		`SELECT role FROM users WHERE email = $1`, "promotee@example.com").Scan(&role)
	s.Require().NoError(err)
	s.Equal("client", role)
}

func (s *Suite) TestAdmin_UpdateUser() {
	s.authToken("editable@example.com")

	s.register("editor@example.com")
	s.activate("editor@example.com")
	s.promoteToMaster("editor@example.com")
	master := s.loginToken("editor@example.com")

	var targetKey string
	err := s.Postgres.DB.QueryRow(
		`SELECT identity_key FROM users WHERE email = $1`, "editable@example.com").Scan(&targetKey)
	s.Require().NoError(err)

	resp := s.authedRequest(http.MethodPut, "/api/v1/admin/users/"+targetKey, master,
		map[string]any{
			"name":     "Awa Diop",
			"role":     "client",
			"isActive": false,
		})
	defer resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)

	var (
		name     string
		role     string
		isActive bool
	)
	err = s.Postgres.DB.QueryRow(
		`SELECT name, role, is_active FROM users WHERE email = $1`,
		"editable@example.com").Scan(&name, &role, &isActive)
	s.Require().NoError(err)
	s.Equal("Awa Diop", name)
	s.Equal("client", role)
	s.False(isActive)

	// Deactivation through the edit also drops the sessions.
	var sessions int
	err = s.Postgres.DB.QueryRow(
		`SELECT COUNT(*) FROM refresh_sessions WHERE user_key = $1`, targetKey).Scan(&sessions)
	s.Require().NoError(err)
	s.Equal(0, sessions)
}

func (s *Suite) TestSessions_ListsDevices() {
	token := s.authToken("devices@example.com")

	resp := s.authedRequest(http.MethodGet, "/api/v1/auth/sessions", token, nil)
	defer resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)

	env := s.decodeEnvelope(resp)
	var data struct {
		Sessions []struct {
			UserKey   string `json:"userKey"`
			ExpiresAt string `json:"expiresAt"`
		} `json:"sessions"`
	}
	s.Require().NoError(json.Unmarshal(env.Data, &data))
	// authToken records two sessions, one at registration and one at login.
	s.Len(data.Sessions, 2)
}

func (s *Suite) TestAdmin_Stats() {
	s.authToken("statuser@example.com")

	s.register("counter@example.com")
	s.activate("counter@example.com")
	s.promoteToMaster("counter@example.com")
	master := s.loginToken("counter@example.com")

	resp := s.authedRequest(http.MethodGet, "/api/v1/admin/users/stats", master, nil)
	defer resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)

	env := s.decodeEnvelope(resp)
	var data struct {
		Stats struct {
			Total int `json:"total"`
		} `json:"stats"`
	}
	s.Require().NoError(json.Unmarshal(env.Data, &data))
	s.Equal(2, data.Stats.Total)
}

func (s *Suite) TestDeleteProfile() {
	token := s.authToken("leaver@example.com")

	resp := s.authedRequest(http.MethodDelete, "/api/v1/users/profile", token, nil)
	resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)

	var count int
	err := s.Postgres.DB.QueryRow(
		`SELECT COUNT(*) FROM users WHERE email = $1`, "leaver@example.com").Scan(&count)
	s.Require().NoError(err)
	s.Equal(0, count)
}
