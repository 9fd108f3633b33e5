package acceptance

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
)

// authToken registers and activates an account, then logs in and returns
// the bearer access token.
func (s *Suite) authToken(email string) string {
	s.register(email)
	s.activate(email)

	resp := s.postJSON("/api/v1/auth/login", map[string]string{
		"email":    email,
		"password": "Password123",
	})
	defer resp.Body.Close()
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	env := s.decodeEnvelope(resp)
	var data struct {
		AccessToken string `json:"accessToken"`
	}
	s.Require().NoError(json.Unmarshal(env.Data, &data))
	s.Require().NotEmpty(data.AccessToken)
	return data.AccessToken
}

func (s *Suite) createAnnonce(token, titre string) string {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	s.Require().NoError(writer.WriteField("titre", titre))
	s.Require().NoError(writer.WriteField("usage", "habitation"))
	s.Require().NoError(writer.WriteField("transaction",
		`{"typeTransaction":"location","prix":250000}`))
	s.Require().NoError(writer.WriteField("composition",
		`{"nombreChambres":3,"nombreSalons":1}`))
	s.Require().NoError(writer.Close())

	req, err := http.NewRequest(http.MethodPost, s.App.BaseURL+"/api/v1/annonces/add-annonce", body)
	s.Require().NoError(err)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Require().Equal(http.StatusCreated, resp.StatusCode)

	env := s.decodeEnvelope(resp)
	var data struct {
		Annonce struct {
			Reference string `json:"reference"`
		} `json:"annonce"`
	}
	s.Require().NoError(json.Unmarshal(env.Data, &data))
	s.Require().NotEmpty(data.Annonce.Reference)
	return data.Annonce.Reference
}

func (s *Suite) TestCreateAnnonce_Success() {
	token := s.authToken("agent@example.com")

	reference := s.createAnnonce(token, "Villa avec piscine à Ngor")
	s.Regexp(`^REF-\d{14}-[A-Z2-9]{10}$`, reference)

	// The room count is derived from the composition section.
	var nombrePieces int
	err := s.Postgres.DB.QueryRow(
		`SELECT composition->>'nombrePieces' FROM annonces WHERE reference = $1`,
		reference).Scan(&nombrePieces)
	s.Require().NoError(err)
	s.Equal(4, nombrePieces)
}

func (s *Suite) TestCreateAnnonce_RequiresAuth() {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	s.Require().NoError(writer.WriteField("titre", "Appartement F3"))
	s.Require().NoError(writer.Close())

	req, err := http.NewRequest(http.MethodPost, s.App.BaseURL+"/api/v1/annonces/add-annonce", body)
	s.Require().NoError(err)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (s *Suite) TestCreateAnnonce_MissingTransaction() {
	token := s.authToken("agent2@example.com")

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	s.Require().NoError(writer.WriteField("titre", "Terrain à Diamniadio"))
	s.Require().NoError(writer.WriteField("usage", "habitation"))
	s.Require().NoError(writer.Close())

	req, err := http.NewRequest(http.MethodPost, s.App.BaseURL+"/api/v1/annonces/add-annonce", body)
	s.Require().NoError(err)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Equal(http.StatusBadRequest, resp.StatusCode)
}

func (s *Suite) TestCreateAnnonce_TooManyMedias() {
	token := s.authToken("agent6@example.com")

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	s.Require().NoError(writer.WriteField("titre", "Résidence avec trop de photos"))
	s.Require().NoError(writer.WriteField("usage", "habitation"))
	s.Require().NoError(writer.WriteField("transaction",
		`{"typeTransaction":"location","prix":250000}`))
	for i := 0; i < 21; i++ {
		part, err := writer.CreateFormFile("medias", fmt.Sprintf("photo-%d.jpg", i+1))
		s.Require().NoError(err)
		_, err = part.Write([]byte("jpegdata"))
		s.Require().NoError(err)
	}
	s.Require().NoError(writer.Close())

	req, err := http.NewRequest(http.MethodPost, s.App.BaseURL+"/api/v1/annonces/add-annonce", body)
	s.Require().NoError(err)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Equal(http.StatusBadRequest, resp.StatusCode)

	var count int
	s.Require().NoError(s.Postgres.DB.QueryRow(
		`SELECT COUNT(*) FROM annonces WHERE titre = $1`,
		"Résidence avec trop de photos").Scan(&count))
	s.Equal(0, count)
}

func (s *Suite) TestGetAnnonce_ByReference() {
	token := s.authToken("agent3@example.com")
	reference := s.createAnnonce(token, "Studio meublé aux Almadies")

	resp := s.authedRequest(http.MethodGet, "/api/v1/annonces/"+reference, token, nil)
	defer resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)

	env := s.decodeEnvelope(resp)
	var data struct {
		Annonce struct {
			Titre  string `json:"titre"`
			Statut string `json:"statut"`
		} `json:"annonce"`
	}
	s.Require().NoError(json.Unmarshal(env.Data, &data))
	s.Equal("Studio meublé aux Almadies", data.Annonce.Titre)
	s.Equal("brouillon", data.Annonce.Statut)
}

func (s *Suite) TestGetAnnonce_DraftHiddenFromOthers() {
	owner := s.authToken("discret@example.com")
	reference := s.createAnnonce(owner, "Villa en préparation")

	// Anonymous visitors do not see drafts.
	anon, err := http.Get(s.App.BaseURL + "/api/v1/annonces/" + reference)
	s.Require().NoError(err)
	anon.Body.Close()
	s.Equal(http.StatusNotFound, anon.StatusCode)

	// Neither do other authenticated accounts.
	other := s.authToken("curieux@example.com")
	resp := s.authedRequest(http.MethodGet, "/api/v1/annonces/"+reference, other, nil)
	resp.Body.Close()
	s.Equal(http.StatusNotFound, resp.StatusCode)

	// The creator still does.
	own := s.authedRequest(http.MethodGet, "/api/v1/annonces/"+reference, owner, nil)
	own.Body.Close()
	s.Equal(http.StatusOK, own.StatusCode)
}

func (s *Suite) TestGetAnnonce_Unknown() {
	resp, err := http.Get(s.App.BaseURL + "/api/v1/annonces/REF-00000000000000-AAAAAAAAAA")
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Equal(http.StatusNotFound, resp.StatusCode)
}

func (s *Suite) TestListAnnonces_Paginated() {
	token := s.authToken("agent4@example.com")
	for i := 0; i < 3; i++ {
		s.createAnnonce(token, fmt.Sprintf("Maison numéro %d", i+1))
	}

	resp, err := http.Get(s.App.BaseURL + "/api/v1/annonces?page=1&limit=2")
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)

	env := s.decodeEnvelope(resp)
	var data struct {
		Annonces   []json.RawMessage `json:"annonces"`
		Pagination struct {
			Total       int  `json:"total"`
			Pages       int  `json:"pages"`
			HasNextPage bool `json:"hasNextPage"`
		} `json:"pagination"`
	}
	s.Require().NoError(json.Unmarshal(env.Data, &data))
	s.Len(data.Annonces, 2)
	s.Equal(3, data.Pagination.Total)
	s.Equal(2, data.Pagination.Pages)
	s.True(data.Pagination.HasNextPage)
}

func (s *Suite) TestUpdateAnnonceStatus() {
	token := s.authToken("agent5@example.com")
	reference := s.createAnnonce(token, "Immeuble de bureaux au Plateau")

	payload, err := json.Marshal(map[string]string{"statut": "actif"})
	s.Require().NoError(err)

	req, err := http.NewRequest(http.MethodPatch,
		s.App.BaseURL+"/api/v1/annonces/"+reference+"/status", bytes.NewReader(payload))
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)

	var statut string
	err = s.Postgres.DB.QueryRow(
		`SELECT statut FROM annonces WHERE reference = $1`, reference).Scan(&statut)
	s.Require().NoError(err)
	s.Equal("actif", statut)
}

func (s *Suite) TestUpdateAnnonceStatus_NotOwner() {
	owner := s.authToken("owner@example.com")
	reference := s.createAnnonce(owner, "Duplex à Mermoz")

	intruder := s.authToken("intruder@example.com")

	payload, err := json.Marshal(map[string]string{"statut": "retire"})
	s.Require().NoError(err)

	req, err := http.NewRequest(http.MethodPatch,
		s.App.BaseURL+"/api/v1/annonces/"+reference+"/status", bytes.NewReader(payload))
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+intruder)

	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Equal(http.StatusForbidden, resp.StatusCode)
}
