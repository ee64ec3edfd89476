package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"identity-service/internal/auth"
	"identity-service/internal/auth/credentials"
	"identity-service/internal/auth/resolver"
	"identity-service/internal/auth/service"
	"identity-service/internal/middleware"
	"identity-service/internal/session"
	"identity-service/internal/testkit/dirfake"
	"identity-service/internal/user"
)

type fakeVerifier struct {
	claims map[auth.Provider]*auth.Claim
	errs   map[auth.Provider]error
}

func (f *fakeVerifier) Verify(_ context.Context, p auth.Provider, _ string) (*auth.Claim, error) {
	if err := f.errs[p]; err != nil {
		return nil, err
	}
	if claim := f.claims[p]; claim != nil {
		c := *claim
		return &c, nil
	}
	return nil, auth.ErrInvalidCredential
}

func newRouter(t *testing.T, dir *dirfake.Directory, verifier *fakeVerifier) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	issuer, err := session.NewIssuer("test-secret", time.Hour)
	require.NoError(t, err)
	if verifier == nil {
		verifier = &fakeVerifier{}
	}

	svc := service.New(dir, verifier, resolver.NewDirectoryResolver(dir), issuer, time.Second, time.Second)
	h := NewHandler(svc, nil)

	router := gin.New()
	h.RegisterRoutes(router, middleware.NewAuthMiddleware(issuer).RequireAuth())
	return router
}

func seedLocalUser(t *testing.T, dir *dirfake.Directory, email, password string) *user.User {
	t.Helper()
	hash, err := credentials.HashPassword(password)
	require.NoError(t, err)
	return dir.Add(user.User{
		Email:        email,
		Username:     "alice",
		PasswordHash: hash,
		IsActive:     true,
	})
}

func postJSON(router *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestLoginEndpointSuccess(t *testing.T) {
	dir := dirfake.New()
	seedLocalUser(t, dir, "a@x.com", "secret12")
	router := newRouter(t, dir, nil)

	w := postJSON(router, "/auth/login", gin.H{
		"email":    "a@x.com",
		"password": "secret12",
	})

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["access_token"])
	assert.Equal(t, "Bearer", resp["token_type"])
}

// Wrong password and unknown email must produce identical responses,
// status and body alike.
func TestLoginEndpointFailuresAreIdentical(t *testing.T) {
	dir := dirfake.New()
	seedLocalUser(t, dir, "a@x.com", "secret12")
	router := newRouter(t, dir, nil)

	wrongPassword := postJSON(router, "/auth/login", gin.H{
		"email":    "a@x.com",
		"password": "wrong",
	})
	unknownEmail := postJSON(router, "/auth/login", gin.H{
		"email":    "nobody@x.com",
		"password": "secret12",
	})

	assert.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	assert.Equal(t, wrongPassword.Code, unknownEmail.Code)
	assert.Equal(t, wrongPassword.Body.String(), unknownEmail.Body.String())
}

// A provider outage mid-login wears the same response as a bad
// credential so the endpoint is not an availability oracle.
func TestProviderOutageLooksLikeBadCredential(t *testing.T) {
	dir := dirfake.New()
	badRouter := newRouter(t, dir, &fakeVerifier{errs: map[auth.Provider]error{
		auth.ProviderGoogle: auth.ErrInvalidCredential,
	}})
	downRouter := newRouter(t, dirfake.New(), &fakeVerifier{errs: map[auth.Provider]error{
		auth.ProviderGoogle: auth.ErrProviderUnreachable,
	}})

	bad := postJSON(badRouter, "/auth/google", gin.H{"google_token_id": "x"})
	down := postJSON(downRouter, "/auth/google", gin.H{"google_token_id": "x"})

	assert.Equal(t, http.StatusUnauthorized, bad.Code)
	assert.Equal(t, bad.Code, down.Code)
	assert.Equal(t, bad.Body.String(), down.Body.String())
}

func TestAppleLoginEndpointCreatesUser(t *testing.T) {
	dir := dirfake.New()
	router := newRouter(t, dir, &fakeVerifier{claims: map[auth.Provider]*auth.Claim{
		auth.ProviderApple: {
			Provider: auth.ProviderApple,
			Subject:  "apple-sub-1",
			Email:    "new@x.com",
		},
	}})

	w := postJSON(router, "/auth/apple", gin.H{
		"apple_token":  "raw-assertion",
		"device_token": "push-1",
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, dir.Count())
}

func TestRegisterEndpointConflict(t *testing.T) {
	dir := dirfake.New()
	seedLocalUser(t, dir, "a@x.com", "secret12")
	router := newRouter(t, dir, nil)

	w := postJSON(router, "/users/register", gin.H{
		"email":    "a@x.com",
		"username": "alice2",
		"password": "secret12",
	})

	assert.Equal(t, http.StatusConflict, w.Code)
}

// A weak password on signup is a 400, never the uniform 401.
func TestRegisterEndpointRejectsShortPassword(t *testing.T) {
	dir := dirfake.New()
	router := newRouter(t, dir, nil)

	w := postJSON(router, "/users/register", gin.H{
		"email":    "new@x.com",
		"username": "newbie",
		"password": "short",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, dir.Count())
}

func TestProfileRequiresAuth(t *testing.T) {
	dir := dirfake.New()
	router := newRouter(t, dir, nil)

	req := httptest.NewRequest(http.MethodGet, "/users/profile", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProfileRoundTrip(t *testing.T) {
	dir := dirfake.New()
	seedLocalUser(t, dir, "a@x.com", "secret12")
	router := newRouter(t, dir, nil)

	login := postJSON(router, "/auth/login", gin.H{
		"email":    "a@x.com",
		"password": "secret12",
	})
	require.Equal(t, http.StatusOK, login.Code)

	var resp struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(login.Body.Bytes(), &resp))

	req := httptest.NewRequest(http.MethodGet, "/users/profile", nil)
	req.Header.Set("Authorization", "Bearer "+resp.AccessToken)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var profile map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &profile))
	assert.Equal(t, "a@x.com", profile["email"])
	assert.NotContains(t, profile, "password_hash")

	edit := httptest.NewRequest(http.MethodPost, "/users/edit",
		bytes.NewReader([]byte(`{"bio":"hello","timezone":"Europe/Berlin"}`)))
	edit.Header.Set("Content-Type", "application/json")
	edit.Header.Set("Authorization", "Bearer "+resp.AccessToken)
	w2 := httptest.NewRecorder()
	router.ServeHTTP(w2, edit)

	require.Equal(t, http.StatusOK, w2.Code)

	var updated map[string]any
	require.NoError(t, json.Unmarshal(w2.Body.Bytes(), &updated))
	assert.Equal(t, "hello", updated["bio"])
	assert.Equal(t, "Europe/Berlin", updated["timezone"])
}
