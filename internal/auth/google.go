package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	sharedauth "resumind/internal/shared/auth"
	"resumind/internal/shared/server/middleware"
	"resumind/internal/shared/server/respond"
	"resumind/internal/shared/telemetry"
)

const userInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// GoogleService handles the Google login flow. The path the user asked for is
// carried through the OAuth state so the callback can send them back to it.
type GoogleService struct {
	oauthConfig *oauth2.Config
	issuer      *sharedauth.Issuer
	uiRedirect  string
	secure      bool
	stateTTL    time.Duration
	stateStore  *stateStore
	userInfoURL string
}

// NewGoogleService builds a GoogleService.
func NewGoogleService(clientID, clientSecret, redirectURL, uiRedirect string, issuer *sharedauth.Issuer) *GoogleService {
	return &GoogleService{
		oauthConfig: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
		issuer:      issuer,
		uiRedirect:  uiRedirect,
		secure:      strings.HasPrefix(redirectURL, "https://"),
		stateTTL:    5 * time.Minute,
		stateStore:  newStateStore(),
		userInfoURL: userInfoURL,
	}
}

// RegisterRoutes attaches login routes.
func (s *GoogleService) RegisterRoutes(r gin.IRoutes) {
	r.GET(middleware.LoginPath, s.start)
	r.GET("/auth/google/callback", s.callback)
	r.POST("/auth/logout", s.logout)
}

func (s *GoogleService) start(c *gin.Context) {
	if s.oauthConfig.ClientID == "" || s.oauthConfig.ClientSecret == "" || s.oauthConfig.RedirectURL == "" {
		respond.Error(c, http.StatusInternalServerError, "auth_not_configured", "Google auth not configured", nil)
		return
	}

	state := uuid.NewString()
	s.stateStore.put(state, safeNext(c.Query("next")), time.Now().Add(s.stateTTL))

	c.Redirect(http.StatusFound, s.oauthConfig.AuthCodeURL(state))
}

func (s *GoogleService) callback(c *gin.Context) {
	state := c.Query("state")
	code := c.Query("code")
	if state == "" || code == "" {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "missing state or code", nil)
		return
	}

	next, ok := s.stateStore.consume(state)
	if !ok {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "invalid or expired state", nil)
		return
	}

	ctx := c.Request.Context()
	token, err := s.oauthConfig.Exchange(ctx, code)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "failed to exchange code", nil)
		return
	}

	userInfo, err := s.fetchUserInfo(ctx, token)
	if err != nil || userInfo.Sub == "" {
		telemetry.Warn("auth.userinfo_failed", map[string]any{"error": err})
		respond.Error(c, http.StatusBadGateway, "auth_failed", "failed to fetch user profile", nil)
		return
	}

	session, err := s.issuer.Sign(sharedauth.Claims{
		Email:            userInfo.Email,
		Name:             userInfo.Name,
		Picture:          userInfo.Picture,
		RegisteredClaims: jwt.RegisteredClaims{Subject: "google:" + userInfo.Sub},
	})
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to issue token", nil)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, session, int(s.issuer.TTL()/time.Second), "/", "", s.secure, true)
	c.Redirect(http.StatusFound, s.returnURL(next))
}

func (s *GoogleService) logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", s.secure, true)
	c.Status(http.StatusNoContent)
}

// returnURL joins the UI origin with the post-login path.
func (s *GoogleService) returnURL(next string) string {
	base, err := url.Parse(s.uiRedirect)
	if err != nil || s.uiRedirect == "" {
		return next
	}
	ref, err := url.Parse(next)
	if err != nil {
		return s.uiRedirect
	}
	return base.ResolveReference(ref).String()
}

// safeNext keeps only same-site absolute paths so login cannot be used as an
// open redirect.
func safeNext(next string) string {
	next = strings.TrimSpace(next)
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}

type googleUserInfo struct {
	Sub     string `json:"sub"`
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

func (s *GoogleService) fetchUserInfo(ctx context.Context, token *oauth2.Token) (googleUserInfo, error) {
	client := s.oauthConfig.Client(ctx, token)
	resp, err := client.Get(s.userInfoURL)
	if err != nil {
		return googleUserInfo{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return googleUserInfo{}, fmt.Errorf("userinfo status %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return googleUserInfo{}, err
	}

	// Some responses use "id" instead of "sub".
	if info.Sub == "" {
		info.Sub = info.ID
	}
	return info, nil
}

type pendingLogin struct {
	next string
	exp  time.Time
}

type stateStore struct {
	items map[string]pendingLogin
	mu    sync.Mutex
}

func newStateStore() *stateStore {
	return &stateStore{items: make(map[string]pendingLogin)}
}

func (s *stateStore) put(state, next string, exp time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for k, v := range s.items {
		if now.After(v.exp) {
			delete(s.items, k)
		}
	}
	s.items[state] = pendingLogin{next: next, exp: exp}
}

func (s *stateStore) consume(state string) (string, bool) {
	s.mu.Lock()
	p, ok := s.items[state]
	if ok {
		delete(s.items, state)
	}
	s.mu.Unlock()
	if !ok || time.Now().After(p.exp) {
		return "", false
	}
	return p.next, true
}
