package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/tidwall/gjson"

	"medminder-go/internal/domain/medication"
	"medminder-go/internal/remote"
)

// refreshLeeway renews access tokens slightly before they expire.
const refreshLeeway = 30 * time.Second

type session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	UserID       string `json:"user_id"`
	Email        string `json:"email"`
}

func sessionFromAuth(payload []byte) (*session, bool) {
	s := &session{
		AccessToken:  gjson.GetBytes(payload, "access_token").String(),
		RefreshToken: gjson.GetBytes(payload, "refresh_token").String(),
		UserID:       gjson.GetBytes(payload, "user.id").String(),
		Email:        gjson.GetBytes(payload, "user.email").String(),
	}
	if s.AccessToken == "" || s.UserID == "" {
		return nil, false
	}
	return s, true
}

// currentSession returns the live session, restoring it from the session
// store on first use and refreshing an expired access token. It returns nil
// when there is no session.
func (c *Client) currentSession(ctx context.Context) (*session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.loaded {
		c.loaded = true
		if err := c.restoreLocked(ctx); err != nil {
			return nil, err
		}
	}
	if c.session == nil {
		return nil, nil
	}

	if c.expired(c.session.AccessToken) {
		if err := c.refreshLocked(ctx); err != nil {
			return nil, err
		}
	}
	return c.session, nil
}

func (c *Client) restoreLocked(ctx context.Context) error {
	if c.sessions == nil {
		return nil
	}
	payload, err := c.sessions.LoadSession(ctx, Provider)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if len(payload) == 0 {
		return nil
	}
	var s session
	if err := json.Unmarshal(payload, &s); err != nil {
		c.log.Warn("supabase: discarding unreadable session", "err", err)
		return nil
	}
	if s.AccessToken != "" {
		c.session = &s
	}
	return nil
}

func (c *Client) expired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !exp.Time.After(c.now().Add(refreshLeeway))
}

func (c *Client) refreshLocked(ctx context.Context) error {
	if c.session.RefreshToken == "" {
		return c.dropLocked(ctx)
	}

	payload, status, err := c.do(ctx, request{
		op:     "auth.refresh",
		method: http.MethodPost,
		path:   authPrefix + "token",
		query:  url.Values{"grant_type": {"refresh_token"}},
		body:   map[string]string{"refresh_token": c.session.RefreshToken},
	})
	if err != nil {
		if status == http.StatusBadRequest || status == http.StatusUnauthorized {
			c.log.Info("supabase: refresh token rejected, dropping session")
			return c.dropLocked(ctx)
		}
		return err
	}

	next, ok := sessionFromAuth(payload)
	if !ok {
		return c.dropLocked(ctx)
	}
	return c.storeLocked(ctx, next)
}

func (c *Client) storeLocked(ctx context.Context, s *session) error {
	c.session = s
	c.loaded = true
	if c.sessions == nil {
		return nil
	}
	payload, err := json.Marshal(s)
	if err != nil {
		return err
	}
	if err := c.sessions.SaveSession(ctx, Provider, payload); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (c *Client) dropLocked(ctx context.Context) error {
	c.session = nil
	c.loaded = true
	if c.sessions == nil {
		return nil
	}
	if err := c.sessions.ClearSession(ctx, Provider); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// authed returns the session or ErrNotAuthenticated.
func (c *Client) authed(ctx context.Context) (*session, error) {
	s, err := c.currentSession(ctx)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, remote.ErrNotAuthenticated
	}
	return s, nil
}

func (c *Client) login(ctx context.Context, email, password string) error {
	payload, status, err := c.do(ctx, request{
		op:     "auth.login",
		method: http.MethodPost,
		path:   authPrefix + "token",
		query:  url.Values{"grant_type": {"password"}},
		body:   map[string]string{"email": email, "password": password},
	})
	if err != nil {
		if status == http.StatusBadRequest || status == http.StatusUnauthorized {
			return fmt.Errorf("%w: %v", remote.ErrInvalidLogin, err)
		}
		return err
	}

	s, ok := sessionFromAuth(payload)
	if !ok {
		return fmt.Errorf("auth.login: response carried no session")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.storeLocked(ctx, s)
}

// signup creates the auth account and its profile row. It does not keep the
// session; callers sign in afterwards. The profile also travels as user
// metadata: when the project requires email confirmation GoTrue returns no
// token, and the row is created at the first sign-in instead.
func (c *Client) signup(ctx context.Context, email, password string, profile medication.Profile) error {
	payload, status, err := c.do(ctx, request{
		op:     "auth.signup",
		method: http.MethodPost,
		path:   authPrefix + "signup",
		body: map[string]interface{}{
			"email":    email,
			"password": password,
			"data":     profile,
		},
	})
	if err != nil {
		if status == http.StatusUnprocessableEntity {
			return fmt.Errorf("%w: %v", remote.ErrAccountExists, err)
		}
		return err
	}

	userID := firstNonEmpty(
		gjson.GetBytes(payload, "user.id").String(),
		gjson.GetBytes(payload, "id").String(),
	)
	accessToken := gjson.GetBytes(payload, "access_token").String()
	if userID == "" || accessToken == "" {
		c.log.Info("supabase: signup pending confirmation, profile deferred to first sign-in")
		return nil
	}

	_, err = c.createProfile(ctx, accessToken, userID, email, profile)
	return err
}

func (c *Client) createProfile(ctx context.Context, token, userID, email string, profile medication.Profile) (*medication.User, error) {
	row := map[string]interface{}{
		"id":                userID,
		"email":             email,
		"name":              profile.Name,
		"phone":             profile.Phone,
		"preferredPharmacy": profile.PreferredPharmacy,
	}
	payload, _, err := c.do(ctx, request{
		op:     "users.create",
		method: http.MethodPost,
		path:   restPrefix + "users",
		body:   []map[string]interface{}{row},
		token:  token,
	})
	if err != nil {
		return nil, err
	}

	user := medication.User{
		ID:                userID,
		Name:              profile.Name,
		Email:             email,
		Phone:             profile.Phone,
		PreferredPharmacy: profile.PreferredPharmacy,
	}
	if _, err := firstRow(payload, &user); err != nil {
		return nil, fmt.Errorf("users.create: decode: %w", err)
	}
	return &user, nil
}

// profileFromMetadata reads the profile stored with the auth user at signup.
func profileFromMetadata(authUser []byte) medication.Profile {
	meta := gjson.GetBytes(authUser, "user_metadata")
	return medication.Profile{
		Name:              meta.Get("name").String(),
		Phone:             meta.Get("phone").String(),
		PreferredPharmacy: meta.Get("preferredPharmacy").String(),
	}
}

func (c *Client) logout(ctx context.Context) error {
	s, err := c.currentSession(ctx)
	if err != nil {
		return err
	}
	if s == nil {
		return nil
	}

	_, _, callErr := c.do(ctx, request{
		op:     "auth.logout",
		method: http.MethodPost,
		path:   authPrefix + "logout",
		token:  s.AccessToken,
	})

	c.mu.Lock()
	dropErr := c.dropLocked(ctx)
	c.mu.Unlock()

	return errors.Join(callErr, dropErr)
}

// currentUser verifies the session against GoTrue and loads the profile row
// with its caregivers. A rejected token counts as no session.
func (c *Client) currentUser(ctx context.Context) (*medication.User, error) {
	s, err := c.currentSession(ctx)
	if err != nil || s == nil {
		return nil, err
	}

	payload, status, err := c.do(ctx, request{
		op:     "auth.user",
		method: http.MethodGet,
		path:   authPrefix + "user",
		token:  s.AccessToken,
	})
	if err != nil {
		if status == http.StatusUnauthorized || status == http.StatusForbidden {
			c.mu.Lock()
			dropErr := c.dropLocked(ctx)
			c.mu.Unlock()
			return nil, dropErr
		}
		return nil, err
	}

	authUser := payload
	userID := firstNonEmpty(gjson.GetBytes(authUser, "id").String(), s.UserID)

	payload, status, err = c.do(ctx, request{
		op:     "users.get",
		method: http.MethodGet,
		path:   restPrefix + "users",
		query:  userQuery(userID),
		token:  s.AccessToken,
		single: true,
	})
	if err != nil {
		if status != http.StatusNotAcceptable {
			return nil, err
		}
		c.log.Info("supabase: creating deferred profile row", "user_id", userID)
		user, err := c.createProfile(ctx, s.AccessToken, userID, gjson.GetBytes(authUser, "email").String(), profileFromMetadata(authUser))
		if err != nil {
			return nil, err
		}
		user.Caregivers = []medication.Caregiver{}
		return user, nil
	}

	var user medication.User
	if err := json.Unmarshal(payload, &user); err != nil {
		return nil, fmt.Errorf("users.get: decode: %w", err)
	}
	if user.Caregivers == nil {
		user.Caregivers = []medication.Caregiver{}
	}
	return &user, nil
}
