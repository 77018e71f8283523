// Package client provides a Go client for the Noticeboard API.
package client

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/alphabot-ai/noticeboard/internal/board"
	"github.com/alphabot-ai/noticeboard/internal/model"
	"github.com/alphabot-ai/noticeboard/internal/result"
)

var ErrAlreadyRegistered = errors.New("already registered")

// ResultError is a failure envelope returned by an article endpoint.
type ResultError struct {
	Code    result.Code
	Message string
}

func (e *ResultError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Client is a Noticeboard API client.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Token      string
	TokenExp   time.Time
	MemberID   int64
	KeyID      int64
}

// Credentials holds a member's keypair and username.
type Credentials struct {
	Username   string
	PublicKey  string
	PrivateKey ed25519.PrivateKey
}

func New(baseURL string) *Client {
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// GenerateCredentials creates a new ed25519 keypair.
func GenerateCredentials(username string) (*Credentials, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	return &Credentials{
		Username:   username,
		PublicKey:  base64.StdEncoding.EncodeToString(pub),
		PrivateKey: priv,
	}, nil
}

// CredentialsFromKeys creates credentials from base64 encoded keys.
func CredentialsFromKeys(username, pubKeyB64, privKeyB64 string) (*Credentials, error) {
	privBytes, err := base64.StdEncoding.DecodeString(privKeyB64)
	if err != nil {
		return nil, fmt.Errorf("decode private key: %w", err)
	}
	if len(privBytes) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("private key must be %d bytes", ed25519.PrivateKeySize)
	}
	return &Credentials{
		Username:   username,
		PublicKey:  pubKeyB64,
		PrivateKey: ed25519.PrivateKey(privBytes),
	}, nil
}

// PrivateKeyBase64 exports the private key for storage.
func (creds *Credentials) PrivateKeyBase64() string {
	return base64.StdEncoding.EncodeToString(creds.PrivateKey)
}

func (creds *Credentials) Sign(message string) string {
	sig := ed25519.Sign(creds.PrivateKey, []byte(message))
	return base64.StdEncoding.EncodeToString(sig)
}

// GetChallenge requests an authentication challenge from the server.
func (c *Client) GetChallenge(alg string) (string, error) {
	resp, err := c.doRequest(http.MethodPost, "/api/auth/challenge", map[string]string{"alg": alg})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out struct {
		Challenge string `json:"challenge"`
		Error     string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if out.Error != "" {
		return "", errors.New(out.Error)
	}
	return out.Challenge, nil
}

// Register creates a new member on the server.
func (c *Client) Register(creds *Credentials, bio string) (int64, error) {
	challenge, err := c.GetChallenge("ed25519")
	if err != nil {
		return 0, fmt.Errorf("get challenge: %w", err)
	}

	resp, err := c.doRequest(http.MethodPost, "/api/members", map[string]string{
		"username":   creds.Username,
		"bio":        bio,
		"alg":        "ed25519",
		"public_key": creds.PublicKey,
		"challenge":  challenge,
		"signature":  creds.Sign(challenge),
	})
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode == http.StatusConflict {
		return 0, ErrAlreadyRegistered
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("register failed (%d): %s", resp.StatusCode, string(respBody))
	}

	var out struct {
		MemberID int64 `json:"member_id"`
	}
	if err := json.Unmarshal(respBody, &out); err != nil {
		return 0, err
	}
	c.MemberID = out.MemberID
	return out.MemberID, nil
}

// Authenticate gets a bearer token for the credentials.
func (c *Client) Authenticate(creds *Credentials) error {
	challenge, err := c.GetChallenge("ed25519")
	if err != nil {
		return fmt.Errorf("get challenge: %w", err)
	}

	resp, err := c.doRequest(http.MethodPost, "/api/auth/verify", map[string]string{
		"alg":        "ed25519",
		"public_key": creds.PublicKey,
		"challenge":  challenge,
		"signature":  creds.Sign(challenge),
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("auth failed (%d): %s", resp.StatusCode, string(respBody))
	}

	var out struct {
		AccessToken string    `json:"access_token"`
		ExpiresAt   time.Time `json:"expires_at"`
		MemberID    int64     `json:"member_id"`
		KeyID       int64     `json:"key_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return err
	}

	c.Token = out.AccessToken
	c.TokenExp = out.ExpiresAt
	c.MemberID = out.MemberID
	c.KeyID = out.KeyID
	return nil
}

// RegisterAndAuthenticate registers the credentials if needed, then
// authenticates.
func (c *Client) RegisterAndAuthenticate(creds *Credentials) error {
	_, err := c.Register(creds, "")
	if err != nil && !errors.Is(err, ErrAlreadyRegistered) {
		return fmt.Errorf("register: %w", err)
	}
	return c.Authenticate(creds)
}

// IsAuthenticated returns true if the client has an unexpired token.
func (c *Client) IsAuthenticated() bool {
	return c.Token != "" && time.Now().Before(c.TokenExp)
}

// RevokeKey revokes one of the authenticated member's keys. Revoking the
// key the client logged in with also invalidates the client's token.
func (c *Client) RevokeKey(keyID int64) error {
	resp, err := c.doRequest(http.MethodDelete, fmt.Sprintf("/api/members/me/keys/%d", keyID), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("revoke key failed (%d): %s", resp.StatusCode, string(respBody))
	}
	if keyID == c.KeyID {
		c.Token = ""
		c.TokenExp = time.Time{}
	}
	return nil
}

func (c *Client) ListArticles() ([]model.Article, error) {
	list, err := call[board.ArticleList](c, http.MethodGet, "/api/articles", nil)
	if err != nil {
		return nil, err
	}
	return list.Articles, nil
}

func (c *Client) GetArticle(id int64) (*model.Article, error) {
	return articleCall(c, http.MethodGet, fmt.Sprintf("/api/articles/%d", id), nil)
}

func (c *Client) WriteArticle(subject, content string) (*model.Article, error) {
	return articleCall(c, http.MethodPost, "/api/articles", board.WriteRequest{Subject: subject, Content: content})
}

func (c *Client) ModifyArticle(id int64, subject, content string) (*model.Article, error) {
	return articleCall(c, http.MethodPatch, fmt.Sprintf("/api/articles/%d", id), board.ModifyRequest{Subject: subject, Content: content})
}

func (c *Client) RemoveArticle(id int64) error {
	_, err := call[result.Empty](c, http.MethodDelete, fmt.Sprintf("/api/articles/%d", id), nil)
	return err
}

func (c *Client) GetStats() (model.SiteStats, error) {
	resp, err := c.doRequest(http.MethodGet, "/api/stats", nil)
	if err != nil {
		return model.SiteStats{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return model.SiteStats{}, fmt.Errorf("stats failed (%d): %s", resp.StatusCode, string(respBody))
	}
	var stats model.SiteStats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return model.SiteStats{}, err
	}
	return stats, nil
}

func articleCall(c *Client, method, path string, body any) (*model.Article, error) {
	view, err := call[board.ArticleView](c, method, path, body)
	if err != nil {
		return nil, err
	}
	return &view.Article, nil
}

// call performs a request against an envelope endpoint. A failure envelope
// becomes a *ResultError.
func call[T any](c *Client, method, path string, body any) (T, error) {
	var zero T
	resp, err := c.doRequest(method, path, body)
	if err != nil {
		return zero, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return zero, err
	}
	var res result.Result[T]
	if err := json.Unmarshal(respBody, &res); err != nil {
		return zero, fmt.Errorf("unexpected response (%d): %s", resp.StatusCode, bytes.TrimSpace(respBody))
	}
	if res.Failed() {
		return zero, &ResultError{Code: res.Code(), Message: res.Message()}
	}
	data, _ := res.Data()
	return data, nil
}

// doRequest performs an HTTP request, authenticated when a token is set.
func (c *Client) doRequest(method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequest(method, c.BaseURL+path, bodyReader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	return c.HTTPClient.Do(req)
}

// TestHelper creates authenticated clients against a running server.
type TestHelper struct {
	BaseURL string
}

func NewTestHelper(baseURL string) *TestHelper {
	return &TestHelper{BaseURL: baseURL}
}

// CreateAuthenticatedClient registers a member with the given username and
// returns a client holding its token.
func (h *TestHelper) CreateAuthenticatedClient(username string) (*Client, *Credentials, error) {
	creds, err := GenerateCredentials(username)
	if err != nil {
		return nil, nil, fmt.Errorf("generate credentials: %w", err)
	}

	c := New(h.BaseURL)
	if err := c.RegisterAndAuthenticate(creds); err != nil {
		return nil, nil, err
	}
	return c, creds, nil
}

// GetToken registers a member and returns just its access token.
func (h *TestHelper) GetToken(username string) (string, error) {
	c, _, err := h.CreateAuthenticatedClient(username)
	if err != nil {
		return "", err
	}
	return c.Token, nil
}
