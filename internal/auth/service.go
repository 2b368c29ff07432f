package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/api/idtoken"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrGoogleDisabled     = errors.New("google sign-in is not configured")
)

// GoogleVerifier checks a Google ID token and returns the account e-mail.
type GoogleVerifier interface {
	Verify(ctx context.Context, idToken string) (string, error)
}

type idTokenVerifier struct {
	clientID string
}

// NewGoogleVerifier validates tokens issued for clientID. It returns nil when
// clientID is empty.
func NewGoogleVerifier(clientID string) GoogleVerifier {
	if clientID == "" {
		return nil
	}
	return idTokenVerifier{clientID: clientID}
}

func (v idTokenVerifier) Verify(ctx context.Context, token string) (string, error) {
	payload, err := idtoken.Validate(ctx, token, v.clientID)
	if err != nil {
		return "", fmt.Errorf("google token invalid: %w", err)
	}
	email, _ := payload.Claims["email"].(string)
	if verified, _ := payload.Claims["email_verified"].(bool); !verified || email == "" {
		return "", ErrInvalidCredentials
	}
	return email, nil
}

type Tokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int    `json:"expiresIn"`
}

// Service signs the single front-desk operator in, either with the
// configured password or through Google.
type Service struct {
	username     string
	passwordHash string
	secret       string
	google       GoogleVerifier
	allowed      map[string]bool
}

// NewService builds the sign-in service. allowedEmails limits Google
// sign-in; an empty list admits any verified account.
func NewService(username, passwordHash, secret string, google GoogleVerifier, allowedEmails []string) *Service {
	allowed := map[string]bool{}
	for _, e := range allowedEmails {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			allowed[e] = true
		}
	}
	return &Service{
		username:     username,
		passwordHash: passwordHash,
		secret:       secret,
		google:       google,
		allowed:      allowed,
	}
}

func (s *Service) Login(username, password string) (*Tokens, error) {
	if s.passwordHash == "" || username != s.username || !CheckPassword(s.passwordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return s.issue(username, ProviderPassword)
}

func (s *Service) LoginWithGoogle(ctx context.Context, idToken string) (*Tokens, error) {
	if s.google == nil {
		return nil, ErrGoogleDisabled
	}
	email, err := s.google.Verify(ctx, idToken)
	if err != nil {
		return nil, err
	}
	email = strings.ToLower(email)
	if len(s.allowed) > 0 && !s.allowed[email] {
		return nil, ErrInvalidCredentials
	}
	return s.issue(email, ProviderGoogle)
}

func (s *Service) Refresh(refreshToken string) (*Tokens, error) {
	access, _, err := RefreshAccessToken(refreshToken, s.secret)
	if err != nil {
		return nil, err
	}
	return &Tokens{
		AccessToken:  access,
		RefreshToken: refreshToken,
		ExpiresIn:    int(AccessTokenTTL.Seconds()),
	}, nil
}

func (s *Service) issue(operator, provider string) (*Tokens, error) {
	access, refresh, err := GenerateTokens(operator, provider, s.secret)
	if err != nil {
		return nil, err
	}
	return &Tokens{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int(AccessTokenTTL.Seconds()),
	}, nil
}
