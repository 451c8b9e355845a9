package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/stockpulse/stockpulseapi/pkg/smartapi"
)

// MaxSessionAge is how long an upstream token is trusted before a re-login
// is forced.
const MaxSessionAge = 8 * time.Hour

const loginTimeout = 10 * time.Second

type Service struct {
	repo       *Repository
	client     *smartapi.Client
	clientCode string
	pin        string
	totpSecret string

	mu      sync.RWMutex
	current *SessionModel
}

// NewService creates the session service with the configured broker credentials.
func NewService(db *gorm.DB, client *smartapi.Client, clientCode, pin, totpSecret string) *Service {
	return &Service{
		repo:       NewRepository(db),
		client:     client,
		clientCode: clientCode,
		pin:        pin,
		totpSecret: totpSecret,
	}
}

type LoginRequest struct {
	ClientCode string `json:"client_code"`
	Pin        string `json:"pin"`
	TOTPSecret string `json:"totp_secret"`
}

// GenerateSession returns a valid session for the request, reusing the stored
// session when the pin matches and the token has not gone stale.
func (s *Service) GenerateSession(req LoginRequest) (SessionModel, error) {
	if req.ClientCode == "" || req.Pin == "" || req.TOTPSecret == "" {
		return SessionModel{}, fmt.Errorf("client_code, pin, and totp_secret are required")
	}

	existingSession, err := s.repo.GetSessionByClientCode(req.ClientCode)
	if err == nil {
		if err := bcrypt.CompareHashAndPassword([]byte(existingSession.HashedPin), []byte(req.Pin)); err == nil {
			if time.Since(existingSession.LoginTime) < MaxSessionAge {
				s.setCurrent(existingSession)
				return *existingSession, nil
			}
		}
	}

	totpValue, err := smartapi.GenerateTOTP(req.TOTPSecret)
	if err != nil {
		return SessionModel{}, fmt.Errorf("failed to generate TOTP value: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), loginTimeout)
	defer cancel()

	upstream, err := s.client.Login(ctx, req.ClientCode, req.Pin, totpValue)
	if err != nil {
		return SessionModel{}, fmt.Errorf("login failed: %v", err)
	}

	hashedPin, err := bcrypt.GenerateFromPassword([]byte(req.Pin), bcrypt.DefaultCost)
	if err != nil {
		return SessionModel{}, fmt.Errorf("failed to hash pin: %v", err)
	}

	newSession := SessionModel{
		ClientCode:   req.ClientCode,
		Token:        upstream.JwtToken,
		RefreshToken: upstream.RefreshToken,
		FeedToken:    upstream.FeedToken,
		LoginTime:    time.Now(),
		HashedPin:    string(hashedPin),
	}

	if err := s.repo.UpsertSession(&newSession); err != nil {
		return SessionModel{}, fmt.Errorf("failed to upsert session: %v", err)
	}

	s.setCurrent(&newSession)
	return newSession, nil
}

// Login authenticates with the configured credentials. Used by the poller
// when no valid session is available.
func (s *Service) Login() (string, error) {
	sessionData, err := s.GenerateSession(LoginRequest{
		ClientCode: s.clientCode,
		Pin:        s.pin,
		TOTPSecret: s.totpSecret,
	})
	if err != nil {
		return "", err
	}
	return sessionData.Token, nil
}

// Token returns the current auth token, or an empty string if there is none.
func (s *Service) Token() string {
	if session := s.getCurrent(); session != nil {
		return session.Token
	}
	return ""
}

// IsAuthenticated reports whether a token is available.
func (s *Service) IsAuthenticated() bool {
	return s.Token() != ""
}

// LoginTime returns when the current session was created. Zero if none.
func (s *Service) LoginTime() time.Time {
	if session := s.getCurrent(); session != nil {
		return session.LoginTime
	}
	return time.Time{}
}

// VerifySession is used by the auth middleware to validate client requests.
func (s *Service) VerifySession(clientCode, token string) (*SessionModel, error) {
	session, err := s.repo.GetSessionByClientCode(clientCode)
	if err != nil {
		return nil, err
	}

	if session.Token != token {
		return nil, fmt.Errorf("invalid token")
	}
	if time.Since(session.LoginTime) >= MaxSessionAge {
		return nil, fmt.Errorf("expired session")
	}

	return session, nil
}

func (s *Service) getCurrent() *SessionModel {
	s.mu.RLock()
	current := s.current
	s.mu.RUnlock()

	if current == nil {
		s.loadStored()
		s.mu.RLock()
		current = s.current
		s.mu.RUnlock()
	}
	return current
}

// loadStored restores the persisted session after a restart.
func (s *Service) loadStored() {
	session, err := s.repo.GetSessionByClientCode(s.clientCode)
	if err != nil {
		return
	}
	if time.Since(session.LoginTime) >= MaxSessionAge {
		return
	}
	s.setCurrent(session)
}

func (s *Service) setCurrent(session *SessionModel) {
	s.mu.Lock()
	s.current = session
	s.mu.Unlock()
}
