package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/athengaudio/storefront/pkg/auth/session"
	pkgerrors "github.com/athengaudio/storefront/pkg/errors"
	"github.com/athengaudio/storefront/pkg/logger"
	"github.com/athengaudio/storefront/pkg/metrics"
)

// Service hands out sessions bound to the shared store.
type Service interface {
	Open(ctx context.Context, sessionID string) (*Session, error)
	NewSession() *Session
}

type service struct {
	store    *session.Store
	provider Provider
	issuer   TokenIssuer
	logg     *logger.Logger
	metrics  *metrics.Storefront
	now      func() time.Time
}

// ServiceParams bundles the dependencies required to build an identity service.
type ServiceParams struct {
	Store    *session.Store
	Provider Provider
	Issuer   TokenIssuer
	Logger   *logger.Logger
	Metrics  *metrics.Storefront
}

// NewService constructs the identity service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if params.Provider == nil {
		return nil, fmt.Errorf("identity provider is required")
	}
	if params.Issuer == nil {
		return nil, fmt.Errorf("token issuer is required")
	}
	return &service{
		store:    params.Store,
		provider: params.Provider,
		issuer:   params.Issuer,
		logg:     params.Logger,
		metrics:  params.Metrics,
		now:      time.Now,
	}, nil
}

// NewSession starts an anonymous session under a fresh id.
func (s *service) NewSession() *Session {
	return s.session(session.NewID())
}

// Open restores a session from storage. A half-written pair or an unreadable
// principal yields an anonymous session under the same id.
func (s *service) Open(ctx context.Context, sessionID string) (*Session, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	sess := s.session(sessionID)
	snap, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load session")
	}
	if !snap.Complete() {
		return sess, nil
	}
	var user User
	if err := json.Unmarshal(snap.User, &user); err != nil {
		if s.logg != nil {
			logCtx := s.logg.WithSessionID(ctx, sessionID)
			logCtx = s.logg.WithField(logCtx, "error", err.Error())
			s.logg.Warn(logCtx, "identity.session_corrupt")
		}
		return sess, nil
	}
	if user.Wishlist == nil {
		user.Wishlist = []int64{}
	}
	sess.user = &user
	sess.token = snap.Token
	return sess, nil
}

func (s *service) session(id string) *Session {
	return &Session{
		id:       id,
		store:    s.store,
		provider: s.provider,
		issuer:   s.issuer,
		logg:     s.logg,
		metrics:  s.metrics,
		now:      s.now,
	}
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
