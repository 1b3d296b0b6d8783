package jobs

import (
	"context"
	"errors"
	"time"

	"siasa-backend/middlewares"
	"siasa-backend/repository"

	"github.com/golang-jwt/jwt/v4"
	"github.com/sirupsen/logrus"
)

// SessionSweeper periodically clears sessions whose token has expired, bounding
// how long a dead session can appear "active" in storage. Cleanup is
// best-effort; failures are swallowed.
type SessionSweeper struct {
	users    repository.UserRepository
	log      *logrus.Logger
	Interval time.Duration
}

func NewSessionSweeper(users repository.UserRepository, log *logrus.Logger) *SessionSweeper {
	return &SessionSweeper{
		users:    users,
		log:      log,
		Interval: time.Minute,
	}
}

func (s *SessionSweeper) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		s.sweepOnce(ctx)
		select {
		case <-ctx.Done():
			return
		case <-time.After(s.Interval):
		}
	}
}

func (s *SessionSweeper) sweepOnce(ctx context.Context) {
	users, err := s.users.ListLoggedIn(ctx)
	if err != nil {
		s.log.Warn("session sweep: listing logged-in users failed: " + err.Error())
		return
	}

	for _, user := range users {
		_, err := middlewares.ParseClaims(user.SessionToken)
		if err == nil {
			continue
		}
		if errors.Is(err, jwt.ErrTokenExpired) {
			if err := s.users.ClearSession(ctx, user.ID); err != nil {
				s.log.WithField("userID", user.ID).Warn("session sweep: clear failed: " + err.Error())
			}
		}
	}
}
