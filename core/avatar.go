package agent

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrAvatarStartTimeout is returned when the avatar worker does not become
// ready within the configured startup bound.
var ErrAvatarStartTimeout = errors.New("avatar worker did not start in time")

// Avatar is the contract avatar providers satisfy. Start is expected to
// return once the avatar worker has joined the room.
type Avatar interface {
	Start(ctx context.Context) error
}

// AvatarSession bounds avatar startup so an ill-behaved provider hang
// surfaces as [ErrAvatarStartTimeout] instead of blocking forever.
type AvatarSession struct {
	avatar  Avatar
	timeout time.Duration
}

type AvatarSessionOption func(*AvatarSession)

func WithStartTimeout(timeout time.Duration) AvatarSessionOption {
	return func(s *AvatarSession) {
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}

func NewAvatarSession(avatar Avatar, opts ...AvatarSessionOption) *AvatarSession {
	session := &AvatarSession{
		avatar:  avatar,
		timeout: DefaultConfig().AvatarStartTimeout,
	}

	for _, opt := range opts {
		opt(session)
	}

	return session
}

func (s *AvatarSession) Start(ctx context.Context) error {
	if s == nil || s.avatar == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	// The provider call runs in its own goroutine so a hang cannot block
	// startup past the deadline.
	startErr := make(chan error, 1)
	go func() {
		startErr <- s.avatar.Start(ctx)
	}()

	select {
	case err := <-startErr:
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return fmt.Errorf("%w: %v", ErrAvatarStartTimeout, err)
			}
			return fmt.Errorf("failed to start avatar worker: %w", err)
		}
		return nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return ErrAvatarStartTimeout
		}
		return ctx.Err()
	}
}
