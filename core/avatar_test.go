package agent

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

type stubAvatar struct {
	startErr error
	block    bool
}

func (a *stubAvatar) Start(ctx context.Context) error {
	if a.block {
		<-ctx.Done()
		select {}
	}
	return a.startErr
}

func TestAvatarSessionStartSucceeds(t *testing.T) {
	session := NewAvatarSession(&stubAvatar{})

	if err := session.Start(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAvatarSessionBoundsHangingStart(t *testing.T) {
	session := NewAvatarSession(&stubAvatar{block: true}, WithStartTimeout(30*time.Millisecond))

	start := time.Now()
	err := session.Start(context.Background())
	if !errors.Is(err, ErrAvatarStartTimeout) {
		t.Fatalf("expected ErrAvatarStartTimeout, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("expected the timeout to fire at the bound, took %v", elapsed)
	}
}

func TestAvatarSessionPropagatesStartFailure(t *testing.T) {
	startErr := fmt.Errorf("conversation rejected")
	session := NewAvatarSession(&stubAvatar{startErr: startErr})

	if err := session.Start(context.Background()); !errors.Is(err, startErr) {
		t.Fatalf("expected the start failure to propagate, got %v", err)
	}
}

func TestAvatarSessionTreatsProviderDeadlineAsTimeout(t *testing.T) {
	session := NewAvatarSession(&stubAvatar{startErr: context.DeadlineExceeded})

	if err := session.Start(context.Background()); !errors.Is(err, ErrAvatarStartTimeout) {
		t.Fatalf("expected ErrAvatarStartTimeout, got %v", err)
	}
}

func TestAvatarSessionWithoutAvatarIsNoop(t *testing.T) {
	session := NewAvatarSession(nil)

	if err := session.Start(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAvatarSessionDefaultTimeout(t *testing.T) {
	session := NewAvatarSession(&stubAvatar{})

	if session.timeout != 30*time.Second {
		t.Fatalf("expected a 30s default start timeout, got %v", session.timeout)
	}
}
