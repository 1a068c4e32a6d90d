package services

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"time"

	"snapshare/internal/metrics"
	"snapshare/internal/repositories"
	"snapshare/internal/session"

	"go.uber.org/zap"
)

var (
	// ErrNotFound is returned when the requested video or user does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials is the single answer to every failed login.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrUnauthenticated is returned for missing, expired or revoked sessions.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrForbidden is returned when the caller's role does not allow the action.
	ErrForbidden = errors.New("permission denied")
	// ErrUnavailable is returned when a backing service timed out or is unreachable.
	ErrUnavailable = errors.New("service temporarily unavailable")
)

// cleanupTimeout bounds the removal of blobs left behind by a failed write.
const cleanupTimeout = 10 * time.Second

// discardUploads removes stored blobs whose database row was never written.
// It runs detached from the request's cancellation.
func discardUploads(ctx context.Context, media MediaStore, obs Observers, keys ...string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()
	for _, key := range keys {
		if key == "" {
			continue
		}
		if err := media.Delete(ctx, key); err != nil {
			obs.logger().Warn("failed to remove orphaned upload", zap.String("key", key), zap.Error(err))
		}
	}
}

// EventPublisher sends domain events to the message broker.
type EventPublisher interface {
	PublishEvent(eventType string, payload any) error
}

// Observers bundles the optional instrumentation every service accepts.
// Zero values disable the corresponding output.
type Observers struct {
	Logger  *zap.Logger
	Metrics *metrics.Metrics
	Events  EventPublisher
}

func (o Observers) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// publish sends an event if a publisher is configured. Broker failures are
// logged and never fail the request.
func (o Observers) publish(eventType string, payload any) {
	if o.Events == nil {
		return
	}
	if err := o.Events.PublishEvent(eventType, payload); err != nil {
		o.logger().Warn("failed to publish event", zap.String("type", eventType), zap.Error(err))
	}
}

// classify wraps a data-layer error with the matching service sentinel.
func classify(op string, err error) error {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case isUnavailable(err):
		return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isUnavailable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, session.ErrUnavailable) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
