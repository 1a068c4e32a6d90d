// Package metrics exposes Prometheus counters for site activity.
package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every collector. A nil *Metrics records nothing.
type Metrics struct {
	videoViews      prometheus.Counter
	likesToggled    *prometheus.CounterVec
	uploads         *prometheus.CounterVec
	comments        prometheus.Counter
	ratings         prometheus.Counter
	signups         prometheus.Counter
	logins          *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		videoViews: prometheus.NewCounter(
			prometheus.CounterOpts{Name: "snapshare_video_views_total", Help: "Video detail page views"},
		),
		likesToggled: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "snapshare_likes_toggled_total", Help: "Like toggles"},
			[]string{"action"},
		),
		uploads: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "snapshare_uploads_total", Help: "Stored media files"},
			[]string{"category"},
		),
		comments: prometheus.NewCounter(
			prometheus.CounterOpts{Name: "snapshare_comments_total", Help: "Comments posted"},
		),
		ratings: prometheus.NewCounter(
			prometheus.CounterOpts{Name: "snapshare_ratings_total", Help: "Ratings submitted"},
		),
		signups: prometheus.NewCounter(
			prometheus.CounterOpts{Name: "snapshare_signups_total", Help: "Accounts created"},
		),
		logins: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "snapshare_logins_total", Help: "Login attempts"},
			[]string{"result"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "snapshare_http_request_duration_seconds",
				Help:    "HTTP request latency",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
			},
			[]string{"method", "status"},
		),
	}
	reg.MustRegister(
		m.videoViews, m.likesToggled, m.uploads, m.comments,
		m.ratings, m.signups, m.logins, m.requestDuration,
	)
	return m
}

// VideoViewed counts one detail page view.
func (m *Metrics) VideoViewed() {
	if m == nil {
		return
	}
	m.videoViews.Inc()
}

// LikeToggled counts a like or unlike.
func (m *Metrics) LikeToggled(liked bool) {
	if m == nil {
		return
	}
	action := "unlike"
	if liked {
		action = "like"
	}
	m.likesToggled.WithLabelValues(action).Inc()
}

// Uploaded counts a stored media file.
func (m *Metrics) Uploaded(category string) {
	if m == nil {
		return
	}
	m.uploads.WithLabelValues(category).Inc()
}

// CommentPosted counts a new comment.
func (m *Metrics) CommentPosted() {
	if m == nil {
		return
	}
	m.comments.Inc()
}

// RatingSubmitted counts a new or overwritten rating.
func (m *Metrics) RatingSubmitted() {
	if m == nil {
		return
	}
	m.ratings.Inc()
}

// SignedUp counts a new account.
func (m *Metrics) SignedUp() {
	if m == nil {
		return
	}
	m.signups.Inc()
}

// LoginAttempted counts a login by outcome.
func (m *Metrics) LoginAttempted(ok bool) {
	if m == nil {
		return
	}
	result := "failure"
	if ok {
		result = "success"
	}
	m.logins.WithLabelValues(result).Inc()
}

// Middleware observes the latency of every request.
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if m == nil {
			return c.Next()
		}
		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		}
		m.requestDuration.WithLabelValues(c.Method(), strconv.Itoa(status)).Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler serves the gathered metrics in the Prometheus text format.
func Handler(g prometheus.Gatherer) fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
}
