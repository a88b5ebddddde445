package notify

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/elC0mpa/cloud-steward/model"
	"github.com/elC0mpa/cloud-steward/service/retry"
	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// SMTPConfig configures the email transport. An empty Host disables email delivery.
type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from" validate:"omitempty,email"`
}

// Config configures the dispatcher
type Config struct {
	SMTP SMTPConfig `mapstructure:"smtp"`

	// Timeout bounds each delivery attempt
	Timeout time.Duration `mapstructure:"timeout" validate:"gt=0"`

	// MaxFieldLength bounds every free-text field, in runes
	MaxFieldLength int `mapstructure:"max_field_length" validate:"gte=16"`

	Retry retry.Config `mapstructure:"retry"`
}

// DefaultConfig returns the dispatcher defaults
func DefaultConfig() Config {
	return Config{
		SMTP:           SMTPConfig{Port: 587},
		Timeout:        30 * time.Second,
		MaxFieldLength: 500,
		Retry:          retry.DefaultConfig(),
	}
}

// Mailer sends a plain text email
type Mailer interface {
	Send(ctx context.Context, to []string, subject, body string) error
}

type service struct {
	cfg       Config
	mailer    Mailer
	client    *http.Client
	retrier   retry.Retrier
	validate  *validator.Validate
	policy    *bluemonday.Policy
	checkURL  func(raw string) (*url.URL, error)
	logger    *zap.Logger
	now       func() time.Time
	delivered metric.Int64Counter
	failed    metric.Int64Counter
}

// DispatcherService fans a governance event out across notification channels
type DispatcherService interface {
	Dispatch(ctx context.Context, event model.NotificationEvent, channels []model.NotificationChannel) model.DispatchResult
}

// Option customises the dispatcher
type Option func(*service)

// WithMailer replaces the SMTP mailer
func WithMailer(m Mailer) Option {
	return func(s *service) { s.mailer = m }
}

// WithHTTPClient replaces the SSRF-guarded client used for Slack, Teams and webhooks
func WithHTTPClient(c *http.Client) Option {
	return func(s *service) { s.client = c }
}

// WithRetryOptions customises delivery retries
func WithRetryOptions(opts ...retry.Option) Option {
	return func(s *service) { s.retrier = retry.NewService(s.cfg.Retry, opts...) }
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}
