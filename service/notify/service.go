package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/elC0mpa/cloud-steward/model"
	"github.com/elC0mpa/cloud-steward/service/retry"
	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func NewService(cfg Config, logger *zap.Logger, opts ...Option) *service {
	if logger == nil {
		logger = zap.NewNop()
	}
	defaults := DefaultConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.MaxFieldLength <= 0 {
		cfg.MaxFieldLength = defaults.MaxFieldLength
	}

	meter := otel.Meter("cloud-steward.notify")
	delivered, _ := meter.Int64Counter("steward_notifications_delivered_total",
		metric.WithDescription("Notifications delivered per channel"))
	failed, _ := meter.Int64Counter("steward_notifications_failed_total",
		metric.WithDescription("Notification deliveries that failed per channel"))

	s := &service{
		cfg:       cfg,
		client:    NewSafeClient(cfg.Timeout),
		retrier:   retry.NewService(cfg.Retry),
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		policy:    bluemonday.StrictPolicy(),
		logger:    logger.Named("notify"),
		now:       time.Now,
		delivered: delivered,
		failed:    failed,
	}
	s.checkURL = s.ValidateURL
	if cfg.SMTP.Host != "" {
		s.mailer = NewSMTPMailer(cfg.SMTP)
	}

	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dispatch delivers event to every enabled channel. Channels are attempted
// independently; each failure becomes one "type: message" entry in Errors.
func (s *service) Dispatch(ctx context.Context, event model.NotificationEvent, channels []model.NotificationChannel) model.DispatchResult {
	event = s.sanitizeEvent(event)
	if err := s.validate.Struct(event); err != nil {
		return model.DispatchResult{Errors: []string{"event: " + describeValidation(err)}}
	}

	var (
		mu      sync.Mutex
		results = make([]string, len(channels))
	)

	g := new(errgroup.Group)
	for i, ch := range channels {
		if !ch.Enabled {
			continue
		}

		g.Go(func() error {
			err := s.deliver(ctx, event, ch)

			attrs := metric.WithAttributes(attribute.String("channel", string(ch.Type)))
			if err == nil {
				s.delivered.Add(ctx, 1, attrs)
				return nil
			}
			s.failed.Add(ctx, 1, attrs)
			s.logger.Warn("notification delivery failed",
				zap.String("channel", string(ch.Type)),
				zap.String("event", string(event.Type)),
				zap.String("request_id", event.RequestID),
				zap.Error(err))

			mu.Lock()
			results[i] = fmt.Sprintf("%s: %s", ch.Type, err.Error())
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	errs := make([]string, 0)
	for _, msg := range results {
		if msg != "" {
			errs = append(errs, msg)
		}
	}
	return model.DispatchResult{Success: len(errs) == 0, Errors: errs}
}

func (s *service) deliver(ctx context.Context, event model.NotificationEvent, ch model.NotificationChannel) error {
	switch ch.Type {
	case model.ChannelEmail:
		recipients, err := s.validRecipients(ch.Config.Recipients)
		if err != nil {
			return err
		}
		if s.mailer == nil {
			return model.NewValidationError("smtp", "email transport is not configured")
		}
		subject, body := formatEmail(event)
		return s.withRetry(ctx, func(ctx context.Context) error {
			return s.mailer.Send(ctx, recipients, subject, body)
		})

	case model.ChannelSlack:
		target, err := s.checkURL(ch.Config.WebhookURL)
		if err != nil {
			return err
		}
		return s.withRetry(ctx, func(ctx context.Context) error {
			return s.sendSlack(ctx, target, event)
		})

	case model.ChannelTeams:
		target, err := s.checkURL(ch.Config.WebhookURL)
		if err != nil {
			return err
		}
		return s.withRetry(ctx, func(ctx context.Context) error {
			return s.sendTeams(ctx, target, event)
		})

	case model.ChannelWebhook:
		target, err := s.checkURL(ch.Config.WebhookURL)
		if err != nil {
			return err
		}
		if ch.Config.Secret == "" {
			return model.NewValidationError("secret", "webhook secret is required")
		}
		return s.withRetry(ctx, func(ctx context.Context) error {
			return s.sendWebhook(ctx, target, ch.Config.Secret, event)
		})
	}

	return model.NewValidationError("type", fmt.Sprintf("unsupported channel type %q", ch.Type))
}

// withRetry bounds every attempt by the delivery timeout and retries network failures
func (s *service) withRetry(ctx context.Context, send func(ctx context.Context) error) error {
	return s.retrier.Run(ctx, func(ctx context.Context) error {
		attemptCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
		return model.ClassifyTransport("deliver", send(attemptCtx))
	}, nil)
}

// validRecipients drops addresses that fail strict email validation
func (s *service) validRecipients(recipients []string) ([]string, error) {
	valid := make([]string, 0, len(recipients))
	for _, r := range recipients {
		if err := s.validate.Var(r, "required,email"); err != nil {
			s.logger.Debug("dropping invalid recipient")
			continue
		}
		valid = append(valid, r)
	}
	if len(valid) == 0 {
		return nil, model.NewValidationError("recipients", "no valid email recipients")
	}
	return valid, nil
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	return fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag())
}
