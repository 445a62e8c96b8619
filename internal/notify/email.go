package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/nao1215/estatewatch/internal/model"
)

// TLS policies accepted by EmailConfig.TLSPolicy.
const (
	TLSMandatory     = "mandatory"
	TLSOpportunistic = "opportunistic"
	TLSNone          = "none"
)

// Email configuration errors.
var (
	// ErrNoSMTPHost is returned when no SMTP host is configured.
	ErrNoSMTPHost = errors.New("smtp host is not set")

	// ErrNoRecipients is returned when the recipient list is empty.
	ErrNoRecipients = errors.New("no email recipients configured")

	// ErrInvalidTLSPolicy is returned for an unknown TLS policy name.
	ErrInvalidTLSPolicy = errors.New("invalid TLS policy")
)

// EmailConfig configures the SMTP notifier.
type EmailConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	From      string
	To        []string
	TLSPolicy string
	Timeout   time.Duration
}

// EmailNotifier sends notifications as HTML email.
type EmailNotifier struct {
	cfg    EmailConfig
	client *mail.Client
}

// NewEmailNotifier validates cfg and creates the SMTP client.
// No connection is made until Notify is called.
func NewEmailNotifier(cfg EmailConfig) (*EmailNotifier, error) {
	if cfg.Host == "" {
		return nil, ErrNoSMTPHost
	}
	if len(cfg.To) == 0 {
		return nil, ErrNoRecipients
	}

	policy, err := tlsPolicy(cfg.TLSPolicy)
	if err != nil {
		return nil, err
	}

	opts := []mail.Option{
		mail.WithTLSPolicy(policy),
	}
	if cfg.Port > 0 {
		opts = append(opts, mail.WithPort(cfg.Port))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, mail.WithTimeout(cfg.Timeout))
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create SMTP client: %w", err)
	}

	return &EmailNotifier{cfg: cfg, client: client}, nil
}

// Notify sends msg to every configured recipient.
func (n *EmailNotifier) Notify(ctx context.Context, msg Message) error {
	m, err := n.buildMsg(msg)
	if err != nil {
		return fmt.Errorf("%w: %w", model.ErrNotify, err)
	}

	if err := n.client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("%w: failed to send email: %w", model.ErrNotify, err)
	}
	return nil
}

func (n *EmailNotifier) buildMsg(msg Message) (*mail.Msg, error) {
	m := mail.NewMsg()

	from := n.cfg.From
	if from == "" {
		from = n.cfg.Username
	}
	if err := m.From(from); err != nil {
		return nil, fmt.Errorf("failed to set sender %q: %w", from, err)
	}
	if err := m.To(n.cfg.To...); err != nil {
		return nil, fmt.Errorf("failed to set recipients: %w", err)
	}

	m.Subject(msg.Subject)
	m.SetDate()
	m.SetBodyString(mail.TypeTextHTML, msg.HTMLBody)
	if msg.TextBody != "" {
		m.AddAlternativeString(mail.TypeTextPlain, msg.TextBody)
	}
	return m, nil
}

func tlsPolicy(name string) (mail.TLSPolicy, error) {
	switch name {
	case TLSMandatory, "":
		return mail.TLSMandatory, nil
	case TLSOpportunistic:
		return mail.TLSOpportunistic, nil
	case TLSNone:
		return mail.NoTLS, nil
	default:
		return mail.NoTLS, fmt.Errorf("%w: %q", ErrInvalidTLSPolicy, name)
	}
}
