package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"chessfam/logger"
	"chessfam/models"
)

// Publisher is the part of *nats.Conn the notifier needs.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// NATSNotifier hands email jobs to the mailer over NATS. Every notice is
// published once; delivery failures are returned to the caller.
type NATSNotifier struct {
	publisher Publisher
	prefix    string
}

func NewNATSNotifier(publisher Publisher, subjectPrefix string) *NATSNotifier {
	return &NATSNotifier{publisher: publisher, prefix: subjectPrefix}
}

func (n *NATSNotifier) NotifyNewRegistration(ctx context.Context, organizerEmail string, notice models.RegistrationNotice) error {
	return n.publish(ctx, registrationJob(organizerEmail, notice))
}

func (n *NATSNotifier) NotifyWithdrawal(ctx context.Context, organizerEmail string, notice models.WithdrawalNotice) error {
	return n.publish(ctx, withdrawalJob(organizerEmail, notice))
}

func (n *NATSNotifier) Subject(event string) string {
	return n.prefix + "." + event
}

func (n *NATSNotifier) publish(ctx context.Context, job EmailJob) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal email job: %w", err)
	}
	if err := n.publisher.Publish(n.Subject(job.Event), data); err != nil {
		return fmt.Errorf("publish %s: %w", job.Event, err)
	}
	return nil
}

// Connect dials NATS with reconnect logging.
func Connect(url string, log *logger.Logger) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name("chessfam"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.Timeout(5*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("NATS disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("NATS reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return nc, nil
}
