package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"chessfam/logger"
	"chessfam/models"
)

type published struct {
	subject string
	data    []byte
}

type FakePublisher struct {
	Err  error
	Sent []published
}

func (f *FakePublisher) Publish(subject string, data []byte) error {
	f.Sent = append(f.Sent, published{subject: subject, data: data})
	return f.Err
}

func intPtr(v int) *int { return &v }

func TestNATSNotifierPublishesEmailJobs(t *testing.T) {
	pub := &FakePublisher{}
	n := NewNATSNotifier(pub, "chessfam.notifications")

	err := n.NotifyNewRegistration(context.Background(), "org@chessfam.test", models.RegistrationNotice{
		TournamentID:        "t-1",
		TournamentName:      "Club Championship",
		RegistrationID:      "r-1",
		PlayerName:          "Judit",
		PlayerRating:        intPtr(2150),
		EntryFee:            45,
		Currency:            "USD",
		PaymentStatus:       models.PaymentPending,
		CurrentParticipants: 3,
		MaxParticipants:     intPtr(16),
	})
	require.NoError(t, err)

	err = n.NotifyWithdrawal(context.Background(), "org@chessfam.test", models.WithdrawalNotice{
		TournamentID:   "t-1",
		TournamentName: "Club Championship",
		RegistrationID: "r-1",
		PlayerName:     "Judit",
		Refund:         &models.RefundSummary{Amount: 45, Currency: "USD"},
	})
	require.NoError(t, err)

	require.Len(t, pub.Sent, 2)
	assert.Equal(t, "chessfam.notifications.registration_created", pub.Sent[0].subject)
	assert.Equal(t, "chessfam.notifications.registration_withdrawn", pub.Sent[1].subject)

	var job EmailJob
	require.NoError(t, json.Unmarshal(pub.Sent[0].data, &job))
	assert.Equal(t, EventRegistrationCreated, job.Event)
	assert.Equal(t, "org@chessfam.test", job.To)
	assert.Equal(t, "New registration: Club Championship", job.Subject)
	assert.Contains(t, job.Body, "Judit registered for Club Championship")
	assert.Contains(t, job.Body, "Rating: 2150")
	assert.Contains(t, job.Body, "45.00")
	assert.Contains(t, job.Body, "Participants: 3 / 16")

	require.NoError(t, json.Unmarshal(pub.Sent[1].data, &job))
	assert.Contains(t, job.Body, "Refunded:")
}

func TestNATSNotifierReturnsPublishErrors(t *testing.T) {
	n := NewNATSNotifier(&FakePublisher{Err: errors.New("nats: connection closed")}, "p")

	err := n.NotifyWithdrawal(context.Background(), "org@chessfam.test", models.WithdrawalNotice{})
	assert.ErrorContains(t, err, "connection closed")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	pub := &FakePublisher{}
	err = NewNATSNotifier(pub, "p").NotifyNewRegistration(ctx, "org@chessfam.test", models.RegistrationNotice{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, pub.Sent)
}

func TestFormatFee(t *testing.T) {
	assert.Contains(t, FormatFee(45, "USD"), "45.00")
	assert.Contains(t, FormatFee(1234.5, "EUR"), "234.50")
	assert.Equal(t, "12.00 XYZ1", FormatFee(12, "XYZ1"))
}

func TestLogNotifier(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	n := NewLogNotifier(logger.FromZap(zap.New(core)))

	require.NoError(t, n.NotifyNewRegistration(context.Background(), "org@chessfam.test", models.RegistrationNotice{
		TournamentID: "t-1", TournamentName: "Blitz Night", EntryFee: 10, Currency: "USD",
	}))
	require.NoError(t, n.NotifyWithdrawal(context.Background(), "org@chessfam.test", models.WithdrawalNotice{TournamentID: "t-1"}))

	require.Equal(t, 2, logs.Len())
	first := logs.All()[0].ContextMap()
	assert.Equal(t, "org@chessfam.test", first["to"])
	assert.Equal(t, "New registration: Blitz Night", first["subject"])
	assert.Equal(t, "notify", first["component"])
	assert.Equal(t, false, logs.All()[1].ContextMap()["refunded"])
}
