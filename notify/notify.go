package notify

import (
	"fmt"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"chessfam/models"
)

const (
	EventRegistrationCreated   = "registration_created"
	EventRegistrationWithdrawn = "registration_withdrawn"
)

// EmailJob is what the mailer consumes. Payload carries the notice that
// produced it so templates can render their own layout.
type EmailJob struct {
	Event   string `json:"event"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Payload any    `json:"payload"`
}

var printer = message.NewPrinter(language.English)

// FormatFee renders amount in code, e.g. "$ 45.00". Unknown codes fall back
// to the plain amount followed by the code.
func FormatFee(amount float64, code string) string {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return fmt.Sprintf("%.2f %s", amount, code)
	}
	return printer.Sprint(currency.Symbol(unit.Amount(amount)))
}

func registrationJob(email string, n models.RegistrationNotice) EmailJob {
	var b strings.Builder
	fmt.Fprintf(&b, "%s registered for %s.\n", n.PlayerName, n.TournamentName)
	if n.PlayerRating != nil {
		fmt.Fprintf(&b, "Rating: %d\n", *n.PlayerRating)
	}
	fmt.Fprintf(&b, "Entry fee: %s (%s)\n", FormatFee(n.EntryFee, n.Currency), n.PaymentStatus)
	if n.MaxParticipants != nil {
		fmt.Fprintf(&b, "Participants: %d / %d\n", n.CurrentParticipants, *n.MaxParticipants)
	} else {
		fmt.Fprintf(&b, "Participants: %d\n", n.CurrentParticipants)
	}

	return EmailJob{
		Event:   EventRegistrationCreated,
		To:      email,
		Subject: fmt.Sprintf("New registration: %s", n.TournamentName),
		Body:    b.String(),
		Payload: n,
	}
}

func withdrawalJob(email string, n models.WithdrawalNotice) EmailJob {
	var b strings.Builder
	fmt.Fprintf(&b, "%s withdrew from %s.\n", n.PlayerName, n.TournamentName)
	fmt.Fprintf(&b, "Participants: %d\n", n.CurrentParticipants)
	if n.Refund != nil {
		fmt.Fprintf(&b, "Refunded: %s\n", FormatFee(n.Refund.Amount, n.Refund.Currency))
	}

	return EmailJob{
		Event:   EventRegistrationWithdrawn,
		To:      email,
		Subject: fmt.Sprintf("Withdrawal: %s", n.TournamentName),
		Body:    b.String(),
		Payload: n,
	}
}
