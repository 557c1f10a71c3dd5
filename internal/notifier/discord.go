package notifier

import (
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/roamly/grouptrip-api/internal/models"
)

// Notifier is the side channel for group lifecycle announcements. All
// methods are best-effort: callers log failures and move on.
type Notifier interface {
	NotifyVotingStarted(group models.Group) error
	NotifyVotingClosed(group models.Group, winner models.Proposal) error
	NotifyBookingFinalized(group models.Group, session models.BookingSession) error
	NotifyPaymentReminder(user models.User, payment models.Payment, session models.BookingSession) error
}

type DiscordNotifier struct {
	session   *discordgo.Session
	channelID string
}

func NewDiscordNotifier(session *discordgo.Session, channelID string) *DiscordNotifier {
	return &DiscordNotifier{
		session:   session,
		channelID: channelID,
	}
}

func (n *DiscordNotifier) send(message string) error {
	if n.session == nil {
		return fmt.Errorf("discord session is nil")
	}
	if n.channelID == "" {
		return fmt.Errorf("discord channel ID is empty")
	}

	_, err := n.session.ChannelMessageSend(n.channelID, message)
	if err != nil {
		slog.Error("Failed to send discord message", "error", err)
		return err
	}
	return nil
}

func (n *DiscordNotifier) NotifyVotingStarted(group models.Group) error {
	deadline := "no deadline"
	if group.VotingDeadline != nil {
		deadline = group.VotingDeadline.Format("2006-01-02 15:04")
	}
	return n.send(fmt.Sprintf("🗳️ **Voting open** for group **%s** (%s). Rank your favorite trips!",
		group.Name, deadline))
}

func (n *DiscordNotifier) NotifyVotingClosed(group models.Group, winner models.Proposal) error {
	return n.send(fmt.Sprintf("🏆 **Voting closed** for group **%s**. Winner: **%s** (score %.2f, %d votes) at %.2f per person.",
		group.Name, winner.Destination, winner.WeightedScore, winner.VoteCount, winner.PricePerPerson))
}

func (n *DiscordNotifier) NotifyBookingFinalized(group models.Group, session models.BookingSession) error {
	return n.send(fmt.Sprintf("✈️ **Trip booked!** Group **%s** is going to **%s** (%s - %s). Reference: %s",
		group.Name,
		session.Destination,
		session.DepartureDate.Format("2006-01-02"),
		session.ReturnDate.Format("2006-01-02"),
		session.BookingReference))
}

func (n *DiscordNotifier) NotifyPaymentReminder(user models.User, payment models.Payment, session models.BookingSession) error {
	return n.send(fmt.Sprintf("💸 **Payment reminder** for %s (<@%s>): %.2f due by %s for the trip to %s.",
		user.Username,
		user.DiscordID,
		payment.Amount,
		session.PaymentDeadline.Format("2006-01-02"),
		session.Destination))
}
