package handlers

import (
	"math"
	"testing"
	"time"

	"github.com/roamly/grouptrip-api/internal/models"
)

// TestGroupDecisionFlow walks the whole lifecycle: plan, propose, vote,
// decide, collect payments, book.
func TestGroupDecisionFlow(t *testing.T) {
	db := setupDB(t)
	authHandler := testAuthHandler(db)
	groupHandler := NewGroupHandler(db, nil, authHandler)
	proposalHandler := NewProposalHandler(db, authHandler)
	voteHandler := NewVoteHandler(db, authHandler)
	bookingHandler := testBookingHandler(db)

	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	// Alice creates a group for two and Bob joins.
	createReq := &CreateGroupRequest{}
	createReq.Body.Name = "Autumn getaway"
	createReq.Body.MaxParticipants = 2

	created, err := groupHandler.HandleCreateGroup(authCtx(alice.ID), createReq)
	if err != nil {
		t.Fatalf("create group: %v", err)
	}
	groupID := created.Body.ID

	if _, err := groupHandler.HandleJoinGroup(authCtx(bob.ID), &JoinGroupRequest{ID: groupID}); err != nil {
		t.Fatalf("join group: %v", err)
	}

	// Two competing proposals from the catalog.
	seaside := seedOffer(t, db, 450, "beach", "half board")
	mountain := seedOffer(t, db, 380, "hiking", "breakfast")

	departure := time.Now().AddDate(0, 3, 0)
	ret := departure.AddDate(0, 0, 7)

	propose := func(userID, offerID uint) models.Proposal {
		req := &CreateProposalRequest{GroupID: groupID}
		req.Body.CatalogOfferID = offerID
		req.Body.DepartureDate = departure
		req.Body.ReturnDate = ret
		resp, err := proposalHandler.HandleCreateProposal(authCtx(userID), req)
		if err != nil {
			t.Fatalf("create proposal: %v", err)
		}
		return resp.Body
	}

	proposalA := propose(alice.ID, seaside.ID)
	propose(bob.ID, mountain.ID)

	if proposalA.WeightedScore != 0 {
		t.Errorf("expected fresh proposal score 0, got %v", proposalA.WeightedScore)
	}

	// Voting opens and both members rank proposal A.
	if _, err := groupHandler.HandleStartVoting(authCtx(alice.ID), &StartVotingRequest{ID: groupID}); err != nil {
		t.Fatalf("start voting: %v", err)
	}

	castVote(t, voteHandler, proposalA.ID, alice.ID, 1)
	resp := castVote(t, voteHandler, proposalA.ID, bob.ID, 2)

	if resp.Body.VoteCount != 2 {
		t.Fatalf("expected 2 votes on proposal A, got %d", resp.Body.VoteCount)
	}
	if math.Abs(resp.Body.WeightedScore-2.5) > 1e-9 {
		t.Fatalf("expected score (3+2)/2 = 2.5, got %v", resp.Body.WeightedScore)
	}

	// Voting closes; proposal A wins.
	decided, err := groupHandler.HandleEndVoting(authCtx(alice.ID), &EndVotingRequest{ID: groupID})
	if err != nil {
		t.Fatalf("end voting: %v", err)
	}
	if decided.Body.Winner.ID != proposalA.ID {
		t.Fatalf("expected proposal A (%d) to win, got %d", proposalA.ID, decided.Body.Winner.ID)
	}

	// Booking starts with one pending row per member at the winning price.
	session, err := bookingHandler.HandleInitializeBooking(authCtx(alice.ID), &InitializeBookingRequest{GroupID: groupID})
	if err != nil {
		t.Fatalf("initialize booking: %v", err)
	}
	if len(session.Body.Payments) != 2 {
		t.Fatalf("expected 2 payment rows, got %d", len(session.Body.Payments))
	}
	for _, p := range session.Body.Payments {
		if p.Amount != 450 || p.Status != models.PaymentStatusPending {
			t.Errorf("expected pending row of 450, got %v/%s", p.Amount, p.Status)
		}
	}

	// Both members pay; the session becomes ready to book.
	for _, userID := range []uint{alice.ID, bob.ID} {
		req := &MarkPaidRequest{ID: session.Body.ID}
		req.Body.UserID = userID
		req.Body.PaymentMethod = "card"
		if _, err := bookingHandler.HandleMarkPaid(authCtx(userID), req); err != nil {
			t.Fatalf("mark paid for user %d: %v", userID, err)
		}
	}

	current, err := bookingHandler.HandleGetSession(authCtx(alice.ID), &GetSessionRequest{ID: session.Body.ID})
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if current.Body.Status != models.BookingStatusReadyToBook {
		t.Fatalf("expected ready_to_book, got %s", current.Body.Status)
	}
	if math.Abs(current.Body.TotalCollected-900) > 1e-9 {
		t.Errorf("expected 900 collected, got %v", current.Body.TotalCollected)
	}

	// An admin finalizes; both the session and the group end up booked.
	finalize := &FinalizeBookingRequest{ID: session.Body.ID}
	finalize.Body.ConfirmationData = "CONF-7781"
	booked, err := bookingHandler.HandleFinalizeBooking(authCtx(alice.ID), finalize)
	if err != nil {
		t.Fatalf("finalize booking: %v", err)
	}
	if booked.Body.Status != models.BookingStatusBooked {
		t.Errorf("expected booked session, got %s", booked.Body.Status)
	}

	var group models.Group
	db.First(&group, groupID)
	if group.Status != models.GroupStatusBooked {
		t.Errorf("expected booked group, got %s", group.Status)
	}
}
