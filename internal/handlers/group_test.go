package handlers

import (
	"testing"
	"time"

	"github.com/roamly/grouptrip-api/internal/models"
)

func TestHandleCreateGroup(t *testing.T) {
	db := setupDB(t)
	handler := NewGroupHandler(db, nil, testAuthHandler(db))
	user := seedUser(t, db, "alice")

	req := &CreateGroupRequest{}
	req.Body.Name = "Summer trip"
	req.Body.MaxParticipants = 4

	resp, err := handler.HandleCreateGroup(authCtx(user.ID), req)
	if err != nil {
		t.Fatalf("HandleCreateGroup returned error: %v", err)
	}

	if resp.Body.Status != models.GroupStatusPlanning {
		t.Errorf("expected planning status, got %s", resp.Body.Status)
	}
	if resp.Body.MemberCount != 1 {
		t.Errorf("expected 1 member, got %d", resp.Body.MemberCount)
	}
	if !resp.Body.IsAdmin(user.ID) {
		t.Error("expected the creator to be an admin")
	}

	t.Run("TooSmall", func(t *testing.T) {
		req := &CreateGroupRequest{}
		req.Body.Name = "Solo"
		req.Body.MaxParticipants = 1

		if _, err := handler.HandleCreateGroup(authCtx(user.ID), req); err == nil {
			t.Fatal("expected error for max_participants < 2, got nil")
		}
	})
}

func TestHandleJoinGroup(t *testing.T) {
	db := setupDB(t)
	handler := NewGroupHandler(db, nil, testAuthHandler(db))
	admin := seedUser(t, db, "admin")
	joiner := seedUser(t, db, "joiner")
	third := seedUser(t, db, "third")
	group := seedGroup(t, db, 2, admin.ID)

	req := &JoinGroupRequest{ID: group.ID}
	resp, err := handler.HandleJoinGroup(authCtx(joiner.ID), req)
	if err != nil {
		t.Fatalf("HandleJoinGroup returned error: %v", err)
	}
	if resp.Body.MemberCount != 2 {
		t.Errorf("expected 2 members, got %d", resp.Body.MemberCount)
	}

	t.Run("Duplicate", func(t *testing.T) {
		if _, err := handler.HandleJoinGroup(authCtx(joiner.ID), &JoinGroupRequest{ID: group.ID}); err == nil {
			t.Fatal("expected conflict for duplicate join, got nil")
		}
	})

	t.Run("Full", func(t *testing.T) {
		if _, err := handler.HandleJoinGroup(authCtx(third.ID), &JoinGroupRequest{ID: group.ID}); err == nil {
			t.Fatal("expected error for full group, got nil")
		}
	})

	t.Run("MissingGroup", func(t *testing.T) {
		if _, err := handler.HandleJoinGroup(authCtx(third.ID), &JoinGroupRequest{ID: 9999}); err == nil {
			t.Fatal("expected not found, got nil")
		}
	})
}

func TestHandleLeaveGroup(t *testing.T) {
	db := setupDB(t)
	handler := NewGroupHandler(db, nil, testAuthHandler(db))
	admin := seedUser(t, db, "admin")
	member := seedUser(t, db, "member")
	group := seedGroup(t, db, 4, admin.ID, member.ID)

	t.Run("LastAdminBlocked", func(t *testing.T) {
		if _, err := handler.HandleLeaveGroup(authCtx(admin.ID), &LeaveGroupRequest{ID: group.ID}); err == nil {
			t.Fatal("expected the last admin to be blocked from leaving, got nil")
		}
	})

	t.Run("MemberLeaves", func(t *testing.T) {
		if _, err := handler.HandleLeaveGroup(authCtx(member.ID), &LeaveGroupRequest{ID: group.ID}); err != nil {
			t.Fatalf("HandleLeaveGroup returned error: %v", err)
		}

		updated, err := loadGroup(db, group.ID)
		if err != nil {
			t.Fatalf("failed to reload group: %v", err)
		}
		if updated.IsMember(member.ID) {
			t.Error("expected member to be gone after leaving")
		}
	})

	t.Run("AdminLeavesAfterPromotion", func(t *testing.T) {
		second := seedUser(t, db, "second-admin")
		g := seedGroup(t, db, 4, admin.ID, second.ID)

		promote := &PromoteMemberRequest{ID: g.ID}
		promote.Body.UserID = second.ID
		if _, err := handler.HandlePromoteMember(authCtx(admin.ID), promote); err != nil {
			t.Fatalf("HandlePromoteMember returned error: %v", err)
		}

		if _, err := handler.HandleLeaveGroup(authCtx(admin.ID), &LeaveGroupRequest{ID: g.ID}); err != nil {
			t.Fatalf("expected admin to leave after promoting a second admin: %v", err)
		}
	})
}

func TestHandleStartVoting(t *testing.T) {
	db := setupDB(t)
	handler := NewGroupHandler(db, nil, testAuthHandler(db))
	admin := seedUser(t, db, "admin")
	member := seedUser(t, db, "member")
	group := seedGroup(t, db, 4, admin.ID, member.ID)

	t.Run("NonAdminForbidden", func(t *testing.T) {
		req := &StartVotingRequest{ID: group.ID}
		if _, err := handler.HandleStartVoting(authCtx(member.ID), req); err == nil {
			t.Fatal("expected forbidden for non-admin, got nil")
		}
	})

	t.Run("AdminStartsVoting", func(t *testing.T) {
		deadline := time.Now().Add(48 * time.Hour)
		req := &StartVotingRequest{ID: group.ID}
		req.Body.VotingDeadline = &deadline

		resp, err := handler.HandleStartVoting(authCtx(admin.ID), req)
		if err != nil {
			t.Fatalf("HandleStartVoting returned error: %v", err)
		}
		if resp.Body.Status != models.GroupStatusVoting {
			t.Errorf("expected voting status, got %s", resp.Body.Status)
		}
		if resp.Body.VotingDeadline == nil {
			t.Error("expected voting deadline to be set")
		}
	})

	t.Run("NotRestartable", func(t *testing.T) {
		req := &StartVotingRequest{ID: group.ID}
		if _, err := handler.HandleStartVoting(authCtx(admin.ID), req); err == nil {
			t.Fatal("expected error when voting already started, got nil")
		}
	})
}

func TestHandleEndVoting(t *testing.T) {
	db := setupDB(t)
	handler := NewGroupHandler(db, nil, testAuthHandler(db))
	admin := seedUser(t, db, "admin")
	member := seedUser(t, db, "member")

	t.Run("NoProposals", func(t *testing.T) {
		group := seedGroup(t, db, 4, admin.ID)
		setGroupStatus(t, db, group.ID, models.GroupStatusVoting)

		if _, err := handler.HandleEndVoting(authCtx(admin.ID), &EndVotingRequest{ID: group.ID}); err == nil {
			t.Fatal("expected error for empty slate, got nil")
		}
	})

	t.Run("TieBrokenByVoteCount", func(t *testing.T) {
		group := seedGroup(t, db, 8, admin.ID, member.ID)
		setGroupStatus(t, db, group.ID, models.GroupStatusVoting)

		seed := []models.Proposal{
			{GroupID: group.ID, Destination: "Rome", WeightedScore: 2.5, VoteCount: 3},
			{GroupID: group.ID, Destination: "Porto", WeightedScore: 2.5, VoteCount: 5},
			{GroupID: group.ID, Destination: "Oslo", WeightedScore: 1.0, VoteCount: 1},
		}
		for i := range seed {
			if err := db.Create(&seed[i]).Error; err != nil {
				t.Fatalf("failed to seed proposal: %v", err)
			}
		}

		resp, err := handler.HandleEndVoting(authCtx(admin.ID), &EndVotingRequest{ID: group.ID})
		if err != nil {
			t.Fatalf("HandleEndVoting returned error: %v", err)
		}

		if resp.Body.Winner.Destination != "Porto" {
			t.Errorf("expected Porto to win the tie, got %s", resp.Body.Winner.Destination)
		}
		if resp.Body.Status != models.GroupStatusDecided {
			t.Errorf("expected decided status, got %s", resp.Body.Status)
		}
		if resp.Body.WinningProposalID == nil || *resp.Body.WinningProposalID != seed[1].ID {
			t.Errorf("expected winning proposal %d recorded on the group", seed[1].ID)
		}
	})

	t.Run("NonAdminForbidden", func(t *testing.T) {
		group := seedGroup(t, db, 4, admin.ID, member.ID)
		setGroupStatus(t, db, group.ID, models.GroupStatusVoting)

		if _, err := handler.HandleEndVoting(authCtx(member.ID), &EndVotingRequest{ID: group.ID}); err == nil {
			t.Fatal("expected forbidden for non-admin, got nil")
		}
	})
}

func TestHandleCancelGroup(t *testing.T) {
	db := setupDB(t)
	handler := NewGroupHandler(db, nil, testAuthHandler(db))
	admin := seedUser(t, db, "admin")
	group := seedGroup(t, db, 4, admin.ID)

	resp, err := handler.HandleCancelGroup(authCtx(admin.ID), &CancelGroupRequest{ID: group.ID})
	if err != nil {
		t.Fatalf("HandleCancelGroup returned error: %v", err)
	}
	if resp.Body.Status != models.GroupStatusCancelled {
		t.Errorf("expected cancelled status, got %s", resp.Body.Status)
	}

	t.Run("AlreadyTerminal", func(t *testing.T) {
		if _, err := handler.HandleCancelGroup(authCtx(admin.ID), &CancelGroupRequest{ID: group.ID}); err == nil {
			t.Fatal("expected error cancelling a cancelled group, got nil")
		}
	})
}
