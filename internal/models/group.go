package models

import (
	"time"

	"gorm.io/gorm"
)

type GroupStatus string

const (
	GroupStatusPlanning  GroupStatus = "planning"
	GroupStatusVoting    GroupStatus = "voting"
	GroupStatusDecided   GroupStatus = "decided"
	GroupStatusBooking   GroupStatus = "booking"
	GroupStatusBooked    GroupStatus = "booked"
	GroupStatusCancelled GroupStatus = "cancelled"
)

type MemberRole string

const (
	RoleAdmin  MemberRole = "admin"
	RoleMember MemberRole = "member"
)

// Group is the root aggregate of the decision workflow. Its status only
// ever moves forward: planning -> voting -> decided -> booking -> booked,
// with cancelled reachable from any non-terminal state.
type Group struct {
	gorm.Model
	Name              string        `json:"name"`
	MaxParticipants   int           `json:"max_participants"`
	Status            GroupStatus   `json:"status" gorm:"size:16;index"`
	VotingDeadline    *time.Time    `json:"voting_deadline"`
	WinningProposalID *uint         `json:"winning_proposal_id"`
	Members           []GroupMember `json:"members" gorm:"foreignKey:GroupID"`
}

type GroupMember struct {
	gorm.Model
	GroupID  uint       `json:"group_id" gorm:"uniqueIndex:idx_group_user"`
	UserID   uint       `json:"user_id" gorm:"uniqueIndex:idx_group_user"`
	User     User       `json:"user" gorm:"foreignKey:UserID"`
	Role     MemberRole `json:"role" gorm:"size:16"`
	JoinedAt time.Time  `json:"joined_at"`
}

func (g *Group) MemberCount() int {
	return len(g.Members)
}

func (g *Group) HasCapacity() bool {
	return len(g.Members) < g.MaxParticipants
}

// Member returns the membership row for userID, if any.
func (g *Group) Member(userID uint) (*GroupMember, bool) {
	for i := range g.Members {
		if g.Members[i].UserID == userID {
			return &g.Members[i], true
		}
	}
	return nil, false
}

func (g *Group) IsMember(userID uint) bool {
	_, ok := g.Member(userID)
	return ok
}

func (g *Group) IsAdmin(userID uint) bool {
	m, ok := g.Member(userID)
	return ok && m.Role == RoleAdmin
}

// AdminCount is used to protect the "at least one admin" invariant when a
// member leaves or steps down.
func (g *Group) AdminCount() int {
	n := 0
	for i := range g.Members {
		if g.Members[i].Role == RoleAdmin {
			n++
		}
	}
	return n
}

// AcceptsVotes reports whether votes may be cast right now: the group must
// be in the voting phase and the deadline, when set, must not have passed.
func (g *Group) AcceptsVotes(now time.Time) bool {
	if g.Status != GroupStatusVoting {
		return false
	}
	if g.VotingDeadline != nil && now.After(*g.VotingDeadline) {
		return false
	}
	return true
}

func (g *Group) IsTerminal() bool {
	return g.Status == GroupStatusBooked || g.Status == GroupStatusCancelled
}

// ElectWinner picks the proposal with the highest weighted score, ties
// broken by highest vote count, then by lowest id for determinism.
// Returns nil for an empty slate.
func ElectWinner(proposals []Proposal) *Proposal {
	var winner *Proposal
	for i := range proposals {
		p := &proposals[i]
		if winner == nil {
			winner = p
			continue
		}
		switch {
		case p.WeightedScore > winner.WeightedScore:
			winner = p
		case p.WeightedScore == winner.WeightedScore && p.VoteCount > winner.VoteCount:
			winner = p
		case p.WeightedScore == winner.WeightedScore && p.VoteCount == winner.VoteCount && p.ID < winner.ID:
			winner = p
		}
	}
	return winner
}
