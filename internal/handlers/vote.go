package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/roamly/grouptrip-api/internal/auth"
	"github.com/roamly/grouptrip-api/internal/metrics"
	"github.com/roamly/grouptrip-api/internal/models"
	"gorm.io/gorm"
)

type VoteHandler struct {
	db          *gorm.DB
	authHandler *auth.AuthHandler
}

func NewVoteHandler(db *gorm.DB, authHandler *auth.AuthHandler) *VoteHandler {
	return &VoteHandler{db: db, authHandler: authHandler}
}

type CastVoteRequest struct {
	auth.AuthInput
	ProposalID uint `path:"id"`
	Body       struct {
		Rank int `json:"rank" doc:"Preference rank, 1 is best" required:"true" minimum:"1" maximum:"3"`
	}
}

type CastVoteResponse struct {
	Body struct {
		Vote          models.Vote `json:"vote"`
		VoteCount     int         `json:"vote_count"`
		WeightedScore float64     `json:"weighted_score"`
	}
}

// HandleCastVote records or updates a ranked vote and synchronously
// recomputes the proposal's cached aggregates from the full vote set.
func (h *VoteHandler) HandleCastVote(ctx context.Context, input *CastVoteRequest) (*CastVoteResponse, error) {
	userID, err := h.authHandler.Authorize(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}

	if !models.ValidRank(input.Body.Rank) {
		return nil, huma.Error422UnprocessableEntity("Rank must be between 1 and 3")
	}

	var vote models.Vote
	var proposal models.Proposal
	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&proposal, input.ProposalID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return huma.Error404NotFound("Proposal not found")
			}
			return err
		}

		group, err := loadGroup(tx, proposal.GroupID)
		if err != nil {
			return err
		}
		if !group.IsMember(userID) {
			return huma.Error403Forbidden("Only group members can vote")
		}
		if !group.AcceptsVotes(time.Now()) {
			return huma.Error422UnprocessableEntity("Group is not accepting votes")
		}

		// One vote per (proposal, user); a repeat vote updates the rank.
		if err := tx.FirstOrInit(&vote, models.Vote{ProposalID: proposal.ID, UserID: userID}).Error; err != nil {
			return err
		}
		vote.GroupID = proposal.GroupID
		vote.Rank = input.Body.Rank
		if err := tx.Save(&vote).Error; err != nil {
			return err
		}

		// Recompute from the complete current vote set, never from a delta.
		var votes []models.Vote
		if err := tx.Where("proposal_id = ?", proposal.ID).Find(&votes).Error; err != nil {
			return err
		}
		proposal.Recompute(votes)
		return tx.Save(&proposal).Error
	})
	if err != nil {
		return nil, wrapError(err, "Failed to cast vote")
	}

	metrics.VotesCast.Inc()

	res := &CastVoteResponse{}
	res.Body.Vote = vote
	res.Body.VoteCount = proposal.VoteCount
	res.Body.WeightedScore = proposal.WeightedScore
	return res, nil
}
