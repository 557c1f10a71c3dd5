package models

import (
	"gorm.io/gorm"
)

const (
	MinRank = 1
	MaxRank = 3
)

// Vote is a single ranked preference. The unique index on
// (proposal_id, user_id) makes a repeat vote an update, not a duplicate.
type Vote struct {
	gorm.Model
	ProposalID uint `json:"proposal_id" gorm:"uniqueIndex:idx_proposal_voter"`
	UserID     uint `json:"user_id" gorm:"uniqueIndex:idx_proposal_voter"`
	GroupID    uint `json:"group_id" gorm:"index"`
	Rank       int  `json:"rank"`
}

func ValidRank(rank int) bool {
	return rank >= MinRank && rank <= MaxRank
}
