package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/roamly/grouptrip-api/internal/auth"
	"github.com/roamly/grouptrip-api/internal/models"
	"gorm.io/gorm"
)

type ProposalHandler struct {
	db          *gorm.DB
	authHandler *auth.AuthHandler
}

func NewProposalHandler(db *gorm.DB, authHandler *auth.AuthHandler) *ProposalHandler {
	return &ProposalHandler{db: db, authHandler: authHandler}
}

type CreateProposalRequest struct {
	auth.AuthInput
	GroupID uint `path:"id"`
	Body    struct {
		CatalogOfferID uint      `json:"catalog_offer_id" doc:"Offer to seed price and meal plan from" required:"true"`
		DepartureDate  time.Time `json:"departure_date" doc:"Date of departure" required:"true"`
		ReturnDate     time.Time `json:"return_date" doc:"Date of return" required:"true"`
		Description    string    `json:"description" doc:"Optional note for the group"`
	}
}

type ProposalResponse struct {
	Body models.Proposal
}

func (h *ProposalHandler) HandleCreateProposal(ctx context.Context, input *CreateProposalRequest) (*ProposalResponse, error) {
	userID, err := h.authHandler.Authorize(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}

	if !input.Body.ReturnDate.After(input.Body.DepartureDate) {
		return nil, huma.Error422UnprocessableEntity("Return date must be after departure date")
	}

	var proposal models.Proposal
	err = h.db.Transaction(func(tx *gorm.DB) error {
		group, err := loadGroup(tx, input.GroupID)
		if err != nil {
			return err
		}
		if !group.IsMember(userID) {
			return huma.Error403Forbidden("Only group members can propose trips")
		}
		if group.Status != models.GroupStatusPlanning {
			return huma.Error422UnprocessableEntity("Proposals can only be added while the group is planning")
		}

		var offer models.CatalogOffer
		if err := tx.First(&offer, input.Body.CatalogOfferID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return huma.Error404NotFound("Offer not found")
			}
			return err
		}

		// Price and meal plan always come from the offer, never from the
		// request body.
		proposal = models.Proposal{
			GroupID:        group.ID,
			CatalogOfferID: offer.ID,
			ProposedByID:   userID,
			Description:    input.Body.Description,
			Destination:    offer.Destination,
			HotelName:      offer.HotelName,
			PricePerPerson: offer.PricePerPerson,
			TotalPrice:     offer.PricePerPerson * float64(group.MaxParticipants),
			DepartureDate:  input.Body.DepartureDate,
			ReturnDate:     input.Body.ReturnDate,
			MealPlan:       offer.MealPlan(),
		}
		return tx.Create(&proposal).Error
	})
	if err != nil {
		return nil, wrapError(err, "Failed to create proposal")
	}

	return &ProposalResponse{Body: proposal}, nil
}

type ListProposalsRequest struct {
	auth.AuthInput
	GroupID uint `path:"id"`
}

type ListProposalsResponse struct {
	Body []models.Proposal
}

func (h *ProposalHandler) HandleListProposals(ctx context.Context, input *ListProposalsRequest) (*ListProposalsResponse, error) {
	if _, err := h.authHandler.Authorize(ctx, input.Cookie); err != nil {
		return nil, err
	}

	if _, err := loadGroup(h.db, input.GroupID); err != nil {
		return nil, err
	}

	var proposals []models.Proposal
	err := h.db.Where("group_id = ?", input.GroupID).
		Order("weighted_score desc, vote_count desc, id asc").
		Find(&proposals).Error
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to list proposals")
	}

	return &ListProposalsResponse{Body: proposals}, nil
}

type DeleteProposalRequest struct {
	auth.AuthInput
	ID uint `path:"id"`
}

func (h *ProposalHandler) HandleDeleteProposal(ctx context.Context, input *DeleteProposalRequest) (*MessageResponse, error) {
	userID, err := h.authHandler.Authorize(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		var proposal models.Proposal
		if err := tx.First(&proposal, input.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return huma.Error404NotFound("Proposal not found")
			}
			return err
		}

		group, err := loadGroup(tx, proposal.GroupID)
		if err != nil {
			return err
		}
		if proposal.ProposedByID != userID && !group.IsAdmin(userID) {
			return huma.Error403Forbidden("Only the proposer or a group admin can delete a proposal")
		}
		if group.Status != models.GroupStatusPlanning {
			return huma.Error422UnprocessableEntity("Proposals can only be deleted while the group is planning")
		}

		// Votes go first so no vote ever references a missing proposal.
		if err := tx.Where("proposal_id = ?", proposal.ID).Delete(&models.Vote{}).Error; err != nil {
			return err
		}
		return tx.Delete(&proposal).Error
	})
	if err != nil {
		return nil, wrapError(err, "Failed to delete proposal")
	}

	return messageResponse("Proposal deleted"), nil
}
