package handlers

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/roamly/grouptrip-api/internal/auth"
	"github.com/roamly/grouptrip-api/internal/models"
	"github.com/roamly/grouptrip-api/internal/notifier"
	"gorm.io/gorm"
)

type GroupHandler struct {
	db          *gorm.DB
	notifier    notifier.Notifier
	authHandler *auth.AuthHandler
}

func NewGroupHandler(db *gorm.DB, notifier notifier.Notifier, authHandler *auth.AuthHandler) *GroupHandler {
	return &GroupHandler{db: db, notifier: notifier, authHandler: authHandler}
}

// loadGroup fetches a group with its membership list inside the current
// transaction or session.
func loadGroup(tx *gorm.DB, id uint) (*models.Group, error) {
	var group models.Group
	if err := tx.Preload("Members").Preload("Members.User").First(&group, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, huma.Error404NotFound("Group not found")
		}
		return nil, huma.Error500InternalServerError("Failed to load group: " + err.Error())
	}
	return &group, nil
}

type GroupResponse struct {
	Body struct {
		models.Group
		MemberCount int `json:"member_count"`
	}
}

func groupResponse(group *models.Group) *GroupResponse {
	res := &GroupResponse{}
	res.Body.Group = *group
	res.Body.MemberCount = group.MemberCount()
	return res
}

type CreateGroupRequest struct {
	auth.AuthInput
	Body struct {
		Name            string `json:"name" doc:"Group name" required:"true"`
		MaxParticipants int    `json:"max_participants" doc:"Maximum number of members" required:"true" minimum:"2"`
	}
}

func (h *GroupHandler) HandleCreateGroup(ctx context.Context, input *CreateGroupRequest) (*GroupResponse, error) {
	userID, err := h.authHandler.Authorize(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}

	if input.Body.MaxParticipants < 2 {
		return nil, huma.Error422UnprocessableEntity("A group needs room for at least 2 participants")
	}

	group := models.Group{
		Name:            input.Body.Name,
		MaxParticipants: input.Body.MaxParticipants,
		Status:          models.GroupStatusPlanning,
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&group).Error; err != nil {
			return err
		}

		// The creator is the first member and the first admin.
		member := models.GroupMember{
			GroupID:  group.ID,
			UserID:   userID,
			Role:     models.RoleAdmin,
			JoinedAt: time.Now(),
		}
		return tx.Create(&member).Error
	})
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to create group: " + err.Error())
	}

	created, err := loadGroup(h.db, group.ID)
	if err != nil {
		return nil, err
	}
	return groupResponse(created), nil
}

type GetGroupRequest struct {
	auth.AuthInput
	ID uint `path:"id"`
}

func (h *GroupHandler) HandleGetGroup(ctx context.Context, input *GetGroupRequest) (*GroupResponse, error) {
	if _, err := h.authHandler.Authorize(ctx, input.Cookie); err != nil {
		return nil, err
	}

	group, err := loadGroup(h.db, input.ID)
	if err != nil {
		return nil, err
	}
	return groupResponse(group), nil
}

type ListGroupsRequest struct {
	auth.AuthInput
}

type ListGroupsResponse struct {
	Body []models.Group
}

// HandleListGroups returns the groups the acting user belongs to.
func (h *GroupHandler) HandleListGroups(ctx context.Context, input *ListGroupsRequest) (*ListGroupsResponse, error) {
	userID, err := h.authHandler.Authorize(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}

	var groups []models.Group
	err = h.db.
		Joins("JOIN group_members ON group_members.group_id = groups.id").
		Where("group_members.user_id = ? AND group_members.deleted_at IS NULL", userID).
		Preload("Members").
		Find(&groups).Error
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to list groups")
	}

	return &ListGroupsResponse{Body: groups}, nil
}

type JoinGroupRequest struct {
	auth.AuthInput
	ID uint `path:"id"`
}

func (h *GroupHandler) HandleJoinGroup(ctx context.Context, input *JoinGroupRequest) (*GroupResponse, error) {
	userID, err := h.authHandler.Authorize(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		group, err := loadGroup(tx, input.ID)
		if err != nil {
			return err
		}

		if group.Status != models.GroupStatusPlanning && group.Status != models.GroupStatusVoting {
			return huma.Error422UnprocessableEntity("Group no longer accepts new members")
		}
		if group.IsMember(userID) {
			return huma.Error409Conflict("Already a member of this group")
		}
		if !group.HasCapacity() {
			return huma.Error422UnprocessableEntity("Group is full")
		}

		member := models.GroupMember{
			GroupID:  group.ID,
			UserID:   userID,
			Role:     models.RoleMember,
			JoinedAt: time.Now(),
		}
		return tx.Create(&member).Error
	})
	if err != nil {
		return nil, wrapError(err, "Failed to join group")
	}

	group, err := loadGroup(h.db, input.ID)
	if err != nil {
		return nil, err
	}
	return groupResponse(group), nil
}

type LeaveGroupRequest struct {
	auth.AuthInput
	ID uint `path:"id"`
}

type MessageResponse struct {
	Body struct {
		Message string `json:"message"`
	}
}

func messageResponse(message string) *MessageResponse {
	res := &MessageResponse{}
	res.Body.Message = message
	return res
}

func (h *GroupHandler) HandleLeaveGroup(ctx context.Context, input *LeaveGroupRequest) (*MessageResponse, error) {
	userID, err := h.authHandler.Authorize(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		group, err := loadGroup(tx, input.ID)
		if err != nil {
			return err
		}

		member, ok := group.Member(userID)
		if !ok {
			return huma.Error404NotFound("Not a member of this group")
		}
		if member.Role == models.RoleAdmin && group.AdminCount() == 1 {
			return huma.Error403Forbidden("The last admin cannot leave the group")
		}

		// Hard delete so the (group, user) unique index does not block a
		// later rejoin.
		return tx.Unscoped().Delete(&models.GroupMember{}, member.ID).Error
	})
	if err != nil {
		return nil, wrapError(err, "Failed to leave group")
	}

	return messageResponse("Left the group"), nil
}

type PromoteMemberRequest struct {
	auth.AuthInput
	ID   uint `path:"id"`
	Body struct {
		UserID uint `json:"user_id" doc:"Member to promote to admin" required:"true"`
	}
}

func (h *GroupHandler) HandlePromoteMember(ctx context.Context, input *PromoteMemberRequest) (*MessageResponse, error) {
	actorID, err := h.authHandler.Authorize(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		group, err := loadGroup(tx, input.ID)
		if err != nil {
			return err
		}

		if !group.IsAdmin(actorID) {
			return huma.Error403Forbidden("Only a group admin can promote members")
		}
		member, ok := group.Member(input.Body.UserID)
		if !ok {
			return huma.Error404NotFound("Member not found")
		}
		if member.Role == models.RoleAdmin {
			return huma.Error409Conflict("Member is already an admin")
		}

		return tx.Model(&models.GroupMember{}).Where("id = ?", member.ID).
			Update("role", models.RoleAdmin).Error
	})
	if err != nil {
		return nil, wrapError(err, "Failed to promote member")
	}

	return messageResponse("Member promoted to admin"), nil
}

type StartVotingRequest struct {
	auth.AuthInput
	ID   uint `path:"id"`
	Body struct {
		VotingDeadline *time.Time `json:"voting_deadline,omitempty" doc:"Optional deadline for casting votes"`
	}
}

func (h *GroupHandler) HandleStartVoting(ctx context.Context, input *StartVotingRequest) (*GroupResponse, error) {
	actorID, err := h.authHandler.Authorize(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}

	var group *models.Group
	err = h.db.Transaction(func(tx *gorm.DB) error {
		group, err = loadGroup(tx, input.ID)
		if err != nil {
			return err
		}

		if !group.IsAdmin(actorID) {
			return huma.Error403Forbidden("Only a group admin can start voting")
		}
		if group.Status != models.GroupStatusPlanning {
			return huma.Error422UnprocessableEntity("Voting can only start while the group is planning")
		}

		group.Status = models.GroupStatusVoting
		group.VotingDeadline = input.Body.VotingDeadline
		return tx.Save(group).Error
	})
	if err != nil {
		return nil, wrapError(err, "Failed to start voting")
	}

	if h.notifier != nil {
		if err := h.notifier.NotifyVotingStarted(*group); err != nil {
			slog.Warn("Failed to send voting-started notification", "group_id", group.ID, "error", err)
		}
	}

	return groupResponse(group), nil
}

type EndVotingRequest struct {
	auth.AuthInput
	ID uint `path:"id"`
}

type EndVotingResponse struct {
	Body struct {
		models.Group
		Winner models.Proposal `json:"winner"`
	}
}

func (h *GroupHandler) HandleEndVoting(ctx context.Context, input *EndVotingRequest) (*EndVotingResponse, error) {
	actorID, err := h.authHandler.Authorize(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}

	var group *models.Group
	var winner *models.Proposal
	err = h.db.Transaction(func(tx *gorm.DB) error {
		group, err = loadGroup(tx, input.ID)
		if err != nil {
			return err
		}

		if !group.IsAdmin(actorID) {
			return huma.Error403Forbidden("Only a group admin can end voting")
		}
		if group.Status != models.GroupStatusVoting {
			return huma.Error422UnprocessableEntity("Group is not voting")
		}

		var proposals []models.Proposal
		if err := tx.Where("group_id = ?", group.ID).Find(&proposals).Error; err != nil {
			return err
		}
		winner = models.ElectWinner(proposals)
		if winner == nil {
			return huma.Error422UnprocessableEntity("No proposals to decide among")
		}

		group.Status = models.GroupStatusDecided
		group.WinningProposalID = &winner.ID
		return tx.Save(group).Error
	})
	if err != nil {
		return nil, wrapError(err, "Failed to end voting")
	}

	if h.notifier != nil {
		if err := h.notifier.NotifyVotingClosed(*group, *winner); err != nil {
			slog.Warn("Failed to send voting-closed notification", "group_id", group.ID, "error", err)
		}
	}

	res := &EndVotingResponse{}
	res.Body.Group = *group
	res.Body.Winner = *winner
	return res, nil
}

type CancelGroupRequest struct {
	auth.AuthInput
	ID uint `path:"id"`
}

// HandleCancelGroup moves a group (and its open booking session, if any)
// to cancelled.
func (h *GroupHandler) HandleCancelGroup(ctx context.Context, input *CancelGroupRequest) (*GroupResponse, error) {
	actorID, err := h.authHandler.Authorize(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}

	var group *models.Group
	err = h.db.Transaction(func(tx *gorm.DB) error {
		group, err = loadGroup(tx, input.ID)
		if err != nil {
			return err
		}

		if !group.IsAdmin(actorID) {
			return huma.Error403Forbidden("Only a group admin can cancel the group")
		}
		if group.IsTerminal() {
			return huma.Error422UnprocessableEntity("Group is already " + string(group.Status))
		}

		var session models.BookingSession
		err := tx.Where("group_id = ?", group.ID).First(&session).Error
		if err == nil && session.Status != models.BookingStatusBooked {
			session.Status = models.BookingStatusCancelled
			if err := tx.Save(&session).Error; err != nil {
				return err
			}
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		group.Status = models.GroupStatusCancelled
		return tx.Save(group).Error
	})
	if err != nil {
		return nil, wrapError(err, "Failed to cancel group")
	}

	return groupResponse(group), nil
}

// wrapError passes huma status errors through unchanged and hides anything
// else behind a 500.
func wrapError(err error, message string) error {
	var statusErr huma.StatusError
	if errors.As(err, &statusErr) {
		return err
	}
	return huma.Error500InternalServerError(message + ": " + err.Error())
}
