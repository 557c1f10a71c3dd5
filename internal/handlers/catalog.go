package handlers

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"github.com/roamly/grouptrip-api/internal/auth"
	"github.com/roamly/grouptrip-api/internal/models"
	"gorm.io/gorm"
)

type CatalogHandler struct {
	db          *gorm.DB
	authHandler *auth.AuthHandler
}

func NewCatalogHandler(db *gorm.DB, authHandler *auth.AuthHandler) *CatalogHandler {
	return &CatalogHandler{db: db, authHandler: authHandler}
}

type CreateOfferRequest struct {
	auth.AuthInput
	Body struct {
		Title          string   `json:"title" doc:"Package title" required:"true"`
		Destination    string   `json:"destination" doc:"Destination name" required:"true"`
		Country        string   `json:"country" doc:"Destination country"`
		City           string   `json:"city" doc:"Destination city"`
		HotelName      string   `json:"hotel_name" doc:"Hotel name"`
		PricePerPerson float64  `json:"price_per_person" doc:"Price per person" required:"true" minimum:"0"`
		Amenities      []string `json:"amenities" doc:"Amenity tags (board type is derived from these)"`
	}
}

type OfferResponse struct {
	Body models.CatalogOffer
}

func (h *CatalogHandler) HandleCreateOffer(ctx context.Context, input *CreateOfferRequest) (*OfferResponse, error) {
	if _, err := h.authHandler.Authorize(ctx, input.Cookie); err != nil {
		return nil, err
	}

	if input.Body.PricePerPerson < 0 {
		return nil, huma.Error422UnprocessableEntity("Price per person cannot be negative")
	}

	offer := models.CatalogOffer{
		Title:          input.Body.Title,
		Destination:    input.Body.Destination,
		Country:        input.Body.Country,
		City:           input.Body.City,
		HotelName:      input.Body.HotelName,
		PricePerPerson: input.Body.PricePerPerson,
		Amenities:      input.Body.Amenities,
	}

	if err := h.db.Create(&offer).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to create offer: " + err.Error())
	}

	return &OfferResponse{Body: offer}, nil
}

type ListOffersRequest struct {
	auth.AuthInput
}

type ListOffersResponse struct {
	Body []models.CatalogOffer
}

func (h *CatalogHandler) HandleListOffers(ctx context.Context, input *ListOffersRequest) (*ListOffersResponse, error) {
	if _, err := h.authHandler.Authorize(ctx, input.Cookie); err != nil {
		return nil, err
	}

	var offers []models.CatalogOffer
	if err := h.db.Order("id asc").Find(&offers).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to list offers")
	}

	return &ListOffersResponse{Body: offers}, nil
}

type GetOfferRequest struct {
	auth.AuthInput
	ID uint `path:"id"`
}

func (h *CatalogHandler) HandleGetOffer(ctx context.Context, input *GetOfferRequest) (*OfferResponse, error) {
	if _, err := h.authHandler.Authorize(ctx, input.Cookie); err != nil {
		return nil, err
	}

	var offer models.CatalogOffer
	if err := h.db.First(&offer, input.ID).Error; err != nil {
		return nil, huma.Error404NotFound("Offer not found")
	}

	return &OfferResponse{Body: offer}, nil
}
