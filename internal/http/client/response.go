package client

import (
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/invoicer/internal/client"
)

type detailsDTO struct {
	Name         string `json:"name"         validate:"required,max=200"`
	Email        string `json:"email"        validate:"required,email"`
	Phone        string `json:"phone"`
	AddressLine1 string `json:"addressLine1"`
	AddressLine2 string `json:"addressLine2"`
	City         string `json:"city"`
	State        string `json:"state"`
	PostalCode   string `json:"postalCode"`
	Country      string `json:"country"`
	TaxNumber    string `json:"taxNumber"`
	Notes        string `json:"notes"`
}

func (d detailsDTO) toDetails() client.Details {
	return client.Details(d)
}

func toDetailsDTO(d client.Details) detailsDTO {
	return detailsDTO(d)
}

type clientResponse struct {
	ID uuid.UUID `json:"id"`
	detailsDTO
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toResponse(c *client.Client) clientResponse {
	return clientResponse{
		ID:         c.ID,
		detailsDTO: toDetailsDTO(c.Details),
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}

func toResponseList(clients []*client.Client) []clientResponse {
	resp := make([]clientResponse, len(clients))
	for i, c := range clients {
		resp[i] = toResponse(c)
	}

	return resp
}
