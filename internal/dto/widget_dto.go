package dto

import "github.com/google/uuid"

type WidgetAuthRequest struct {
	TenantId uuid.UUID `json:"tenantId" validate:"required"`
}

type WidgetAuthResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expiresIn"`
}
