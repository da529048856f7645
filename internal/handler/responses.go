package handler

import (
	"uti-assess/internal/domain"
	"uti-assess/internal/dto"
	"uti-assess/internal/service"

	"github.com/gofiber/fiber/v2"
)

func toUserResponse(u *domain.User) dto.UserResponse {
	return dto.UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.DisplayName(),
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
	}
}

func toTokenResponse(p service.TokenPair) dto.TokenResponse {
	return dto.TokenResponse{
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(p.ExpiresIn.Seconds()),
	}
}

func toAuthResponse(r *service.AuthResult) dto.AuthResponse {
	return dto.AuthResponse{
		TokenResponse: toTokenResponse(r.Tokens),
		User:          toUserResponse(r.User),
	}
}

// parseBody decodes a JSON body into out, mapping decode failures to INVALID_INPUT.
func parseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return domain.NewInvalidInputError("Request body must be valid JSON")
	}
	return nil
}
