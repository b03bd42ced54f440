package repository

import (
	"context"
	"errors"
	"net/http"

	"workshop-web/internal/apiclient"
	"workshop-web/internal/models"
)

type AuthRepository struct {
	client *apiclient.Client
}

func NewAuthRepository(client *apiclient.Client) *AuthRepository {
	return &AuthRepository{client: client}
}

func (r *AuthRepository) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	env, err := r.client.Request(ctx, http.MethodPost, "/auth/login", req)
	if err != nil {
		return nil, err
	}
	if err := env.Err(); err != nil {
		return nil, err
	}

	var resp models.LoginResponse
	if err := env.Decode(&resp); err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, errors.New("login response did not include a token")
	}
	return &resp, nil
}

// Logout tells the backend to revoke the current token. The local session
// is cleared by the caller regardless of the outcome.
func (r *AuthRepository) Logout(ctx context.Context) error {
	env, err := r.client.Request(ctx, http.MethodPost, "/auth/logout", nil)
	if err != nil {
		return err
	}
	return env.Err()
}
