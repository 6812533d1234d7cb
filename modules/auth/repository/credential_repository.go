package repository

import (
	"context"
	"database/sql"

	"go-agenda-sync/core/database"
	"go-agenda-sync/core/logger"
	"go-agenda-sync/modules/auth/entity"
)

type CredentialRepositoryInterface interface {
	GetCredential(ctx context.Context, userKey string, provider string) (*entity.OAuthCredential, error)
	SaveOrUpdateCredential(ctx context.Context, credential *entity.OAuthCredential) error
	ClearCredential(ctx context.Context, userKey string, provider string) error
}

type CredentialRepository struct {
	DB database.Database
}

func NewCredentialRepository(db database.Database) *CredentialRepository {
	return &CredentialRepository{DB: db}
}

func (r *CredentialRepository) GetCredential(ctx context.Context, userKey string, provider string) (*entity.OAuthCredential, error) {
	var credential entity.OAuthCredential
	query := `
		SELECT * FROM oauth_credentials
		WHERE user_key = $1 AND provider = $2 AND is_active = true
	`
	err := r.DB.GetContext(ctx, &credential, query, userKey, provider)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Error("CredentialRepository:GetCredential:Error", "error", err, "user_key", userKey, "provider", provider)
		return nil, err
	}
	return &credential, nil
}

func (r *CredentialRepository) SaveOrUpdateCredential(ctx context.Context, credential *entity.OAuthCredential) error {
	query := `
		INSERT INTO oauth_credentials (
			user_key, provider, access_token, refresh_token, scopes,
			token_expires_at, is_active, created_at, updated_at
		)
		VALUES (
			:user_key, :provider, :access_token, :refresh_token, :scopes,
			:token_expires_at, :is_active, NOW(), NOW()
		)
		ON CONFLICT (user_key, provider)
		DO UPDATE SET
			access_token = EXCLUDED.access_token,
			refresh_token = COALESCE(EXCLUDED.refresh_token, oauth_credentials.refresh_token),
			scopes = EXCLUDED.scopes,
			token_expires_at = EXCLUDED.token_expires_at,
			is_active = EXCLUDED.is_active,
			updated_at = NOW()
	`
	_, err := r.DB.NamedExecContext(ctx, query, credential)
	if err != nil {
		logger.Error("CredentialRepository:SaveOrUpdateCredential:Error", "error", err, "user_key", credential.UserKey)
		return err
	}
	return nil
}

func (r *CredentialRepository) ClearCredential(ctx context.Context, userKey string, provider string) error {
	query := `DELETE FROM oauth_credentials WHERE user_key = $1 AND provider = $2`
	if err := r.DB.ExecContext(ctx, query, userKey, provider); err != nil {
		logger.Error("CredentialRepository:ClearCredential:Error", "error", err, "user_key", userKey, "provider", provider)
		return err
	}
	return nil
}
