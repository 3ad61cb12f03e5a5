package identity

import "github.com/seatbelt-tracker/seatbelt-admin/internal/common/apperrors"

var (
	ErrIdentity          apperrors.Error = apperrors.New("identity provider error")
	ErrEmailRequired     apperrors.Error = ErrIdentity.New("Email is required")
	ErrPasswordRequired  apperrors.Error = ErrIdentity.New("Password is required")
	ErrInvalidConfig     apperrors.Error = ErrIdentity.New("invalid identity provider configuration")
	ErrInvalidResponse   apperrors.Error = ErrIdentity.New("unexpected response from identity provider")
	ErrChallengeRequired apperrors.Error = ErrIdentity.New("identity provider requires an additional challenge")
	ErrUnreachable       apperrors.Error = ErrIdentity.New("unable to reach identity provider")
)
