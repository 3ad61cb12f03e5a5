package session

import "github.com/seatbelt-tracker/seatbelt-admin/internal/common/apperrors"

var (
	ErrSessionError      apperrors.Error = apperrors.New("session error")
	ErrIncompleteSession apperrors.Error = ErrSessionError.New("session is missing required fields")
	ErrStoreWrite        apperrors.Error = ErrSessionError.New("unable to write session")
	ErrStoreClear        apperrors.Error = ErrSessionError.New("unable to clear session")
)
