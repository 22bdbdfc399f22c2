package chat

import "errors"

var (
	ErrStoreLoad        = errors.New("message store load failed")
	ErrStorePersist     = errors.New("message store persist failed")
	ErrDuplicateSession = errors.New("duplicate session id")
	ErrDelivery         = errors.New("session delivery failed")
	ErrUnknownSession   = errors.New("unknown session")
)
