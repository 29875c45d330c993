package db

import (
	"errors"
	"fmt"

	"veritas/internal/domain"

	"gorm.io/gorm"
)

var errDBUnavailable = fmt.Errorf("%w: db unavailable", domain.ErrStoreUnavailable)

// translate maps gorm errors onto domain sentinels. Anything unrecognized is
// an unavailable store.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", domain.ErrAlreadyExists, err)
	case errors.Is(err, gorm.ErrCheckConstraintViolated):
		return fmt.Errorf("%w: %v", domain.ErrRecordCorrupt, err)
	default:
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
}

func copyBytes(in []byte) []byte {
	if in == nil {
		return nil
	}
	out := make([]byte, len(in))
	copy(out, in)
	return out
}
