package usecase

import (
	"github.com/shopkite/ordering-api/internal/domain"
	"github.com/shopkite/ordering-api/internal/repository"
)

// translateLockErr converts a Postgres lock-wait timeout into the domain
// condition callers may retry on. Other errors pass through untouched.
func translateLockErr(err error) error {
	if repository.IsLockTimeout(err) {
		return domain.ErrLockTimeout
	}
	return err
}
