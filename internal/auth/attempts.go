package auth

import (
	"log/slog"
)

// LoginAttemptGuard counts consecutive failed authentications per user and
// locks the account once the configured maximum is reached.
type LoginAttemptGuard struct {
	repo        AttemptsRepositoryAPI
	maxAttempts int
	logger      *slog.Logger
}

func NewLoginAttemptGuard(repo AttemptsRepositoryAPI, maxAttempts int, logger *slog.Logger) *LoginAttemptGuard {
	return &LoginAttemptGuard{
		repo:        repo,
		maxAttempts: maxAttempts,
		logger:      logger,
	}
}

// CheckForLocking registers one failed attempt. It returns the new attempt
// count, or -1 when the user does not exist; unknown users never surface an
// error so callers cannot leak account existence through the failure path.
// The Nth failure locks: the comparison is >=, so reaching maxAttempts is
// enough.
func (g *LoginAttemptGuard) CheckForLocking(username string) (int, error) {
	count, err := g.repo.IncrementLoginAttempts(username)
	if err != nil {
		return 0, err
	}
	if count < 0 {
		return -1, nil
	}

	if count >= g.maxAttempts {
		locked, err := g.repo.LockAccount(username)
		if err != nil {
			return count, err
		}
		if locked {
			g.logger.Warn("account locked after repeated failed logins",
				"username", username,
				"attempts", count,
				"max_attempts", g.maxAttempts)
		}
	}

	return count, nil
}

// ClearLoginAttempts resets the counter after a successful login. A zero
// count is a no-op with no write. Clearing never unlocks an account; that
// is a separate administrative action.
func (g *LoginAttemptGuard) ClearLoginAttempts(username string) error {
	count, err := g.repo.GetLoginAttempts(username)
	if err != nil {
		return err
	}
	if count == 0 {
		return nil
	}
	return g.repo.ResetLoginAttempts(username)
}
