package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/ashgrove-labs/hearth-core/internal/infrastructure/logging"
)

// seedPasswordBytes is the number of random bytes for the seed admin password.
const seedPasswordBytes = 16

// SeedAdmin creates the initial admin account on first boot if no users
// exist. The generated password is logged and must be changed immediately.
// Returns the generated password (empty string if seeding was skipped).
func SeedAdmin(store *Store, logger *logging.Logger) (string, error) {
	if store.UserCount() > 0 {
		logger.Info("users exist, skipping admin seed")
		return "", nil
	}

	passwordBytes := make([]byte, seedPasswordBytes)
	if _, err := rand.Read(passwordBytes); err != nil {
		return "", fmt.Errorf("generating seed password: %w", err)
	}
	// Hex alone has no uppercase or symbol; the prefix satisfies the policy.
	password := "Aa1!" + hex.EncodeToString(passwordBytes)

	admin, err := store.AddUser("admin", "", password)
	if err != nil {
		return "", fmt.Errorf("creating seed admin: %w", err)
	}

	adminRole, err := store.RoleByName(RoleNameAdmin)
	if err != nil {
		return "", fmt.Errorf("looking up admin role: %w", err)
	}
	if err := store.AssignRoleToUser(admin.ID, adminRole.ID); err != nil {
		return "", fmt.Errorf("assigning admin role: %w", err)
	}

	logger.Warn("seed admin account created",
		"username", "admin",
		"password", password,
		"action_required", "change this password immediately",
	)

	return password, nil
}
