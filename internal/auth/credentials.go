package auth

import (
	"encoding/json"
	"fmt"
	"os"
)

// serviceAccount is the subset of the identity-provider service account key
// file the verifier needs. Only the project binding matters here; the
// private key is never used because this service only verifies tokens.
type serviceAccount struct {
	ProjectID   string `json:"project_id"`
	ClientEmail string `json:"client_email"`
}

// ProjectIDFromCredentials reads the configured service account file and
// returns the identity-provider project id tokens must be bound to.
func ProjectIDFromCredentials(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read credentials file %s: %w", path, err)
	}

	var account serviceAccount
	if err := json.Unmarshal(data, &account); err != nil {
		return "", fmt.Errorf("failed to parse credentials file %s: %w", path, err)
	}

	if account.ProjectID == "" {
		return "", fmt.Errorf("credentials file %s has no project_id", path)
	}

	return account.ProjectID, nil
}
