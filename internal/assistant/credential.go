package assistant

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// LoadAPIKey reads envVar from the process environment, falling back to the
// dotenv file at envFile. The process environment always wins and is never
// modified. A missing envFile is not an error.
func LoadAPIKey(envFile string, envVar string) (string, error) {
	if key := strings.TrimSpace(os.Getenv(envVar)); key != "" {
		return key, nil
	}

	if strings.TrimSpace(envFile) != "" {
		values, err := godotenv.Read(envFile)
		switch {
		case err == nil:
			if key := strings.TrimSpace(values[envVar]); key != "" {
				return key, nil
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return "", fmt.Errorf("read env file %q: %w", envFile, err)
		}
	}

	return "", &CredentialError{Env: envVar}
}
