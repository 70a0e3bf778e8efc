package agent

import (
	"fmt"
	"os"
	"strings"
)

// ConfigError reports every required environment variable that is missing,
// not just the first one.
type ConfigError struct {
	Missing []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("missing required environment variables: %s",
		strings.Join(e.Missing, ", "))
}

// RequireEnv checks that every named environment variable has a non-empty
// value. It must run before any connection or resource acquisition so a
// misconfigured process fails without partial setup.
func RequireEnv(names ...string) error {
	missing := []string{}
	for _, name := range names {
		if value, ok := os.LookupEnv(name); !ok || value == "" {
			missing = append(missing, name)
		}
	}

	if len(missing) > 0 {
		return &ConfigError{Missing: missing}
	}
	return nil
}
