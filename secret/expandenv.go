package secret

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"slices"
	"strings"
)

// ErrMissingEnv indicates a ${VAR} reference to an unset variable.
var ErrMissingEnv = errors.New("secret: missing required environment variables")

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// ExpandEnvStrict expands environment variables in s.
//
//   - $VAR and ${VAR} are expanded via os.ExpandEnv.
//   - ${VAR} with VAR unset is an error naming every missing variable.
//   - $$ emits a literal $.
func ExpandEnvStrict(s string) (string, error) {
	const dollar = "\x00TIERCACHE_DOLLAR\x00"
	s = strings.ReplaceAll(s, "$$", dollar)

	var missing []string
	for _, m := range envVarPattern.FindAllStringSubmatch(s, -1) {
		if _, ok := os.LookupEnv(m[1]); !ok && !slices.Contains(missing, m[1]) {
			missing = append(missing, m[1])
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return "", fmt.Errorf("%w: %s", ErrMissingEnv, strings.Join(missing, ", "))
	}

	s = os.ExpandEnv(s)
	return strings.ReplaceAll(s, dollar, "$"), nil
}
