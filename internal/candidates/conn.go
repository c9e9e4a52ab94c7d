package candidates

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/hireloop/talent-search/internal/config"
)

// BuildConnString constructs the candidate-store connection string from
// configuration. Under the hosted environment sentinel the transaction
// pooler is used (IPv4, required on the platform); locally the direct
// endpoint is used.
func BuildConnString(cfg config.SupabaseConfig) (string, error) {
	ref, err := projectRef(cfg.URL)
	if err != nil {
		return "", err
	}
	if cfg.DBPassword == "" {
		return "", eris.New("candidates: database password not set")
	}

	password := url.QueryEscape(cfg.DBPassword)

	if cfg.RailwayEnvironment != "" {
		// Pooler user carries the project ref.
		return fmt.Sprintf("postgresql://%s.%s:%s@%s:%d/%s",
			cfg.DBUser, ref, password, cfg.PoolerHost, cfg.PoolerPort, cfg.DBName), nil
	}

	return fmt.Sprintf("postgresql://%s:%s@db.%s.supabase.co:%d/%s",
		cfg.DBUser, password, ref, cfg.DirectPort, cfg.DBName), nil
}

// projectRef extracts the project reference from the project URL, e.g.
// https://abcdefgh.supabase.co -> abcdefgh.
func projectRef(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "", eris.New("candidates: invalid project URL")
	}
	ref, _, ok := strings.Cut(u.Host, ".")
	if !ok || ref == "" {
		return "", eris.New("candidates: invalid project URL")
	}
	return ref, nil
}
