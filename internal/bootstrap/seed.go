package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/target/harvester-api/config"
	"github.com/target/harvester-api/internal/devseed"
	domainauth "github.com/target/harvester-api/internal/domain/auth"
	"github.com/target/harvester-api/internal/domain/model"
	"github.com/target/harvester-api/internal/service"
)

// SeedDeps groups the inputs of NewSeeder.
type SeedDeps struct {
	Config *config.AppConfig
	DB     *sql.DB
	// OwnerEmail names an existing user that will own the seeded projects.
	// Required under the owner policy.
	OwnerEmail string
	Logger     *slog.Logger
}

// NewSeeder builds the demo data seeder over the configured store.
func NewSeeder(ctx context.Context, deps SeedDeps) (devseed.Services, error) {
	if deps.Config == nil {
		return devseed.Services{}, errors.New("seed config is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	repos, err := buildRepositories(deps.Config.Store.Driver, deps.DB)
	if err != nil {
		return devseed.Services{}, err
	}
	policy, err := service.NewOwnershipPolicy(string(deps.Config.Ownership))
	if err != nil {
		return devseed.Services{}, fmt.Errorf("ownership policy: %w", err)
	}

	var owner *domainauth.Principal
	if email := model.NormalizeEmail(deps.OwnerEmail); email != "" {
		user, lookupErr := repos.Users.GetByEmail(ctx, email)
		if lookupErr != nil {
			return devseed.Services{}, fmt.Errorf("seed owner %s: %w", email, lookupErr)
		}
		owner = &domainauth.Principal{UserID: user.ID, Email: user.Email, Issuer: "local"}
	} else if deps.Config.Ownership == config.OwnershipOwner {
		return devseed.Services{}, errors.New("OWNERSHIP_POLICY=owner needs an owner email for seeded projects")
	}

	c := buildDomainServices(domainServicesOptions{Repos: repos, Policy: policy, Logger: logger})
	return devseed.Services{
		Projects: c.Projects,
		Jobs:     c.Jobs,
		Runs:     c.Runs,
		Results:  c.Results,
		Owner:    owner,
	}, nil
}
