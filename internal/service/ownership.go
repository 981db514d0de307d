package service

import (
	"fmt"
	"strings"

	domainauth "github.com/target/harvester-api/internal/domain/auth"
	"github.com/target/harvester-api/internal/domain/model"
	"github.com/target/harvester-api/internal/ports"
)

// Ownership policy names accepted by NewOwnershipPolicy.
const (
	OwnershipOpen  = "open"
	OwnershipOwner = "owner"
)

// NewOwnershipPolicy returns the named policy. There is no default: an empty or
// unknown name is an error.
func NewOwnershipPolicy(name string) (ports.OwnershipPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case OwnershipOpen:
		return OpenPolicy{}, nil
	case OwnershipOwner:
		return OwnerPolicy{}, nil
	default:
		return nil, fmt.Errorf("unknown ownership policy %q (want %q or %q)", name, OwnershipOpen, OwnershipOwner)
	}
}

// OpenPolicy lets every authenticated caller see and change every project.
// Projects created under it still record the creating principal.
type OpenPolicy struct{}

func (OpenPolicy) Name() string { return OwnershipOpen }

func (OpenPolicy) OwnerForCreate(p *domainauth.Principal) *string { return principalID(p) }

func (OpenPolicy) ListOwnerFilter(*domainauth.Principal) *string { return nil }

func (OpenPolicy) CanAccess(*domainauth.Principal, *model.Project) bool { return true }

// OwnerPolicy restricts each project to the principal that created it.
type OwnerPolicy struct{}

func (OwnerPolicy) Name() string { return OwnershipOwner }

func (OwnerPolicy) OwnerForCreate(p *domainauth.Principal) *string { return principalID(p) }

// ListOwnerFilter for an anonymous caller filters on an id no project carries.
func (OwnerPolicy) ListOwnerFilter(p *domainauth.Principal) *string {
	if id := principalID(p); id != nil {
		return id
	}
	none := ""
	return &none
}

func (OwnerPolicy) CanAccess(p *domainauth.Principal, project *model.Project) bool {
	if p == nil || project == nil || project.OwnerID == nil {
		return false
	}
	return *project.OwnerID == p.UserID
}

func principalID(p *domainauth.Principal) *string {
	if p == nil || p.UserID == "" {
		return nil
	}
	id := p.UserID
	return &id
}
