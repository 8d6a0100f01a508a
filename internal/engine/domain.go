package engine

import (
	"fmt"

	"github.com/MKhiriev/wallet-cloud-sync/internal/retry"
	"github.com/MKhiriev/wallet-cloud-sync/models"
)

// Domain is a named sync stream that bundles one or more subkinds under a
// single state machine and remote container.
type Domain struct {
	Name     string
	SubKinds []models.SubKind

	// BatchLimit caps the queue rows of one upload pass.
	BatchLimit int

	Backoff retry.Profile

	// AllowUploadDelay enables the randomized wait before uploads.
	AllowUploadDelay bool
}

// Built-in domains.
var (
	BackupDomain = Domain{
		Name:             "backup",
		SubKinds:         []models.SubKind{models.SubKindPayment, models.SubKindContact},
		BatchLimit:       20,
		Backoff:          retry.FastProfile,
		AllowUploadDelay: true,
	}
	CardsDomain = Domain{
		Name:       "cards",
		SubKinds:   []models.SubKind{models.SubKindCard},
		BatchLimit: 10,
		Backoff:    retry.FastProfile,
	}
	SeedDomain = Domain{
		Name:       "seed",
		SubKinds:   []models.SubKind{models.SubKindSeed},
		BatchLimit: 1,
		Backoff:    retry.SlowProfile,
	}
)

var domainsByName = map[string]Domain{
	BackupDomain.Name: BackupDomain,
	CardsDomain.Name:  CardsDomain,
	SeedDomain.Name:   SeedDomain,
}

// LookupDomains resolves domain names. An empty list selects every
// built-in domain.
func LookupDomains(names []string) ([]Domain, error) {
	if len(names) == 0 {
		return []Domain{BackupDomain, CardsDomain, SeedDomain}, nil
	}

	domains := make([]Domain, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		d, ok := domainsByName[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownDomain, name)
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		domains = append(domains, d)
	}
	return domains, nil
}

// Has reports whether sk belongs to the domain.
func (d Domain) Has(sk models.SubKind) bool {
	for _, own := range d.SubKinds {
		if own == sk {
			return true
		}
	}
	return false
}
