package join

import (
	"fmt"
	"strings"

	"app-reconciler/internal/config"
	"app-reconciler/internal/csvio"
)

// SiteLocations is the content of a site locations import file.
type SiteLocations struct {
	Header []string
	Rows   []csvio.Row
	// Skipped counts record rows whose site location already exists.
	Skipped int
}

// SiteLocationHeader returns the header of a site locations import file.
func SiteLocationHeader(cfg config.JoinConfig) []string {
	header := []string{"client", "client_name", "job_id"}
	for _, p := range cfg.AddressParts {
		header = append(header, cfg.AddressPrefix+p)
	}

	return append(header, "property_type", "account_status")
}

// BuildSiteLocations returns one site location per record row that has no
// matching entry in existing. Rows are grouped by client in first-seen order
// and carry the client id looked up in clients.
func BuildSiteLocations(records, clients, existing []csvio.Row, cfg config.JoinConfig) (*SiteLocations, error) {
	clientIDs := make(map[string]string, len(clients))
	for _, c := range clients {
		if _, ok := clientIDs[c[cfg.SiteClientName]]; !ok {
			clientIDs[c[cfg.SiteClientName]] = c[cfg.ClientID]
		}
	}

	r := New(cfg, nil, nil)

	var (
		order  []string
		byName = make(map[string][]csvio.Row)
		out    = &SiteLocations{Header: SiteLocationHeader(cfg)}
	)

	for i, rec := range records {
		for _, c := range []string{cfg.ClientName, cfg.AccountRef, cfg.PropertyType, cfg.AccountStatus} {
			if !rec.Has(c) {
				return nil, fmt.Errorf("record row %d: %w: %s", i+1, ErrMissingColumn, c)
			}
		}

		name := strings.TrimSpace(rec[cfg.ClientName])

		probe := rec.Clone()
		probe[cfg.ClientName] = name

		if r.exists(probe, existing) {
			out.Skipped++
			continue
		}

		site := csvio.Row{
			"client_name":    name,
			"job_id":         rec[cfg.AccountRef],
			"property_type":  rec[cfg.PropertyType],
			"account_status": rec[cfg.AccountStatus],
		}

		for _, p := range cfg.AddressParts {
			site[cfg.AddressPrefix+p] = rec[cfg.AddressPrefix+p]
		}

		if _, ok := byName[name]; !ok {
			order = append(order, name)
		}

		byName[name] = append(byName[name], site)
	}

	for _, name := range order {
		id, ok := clientIDs[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownClient, name)
		}

		for _, site := range byName[name] {
			site["client"] = id
			out.Rows = append(out.Rows, site)
		}
	}

	return out, nil
}

func (r *Resolver) exists(row csvio.Row, existing []csvio.Row) bool {
	for _, site := range existing {
		if r.matches(row, site) {
			return true
		}
	}

	return false
}
