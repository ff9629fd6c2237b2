// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package enrich attaches external metadata to structured records. It
// runs two independent idempotent passes: an accession-metadata pass
// over datasets and a title-based DOI pass over research publications.
// Every external lookup goes through the sqlite cache so reruns never
// repeat a call, including lookups that came back not-found.
package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/dbcls/humandbs-sub003/internal/accession"
	"github.com/dbcls/humandbs-sub003/internal/cachestore"
	"github.com/dbcls/humandbs-sub003/internal/httputil"
	"github.com/dbcls/humandbs-sub003/pkg/types"
)

// ddbjSearchBase is the DDBJ search entry endpoint. Declared as a var
// so tests can substitute an httptest server.
var ddbjSearchBase = "https://ddbj.nig.ac.jp/search/entry"

// ddbjEntryTypes maps accession families to DDBJ entry types. Families
// with no entry here have no queryable metadata source.
var ddbjEntryTypes = map[accession.Family]string{
	accession.FamilyJGAD:       "jga-dataset",
	accession.FamilyJGAS:       "jga-study",
	accession.FamilySRA:        "sra-submission",
	accession.FamilyBioProject: "bioproject",
	accession.FamilyGEA:        "gea",
}

// DDBJClient fetches accession metadata from the DDBJ search API,
// backed by the persistent lookup cache.
type DDBJClient struct {
	client *http.Client
	cache  *cachestore.Store
	http   types.HTTPConfig
}

// NewDDBJClient returns a client over the given cache store.
func NewDDBJClient(cache *cachestore.Store, httpCfg types.HTTPConfig) *DDBJClient {
	return &DDBJClient{
		client: &http.Client{Timeout: httpCfg.Timeout},
		cache:  cache,
		http:   httpCfg,
	}
}

// Lookup resolves one accession to its raw metadata document. found is
// false when the registry has no such entry; that outcome is cached so
// the accession is never queried again. Accessions with no metadata
// source report not found without a network call.
func (c *DDBJClient) Lookup(ctx context.Context, acc string) (payload json.RawMessage, found bool, err error) {
	entryType, ok := ddbjEntryTypes[accession.Classify(acc)]
	if !ok {
		return nil, false, nil
	}

	cached, state, err := c.cache.Get("accession", acc)
	if err != nil {
		return nil, false, err
	}
	switch state {
	case cachestore.StateFound:
		return cached, true, nil
	case cachestore.StateNotFound:
		return nil, false, nil
	}

	payload, found, err = c.fetchEntry(ctx, entryType, acc)
	if err != nil {
		return nil, false, err
	}
	if !found {
		if err := c.cache.PutNotFound("accession", acc); err != nil {
			return nil, false, err
		}
		return nil, false, nil
	}
	if err := c.cache.Put("accession", acc, payload); err != nil {
		return nil, false, err
	}
	return payload, true, nil
}

func (c *DDBJClient) fetchEntry(ctx context.Context, entryType, acc string) (json.RawMessage, bool, error) {
	url := fmt.Sprintf("%s/%s/%s.json", ddbjSearchBase, entryType, acc)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.http.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := httputil.DoWithRetry(ctx, c.client, req, c.http.MaxRetries, c.http.RetryDelay)
	if err != nil {
		return nil, false, fmt.Errorf("DDBJ lookup %s: %w", acc, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, false, nil
	case resp.StatusCode != http.StatusOK:
		return nil, false, fmt.Errorf("DDBJ lookup %s: HTTP %d", acc, resp.StatusCode)
	}

	var payload json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, false, fmt.Errorf("DDBJ lookup %s: parsing response: %w", acc, err)
	}
	return payload, true, nil
}

// StudyDatasets returns the dataset accessions belonging to a JGA
// study, for expanding study-level citations. It satisfies
// accession.StudyLookup.
func (c *DDBJClient) StudyDatasets(ctx context.Context, jgasID string) ([]string, error) {
	payload, found, err := c.Lookup(ctx, jgasID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	// The entry document nests downstream references under properties;
	// scanning the raw text for JGAD accessions is robust against the
	// schema variations DDBJ has shipped over the years.
	var ids []string
	seen := make(map[string]bool)
	for _, acc := range accession.Extract(string(payload)) {
		if acc.Family == accession.FamilyJGAD && !seen[acc.ID] {
			seen[acc.ID] = true
			ids = append(ids, acc.ID)
		}
	}
	return ids, nil
}

// Delay pauses between external calls, honoring cancellation.
func Delay(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
