// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package accession

import (
	"context"
	"fmt"
	"time"

	"github.com/dbcls/humandbs-sub003/internal/expiry"
)

// StudyLookup resolves a JGAS study accession to its member JGAD dataset
// accessions. The production implementation queries the DDBJ search API;
// tests supply a map-backed fake.
type StudyLookup interface {
	Datasets(ctx context.Context, jgasID string) ([]string, error)
}

// StudyLookupFunc adapts a function to the StudyLookup interface.
type StudyLookupFunc func(ctx context.Context, jgasID string) ([]string, error)

// Datasets implements StudyLookup.
func (f StudyLookupFunc) Datasets(ctx context.Context, jgasID string) ([]string, error) {
	return f(ctx, jgasID)
}

// Memoize wraps lookup with an in-memory cache so a study cited on
// many pages of the same run is resolved once. Failed lookups are not
// cached, letting a transient error retry on the next page.
func Memoize(lookup StudyLookup, ttl time.Duration) StudyLookup {
	cache := expiry.New[[]string](ttl)
	return StudyLookupFunc(func(ctx context.Context, jgasID string) ([]string, error) {
		if members, ok := cache.Get(jgasID); ok {
			return members, nil
		}
		members, err := lookup.Datasets(ctx, jgasID)
		if err != nil {
			return nil, err
		}
		cache.Set(jgasID, members)
		return members, nil
	})
}

// ExpandStudies replaces JGAS accessions in accs with their member JGAD
// accessions via lookup, returning the expanded dataset IDs and the
// study IDs that were expanded (kept separately for audit). A study
// whose lookup fails or returns nothing stays in the dataset list
// untouched so the citation is never dropped.
func ExpandStudies(ctx context.Context, lookup StudyLookup, accs []Accession) (datasetIDs, studyIDs []string, err error) {
	seen := make(map[string]bool)
	add := func(id string) {
		if !seen[id] {
			seen[id] = true
			datasetIDs = append(datasetIDs, id)
		}
	}

	var firstErr error
	for _, a := range accs {
		if a.Family != FamilyJGAS || lookup == nil {
			add(a.ID)
			continue
		}

		members, lookupErr := lookup.Datasets(ctx, a.ID)
		if lookupErr != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("expanding %s: %w", a.ID, lookupErr)
			}
			add(a.ID)
			continue
		}
		if len(members) == 0 {
			add(a.ID)
			continue
		}

		studyIDs = append(studyIDs, a.ID)
		for _, m := range members {
			add(m)
		}
	}
	return datasetIDs, studyIDs, firstErr
}
