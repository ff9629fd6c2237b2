// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/dbcls/humandbs-sub003/internal/cachestore"
	"github.com/dbcls/humandbs-sub003/internal/httputil"
	"github.com/dbcls/humandbs-sub003/internal/textnorm"
	"github.com/dbcls/humandbs-sub003/pkg/types"
)

// openAlexSearchBase is the OpenAlex Works search endpoint. Declared as
// a var so tests can substitute an httptest server.
var openAlexSearchBase = "https://api.openalex.org/works"

// DOIFinder resolves publication titles to DOIs through the OpenAlex
// Works search, backed by the persistent lookup cache.
type DOIFinder struct {
	client *http.Client
	cache  *cachestore.Store
	http   types.HTTPConfig

	// email joins the OpenAlex polite pool when set.
	email string
}

// NewDOIFinder returns a finder over the given cache store.
func NewDOIFinder(cache *cachestore.Store, httpCfg types.HTTPConfig, email string) *DOIFinder {
	return &DOIFinder{
		client: &http.Client{Timeout: httpCfg.Timeout},
		cache:  cache,
		http:   httpCfg,
		email:  email,
	}
}

// FindDOI searches for a publication by title and returns its bare DOI,
// or found=false when the search has no confident match. Results are
// cached per (humId, title), including misses.
func (f *DOIFinder) FindDOI(ctx context.Context, humID, title string) (doi string, found bool, err error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", false, nil
	}
	key := humID + "|" + title

	cached, state, err := f.cache.Get("doi", key)
	if err != nil {
		return "", false, err
	}
	switch state {
	case cachestore.StateFound:
		return string(cached), true, nil
	case cachestore.StateNotFound:
		return "", false, nil
	}

	doi, found, err = f.search(ctx, title)
	if err != nil {
		return "", false, err
	}
	if !found {
		if err := f.cache.PutNotFound("doi", key); err != nil {
			return "", false, err
		}
		return "", false, nil
	}
	if err := f.cache.Put("doi", key, []byte(doi)); err != nil {
		return "", false, err
	}
	return doi, true, nil
}

func (f *DOIFinder) search(ctx context.Context, title string) (string, bool, error) {
	params := url.Values{
		"filter":   {"title.search:" + sanitizeTitleQuery(title)},
		"per_page": {"1"},
	}
	if f.email != "" {
		params.Set("mailto", f.email)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, openAlexSearchBase+"?"+params.Encode(), nil)
	if err != nil {
		return "", false, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.http.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, f.client, req, f.http.MaxRetries, f.http.RetryDelay)
	if err != nil {
		return "", false, fmt.Errorf("OpenAlex search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", false, fmt.Errorf("OpenAlex search: HTTP %d", resp.StatusCode)
	}

	var body struct {
		Results []struct {
			Title string `json:"title"`
			DOI   string `json:"doi"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", false, fmt.Errorf("OpenAlex search: parsing response: %w", err)
	}

	if len(body.Results) == 0 || body.Results[0].DOI == "" {
		return "", false, nil
	}
	// Only accept the hit when the titles actually agree; OpenAlex
	// returns its best fuzzy match even for garbage queries.
	if !titlesMatch(title, body.Results[0].Title) {
		return "", false, nil
	}
	return strings.TrimPrefix(body.Results[0].DOI, "https://doi.org/"), true, nil
}

// sanitizeTitleQuery strips the characters OpenAlex's filter syntax
// reserves.
func sanitizeTitleQuery(title string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ',', ':', '|':
			return ' '
		}
		return r
	}, title)
}

func titlesMatch(a, b string) bool {
	na := textnorm.NormalizeText(a, textnorm.Options{Lang: "en", Newlines: textnorm.NewlineToSpace})
	nb := textnorm.NormalizeText(b, textnorm.Options{Lang: "en", Newlines: textnorm.NewlineToSpace})
	trim := func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimRight(strings.TrimSpace(s), ".")
	}
	return trim(na) == trim(nb)
}
