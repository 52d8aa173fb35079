// Copyright (c) 2025 ragai project
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package crawlcfg holds the crawl configuration working set: seeds, blocked
// domains, allow rules, auth profiles, recommendations, and the auth-status
// overlay. All schema drift is resolved through the normalize package before
// anything lands here.
package crawlcfg

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/todddb/ragai-console/internal/api"
	"github.com/todddb/ragai-console/internal/model"
	"github.com/todddb/ragai-console/internal/normalize"
)

// =============================================================================
// EDIT STATE
// =============================================================================

// EditKind identifies one of the editable collections. At most one row per
// kind is in edit mode at a time.
type EditKind int

const (
	EditSeed EditKind = iota
	EditBlocked
	EditAllow
	EditAuthProfile
)

// =============================================================================
// STORE
// =============================================================================

// Store is the crawl configuration working set. Safe for concurrent use;
// loaders run in background commands while the UI reads snapshots.
type Store struct {
	mu     sync.Mutex
	client *api.Client
	log    *logrus.Logger

	// Server documents
	allowBlock model.AllowBlockDocument
	crawlerDoc map[string]interface{}
	playwright model.PlaywrightSettings
	agents     map[string]string

	// Derived working state
	recommendations []model.Recommendation
	overlay         model.AuthStatusOverlay

	// View state
	editing                 map[EditKind]string
	recommendationsExpanded bool
}

// NewStore creates an empty store backed by the given client.
func NewStore(client *api.Client, log *logrus.Logger) *Store {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Store{
		client:  client,
		log:     log,
		agents:  map[string]string{},
		editing: map[EditKind]string{},
	}
}

// =============================================================================
// LOADING
// =============================================================================

// Refresh re-fetches every server document. Each loader fails independently:
// a dead auth-status endpoint degrades to an empty overlay, and a failed
// document load keeps the previous copy and reports the error. Called on
// admin unlock and after every successful save.
func (s *Store) Refresh(ctx context.Context) error {
	var errs []error

	var allowBlock model.AllowBlockDocument
	if raw, err := s.client.GetRaw(ctx, "/api/admin/config/allow_block"); err != nil {
		errs = append(errs, err)
	} else {
		allowBlock = decodeAllowBlock(raw)
		s.mu.Lock()
		s.allowBlock = allowBlock
		s.mu.Unlock()
	}

	if raw, err := s.client.GetRaw(ctx, "/api/admin/config/crawler"); err != nil {
		errs = append(errs, err)
	} else {
		var doc map[string]interface{}
		if err := json.Unmarshal(raw, &doc); err != nil {
			errs = append(errs, err)
		} else {
			s.mu.Lock()
			s.crawlerDoc = doc
			s.playwright = playwrightView(doc)
			s.mu.Unlock()
		}
	}

	var agents map[string]string
	if err := s.client.GetJSON(ctx, "/api/admin/config/agents", &agents); err != nil {
		errs = append(errs, err)
	} else {
		s.mu.Lock()
		s.agents = agents
		s.mu.Unlock()
	}

	var recs model.RecommendationList
	if err := s.client.GetJSON(ctx, "/api/admin/candidates/recommendations", &recs); err != nil {
		errs = append(errs, err)
	} else {
		s.mu.Lock()
		s.recommendations = recs.Items
		s.mu.Unlock()
	}

	var overlay model.AuthStatusOverlay
	if err := s.client.GetJSON(ctx, "/api/admin/allowed-urls/auth-status", &overlay); err != nil {
		s.log.WithError(err).Debug("auth-status overlay unavailable, degrading to empty")
		overlay = model.AuthStatusOverlay{}
	}
	s.mu.Lock()
	s.overlay = overlay
	s.mu.Unlock()

	return errors.Join(errs...)
}

// decodeAllowBlock tolerates the legacy document shape: seeds as bare
// strings, rules as shorthand or camelCase objects.
func decodeAllowBlock(raw []byte) model.AllowBlockDocument {
	doc := gjson.ParseBytes(raw)
	var out model.AllowBlockDocument
	for _, seed := range doc.Get("seed_urls").Array() {
		out.SeedURLs = append(out.SeedURLs, normalize.Seed([]byte(seed.Raw)))
	}
	for _, domain := range doc.Get("blocked_domains").Array() {
		if d := normalize.DomainInput(domain.String()); d != "" {
			out.BlockedDomains = append(out.BlockedDomains, d)
		}
	}
	for _, rule := range doc.Get("allow_rules").Array() {
		out.AllowRules = append(out.AllowRules, normalize.AllowRule([]byte(rule.Raw)))
	}
	return out
}

// playwrightView carves the typed playwright block out of the raw crawler
// document. The raw map stays authoritative so unknown server fields survive
// a read-modify-write PUT.
func playwrightView(doc map[string]interface{}) model.PlaywrightSettings {
	block, ok := doc["playwright"]
	if !ok {
		return model.PlaywrightSettings{}
	}
	data, err := json.Marshal(block)
	if err != nil {
		return model.PlaywrightSettings{}
	}
	var settings model.PlaywrightSettings
	if err := json.Unmarshal(data, &settings); err != nil {
		return model.PlaywrightSettings{}
	}
	for name, profile := range settings.AuthProfiles {
		profile.Name = name
		settings.AuthProfiles[name] = profile
	}
	return settings
}

// =============================================================================
// SNAPSHOTS
// =============================================================================

// Seeds returns a copy of the current seed list.
func (s *Store) Seeds() []model.Seed {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Seed(nil), s.allowBlock.SeedURLs...)
}

// Blocked returns a copy of the blocked domain list.
func (s *Store) Blocked() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.allowBlock.BlockedDomains...)
}

// AllowRules returns a copy of the allow rule list in store order.
func (s *Store) AllowRules() []model.AllowRule {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.AllowRule(nil), s.allowBlock.AllowRules...)
}

// Playwright returns the typed playwright block.
func (s *Store) Playwright() model.PlaywrightSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playwright
}

// Agents returns the agent prompt map.
func (s *Store) Agents() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.agents))
	for k, v := range s.agents {
		out[k] = v
	}
	return out
}

// Overlay returns the current auth-status overlay.
func (s *Store) Overlay() model.AuthStatusOverlay {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.overlay
}

// =============================================================================
// EDIT STATE
// =============================================================================

// BeginEdit puts the row identified by key into edit mode for its kind,
// cancelling any in-progress edit of the same kind.
func (s *Store) BeginEdit(kind EditKind, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.editing[kind] = key
}

// CancelEdit leaves edit mode for the given kind.
func (s *Store) CancelEdit(kind EditKind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.editing, kind)
}

// Editing returns the key of the row in edit mode for kind, if any.
func (s *Store) Editing(kind EditKind) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key, ok := s.editing[kind]
	return key, ok
}

// =============================================================================
// COVERAGE AND RECOMMENDATIONS
// =============================================================================

// IsURLAllowed reports whether some allow rule covers the candidate URL.
func (s *Store) IsURLAllowed(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rule := range s.allowBlock.AllowRules {
		if rule.Covers(url) {
			return true
		}
	}
	return false
}

// VisibleRecommendations filters out already-covered URLs and truncates to
// the top three unless the list is expanded. The second return is the number
// of uncovered recommendations before truncation.
func (s *Store) VisibleRecommendations() ([]model.Recommendation, int) {
	s.mu.Lock()
	recs := append([]model.Recommendation(nil), s.recommendations...)
	expanded := s.recommendationsExpanded
	s.mu.Unlock()

	var uncovered []model.Recommendation
	for _, rec := range recs {
		if !s.IsURLAllowed(rec.SuggestedURL) {
			uncovered = append(uncovered, rec)
		}
	}

	total := len(uncovered)
	if !expanded && total > 3 {
		uncovered = uncovered[:3]
	}
	return uncovered, total
}

// ToggleRecommendationsExpanded flips the expand toggle and returns the new
// state.
func (s *Store) ToggleRecommendationsExpanded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recommendationsExpanded = !s.recommendationsExpanded
	return s.recommendationsExpanded
}

// PurgeCandidates clears the server's discovery cache and reloads.
func (s *Store) PurgeCandidates(ctx context.Context) error {
	if err := s.client.PostJSON(ctx, "/api/admin/candidates/purge", nil, nil); err != nil {
		return err
	}
	return s.Refresh(ctx)
}

// =============================================================================
// SEEDS AND BLOCKED DOMAINS
// =============================================================================

// AddSeedFromInput normalizes the input and persists a new seed. A scheme
// rejection is returned without touching the store so the view can alert and
// keep the input for correction.
func (s *Store) AddSeedFromInput(ctx context.Context, input string, allowHTTP bool) error {
	url, err := normalize.URLRow(input, allowHTTP)
	if err != nil {
		return err
	}
	if url == "" {
		return nil
	}

	s.mu.Lock()
	doc := s.allowBlock
	doc.SeedURLs = append(append([]model.Seed(nil), doc.SeedURLs...), model.Seed{URL: url, AllowHTTP: allowHTTP})
	s.mu.Unlock()

	return s.saveAllowBlock(ctx, doc)
}

// RemoveSeed deletes the seed with the given URL.
func (s *Store) RemoveSeed(ctx context.Context, url string) error {
	s.mu.Lock()
	doc := s.allowBlock
	var kept []model.Seed
	for _, seed := range doc.SeedURLs {
		if seed.URL != url {
			kept = append(kept, seed)
		}
	}
	doc.SeedURLs = kept
	s.mu.Unlock()

	return s.saveAllowBlock(ctx, doc)
}

// AddBlockedFromInput normalizes the input to a bare domain and persists it.
func (s *Store) AddBlockedFromInput(ctx context.Context, input string) error {
	domain := normalize.DomainInput(input)
	if domain == "" {
		return nil
	}

	s.mu.Lock()
	doc := s.allowBlock
	for _, existing := range doc.BlockedDomains {
		if existing == domain {
			s.mu.Unlock()
			return nil
		}
	}
	doc.BlockedDomains = append(append([]string(nil), doc.BlockedDomains...), domain)
	s.mu.Unlock()

	return s.saveAllowBlock(ctx, doc)
}

// RemoveBlocked deletes a blocked domain.
func (s *Store) RemoveBlocked(ctx context.Context, domain string) error {
	s.mu.Lock()
	doc := s.allowBlock
	var kept []string
	for _, existing := range doc.BlockedDomains {
		if existing != domain {
			kept = append(kept, existing)
		}
	}
	doc.BlockedDomains = kept
	s.mu.Unlock()

	return s.saveAllowBlock(ctx, doc)
}

// saveAllowBlock persists the batch document. Seeds and blocked domains are
// sorted lexicographically on save; identity is the URL or domain.
func (s *Store) saveAllowBlock(ctx context.Context, doc model.AllowBlockDocument) error {
	sort.Slice(doc.SeedURLs, func(i, j int) bool {
		return doc.SeedURLs[i].URL < doc.SeedURLs[j].URL
	})
	sort.Strings(doc.BlockedDomains)
	if err := s.client.PutJSON(ctx, "/api/admin/config/allow_block", doc, nil); err != nil {
		return err
	}
	return s.Refresh(ctx)
}

// =============================================================================
// ALLOW RULES
// =============================================================================

// PrepareAllowRule normalizes a rule for saving: pattern canonicalized under
// its allow_http flag, match defaulted, and an all-false type set forced to
// web-only. A scheme rejection or empty pattern fails the save.
func PrepareAllowRule(rule model.AllowRule) (model.AllowRule, error) {
	pattern, err := normalize.URLRow(rule.Pattern, rule.AllowHTTP)
	if err != nil {
		return rule, err
	}
	if pattern == "" {
		return rule, errors.New("pattern must not be empty")
	}
	rule.Pattern = pattern
	if rule.Match != model.MatchExact {
		rule.Match = model.MatchPrefix
	}
	rule.Types = rule.Types.EnsureAny()
	return rule, nil
}

// RenormalizeForAllowHTTP re-canonicalizes a rule's pattern after its
// allow_http flag was toggled, keeping pattern scheme and flag consistent.
func RenormalizeForAllowHTTP(rule model.AllowRule) model.AllowRule {
	if pattern, err := normalize.URLRow(rule.Pattern, rule.AllowHTTP); err == nil && pattern != "" {
		rule.Pattern = pattern
	}
	return rule
}

// SaveAllowRule persists one rule: PUT for an existing id, POST for a new
// row. The saved rule with its server-assigned id is returned and the store
// reloaded.
func (s *Store) SaveAllowRule(ctx context.Context, rule model.AllowRule) (model.AllowRule, error) {
	prepared, err := PrepareAllowRule(rule)
	if err != nil {
		return rule, err
	}

	var saved model.AllowRule
	if prepared.ID != "" {
		err = s.client.PutJSON(ctx, "/api/admin/allowed-urls/"+prepared.ID, prepared, &saved)
	} else {
		err = s.client.PostJSON(ctx, "/api/admin/allowed-urls", prepared, &saved)
	}
	if err != nil {
		return rule, err
	}
	if saved.ID == "" {
		saved = prepared
	}

	if err := s.Refresh(ctx); err != nil {
		s.log.WithError(err).Warn("reload after rule save failed")
	}
	return saved, nil
}

// DeleteAllowRule removes a rule by id and reloads.
func (s *Store) DeleteAllowRule(ctx context.Context, id string) error {
	if err := s.client.Delete(ctx, "/api/admin/allowed-urls/"+id); err != nil {
		return err
	}
	return s.Refresh(ctx)
}

// AddRecommendation promotes a discovered URL to an allow rule. The pattern
// is normalized under allow_http=false and the seen types are kept, web
// forced on when nothing was seen.
func (s *Store) AddRecommendation(ctx context.Context, rec model.Recommendation) (model.AllowRule, error) {
	return s.SaveAllowRule(ctx, model.AllowRule{
		Pattern: rec.SuggestedURL,
		Match:   model.MatchPrefix,
		Types:   rec.SeenTypes.EnsureAny(),
	})
}

// =============================================================================
// AUTH PROFILES
// =============================================================================

// SaveAuthProfile writes one named profile through the partial
// playwright-settings update.
func (s *Store) SaveAuthProfile(ctx context.Context, profile model.AuthProfile) error {
	name := strings.TrimSpace(profile.Name)
	if name == "" {
		return errors.New("profile name must not be empty")
	}

	payload := map[string]interface{}{
		"auth_profiles": map[string]model.AuthProfile{name: profile},
	}
	if err := s.client.PutJSON(ctx, "/api/admin/playwright-settings", payload, nil); err != nil {
		return err
	}
	return s.Refresh(ctx)
}

// DeleteAuthProfile removes a named profile from the crawler document.
func (s *Store) DeleteAuthProfile(ctx context.Context, name string) error {
	s.mu.Lock()
	doc := cloneDoc(s.crawlerDoc)
	s.mu.Unlock()

	playwright, _ := doc["playwright"].(map[string]interface{})
	if playwright == nil {
		return nil
	}
	profiles, _ := playwright["auth_profiles"].(map[string]interface{})
	if profiles == nil {
		return nil
	}
	delete(profiles, name)

	if err := s.client.PutJSON(ctx, "/api/admin/config/crawler", doc, nil); err != nil {
		return err
	}
	return s.Refresh(ctx)
}

// TestAuth runs the server-side auth probe for one profile and folds the
// results into the overlay cache.
func (s *Store) TestAuth(ctx context.Context, profileName string) ([]model.AuthCheckResult, error) {
	var resp struct {
		Results []model.AuthCheckResult `json:"results"`
	}
	payload := map[string]string{"profile_name": profileName}
	if err := s.client.PostJSON(ctx, "/api/crawl/test-auth", payload, &resp); err != nil {
		return nil, err
	}

	var overlay model.AuthStatusOverlay
	if err := s.client.GetJSON(ctx, "/api/admin/allowed-urls/auth-status", &overlay); err == nil {
		s.mu.Lock()
		s.overlay = overlay
		s.mu.Unlock()
	}
	return resp.Results, nil
}

// =============================================================================
// LEGACY MIGRATION
// =============================================================================

// NeedsLegacyMigration reports whether the playwright block carries flat
// legacy fields and no named profiles. The migration banner shows iff this
// holds.
func (s *Store) NeedsLegacyMigration() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playwright.NeedsLegacyMigration()
}

// MigrateLegacy synthesizes a profile named legacy_migrated from the flat
// storage_state_path/use_for_domains fields, deletes the flat fields, and
// writes the crawler document back.
func (s *Store) MigrateLegacy(ctx context.Context) error {
	s.mu.Lock()
	if !s.playwright.NeedsLegacyMigration() {
		s.mu.Unlock()
		return nil
	}
	doc := cloneDoc(s.crawlerDoc)
	settings := s.playwright
	s.mu.Unlock()

	playwright, _ := doc["playwright"].(map[string]interface{})
	if playwright == nil {
		playwright = map[string]interface{}{}
		doc["playwright"] = playwright
	}
	playwright["auth_profiles"] = map[string]model.AuthProfile{
		model.LegacyProfileName: {
			StorageStatePath: settings.StorageStatePath,
			UseForDomains:    settings.UseForDomains,
		},
	}
	delete(playwright, "storage_state_path")
	delete(playwright, "use_for_domains")

	if err := s.client.PutJSON(ctx, "/api/admin/config/crawler", doc, nil); err != nil {
		return err
	}
	return s.Refresh(ctx)
}

// cloneDoc deep-copies a JSON-shaped document so a failed save never leaves
// half-mutated state behind.
func cloneDoc(doc map[string]interface{}) map[string]interface{} {
	if doc == nil {
		return map[string]interface{}{}
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return map[string]interface{}{}
	}
	var out map[string]interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return map[string]interface{}{}
	}
	return out
}
