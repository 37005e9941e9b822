package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"node.town/vaani/kv"
	"node.town/vaani/lang"
)

// LanguagesKey names the record holding the last used language pair.
const LanguagesKey = "vaaniLanguages"

// Preferences are user choices that outlive a session, kept in the same
// record store as the history.
type Preferences struct {
	store kv.Store
}

func NewPreferences(store kv.Store) *Preferences {
	return &Preferences{store: store}
}

// Get returns the JSON-encoded value stored under key.
func (p *Preferences) Get(ctx context.Context, key string, out any) error {
	data, err := p.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return fmt.Errorf("preference not found: %s: %w", key, err)
		}
		return fmt.Errorf("failed to get preference: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode preference %s: %w", key, err)
	}
	return nil
}

func (p *Preferences) Set(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode preference %s: %w", key, err)
	}
	if err := p.store.Set(ctx, key, data); err != nil {
		return fmt.Errorf("failed to set preference: %w", err)
	}
	return nil
}

// Languages returns the saved pair, or fallback when none is saved or the
// saved one is invalid.
func (p *Preferences) Languages(ctx context.Context, fallback lang.Pair) lang.Pair {
	var pair lang.Pair
	if err := p.Get(ctx, LanguagesKey, &pair); err != nil {
		return fallback
	}
	if pair.Validate() != nil {
		return fallback
	}
	return pair
}

func (p *Preferences) SaveLanguages(ctx context.Context, pair lang.Pair) error {
	return p.Set(ctx, LanguagesKey, pair)
}
