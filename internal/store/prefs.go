package store

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"

	"eoreview/internal/model"
)

// Preference keys.
const (
	keyPrefix         = "currentEducationalObjective"
	KeyCurrentID      = keyPrefix + "QuestionId"
	KeySearch         = keyPrefix + "Search"
	KeySorted         = keyPrefix + "IsSorted"
	KeyProgress       = keyPrefix + "ReviewProgress"
	KeyHistory        = keyPrefix + "NavigationHistory"
	KeyTest           = keyPrefix + "Test"
	KeyAppearance     = keyPrefix + "Appearance"
	KeyFlagged        = keyPrefix + "FlaggedQids"
	KeyHidden         = keyPrefix + "HiddenQids"
	KeyPermittedTests = keyPrefix + "PermittedTestTypes"
	KeyRegistry1      = "explorer-key-1"
	KeyRegistry2      = "explorer-key-2"
)

const (
	AppearanceLight = "light"
	AppearanceDark  = "dark"
)

const writeTimeout = 5 * time.Second

// State is everything the session restores at startup. Values that are
// missing or fail to decode are left at their zero value.
type State struct {
	CurrentID  string
	Search     string
	Sorted     bool
	Progress   map[string]int
	History    []model.Checkpoint
	Flagged    []string
	Hidden     []string
	Test       string
	Appearance string
	// AppearanceSet is false when no appearance was ever stored.
	AppearanceSet bool
	Permitted     []string
	Key1          string
	Key2          string
}

// Prefs encodes session state into a KV.
type Prefs struct {
	kv KV
}

func NewPrefs(kv KV) *Prefs { return &Prefs{kv: kv} }

func (p *Prefs) KV() KV { return p.kv }

// Load reads every preference. Only KV failures other than ErrNotFound are
// returned; corrupt values decode to defaults.
func (p *Prefs) Load(ctx context.Context) (State, error) {
	st := State{Progress: map[string]int{}, Appearance: AppearanceLight}
	get := func(key string) (string, error) {
		v, err := p.kv.Get(ctx, key)
		if errors.Is(err, ErrNotFound) {
			return "", nil
		}
		return v, err
	}
	raw := map[string]string{}
	for _, k := range []string{
		KeyCurrentID, KeySearch, KeySorted, KeyProgress, KeyHistory, KeyTest,
		KeyAppearance, KeyFlagged, KeyHidden, KeyPermittedTests, KeyRegistry1, KeyRegistry2,
	} {
		v, err := get(k)
		if err != nil {
			return st, err
		}
		raw[k] = v
	}

	st.CurrentID = raw[KeyCurrentID]
	st.Search = raw[KeySearch]
	st.Sorted = raw[KeySorted] == "1"
	st.Test = raw[KeyTest]
	st.Key1 = raw[KeyRegistry1]
	st.Key2 = raw[KeyRegistry2]
	st.AppearanceSet = raw[KeyAppearance] != ""
	if raw[KeyAppearance] == AppearanceDark {
		st.Appearance = AppearanceDark
	}
	if v := raw[KeyProgress]; v != "" {
		var m map[string]int
		if err := json.Unmarshal([]byte(v), &m); err == nil && m != nil {
			st.Progress = m
		}
	}
	if v := raw[KeyHistory]; v != "" {
		var h []model.Checkpoint
		if err := json.Unmarshal([]byte(v), &h); err == nil {
			st.History = h
		}
	}
	st.Flagged = decodeIDs(raw[KeyFlagged])
	st.Hidden = decodeIDs(raw[KeyHidden])
	st.Permitted = SplitList(raw[KeyPermittedTests])
	return st, nil
}

func decodeIDs(v string) []string {
	if v == "" {
		return nil
	}
	var ids []string
	if err := json.Unmarshal([]byte(v), &ids); err != nil {
		return nil
	}
	return ids
}

// SplitList parses a comma separated list, dropping blanks.
func SplitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (p *Prefs) set(key, value string) error {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	return p.kv.Set(ctx, key, value)
}

func (p *Prefs) setJSON(key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return p.set(key, string(b))
}

// SaveCurrent writes the pointer, search text and sort mode together.
func (p *Prefs) SaveCurrent(id, search string, sorted bool) error {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	s := ""
	if sorted {
		s = "1"
	}
	return p.kv.SetMany(ctx, map[string]string{
		KeyCurrentID: id,
		KeySearch:    search,
		KeySorted:    s,
	})
}

func (p *Prefs) SaveHistory(history []model.Checkpoint) error {
	if history == nil {
		history = []model.Checkpoint{}
	}
	return p.setJSON(KeyHistory, history)
}

func (p *Prefs) SaveProgress(progress map[string]int) error {
	return p.setJSON(KeyProgress, progress)
}

func (p *Prefs) SaveFlagged(ids []string) error { return p.setJSON(KeyFlagged, sortedIDs(ids)) }
func (p *Prefs) SaveHidden(ids []string) error  { return p.setJSON(KeyHidden, sortedIDs(ids)) }

func (p *Prefs) SaveTest(test string) error { return p.set(KeyTest, test) }

func (p *Prefs) SaveAppearance(appearance string) error {
	if appearance != AppearanceDark {
		appearance = AppearanceLight
	}
	return p.set(KeyAppearance, appearance)
}

func (p *Prefs) SavePermitted(types []string) error {
	return p.set(KeyPermittedTests, strings.Join(types, ","))
}

// SaveRegistryKeys stores both keys in one write.
func (p *Prefs) SaveRegistryKeys(key1, key2 string) error {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	return p.kv.SetMany(ctx, map[string]string{KeyRegistry1: key1, KeyRegistry2: key2})
}

func sortedIDs(ids []string) []string {
	out := append([]string{}, ids...)
	sort.Strings(out)
	return out
}
