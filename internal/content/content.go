package content

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"eoreview/internal/model"
)

var (
	// ErrNoCredentials means a registry key or the session password is missing.
	ErrNoCredentials = errors.New("content: missing credentials")
	// ErrNoPassword is the ErrNoCredentials case the user can fix by typing
	// the session password.
	ErrNoPassword = fmt.Errorf("%w: no session password", ErrNoCredentials)
	ErrDecrypt    = errors.New("content: decryption failed")
	ErrNoPack     = errors.New("content: no pack for test")
)

// Credentials are the three passphrases a pack is sealed with. Packs are
// opened with Password first, then Key2, then Key1.
type Credentials struct {
	Password string
	Key1     string
	Key2     string
}

func (c Credentials) HasKeys() bool {
	return c.Key1 != "" && c.Key2 != ""
}

func (c Credentials) check() error {
	if !c.HasKeys() {
		return fmt.Errorf("%w: registry keys not set", ErrNoCredentials)
	}
	if c.Password == "" {
		return ErrNoPassword
	}
	return nil
}

// Open removes all three layers and decodes the item array.
func Open(sealed string, creds Credentials) ([]model.Item, error) {
	if err := creds.check(); err != nil {
		return nil, err
	}
	text := sealed
	for i, pass := range []string{creds.Password, creds.Key2, creds.Key1} {
		var err error
		if text, err = Decrypt(pass, text); err != nil {
			return nil, fmt.Errorf("layer %d: %w", i+1, err)
		}
	}
	var items []model.Item
	if err := json.Unmarshal([]byte(text), &items); err != nil {
		return nil, fmt.Errorf("%w: items: %v", ErrDecrypt, err)
	}
	return items, nil
}

// Seal is the inverse of Open.
func Seal(items []model.Item, creds Credentials) (string, error) {
	if err := creds.check(); err != nil {
		return "", err
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	text := string(b)
	for _, pass := range []string{creds.Key1, creds.Key2, creds.Password} {
		if text, err = Encrypt(pass, text); err != nil {
			return "", err
		}
	}
	return text, nil
}

// ValidTestTypes returns the known test types that are permitted, in known
// order. Nothing is permitted when permitted is empty.
func ValidTestTypes(permitted []string) []model.TestType {
	if len(permitted) == 0 {
		return nil
	}
	allowed := model.NewIDSet(permitted...)
	var out []model.TestType
	for _, t := range model.KnownTestTypes() {
		if allowed.Has(t.Key) {
			out = append(out, t)
		}
	}
	return out
}

// IsValidTest reports whether key is among valid.
func IsValidTest(valid []model.TestType, key string) bool {
	for _, t := range valid {
		if t.Key == key {
			return true
		}
	}
	return false
}

// ChooseTest keeps stored when valid and otherwise falls back to the first
// valid type. It returns "" when nothing is valid.
func ChooseTest(valid []model.TestType, stored string) string {
	if IsValidTest(valid, stored) {
		return stored
	}
	if len(valid) == 0 {
		return ""
	}
	return valid[0].Key
}

// RegistryKeys picks the stored key pair when both are present, else the
// supplied pair when both are present. fromArgs reports that the supplied
// pair was used and should be persisted.
func RegistryKeys(stored1, stored2, arg1, arg2 string) (key1, key2 string, fromArgs bool) {
	stored1, stored2 = strings.TrimSpace(stored1), strings.TrimSpace(stored2)
	if stored1 != "" && stored2 != "" {
		return stored1, stored2, false
	}
	arg1, arg2 = strings.TrimSpace(arg1), strings.TrimSpace(arg2)
	if arg1 != "" && arg2 != "" {
		return arg1, arg2, true
	}
	return "", "", false
}
