package simulate

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/natefinch/atomic"
)

// Environment variable names the simulator reads its credentials from.
const (
	EnvAccessKeyID     = "AWS_ACCESS_KEY_ID"
	EnvSecretAccessKey = "AWS_SECRET_ACCESS_KEY"
	EnvRegion          = "AWS_REGION"
)

// requiredEnv lists the variables every technique run needs.
var requiredEnv = []string{EnvAccessKeyID, EnvSecretAccessKey, EnvRegion}

// Credentials is an AWS static key pair plus region.
type Credentials struct {
	AccessKeyID     string `json:"accessKeyId"`
	SecretAccessKey string `json:"secretAccessKey"`
	Region          string `json:"region"`
}

// Validate requires every field and rejects values that would break the
// KEY=VALUE file format.
func (c Credentials) Validate() error {
	fields := []struct{ name, value string }{
		{"accessKeyId", c.AccessKeyID},
		{"secretAccessKey", c.SecretAccessKey},
		{"region", c.Region},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("%w: %s is required", ErrInvalidCredentials, f.name)
		}
		if strings.ContainsAny(f.value, "\r\n\x00") {
			return fmt.Errorf("%w: %s contains a line break", ErrInvalidCredentials, f.name)
		}
	}
	return nil
}

// CredentialStore persists credentials to a KEY=VALUE file readable only by
// its owner.
type CredentialStore struct {
	path string
	mu   sync.RWMutex
}

// NewCredentialStore returns a store backed by path. The file need not exist.
func NewCredentialStore(path string) *CredentialStore {
	return &CredentialStore{path: path}
}

// Path returns the backing file path.
func (s *CredentialStore) Path() string { return s.path }

// Save replaces the file atomically with c.
func (s *CredentialStore) Save(c Credentials) error {
	if err := c.Validate(); err != nil {
		return err
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s=%s\n", EnvAccessKeyID, strings.TrimSpace(c.AccessKeyID))
	fmt.Fprintf(&buf, "%s=%s\n", EnvSecretAccessKey, strings.TrimSpace(c.SecretAccessKey))
	fmt.Fprintf(&buf, "%s=%s\n", EnvRegion, strings.TrimSpace(c.Region))

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := atomic.WriteFile(s.path, &buf); err != nil {
		return fmt.Errorf("writing credentials: %w", err)
	}
	if err := os.Chmod(s.path, 0o600); err != nil {
		return fmt.Errorf("restricting credentials file: %w", err)
	}
	return nil
}

// Load reads the file into a map. A missing file yields an empty map.
func (s *CredentialStore) Load() (map[string]string, error) {
	s.mu.RLock()
	data, err := os.ReadFile(s.path)
	s.mu.RUnlock()
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading credentials: %w", err)
	}
	return parseEnvFile(data), nil
}

// Credentials returns the stored credentials, falling back to the process
// environment for fields the file does not set.
func (s *CredentialStore) Credentials() (Credentials, error) {
	vars, err := s.Load()
	if err != nil {
		return Credentials{}, err
	}
	get := func(key string) string {
		if v := vars[key]; v != "" {
			return v
		}
		return os.Getenv(key)
	}
	c := Credentials{
		AccessKeyID:     get(EnvAccessKeyID),
		SecretAccessKey: get(EnvSecretAccessKey),
		Region:          get(EnvRegion),
	}
	if c.AccessKeyID == "" || c.SecretAccessKey == "" || c.Region == "" {
		return c, fmt.Errorf("%w: %s", ErrMissingCredentials, strings.Join(missing(c), ", "))
	}
	return c, nil
}

func missing(c Credentials) []string {
	var out []string
	if c.AccessKeyID == "" {
		out = append(out, EnvAccessKeyID)
	}
	if c.SecretAccessKey == "" {
		out = append(out, EnvSecretAccessKey)
	}
	if c.Region == "" {
		out = append(out, EnvRegion)
	}
	return out
}

// parseEnvFile reads KEY=VALUE lines. Blank lines and # comments are
// skipped, an "export " prefix is accepted and matching quotes are stripped.
func parseEnvFile(data []byte) map[string]string {
	vars := make(map[string]string)
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if len(value) >= 2 && (value[0] == '"' || value[0] == '\'') && value[len(value)-1] == value[0] {
			value = value[1 : len(value)-1]
		}
		if key != "" {
			vars[key] = value
		}
	}
	return vars
}

// mergeEnv overlays vars onto base (KEY=VALUE form). Keys from vars replace
// those in base; the rest of base is kept in order.
func mergeEnv(base []string, vars map[string]string) []string {
	out := make([]string, 0, len(base)+len(vars))
	for _, kv := range base {
		key, _, _ := strings.Cut(kv, "=")
		if _, ok := vars[key]; ok {
			continue
		}
		out = append(out, kv)
	}
	for _, k := range slices.Sorted(maps.Keys(vars)) {
		out = append(out, k+"="+vars[k])
	}
	return out
}

// lookupEnv returns the last value of key in env.
func lookupEnv(env []string, key string) string {
	var v string
	for _, kv := range env {
		if k, val, ok := strings.Cut(kv, "="); ok && k == key {
			v = val
		}
	}
	return v
}
