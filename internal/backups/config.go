// Package backups manages backup destination integrations: form
// validation, connection tests and storage.
package backups

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

const (
	KindS3  = "s3"
	KindGCS = "gcs"
)

const DefaultBackupsToRetain = 1

var ErrNotFound = errors.New("backups: integration not found")

// ErrUnknownKind is returned for a kind outside Kinds.
var ErrUnknownKind = errors.New("backups: unknown integration kind")

// KindInfo describes one backup destination kind.
type KindInfo struct {
	Kind  string
	Label string
}

// Kinds lists the supported destinations in display order.
var Kinds = []KindInfo{
	{Kind: KindS3, Label: "Amazon S3"},
	{Kind: KindGCS, Label: "Google Cloud Storage"},
}

// NormalizeKind returns the canonical kind, or "" when kind is unknown.
func NormalizeKind(kind string) string {
	kind = strings.ToLower(strings.TrimSpace(kind))
	for _, info := range Kinds {
		if info.Kind == kind {
			return kind
		}
	}
	return ""
}

// KindLabel returns the display name of kind.
func KindLabel(kind string) string {
	for _, info := range Kinds {
		if info.Kind == kind {
			return info.Label
		}
	}
	return kind
}

// Config is the destination configuration of an integration.
type Config struct {
	Name            string `json:"name"`
	BackupsToRetain int    `json:"backups_to_retain"`
	Bucket          string `json:"bucket"`
	ObjectPrefix    string `json:"object_prefix,omitempty"`

	Region          string `json:"region,omitempty"`
	Endpoint        string `json:"endpoint,omitempty"`
	UseIAM          bool   `json:"use_iam,omitempty"`
	AccessKeyID     string `json:"access_key_id,omitempty"`
	SecretAccessKey string `json:"secret_access_key,omitempty"`

	UseWorkloadID  bool   `json:"use_workload_id,omitempty"`
	ServiceAccount string `json:"service_account,omitempty"`
}

// Normalized trims every field and drops settings that do not apply to kind.
func (c Config) Normalized(kind string) Config {
	out := c
	out.Name = strings.TrimSpace(out.Name)
	out.Bucket = strings.TrimSpace(out.Bucket)
	out.ObjectPrefix = strings.TrimSpace(out.ObjectPrefix)
	out.Region = strings.TrimSpace(out.Region)
	out.Endpoint = strings.TrimRight(strings.TrimSpace(out.Endpoint), "/")
	out.AccessKeyID = strings.TrimSpace(out.AccessKeyID)
	out.SecretAccessKey = strings.TrimSpace(out.SecretAccessKey)
	out.ServiceAccount = strings.TrimSpace(out.ServiceAccount)

	switch kind {
	case KindS3:
		out.UseWorkloadID = false
		out.ServiceAccount = ""
		if out.UseIAM {
			out.AccessKeyID = ""
			out.SecretAccessKey = ""
		}
	case KindGCS:
		out.Region = ""
		out.Endpoint = ""
		out.UseIAM = false
		out.AccessKeyID = ""
		out.SecretAccessKey = ""
		if out.UseWorkloadID {
			out.ServiceAccount = ""
		}
	}
	return out
}

// Merge applies update over existing. Secret fields left blank in update
// keep the stored value.
func Merge(kind string, existing Config, update Config) Config {
	merged := update.Normalized(kind)
	existing = existing.Normalized(kind)
	switch kind {
	case KindS3:
		if !merged.UseIAM {
			if merged.AccessKeyID == "" {
				merged.AccessKeyID = existing.AccessKeyID
			}
			if merged.SecretAccessKey == "" {
				merged.SecretAccessKey = existing.SecretAccessKey
			}
		}
	case KindGCS:
		if !merged.UseWorkloadID && merged.ServiceAccount == "" {
			merged.ServiceAccount = existing.ServiceAccount
		}
	}
	return merged
}

// Masked returns a copy safe to render, with secrets replaced.
func (c Config) Masked() Config {
	out := c
	out.SecretAccessKey = MaskSecret(out.SecretAccessKey)
	if out.ServiceAccount != "" {
		out.ServiceAccount = "****"
	}
	return out
}

// HasStoredSecret reports whether the config carries the credential the
// given field would otherwise require.
func (c Config) HasStoredSecret(field string) bool {
	switch field {
	case FieldAccessKeyID:
		return c.AccessKeyID != ""
	case FieldSecretAccessKey:
		return c.SecretAccessKey != ""
	case FieldServiceAccount:
		return c.ServiceAccount != ""
	default:
		return false
	}
}

// Fingerprint identifies the exact normalized configuration of kind. A
// successful connection test records it so Save can require that the
// saved configuration is the one that was tested.
func Fingerprint(kind string, cfg Config) string {
	payload, _ := json.Marshal(struct {
		Kind   string `json:"kind"`
		Config Config `json:"config"`
	}{Kind: kind, Config: cfg.Normalized(kind)})
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// Integration is a stored backup destination.
type Integration struct {
	ID        string
	Kind      string
	Config    Config
	CreatedAt time.Time
	UpdatedAt time.Time
}

func EncodeConfig(cfg Config) ([]byte, error) {
	return json.Marshal(cfg)
}

func DecodeConfig(raw []byte) (Config, error) {
	cfg := Config{BackupsToRetain: DefaultBackupsToRetain}
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return cfg, nil
	}
	return cfg, json.Unmarshal(raw, &cfg)
}

func MaskSecret(secret string) string {
	s := strings.TrimSpace(secret)
	if s == "" {
		return ""
	}
	if len(s) <= 4 {
		return "****"
	}
	return "****" + s[len(s)-4:]
}
