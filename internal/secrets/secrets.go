// Package secrets resolves configuration values that may point into Vault.
package secrets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	vaultapi "github.com/hashicorp/vault/api"
)

const (
	referencePrefix     = "vault:"
	defaultVaultTimeout = 15 * time.Second
)

// Reference points at one field of a KV v2 secret: vault:<mount>/<path>#<field>.
type Reference struct {
	Mount string
	Path  string
	Field string
}

func (r Reference) String() string {
	return referencePrefix + r.Mount + "/" + r.Path + "#" + r.Field
}

// IsReference reports whether raw uses the vault: scheme.
func IsReference(raw string) bool {
	return strings.HasPrefix(strings.TrimSpace(raw), referencePrefix)
}

// ParseReference parses vault:<mount>/<path>#<field>.
func ParseReference(raw string) (Reference, error) {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, referencePrefix) {
		return Reference{}, fmt.Errorf("secret reference must start with %q", referencePrefix)
	}
	rest := strings.TrimPrefix(raw, referencePrefix)

	location, field, ok := strings.Cut(rest, "#")
	field = strings.TrimSpace(field)
	if !ok || field == "" {
		return Reference{}, errors.New("secret reference is missing a #field")
	}

	location = strings.Trim(strings.TrimSpace(location), "/")
	mount, path, ok := strings.Cut(location, "/")
	mount = strings.TrimSpace(mount)
	path = strings.Trim(strings.TrimSpace(path), "/")
	if !ok || mount == "" || path == "" {
		return Reference{}, errors.New("secret reference must look like vault:<mount>/<path>#<field>")
	}
	return Reference{Mount: mount, Path: path, Field: field}, nil
}

// KVReader reads KV v2 secret data.
type KVReader interface {
	ReadKV(ctx context.Context, mount, path string) (map[string]any, error)
}

// Resolver turns plain values and vault: references into secret values.
type Resolver struct {
	reader KVReader
}

func NewResolver(reader KVReader) *Resolver {
	return &Resolver{reader: reader}
}

// Resolve returns raw unchanged unless it is a vault: reference.
func (r *Resolver) Resolve(ctx context.Context, raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if !IsReference(raw) {
		return raw, nil
	}
	ref, err := ParseReference(raw)
	if err != nil {
		return "", err
	}
	if r == nil || r.reader == nil {
		return "", fmt.Errorf("resolve %s: vault is not configured", ref)
	}

	data, err := r.reader.ReadKV(ctx, ref.Mount, ref.Path)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", ref, err)
	}
	value, ok := data[ref.Field]
	if !ok {
		return "", fmt.Errorf("resolve %s: field not found", ref)
	}
	str, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("resolve %s: field is not a string", ref)
	}
	str = strings.TrimSpace(str)
	if str == "" {
		return "", fmt.Errorf("resolve %s: field is empty", ref)
	}
	return str, nil
}

// VaultReader is a KVReader backed by the Vault API. Address and token come
// from VAULT_ADDR and VAULT_TOKEN.
type VaultReader struct {
	client *vaultapi.Client
}

func NewVaultReader() (*VaultReader, error) {
	cfg := vaultapi.DefaultConfig()
	if cfg.Error != nil {
		return nil, fmt.Errorf("vault config: %w", cfg.Error)
	}
	cfg.HttpClient = &http.Client{Timeout: defaultVaultTimeout}

	client, err := vaultapi.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("vault client setup: %w", err)
	}
	if strings.TrimSpace(client.Token()) == "" {
		return nil, errors.New("VAULT_TOKEN is required to resolve vault: references")
	}
	return &VaultReader{client: client}, nil
}

func (v *VaultReader) ReadKV(ctx context.Context, mount, path string) (map[string]any, error) {
	secret, err := v.client.KVv2(mount).Get(ctx, path)
	if err != nil {
		return nil, err
	}
	if secret == nil || secret.Data == nil {
		return nil, errors.New("secret not found")
	}
	return secret.Data, nil
}

// ResolveValue resolves raw, building a Vault reader only when raw is a
// reference.
func ResolveValue(ctx context.Context, raw string) (string, error) {
	if !IsReference(raw) {
		return strings.TrimSpace(raw), nil
	}
	reader, err := NewVaultReader()
	if err != nil {
		return "", err
	}
	return NewResolver(reader).Resolve(ctx, raw)
}
