package secretmanager

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	vault "github.com/hashicorp/vault-client-go"
	"github.com/hashicorp/vault-client-go/schema"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	requestTimeout = 10 * time.Second
	kvMount        = "secret"
)

var Module = fx.Module("secretmanager", fx.Provide(ProvideVault))

// Enabled reports whether the process environment points at a Vault server.
func Enabled() bool {
	return os.Getenv("VAULT_ADDR") != ""
}

// ProvideVault builds a client from the VAULT_* environment. With
// VAULT_ROLE_ID and VAULT_SECRET_ID set it logs in through AppRole, otherwise
// VAULT_TOKEN is used as is.
func ProvideVault() (*vault.Client, error) {
	client, err := vault.New(
		vault.WithEnvironment(),
		vault.WithRequestTimeout(requestTimeout),
	)
	if err != nil {
		return nil, err
	}

	roleID, secretID := os.Getenv("VAULT_ROLE_ID"), os.Getenv("VAULT_SECRET_ID")
	if roleID == "" || secretID == "" {
		return client, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	if err := Login(ctx, client, roleID, secretID); err != nil {
		return nil, err
	}
	return client, nil
}

func Login(ctx context.Context, client *vault.Client, roleID, secretID string) error {
	resp, err := client.Auth.AppRoleLogin(ctx, schema.AppRoleLoginRequest{
		RoleId:   roleID,
		SecretId: secretID,
	})
	if err != nil {
		return fmt.Errorf("vault approle login: %w", err)
	}
	if resp.Auth == nil || resp.Auth.ClientToken == "" {
		return errors.New("vault approle login returned no token")
	}

	zap.L().Info("[Vault] logged in with approle", zap.Strings("policies", resp.Auth.Policies))
	return client.SetToken(resp.Auth.ClientToken)
}

// ReadKV returns the string values stored at path in the KV v2 mount.
// Values of other types are skipped.
func ReadKV(ctx context.Context, client *vault.Client, path string) (map[string]string, error) {
	resp, err := client.Secrets.KvV2Read(ctx, path, vault.WithMountPath(kvMount))
	if err != nil {
		return nil, fmt.Errorf("vault read %s/%s: %w", kvMount, path, err)
	}

	out := make(map[string]string, len(resp.Data.Data))
	for k, v := range resp.Data.Data {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out, nil
}
