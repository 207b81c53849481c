package config

import (
	"fmt"
	"os"
	"strings"
)

// Config is the process-wide, immutable configuration record. It is
// constructed once at startup by Load and never mutated afterward.
type Config struct {
	BucketName      string
	RootsTableName  string
	ProofsTableName string

	// AuthorizedGroups holds the comma-separated group list for each of
	// the seven group-gated routes. An empty slice means "open to any
	// authenticated caller".
	AuthorizedGroups GroupConfig
}

// GroupConfig holds the authorization group list for each group-gated
// route. A nil/empty list means open to any authenticated caller.
type GroupConfig struct {
	UploadWhitelist  []string
	DeleteWhitelist  []string
	CreateMerkleTree []string
	DeleteMerkleTree []string
	GetMerkleRoot    []string
	GetMerkleRoots   []string
	GetMerkleProofs  []string
}

const (
	envBucketName      = "WHITELIST_S3_BUCKET_NAME"
	envRootsTableName  = "WHITELIST_DYNAMODB_ROOTS_TABLE_NAME"
	envProofsTableName = "WHITELIST_DYNAMODB_PROOFS_TABLE_NAME"

	envAuthorizedGroupsUploadWhitelist  = "AUTHORIZED_GROUPS_UPLOAD_WHITELIST"
	envAuthorizedGroupsDeleteWhitelist  = "AUTHORIZED_GROUPS_DELETE_WHITELIST"
	envAuthorizedGroupsCreateMerkleTree = "AUTHORIZED_GROUPS_CREATE_MERKLE_TREE"
	envAuthorizedGroupsDeleteMerkleTree = "AUTHORIZED_GROUPS_DELETE_MERKLE_TREE"
	envAuthorizedGroupsGetMerkleRoot    = "AUTHORIZED_GROUPS_GET_MERKLE_ROOT"
	envAuthorizedGroupsGetMerkleRoots   = "AUTHORIZED_GROUPS_GET_MERKLE_ROOTS"
	envAuthorizedGroupsGetMerkleProofs  = "AUTHORIZED_GROUPS_GET_MERKLE_PROOFS"
)

// Load reads the process configuration from the environment. It
// refuses to start — returning an error rather than a partially
// populated Config — if any required field is missing. The
// AUTHORIZED_GROUPS_* variables are not required and default to
// empty (open access).
func Load() (*Config, error) {
	var missing []string
	require := func(name string) string {
		v := os.Getenv(name)
		if v == "" {
			missing = append(missing, name)
		}
		return v
	}

	cfg := &Config{
		BucketName:      require(envBucketName),
		RootsTableName:  require(envRootsTableName),
		ProofsTableName: require(envProofsTableName),
		AuthorizedGroups: GroupConfig{
			UploadWhitelist:  splitGroups(os.Getenv(envAuthorizedGroupsUploadWhitelist)),
			DeleteWhitelist:  splitGroups(os.Getenv(envAuthorizedGroupsDeleteWhitelist)),
			CreateMerkleTree: splitGroups(os.Getenv(envAuthorizedGroupsCreateMerkleTree)),
			DeleteMerkleTree: splitGroups(os.Getenv(envAuthorizedGroupsDeleteMerkleTree)),
			GetMerkleRoot:    splitGroups(os.Getenv(envAuthorizedGroupsGetMerkleRoot)),
			GetMerkleRoots:   splitGroups(os.Getenv(envAuthorizedGroupsGetMerkleRoots)),
			GetMerkleProofs:  splitGroups(os.Getenv(envAuthorizedGroupsGetMerkleProofs)),
		},
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	return cfg, nil
}

func splitGroups(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	groups := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			groups = append(groups, p)
		}
	}
	return groups
}

// IsAuthorized reports whether callerGroups intersects groups, or
// groups is empty (open access).
func IsAuthorized(groups []string, callerGroups []string) bool {
	if len(groups) == 0 {
		return true
	}
	allowed := make(map[string]struct{}, len(groups))
	for _, g := range groups {
		allowed[g] = struct{}{}
	}
	for _, g := range callerGroups {
		if _, ok := allowed[g]; ok {
			return true
		}
	}
	return false
}
