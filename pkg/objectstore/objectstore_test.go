package objectstore

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateBucketName(t *testing.T) {
	tests := []struct {
		name    string
		bucket  string
		wantErr bool
	}{
		{"valid simple", "whitelist-roots", false},
		{"valid with digits", "whitelist-123-prod", false},
		{"too short", "ab", true},
		{"too long", strings.Repeat("a", 64), true},
		{"uppercase rejected", "Whitelist-Roots", true},
		{"underscore rejected", "whitelist_roots", true},
		{"bad prefix xn--", "xn--whitelist-roots1", true},
		{"bad prefix sthree-", "sthree-whitelist-roots1", true},
		{"bad prefix amzn-s3-demo-", "amzn-s3-demo-whitelist1", true},
		{"bad suffix -s3alias", "whitelist-roots-s3alias", true},
		{"bad suffix --ol-s3", "whitelist-roots--ol-s3", true},
		{"bad suffix .mrap", "whitelist-roots.mrap", true},
		{"bad suffix --x-s3", "whitelist-roots--x-s3", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBucketName(tt.bucket)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{"valid csv key", "w0.csv", false},
		{"valid with special chars", "whitelist-name_1.0'(copy).csv", false},
		{"empty rejected", "", true},
		{"too long", strings.Repeat("a", 1025), true},
		{"at max length", strings.Repeat("a", 1024), false},
		{"slash rejected", "a/b.csv", true},
		{"space rejected", "a b.csv", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateKey(tt.key)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
