package benchmark

import (
	"context"
	"fmt"
	"testing"

	"github.com/yndnr/recordsvc/internal/core/domain"
	"github.com/yndnr/recordsvc/internal/core/service"
	"github.com/yndnr/recordsvc/internal/storage/memory"
	"github.com/yndnr/recordsvc/pkg/token"
)

func BenchmarkHashSecret(b *testing.B) {
	secret, err := token.GenerateWithPrefix(domain.APIKeySecretPrefix, domain.SecretLength)
	if err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := domain.HashSecret(secret); err != nil {
			b.Fatal(err)
		}
	}
}

// Validation after the first call is served from the key cache.
func BenchmarkValidateAPIKeyCached(b *testing.B) {
	key, secret, err := domain.NewAPIKey("bench", domain.RoleReader)
	if err != nil {
		b.Fatal(err)
	}
	keys := memory.NewAPIKeyStore()
	if err := keys.Load(context.Background(), []*domain.APIKey{key}); err != nil {
		b.Fatal(err)
	}
	cfg := service.DefaultAuthServiceConfig()
	cfg.Logger = quietLogger(b)
	auth := service.NewAuthService(keys, cfg)
	req := &service.ValidateAPIKeyRequest{KeyID: key.KeyID, KeySecret: secret, ClientIP: "127.0.0.1"}
	ctx := context.Background()

	if _, err := auth.ValidateAPIKey(ctx, req); err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := auth.ValidateAPIKey(ctx, req); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkRateLimiterRegistry(b *testing.B) {
	for _, n := range []int{10, 1000} {
		b.Run(fmt.Sprintf("keys_%d", n), func(b *testing.B) {
			reg := service.NewRateLimiterRegistry()
			keys := make([]string, n)
			for i := range keys {
				keys[i] = fmt.Sprintf("rmak-%d", i)
			}

			b.ReportAllocs()
			b.ResetTimer()
			b.RunParallel(func(pb *testing.PB) {
				i := 0
				for pb.Next() {
					reg.GetOrCreate(keys[i%n], 1000000).Allow()
					i++
				}
			})
		})
	}
}
