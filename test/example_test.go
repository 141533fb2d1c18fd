package test

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/cartsmith/authkit"
	"github.com/cartsmith/authkit/credstore"
	"github.com/cartsmith/authkit/idp"
)

// ExampleNew demonstrates client construction with production-style dependencies.
func ExampleNew() {
	cfg := authkit.DefaultConfig()
	cfg.Provider.BaseURL = "https://identity.example.com"
	cfg.Provider.APIKey = "public-anon-key"
	cfg.Provider.RedirectURL = "https://shop.example.com/auth/callback"

	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:6379"})
	provider := idp.NewREST(cfg.Provider, zerolog.Nop())

	client, _ := authkit.New().
		WithConfig(cfg).
		WithCredentialStore(credstore.NewRedis(rdb, "shop")).
		WithProvider(provider).
		Build()
	_ = client
}

// ExampleClient_SignIn shows a typical sign-in call and structured error handling.
func ExampleClient_SignIn() {
	var client *authkit.Client
	_, err := client.SignIn(context.Background(), "alice@example.com", "password")
	if err != nil {
		var pe *authkit.ProviderError
		if errors.As(err, &pe) {
			fmt.Println(pe.FriendlyMessage())
		}
	}
}

// ExampleClient_MetricsSnapshot shows how to read in-process metrics counters.
func ExampleClient_MetricsSnapshot() {
	var client *authkit.Client
	snap := client.MetricsSnapshot()
	fmt.Println(snap.Counters[authkit.MetricSignInSuccess])
}
