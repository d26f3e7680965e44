package llm

import (
	"context"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// TokenSource returns a cached client-credentials token source when the
// config names a token endpoint, and nil otherwise so the gateway falls
// back to the static API key.
func TokenSource(ctx context.Context, cfg LLMConfig) oauth2.TokenSource {
	if cfg.TokenURL == "" {
		return nil
	}
	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
		Scopes:       cfg.Scopes,
	}
	return cc.TokenSource(ctx)
}
