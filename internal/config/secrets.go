package config

import (
	"context"
	"fmt"

	"github.com/unclebandit/wa-router/internal/integrations/paramstore"
)

// ResolveSecrets fills WhatsApp credentials from Parameter Store when a
// parameter name is configured and the literal value is not.
func ResolveSecrets(ctx context.Context, cfg *Config, store paramstore.Getter) error {
	targets := []struct {
		param string
		dst   *string
	}{
		{cfg.WhatsApp.TokenParameter, &cfg.WhatsApp.Token},
		{cfg.WhatsApp.AppSecretParameter, &cfg.WhatsApp.AppSecret},
	}
	for _, t := range targets {
		if t.param == "" || *t.dst != "" {
			continue
		}
		if store == nil {
			return fmt.Errorf("%w: parameter %q configured but no parameter store available", ErrConfiguration, t.param)
		}
		value, err := store.GetParameter(ctx, t.param)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrConfiguration, err)
		}
		*t.dst = value
	}
	return nil
}

// NeedsParameterStore reports whether ResolveSecrets has anything to fetch.
func (c *Config) NeedsParameterStore() bool {
	return (c.WhatsApp.TokenParameter != "" && c.WhatsApp.Token == "") ||
		(c.WhatsApp.AppSecretParameter != "" && c.WhatsApp.AppSecret == "")
}
