package featureflags

import (
	"context"

	"entitlement-controlplane/pkg/config"

	"github.com/Flagsmith/flagsmith-go-client/v2"
	"go.uber.org/fx"
)

// LicenseExpiryReminders gates expiry reminder delivery per tenant.
const LicenseExpiryReminders = "license_expiry_reminders"

var Module = fx.Module("featureflags", fx.Provide(ProvideFeatureFlag))

type FeatureFlag interface {
	// Enabled reports whether feature is on for identifier. Unknown features
	// and an unconfigured client count as enabled.
	Enabled(ctx context.Context, identifier, feature string) (bool, error)
}

type featureflag struct {
	client *flagsmith.Client
}

type FeatureParams struct {
	fx.In
	Config *config.Config
}

func ProvideFeatureFlag(p FeatureParams) FeatureFlag {
	if p.Config.Flagsmith.ApiKey == "" {
		return &featureflag{}
	}

	opts := []flagsmith.Option{
		flagsmith.WithAnalytics(),
	}
	if p.Config.Flagsmith.Addr != "" {
		opts = append(opts, flagsmith.WithBaseURL(p.Config.Flagsmith.Addr))
	}

	return &featureflag{
		client: flagsmith.NewClient(p.Config.Flagsmith.ApiKey, opts...),
	}
}

func (s *featureflag) Enabled(ctx context.Context, identifier, feature string) (bool, error) {
	if s.client == nil {
		return true, nil
	}

	flags, err := s.client.GetIdentityFlags(identifier, nil)
	if err != nil {
		return true, err
	}

	enabled, err := flags.IsFeatureEnabled(feature)
	if err != nil {
		// feature not defined in flagsmith
		return true, nil
	}
	return enabled, nil
}
