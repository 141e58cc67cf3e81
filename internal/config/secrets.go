package config

// RedactedConfig returns a shallow copy of cfg with sensitive fields replaced
// by the redaction placeholder "***". Use this when logging or printing the
// active configuration so secrets are never accidentally exposed.
func RedactedConfig(cfg *Config) Config {
	out := *cfg

	redact(&out.Postgres.DSN)
	redact(&out.Postgres.Password)
	redact(&out.Redis.Password)
	redact(&out.S3.AccessKey)
	redact(&out.S3.SecretKey)
	redact(&out.Alerts.TelegramToken)
	redact(&out.Alerts.DiscordWebhook)

	// Copy slices so callers cannot mutate the original through the redacted
	// copy.
	if cfg.Server.CORSOrigins != nil {
		out.Server.CORSOrigins = make([]string, len(cfg.Server.CORSOrigins))
		copy(out.Server.CORSOrigins, cfg.Server.CORSOrigins)
	}
	if cfg.Server.OperatorKeys != nil {
		out.Server.OperatorKeys = make([]string, len(cfg.Server.OperatorKeys))
		for i := range cfg.Server.OperatorKeys {
			out.Server.OperatorKeys[i] = redacted
		}
	}
	if cfg.Engine.Admins != nil {
		out.Engine.Admins = append([]string(nil), cfg.Engine.Admins...)
	}
	if cfg.Engine.Operators != nil {
		out.Engine.Operators = append([]string(nil), cfg.Engine.Operators...)
	}
	if cfg.Ledger.OpenSeasons != nil {
		out.Ledger.OpenSeasons = append([]uint64(nil), cfg.Ledger.OpenSeasons...)
	}
	if cfg.Alerts.Events != nil {
		out.Alerts.Events = append([]string(nil), cfg.Alerts.Events...)
	}

	return out
}

const redacted = "***"

// redact replaces a non-empty string with the redacted placeholder.
func redact(s *string) {
	if *s != "" {
		*s = redacted
	}
}
