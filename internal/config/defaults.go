package config

// GetDefaults returns the default configuration values
func GetDefaults() map[string]interface{} {
	defaults := make(map[string]interface{}, len(KnownKeys))
	for key, schema := range KnownKeys {
		defaults[key] = schema.Default
	}
	return defaults
}
