package backend

import (
	"fmt"

	"contable/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	return Config{
		Type:          backendType,
		KeyPrefix:     appConfig.StoreKeyPrefix,
		SQLiteDBPath:  appConfig.SQLiteDBPath,
		RedisAddr:     appConfig.RedisAddr,
		RedisPassword: appConfig.RedisPassword,
		RedisDB:       appConfig.RedisDB,
	}, nil
}

func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	switch c.Type {
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite backend")
		}
	case RedisBackend:
		if c.RedisAddr == "" {
			return fmt.Errorf("Redis address is required for redis backend")
		}
		if c.RedisDB < 0 {
			return fmt.Errorf("Redis database index cannot be negative")
		}
	case MemoryBackend:
		// nothing to check, data lives only as long as the process
	}

	return nil
}

// RequireShared fails for backends another process cannot read, such as the
// in-process memory store.
func (c Config) RequireShared() error {
	if !c.Type.Shared() {
		return fmt.Errorf("backend %s is process-local, use sqlite or redis", c.Type)
	}
	return nil
}

// GetBackendTypes returns all valid backend types
func GetBackendTypes() []BackendType {
	return []BackendType{SQLiteBackend, RedisBackend, MemoryBackend}
}

// GetBackendTypeStrings returns all valid backend type strings
func GetBackendTypeStrings() []string {
	types := GetBackendTypes()
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = t.String()
	}
	return out
}
