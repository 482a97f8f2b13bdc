package config

// ConfigBackend is where persisted (non-secret) settings live: the user
// defaults domain on macOS, a JSON file elsewhere. Keys are the dotted names
// from ShowAll, e.g. "api.base_url".
type ConfigBackend interface {
	GetString(key string) (val string, ok bool, err error)
	GetInt(key string) (val int, ok bool, err error)
	SetString(key, val string) error
	SetInt(key string, val int) error
	Delete(key string) error
}
