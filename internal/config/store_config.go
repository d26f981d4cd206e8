package config

const (
	StoreDriverMemory = "memory"
	StoreDriverSQLite = "sqlite"
	StoreDriverValkey = "valkey"
)

type StoreConfig interface {
	GetStoreDriver() string
	GetSQLitePath() string
	GetValkeyAddr() string
}

type Store struct {
	Driver     string `env:"STORE_DRIVER" envDefault:"memory"`
	SQLitePath string `env:"SQLITE_PATH"`
	ValkeyAddr string `env:"VALKEY_ADDR"`
}

var _ StoreConfig = Store{}

func (s Store) GetStoreDriver() string {
	return s.Driver
}

func (s Store) GetSQLitePath() string {
	return s.SQLitePath
}

func (s Store) GetValkeyAddr() string {
	return s.ValkeyAddr
}
