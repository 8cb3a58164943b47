package config

const (
	// DefaultDatabasePath is the default path of the run ledger.
	DefaultDatabasePath = "./readsync.db"

	// DefaultTimezone is the reading service's home zone; reading days are
	// cut at its midnight.
	DefaultTimezone = "Asia/Shanghai"

	DefaultCatalogBaseURL = "https://neodb.social"
)
