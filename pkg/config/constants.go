package config

const (
	// EnvPrefix namespaces every environment variable read by Load.
	EnvPrefix = "NEOINTEGRA"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "NEOINTEGRA_DB_DSN"
	EnvDBHost = "NEOINTEGRA_DB_HOST"
	EnvDBUser = "NEOINTEGRA_DB_USER"
	EnvDBName = "NEOINTEGRA_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
