package config

const (
	// EnvPrefix is passed to envconfig; individual fields carry explicit
	// ORDERFLOW_ names so the prefix stays empty.
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv = "ORDERFLOW_APP_ENV"
	EnvPort   = "ORDERFLOW_APP_PORT"

	EnvDBDSN  = "ORDERFLOW_DB_DSN"
	EnvDBHost = "ORDERFLOW_DB_HOST"
	EnvDBUser = "ORDERFLOW_DB_USER"
	EnvDBName = "ORDERFLOW_DB_NAME"

	EnvBrokerURL = "ORDERFLOW_RABBITMQ_URL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
