package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
// It is built once in main and passed explicitly into every constructor;
// nothing reads the environment after startup.
type Config struct {
	AppPort string
	AppEnv  string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables

	S3BucketName string

	SNSRegion         string
	SNSPlatformAppARN string // platform application the device tokens register against

	StreamPollInterval time.Duration

	JWTPrivateKeyPath string
	JWTPublicKeyPath  string
	JWTExpiry         time.Duration

	SMTPHost       string
	SMTPPort       string
	SMTPFrom       string
	SMTPUsername   string
	SMTPPassword   string
	SendMailCopies bool // mail distribution lists a copy of workflow events

	WebAppBaseURL string

	// Distribution-list addresses notified per workflow state.
	OperationsList string
	ManagementList string
	FinanceList    string

	RUCAPIBaseURL string
	RUCAPIToken   string

	AllowedOrigins []string // CORS allowed origins
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Orders      string
	Suppliers   string
	Users       string
	Sessions    string
	PushTokens  string // legacy one-token-per-user records
	UserDevices string // per-device token records
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort: getEnv("APP_PORT", "3000"),
		AppEnv:  getEnv("APP_ENV", "development"),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Orders:      getEnv("DYNAMO_TABLE_ORDERS", "ordenes_compra"),
			Suppliers:   getEnv("DYNAMO_TABLE_SUPPLIERS", "proveedores"),
			Users:       getEnv("DYNAMO_TABLE_USERS", "users"),
			Sessions:    getEnv("DYNAMO_TABLE_SESSIONS", "sessions"),
			PushTokens:  getEnv("DYNAMO_TABLE_PUSH_TOKENS", "push_tokens"),
			UserDevices: getEnv("DYNAMO_TABLE_USER_DEVICES", "user_devices"),
		},

		S3BucketName: getEnv("S3_BUCKET_NAME", "oc-exports"),

		SNSRegion:         getEnv("SNS_REGION", "us-east-1"),
		SNSPlatformAppARN: getEnv("SNS_PLATFORM_APP_ARN", ""),

		StreamPollInterval: time.Duration(getEnvInt("STREAM_POLL_INTERVAL_SECONDS", 5)) * time.Second,

		JWTPrivateKeyPath: getEnv("JWT_PRIVATE_KEY_PATH", "./private_key.pem"),
		JWTPublicKeyPath:  getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		JWTExpiry:         time.Duration(getEnvInt("JWT_EXPIRY_DAYS", 7)) * 24 * time.Hour,

		SMTPHost:       getEnv("SMTP_HOST", "localhost"),
		SMTPPort:       getEnv("SMTP_PORT", "1025"),
		SMTPFrom:       getEnv("SMTP_FROM", "noreply@memphis.pe"),
		SMTPUsername:   getEnv("SMTP_USERNAME", ""),
		SMTPPassword:   getEnv("SMTP_PASSWORD", ""),
		SendMailCopies: getEnvBool("SEND_MAIL_COPIES", false),

		WebAppBaseURL: getEnv("WEB_APP_BASE_URL", "https://oc.memphis.pe"),

		OperationsList: getEnv("LIST_OPERACIONES", "operaciones@memphis.pe"),
		ManagementList: getEnv("LIST_GERENCIA", "gerencia@memphis.pe"),
		FinanceList:    getEnv("LIST_FINANZAS", "finanzas@memphis.pe"),

		RUCAPIBaseURL: getEnv("RUC_API_BASE_URL", "https://api.apis.net.pe/v2/sunat"),
		RUCAPIToken:   getEnv("RUC_API_TOKEN", ""),

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
