package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Environment
	Environment string

	// Server
	ServerPort string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// JWT
	JWTSecret      string
	JWTExpireHours string

	// Password hashing
	BcryptCost string

	// Super Admin
	SuperAdminEmail    string
	SuperAdminPassword string

	// Registration OTP
	RegisterOTPExpiryMinutes string

	// Password Reset
	PasswordResetExpiryMinutes string

	// Invites
	InviteExpiryDays string

	// Login Rate Limiting
	LoginRateLimitMaxAttempts   string
	LoginRateLimitWindowSeconds string
	LoginRateLimitBlockMinutes  string

	// Register Rate Limiting
	RegisterRateLimitMaxAttempts string
	RegisterRateLimitWindowHours string
	RegisterRateLimitBlockHours  string

	// Password Reset Rate Limiting
	PasswordResetMaxAttempts   string
	PasswordResetWindowMinutes string
	PasswordResetBlockHours    string

	// MinIO Configuration
	MinIOServerURL    string
	MinIORootUser     string
	MinIORootPassword string
	MinIOUseSSL       bool
	MinIOBucketName   string
	MinIOPublicURL    string

	// Audio upload limits
	AudioUploadMaxSizeMB string
}

var cfg *Config

// LoadConfig loads configuration from environment variables
func LoadConfig() {
	envPaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	envLoaded := false
	for _, path := range envPaths {
		if err := godotenv.Load(path); err == nil {
			log.Printf("✅ Environment loaded from: %s", path)
			envLoaded = true
			break
		}
	}

	if !envLoaded {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	cfg = &Config{
		// Environment
		Environment: getEnv("ENVIRONMENT", "development"),

		// Server
		ServerPort: getEnv("SERVER_PORT", "4000"),

		// Database
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "classtrack"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		// JWT
		JWTSecret:      getEnv("JWT_SECRET", "your-secret-key-change-this"),
		JWTExpireHours: getEnv("JWT_EXPIRE_HOURS", "12"),

		// Password hashing
		BcryptCost: getEnv("BCRYPT_COST", "12"),

		// Super Admin
		SuperAdminEmail:    getEnv("SUPER_ADMIN_EMAIL", "admin@classtrack.app"),
		SuperAdminPassword: getEnv("SUPER_ADMIN_PASSWORD", "admin123"),

		// Registration OTP
		RegisterOTPExpiryMinutes: getEnv("REGISTER_OTP_EXPIRY_MINUTES", "10"),

		// Password Reset
		PasswordResetExpiryMinutes: getEnv("PASSWORD_RESET_EXPIRY_MINUTES", "30"),

		// Invites
		InviteExpiryDays: getEnv("INVITE_EXPIRY_DAYS", "7"),

		// Login Rate Limiting
		LoginRateLimitMaxAttempts:   getEnv("LOGIN_RATE_LIMIT_MAX_ATTEMPTS", "5"),
		LoginRateLimitWindowSeconds: getEnv("LOGIN_RATE_LIMIT_WINDOW_SECONDS", "300"),
		LoginRateLimitBlockMinutes:  getEnv("LOGIN_RATE_LIMIT_BLOCK_MINUTES", "30"),

		// Register Rate Limiting
		RegisterRateLimitMaxAttempts: getEnv("REGISTER_RATE_LIMIT_MAX_ATTEMPTS", "3"),
		RegisterRateLimitWindowHours: getEnv("REGISTER_RATE_LIMIT_WINDOW_HOURS", "24"),
		RegisterRateLimitBlockHours:  getEnv("REGISTER_RATE_LIMIT_BLOCK_HOURS", "48"),

		// Password Reset Rate Limiting
		PasswordResetMaxAttempts:   getEnv("PASSWORD_RESET_MAX_ATTEMPTS", "3"),
		PasswordResetWindowMinutes: getEnv("PASSWORD_RESET_WINDOW_MINUTES", "60"),
		PasswordResetBlockHours:    getEnv("PASSWORD_RESET_BLOCK_HOURS", "24"),

		// MinIO Configuration
		MinIOServerURL:    getEnv("MINIO_SERVER_URL", "http://localhost:9000"),
		MinIORootUser:     getEnv("MINIO_ROOT_USER", "minioadmin"),
		MinIORootPassword: getEnv("MINIO_ROOT_PASSWORD", "minioadmin"),
		MinIOUseSSL:       getEnvAsBool("MINIO_USE_SSL", false),
		MinIOBucketName:   getEnv("MINIO_BUCKET_NAME", "classtrack-audio"),
		MinIOPublicURL:    getEnv("MINIO_PUBLIC_URL", ""),

		// Audio upload limits
		AudioUploadMaxSizeMB: getEnv("AUDIO_UPLOAD_MAX_SIZE_MB", "10"),
	}

	log.Println("✅ Configuration loaded successfully")
}

// GetConfig returns the current configuration
func GetConfig() *Config {
	if cfg == nil {
		LoadConfig()
	}
	return cfg
}

// IsProduction reports whether the app runs with production semantics.
// Outside production the OTP and reset endpoints echo their secrets in the
// response body instead of sending email.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// GetBcryptCost returns the bcrypt cost as integer
func (c *Config) GetBcryptCost() int {
	if value, err := strconv.Atoi(c.BcryptCost); err == nil {
		return value
	}
	return 12
}

// GetRegisterOTPExpiryMinutes returns the registration OTP expiry as integer
func (c *Config) GetRegisterOTPExpiryMinutes() int {
	if value, err := strconv.Atoi(c.RegisterOTPExpiryMinutes); err == nil {
		return value
	}
	return 10
}

// GetPasswordResetExpiryMinutes returns the reset token expiry as integer
func (c *Config) GetPasswordResetExpiryMinutes() int {
	if value, err := strconv.Atoi(c.PasswordResetExpiryMinutes); err == nil {
		return value
	}
	return 30
}

// GetInviteExpiryDays returns the invite expiry as integer
func (c *Config) GetInviteExpiryDays() int {
	if value, err := strconv.Atoi(c.InviteExpiryDays); err == nil {
		return value
	}
	return 7
}

// GetAudioUploadMaxSizeMB returns the audio upload size limit as integer
func (c *Config) GetAudioUploadMaxSizeMB() int {
	if value, err := strconv.Atoi(c.AudioUploadMaxSizeMB); err == nil {
		return value
	}
	return 10
}

// GetIntField returns a named rate-limit configuration value as integer
func (c *Config) GetIntField(key string, defaultValue int) int {
	var strValue string
	switch key {
	case "LoginRateLimitMaxAttempts":
		strValue = c.LoginRateLimitMaxAttempts
	case "LoginRateLimitWindowSeconds":
		strValue = c.LoginRateLimitWindowSeconds
	case "LoginRateLimitBlockMinutes":
		strValue = c.LoginRateLimitBlockMinutes
	case "RegisterRateLimitMaxAttempts":
		strValue = c.RegisterRateLimitMaxAttempts
	case "RegisterRateLimitWindowHours":
		strValue = c.RegisterRateLimitWindowHours
	case "RegisterRateLimitBlockHours":
		strValue = c.RegisterRateLimitBlockHours
	case "PasswordResetMaxAttempts":
		strValue = c.PasswordResetMaxAttempts
	case "PasswordResetWindowMinutes":
		strValue = c.PasswordResetWindowMinutes
	case "PasswordResetBlockHours":
		strValue = c.PasswordResetBlockHours
	default:
		return defaultValue
	}

	if strValue == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(strValue)
	if err != nil {
		log.Printf("Warning: Could not convert %s value '%s' to int, using default %d", key, strValue, defaultValue)
		return defaultValue
	}
	return intValue
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
