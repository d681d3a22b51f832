package config // package config loads application configuration from environment variables

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable; optional ones fall back to the defaults listed in
// Load.
type Config struct {
	Env             string // application environment (dev, test, prod)
	Port            string // HTTP port to listen on
	DBUser          string // database username
	DBPass          string // database password (optional)
	DBHost          string // database host address
	DBPort          string // database port number
	DBName          string // database name
	JWTSecret       string // secret used to sign session tokens
	SessionTTLHours int    // session lifetime in hours
	CookieName      string // name of the HTTP-only session cookie
	CookieSecure    bool   // mark the session cookie Secure (on in prod)
	BcryptCost      int    // bcrypt work factor for password hashing
	PriceTolerance  int64  // allowed rounding drift between client and server totals
	RabbitURL       string // AMQP URL; empty disables the broker relay
	BusBuffer       int    // per-subscriber buffer of the notification bus
	AllowedOrigin   string // storefront origin allowed by CORS
}

// Load reads configuration values from the environment.  A .env file in the
// working directory is loaded first when present; real environment variables
// win over it.  Missing required variables stop the process.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("config: .env ignored: %v", err)
	}
	env := must("APP_ENV")
	return Config{
		Env:             env,
		Port:            envStr("APP_PORT", "5000"),
		DBUser:          must("DB_USER"),
		DBPass:          os.Getenv("DB_PASS"),
		DBHost:          must("DB_HOST"),
		DBPort:          envStr("DB_PORT", "3306"),
		DBName:          must("DB_NAME"),
		JWTSecret:       must("JWT_SECRET"),
		SessionTTLHours: envInt("SESSION_TTL_HOURS", 24*5),
		CookieName:      envStr("COOKIE_NAME", "token"),
		CookieSecure:    envBool("COOKIE_SECURE", env == "prod"),
		BcryptCost:      envInt("BCRYPT_COST", 10),
		PriceTolerance:  int64(envInt("PRICE_TOLERANCE", 1)),
		RabbitURL:       rabbitURL(),
		BusBuffer:       envInt("BUS_BUFFER", 16),
		AllowedOrigin:   envStr("CORS_ORIGIN", "http://localhost:5173"),
	}
}

// rabbitURL honours RABBITMQ_URL and the older AMQP_URL name.
func rabbitURL() string {
	if v := os.Getenv("RABBITMQ_URL"); v != "" {
		return v
	}
	return os.Getenv("AMQP_URL")
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}
