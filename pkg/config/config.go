package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/jhoicas/ksef-qr/pkg/ksef"
)

// Config agrupa la configuración de la aplicación (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App  AppConfig
	JWT  JWTConfig
	HTTP HTTPConfig
	KSeF KSeFConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env      string // development, staging, production
	Name     string
	LogLevel string
}

// KSeFConfig entorno KSeF y certificado para el KOD II.
type KSeFConfig struct {
	Environment    string // test | demo | prod
	BaseURL        string // override completo de {entorno}/client-app
	CertPath       string // .pem o .p12 (vacío = solo KOD I)
	CertKeyPath    string // llave .pem si CertPath es solo el certificado
	CertPassword   string // contraseña del .p12
	PrivateKeyPath string // llave externa que se entrega al firmar
	StrictNIP      bool   // exigir dígito de control del NIP
}

// VerificationBaseURL URL base de los enlaces: KSEF_BASE_URL o la del entorno.
func (c KSeFConfig) VerificationBaseURL() (string, error) {
	if c.BaseURL != "" {
		return strings.TrimRight(c.BaseURL, "/"), nil
	}
	env, err := ksef.EnvironmentURL(c.Environment)
	if err != nil {
		return "", fmt.Errorf("config: KSEF_ENVIRONMENT: %w", err)
	}
	return ksef.ClientAppURL(env), nil
}

// JWTConfig configuración de JWT. Secret vacío = API sin autenticación.
type JWTConfig struct {
	Secret     string
	Expiration int // minutos
	Issuer     string
}

// HTTPConfig configuración del servidor HTTP.
type HTTPConfig struct {
	Host string
	Port int
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad. Nombres esperados: APP_ENV, HTTP_PORT, KSEF_ENVIRONMENT, etc.
func Load() (*Config, error) {
	v := viper.New()

	// Opcional: archivo de configuración (.env o config.env)
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.SetConfigName("config")
	v.AddConfigPath("./config")
	_ = v.MergeInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Env:      getString(v, "APP_ENV", "development"),
			Name:     getString(v, "APP_NAME", "ksef-qr"),
			LogLevel: getString(v, "LOG_LEVEL", "info"),
		},
		JWT: JWTConfig{
			Secret:     getString(v, "JWT_SECRET", ""),
			Expiration: getInt(v, "JWT_EXPIRATION_MINUTES", 60),
			Issuer:     getString(v, "JWT_ISSUER", "ksef-qr"),
		},
		HTTP: HTTPConfig{
			Host: getString(v, "HTTP_HOST", "0.0.0.0"),
			Port: getInt(v, "HTTP_PORT", 8080),
		},
		KSeF: KSeFConfig{
			Environment:    getString(v, "KSEF_ENVIRONMENT", "test"),
			BaseURL:        getString(v, "KSEF_BASE_URL", ""),
			CertPath:       getString(v, "KSEF_CERT_PATH", ""),
			CertKeyPath:    getString(v, "KSEF_CERT_KEY_PATH", ""),
			CertPassword:   getString(v, "KSEF_CERT_PASSWORD", ""),
			PrivateKeyPath: getString(v, "KSEF_PRIVATE_KEY_PATH", ""),
			StrictNIP:      getBool(v, "KSEF_STRICT_NIP", false),
		},
	}
	if cfg.HTTP.Port <= 0 || cfg.HTTP.Port > 65535 {
		return nil, fmt.Errorf("config: HTTP_PORT fuera de rango: %d", cfg.HTTP.Port)
	}
	if _, err := cfg.KSeF.VerificationBaseURL(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case int:
			return v.GetInt(key)
		case string:
			n, _ := strconv.Atoi(v.GetString(key))
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}

func getBool(v *viper.Viper, key string, def bool) bool {
	if v.IsSet(key) {
		return v.GetBool(key)
	}
	return def
}
