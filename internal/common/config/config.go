package config

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig          `mapstructure:"app"`
	Store         RedisConfig        `mapstructure:"store"`
	Loan          LoanConfig         `mapstructure:"loan"`
	Auth          AuthConfig         `mapstructure:"auth"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Metrics       MetricsConfig      `mapstructure:"metrics"`
	Logging       LoggingConfig      `mapstructure:"logging"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// RedisConfig holds the connection settings for the key-value store.
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LoanConfig holds the lending policy knobs. Defaults mirror the product
// rules: income at or above the threshold auto-approves, the initial offer
// is offer_ratio of monthly income, and repayment falls due a year out.
type LoanConfig struct {
	ApprovalThreshold int     `mapstructure:"approval_threshold"`
	OfferRatio        float64 `mapstructure:"offer_ratio"`
	InterestRate      float64 `mapstructure:"interest_rate"` // percent, annual
	TermMonths        int     `mapstructure:"term_months"`
	RepaymentDays     int     `mapstructure:"repayment_days"`
}

// AuthConfig holds settings for the demo OTP sign-in flow.
type AuthConfig struct {
	DemoOTPCode string `mapstructure:"demo_otp_code"`
	OTPLength   int    `mapstructure:"otp_length"`
}

// NotificationConfig holds settings for status and OTP notifications.
type NotificationConfig struct {
	Email EmailConfig `mapstructure:"email"`
	SMS   SMSConfig   `mapstructure:"sms"`
	AWS   AWSConfig   `mapstructure:"aws"`
}

type EmailConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	FromEmail string `mapstructure:"from_email"`
}

type SMSConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	SenderID string `mapstructure:"sender_id"`
}

type AWSConfig struct {
	Region string `mapstructure:"region"`
}

// MetricsConfig holds settings for the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
