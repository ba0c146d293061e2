package config

import (
	"fmt"

	"github.com/caarlos0/env"
)

type config struct {
	Production bool   `env:"PRODUCTION" envDefault:"false"`
	Port       string `env:"PORT" envDefault:"8000"`

	CalendarBackend string `env:"CALENDAR_BACKEND" envDefault:"caldav"`
	DefaultCalendar string `env:"DEFAULT_CALENDAR" envDefault:""`

	CalDAVURL      string `env:"CALDAV_URL" envDefault:""`
	CalDAVUsername string `env:"CALDAV_USERNAME" envDefault:""`
	CalDAVPassword string `env:"CALDAV_PASSWORD" envDefault:""`

	PostgresUrl string `env:"POSTGRES_URL" envDefault:""`

	ClientSecretPath string `env:"CLIENT_SECRET_PATH" envDefault:"secrets/client_secret.json"`
	TokenPath        string `env:"TOKEN_PATH" envDefault:"secrets/token.json"`
	GoogleCalendarID string `env:"GOOGLE_CALENDAR_ID" envDefault:"primary"`

	DeepSeekAPIKey  string `env:"DEEPSEEK_API_KEY" envDefault:""`
	DeepSeekBaseURL string `env:"DEEPSEEK_BASE_URL" envDefault:"https://api.deepseek.com"`
	DeepSeekModel   string `env:"DEEPSEEK_MODEL" envDefault:"deepseek-chat"`

	HistoryLimit int `env:"HISTORY_LIMIT" envDefault:"20"`
}

var conf config

func init() {
	if err := env.Parse(&conf); err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
}

func Production() bool {
	return conf.Production
}

func Port() string {
	return conf.Port
}

func CalendarBackend() string {
	return conf.CalendarBackend
}

func DefaultCalendar() string {
	return conf.DefaultCalendar
}

func CalDAVURL() string {
	return conf.CalDAVURL
}

func CalDAVUsername() string {
	return conf.CalDAVUsername
}

func CalDAVPassword() string {
	return conf.CalDAVPassword
}

func PostgresURL() string {
	return conf.PostgresUrl
}

func ClientSecretPath() string {
	return conf.ClientSecretPath
}

func TokenPath() string {
	return conf.TokenPath
}

func GoogleCalendarID() string {
	return conf.GoogleCalendarID
}

func DeepSeekAPIKey() string {
	return conf.DeepSeekAPIKey
}

func DeepSeekBaseURL() string {
	return conf.DeepSeekBaseURL
}

func DeepSeekModel() string {
	return conf.DeepSeekModel
}

func HistoryLimit() int {
	return conf.HistoryLimit
}
