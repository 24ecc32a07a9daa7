package coldvault

import (
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Config is the environment-variable configuration for a backup run.
type Config struct {
	SiteDirectory    string `envconfig:"SITE_DIRECTORY"`
	MysqlHost        string `envconfig:"MYSQL_HOST"`
	MysqlPort        string `envconfig:"MYSQL_PORT" default:"3306"`
	MysqlDatabase    string `envconfig:"MYSQL_DATABASE"`
	MysqlUser        string `envconfig:"MYSQL_USER"`
	MysqlPassword    string `envconfig:"MYSQL_PASSWORD"`
	DumpCommand      string `envconfig:"DUMP_COMMAND"`
	BackupsDirectory string `envconfig:"BACKUPS_DIRECTORY" default:"backups"`
	AwsRegion        string `envconfig:"AWS_REGION" default:"us-east-2"`
	Vault            string `envconfig:"GLACIER_VAULT"`
	KeepLocal        int    `envconfig:"KEEP_LOCAL" default:"3"`
	Verbosity        string `envconfig:"VERBOSITY" default:"info"`
}

// LoadConfig reads the configuration from the environment.  The
// MYSQL_* variables are only required when DUMP_COMMAND doesn't
// replace the default mysqldump invocation.
func LoadConfig() (cfg *Config, err error) {
	cfg = &Config{}
	err = envconfig.Process("", cfg)
	if err != nil {
		return nil, err
	}

	if cfg.Vault == "" {
		return nil, errors.New("GLACIER_VAULT is required")
	}
	if cfg.DumpCommand == "" {
		for name, val := range map[string]string{
			"MYSQL_HOST":     cfg.MysqlHost,
			"MYSQL_DATABASE": cfg.MysqlDatabase,
			"MYSQL_USER":     cfg.MysqlUser,
			"MYSQL_PASSWORD": cfg.MysqlPassword,
		} {
			if val == "" {
				return nil, errors.Errorf("%s is required (or set DUMP_COMMAND)", name)
			}
		}
	}
	return
}

// LogLevel parses VERBOSITY into a logrus level, falling back to
// Info on garbage.
func (cfg *Config) LogLevel() log.Level {
	level, err := log.ParseLevel(cfg.Verbosity)
	if err != nil {
		return log.InfoLevel
	}
	return level
}
