package config

import (
	"os"
	"sync"

	"github.com/gin-gonic/gin"
	"k8s.io/klog/v2"
	"sigs.k8s.io/yaml"
)

type Config struct {
	// Port Settings
	Host       string `json:"host"`       // The public domain name of the server.
	ServerAddr string `json:"serverAddr"` // The address the server endpoint binds to.

	// AppURL is the browser-facing base URL, used for OAuth redirects.
	AppURL string `json:"appURL"`

	Auth struct {
		SessionSecret   string   `json:"sessionSecret"`
		SessionTTLHours int      `json:"sessionTTLHours"` // defaults to 168 (7 days)
		AdminEmails     []string `json:"adminEmails"`     // reviewers allowed on admin routes
	} `json:"auth"`

	// ItemStore is the headless content backend all collections live in.
	ItemStore struct {
		URL            string `json:"url"`
		Token          string `json:"token"`
		TimeoutSeconds int    `json:"timeoutSeconds"` // per-call bound, defaults to 5
	} `json:"itemStore"`

	OAuth struct {
		GitHub OAuthApp `json:"github"`
		Google OAuthApp `json:"google"`
	} `json:"oauth"`

	SMTP struct {
		Host     string `json:"host"`
		Port     int    `json:"port"`
		User     string `json:"user"`
		Password string `json:"password"`
		Notify   string `json:"notify"` // reviewer inbox for submission notifications
	} `json:"smtp"`

	Catalog struct {
		RefreshSpec string `json:"refreshSpec"` // cron spec for the directory snapshot
	} `json:"catalog"`
}

type OAuthApp struct {
	ClientID     string `json:"clientID"`
	ClientSecret string `json:"clientSecret"`
}

var (
	once   sync.Once
	config *Config
)

func GetConfig() *Config {
	once.Do(func() {
		config = initConfig()
	})
	return config
}

func IsDebugMode() bool {
	return gin.Mode() == gin.DebugMode
}

// initConfig reads the configuration file. In debug mode the path can be
// overridden with BACKLINKFLOW_DEBUG_CONFIG_PATH; otherwise the config is
// expected to be mounted at /etc/config/config.yaml.
func initConfig() *Config {
	config := &Config{}
	var configPath string
	if IsDebugMode() {
		if os.Getenv("BACKLINKFLOW_DEBUG_CONFIG_PATH") != "" {
			configPath = os.Getenv("BACKLINKFLOW_DEBUG_CONFIG_PATH")
		} else {
			configPath = "./etc/debug-config.yaml"
		}
	} else {
		configPath = "/etc/config/config.yaml"
	}
	klog.Info("config path: ", configPath)

	err := readConfig(configPath, config)
	if err != nil {
		klog.Error("init config", err)
		panic(err)
	}
	config.applyDefaults()
	return config
}

func readConfig(filePath string, config *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	err = yaml.Unmarshal(data, config)
	if err != nil {
		return err
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Auth.SessionTTLHours == 0 {
		c.Auth.SessionTTLHours = 24 * 7
	}
	if c.ItemStore.TimeoutSeconds == 0 {
		c.ItemStore.TimeoutSeconds = 5
	}
	if c.Catalog.RefreshSpec == "" {
		c.Catalog.RefreshSpec = "@every 10m"
	}
}
