package config

import "time"

// File represents the structure of the .estatewatch configuration file.
// Every field is optional; zero values keep the current setting.
type File struct {
	Source   SourceConfig  `yaml:"source,omitempty"`
	Schedule string        `yaml:"schedule,omitempty"`
	Storage  StorageConfig `yaml:"storage,omitempty"`
	Notify   NotifyConfig  `yaml:"notify,omitempty"`
	Log      LogConfig     `yaml:"log,omitempty"`
}

// SourceConfig describes the listing source and how to request it.
type SourceConfig struct {
	// Endpoint is the URL page requests are POSTed to.
	Endpoint string `yaml:"endpoint,omitempty"`

	Timeout      time.Duration `yaml:"timeout,omitempty"`
	UserAgent    string        `yaml:"userAgent,omitempty"`
	MaxBodySize  int64         `yaml:"maxBodySize,omitempty"`
	ProxyAddress string        `yaml:"proxy,omitempty"`

	// Cookie is an HTTP cookie sent with every page request.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are custom HTTP headers sent with every page request.
	Headers map[string]string `yaml:"headers,omitempty"`

	Selectors SelectorsConfig `yaml:"selectors,omitempty"`
}

// SelectorsConfig overrides the CSS selectors used on the results markup.
type SelectorsConfig struct {
	Card          string `yaml:"card,omitempty"`
	Address       string `yaml:"address,omitempty"`
	Description   string `yaml:"description,omitempty"`
	Price         string `yaml:"price,omitempty"`
	DetailLink    string `yaml:"detailLink,omitempty"`
	IDParam       string `yaml:"idParam,omitempty"`
	Pager         string `yaml:"pager,omitempty"`
	PagerLast     string `yaml:"pagerLast,omitempty"`
	PageCountAttr string `yaml:"pageCountAttr,omitempty"`
}

// StorageConfig selects and configures the snapshot store.
type StorageConfig struct {
	Driver   string         `yaml:"driver,omitempty"`
	DataDir  string         `yaml:"dataDir,omitempty"`
	Postgres PostgresConfig `yaml:"postgres,omitempty"`
}

// PostgresConfig configures the postgres driver.
type PostgresConfig struct {
	DSN      string `yaml:"dsn,omitempty"`
	MaxConns int    `yaml:"maxConns,omitempty"`
}

// NotifyConfig configures change notifications.
type NotifyConfig struct {
	// LinkBase is prepended to a listing ID to form its detail link.
	LinkBase string      `yaml:"link_base,omitempty"`
	Email    EmailConfig `yaml:"email,omitempty"`
}

// EmailConfig configures the SMTP notifier.
type EmailConfig struct {
	Host      string        `yaml:"host,omitempty"`
	Port      int           `yaml:"port,omitempty"`
	Username  string        `yaml:"username,omitempty"`
	Password  string        `yaml:"password,omitempty"`
	From      string        `yaml:"from,omitempty"`
	To        []string      `yaml:"to,omitempty"`
	TLSPolicy string        `yaml:"tls_policy,omitempty"`
	Timeout   time.Duration `yaml:"timeout,omitempty"`
}

// LogConfig configures log output.
type LogConfig struct {
	Verbose bool `yaml:"verbose,omitempty"`
	JSON    bool `yaml:"json,omitempty"`
}

// Apply overlays the values set in the file onto c.
// Headers are merged, file entries winning over existing ones.
func (f *File) Apply(c *Config) {
	setString(&c.Endpoint, f.Source.Endpoint)
	setString(&c.UserAgent, f.Source.UserAgent)
	setString(&c.ProxyAddress, f.Source.ProxyAddress)
	setString(&c.Cookie, f.Source.Cookie)
	if f.Source.Timeout > 0 {
		c.Timeout = f.Source.Timeout
	}
	if f.Source.MaxBodySize != 0 {
		c.MaxBodySize = f.Source.MaxBodySize
	}
	if len(f.Source.Headers) > 0 {
		if c.Headers == nil {
			c.Headers = make(map[string]string, len(f.Source.Headers))
		}
		for k, v := range f.Source.Headers {
			c.Headers[k] = v
		}
	}

	s := f.Source.Selectors
	setString(&c.Selectors.Card, s.Card)
	setString(&c.Selectors.Address, s.Address)
	setString(&c.Selectors.Description, s.Description)
	setString(&c.Selectors.Price, s.Price)
	setString(&c.Selectors.DetailLink, s.DetailLink)
	setString(&c.Selectors.IDParam, s.IDParam)
	setString(&c.Selectors.Pager, s.Pager)
	setString(&c.Selectors.PagerLast, s.PagerLast)
	setString(&c.Selectors.PageCountAttr, s.PageCountAttr)

	setString(&c.Schedule, f.Schedule)

	setString(&c.StorageDriver, f.Storage.Driver)
	setString(&c.DataDir, f.Storage.DataDir)
	setString(&c.PostgresDSN, f.Storage.Postgres.DSN)
	if f.Storage.Postgres.MaxConns != 0 {
		c.PostgresMaxConns = f.Storage.Postgres.MaxConns
	}

	setString(&c.LinkBase, f.Notify.LinkBase)
	e := f.Notify.Email
	setString(&c.SMTPHost, e.Host)
	setString(&c.SMTPUsername, e.Username)
	setString(&c.SMTPPassword, e.Password)
	setString(&c.MailFrom, e.From)
	setString(&c.SMTPTLSPolicy, e.TLSPolicy)
	if e.Port > 0 {
		c.SMTPPort = e.Port
	}
	if e.Timeout > 0 {
		c.SMTPTimeout = e.Timeout
	}
	if len(e.To) > 0 {
		c.MailTo = append([]string(nil), e.To...)
	}

	if f.Log.Verbose {
		c.Verbose = true
	}
	if f.Log.JSON {
		c.LogJSON = true
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
