package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/AryaMajumder/px4-jmavsim/internal/ports"
)

// Config captures the broker connection details, including the credentials
// already resolved by the configuration loader.
type Config struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	ClientID string `yaml:"client_id"`
	Username string `yaml:"username"`
	Password string `yaml:"-"`

	TLSCA   string `yaml:"tls_ca"`
	TLSCert string `yaml:"tls_cert"`
	TLSKey  string `yaml:"tls_key"`

	Keepalive time.Duration `yaml:"keepalive"`
}

func (c *Config) ApplyDefaults() {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 1883
	}
	if c.ClientID == "" {
		c.ClientID = "mavbridge"
	}
	if c.Keepalive == 0 {
		c.Keepalive = 60 * time.Second
	}
}

func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if (c.TLSCert == "") != (c.TLSKey == "") {
		return errors.New("tls_cert and tls_key must be set together")
	}
	if c.TLSCert != "" && c.TLSCA == "" {
		return errors.New("tls_ca is required when a client certificate is set")
	}
	return nil
}

// Sink publishes payloads to an MQTT broker. The paho client runs its own
// delivery loop and reconnects on its own; the bridge only observes the
// connection state for logging.
type Sink struct {
	client paho.Client
}

// Connect builds the client and starts connecting. An unreachable broker is
// not fatal here: connect retries continue in the background and publishes
// are queued by the client in the meantime.
func Connect(cfg Config) (*Sink, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := paho.NewClientOptions().
		AddBroker(brokerURL(cfg)).
		SetClientID(cfg.ClientID).
		SetKeepAlive(cfg.Keepalive).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(2 * time.Second)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	if cfg.TLSCA != "" {
		tlsCfg, err := newTLSConfig(cfg)
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}

	opts.SetOnConnectHandler(func(paho.Client) {
		log.Printf("mqtt: connected to %s:%d", cfg.Host, cfg.Port)
	})
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		log.Printf("mqtt: connection lost: %v", err)
	})

	client := paho.NewClient(opts)
	token := client.Connect()
	go func() {
		token.Wait()
		if err := token.Error(); err != nil {
			log.Printf("mqtt: initial connect failed: %v", err)
		}
	}()

	return &Sink{client: client}, nil
}

func (s *Sink) IsConnected() bool {
	return s.client.IsConnectionOpen()
}

// AwaitConnection polls the connection state up to timeout. The caller
// publishes regardless of the outcome.
func (s *Sink) AwaitConnection(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if s.client.IsConnectionOpen() {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(50 * time.Millisecond)
	}
}

// publishWait bounds how long Publish blocks on the delivery token. Long
// enough to surface synchronous client errors, short enough that a slow
// broker cannot stall the pipeline.
const publishWait = 250 * time.Millisecond

// Publish hands the payload to the client and reports errors the client
// raised within the wait window. A token still in flight after the window is
// left to the client's delivery loop.
func (s *Sink) Publish(topic string, payload []byte, qos byte) error {
	token := s.client.Publish(topic, qos, false, payload)
	if !token.WaitTimeout(publishWait) {
		return nil
	}
	return token.Error()
}

func (s *Sink) Disconnect() {
	s.client.Disconnect(250)
}

func brokerURL(cfg Config) string {
	scheme := "tcp"
	if cfg.TLSCA != "" {
		scheme = "ssl"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, cfg.Host, cfg.Port)
}

func newTLSConfig(cfg Config) (*tls.Config, error) {
	caPEM, err := os.ReadFile(cfg.TLSCA)
	if err != nil {
		return nil, fmt.Errorf("mqtt: read tls_ca: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caPEM) {
		return nil, fmt.Errorf("mqtt: no certificates found in %s", cfg.TLSCA)
	}

	tlsCfg := &tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12}

	if cfg.TLSCert != "" {
		cert, err := tls.LoadX509KeyPair(cfg.TLSCert, cfg.TLSKey)
		if err != nil {
			return nil, fmt.Errorf("mqtt: load client certificate: %w", err)
		}
		tlsCfg.Certificates = []tls.Certificate{cert}
	}

	return tlsCfg, nil
}

var _ ports.MessageSink = (*Sink)(nil)
