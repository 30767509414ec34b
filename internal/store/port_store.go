package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"

	"handover-launcher/internal/config"
	"handover-launcher/internal/logger"
	"handover-launcher/internal/models"
	"handover-launcher/internal/utils"
)

// ConfigIOError reports a failed read or write of a launcher JSON file
type ConfigIOError struct {
	Op   string
	Path string
	Err  error
}

func (e *ConfigIOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *ConfigIOError) Unwrap() error {
	return e.Err
}

var ErrCorrupt = errors.New("not a valid JSON object")

/**
 * PortStore persists the PortConfig record
 * @property {string} path - server_config.json, last-used port and OS integration state
 * @property {string} defaultPath - server_default_config.json, optional {"default_port": n}
 * @description
 * - Fields are read one by one, a wrong type in one field does not discard the others
 * - Writes patch the existing document, unknown keys are preserved
 */
type PortStore struct {
	mu          sync.Mutex
	path        string
	defaultPath string
}

// New 创建绑定到发布目录的配置存储
func New(layout config.Layout) *PortStore {
	return NewAt(layout.PortConfigPath(), layout.DefaultConfigPath())
}

func NewAt(path, defaultPath string) *PortStore {
	return &PortStore{path: path, defaultPath: defaultPath}
}

func (s *PortStore) Path() string {
	return s.path
}

func readObject(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(data) || !gjson.ParseBytes(data).IsObject() {
		return nil, ErrCorrupt
	}
	return data, nil
}

// portField returns the value of key when it is an integer port in range
func portField(data []byte, key string) (int, bool) {
	r := gjson.GetBytes(data, key)
	if r.Type != gjson.Number {
		return 0, false
	}
	port := int(r.Int())
	if float64(port) != r.Float() || utils.ValidatePort(port) != nil {
		return 0, false
	}
	return port, true
}

/**
 * Default port offered when nothing else was chosen
 * @returns {int} default_port of server_default_config.json, else 8500
 */
func (s *PortStore) DefaultPort() int {
	if s.defaultPath == "" {
		return config.DefaultPort
	}
	data, err := readObject(s.defaultPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Warnf("Ignoring %s: %v", s.defaultPath, err)
		}
		return config.DefaultPort
	}
	if port, ok := portField(data, "default_port"); ok {
		return port
	}
	logger.Warnf("Ignoring invalid default_port in %s", s.defaultPath)
	return config.DefaultPort
}

/**
 * Last-used port
 * @returns {int} Stored port, or DefaultPort when the file is missing, corrupt or out of range
 * @description
 * - Never fails, problems are logged as warnings
 */
func (s *PortStore) LoadPort() int {
	return s.Load().Port
}

/**
 * Read the whole record
 * @returns {models.PortConfig} Stored values over defaults
 */
func (s *PortStore) Load() models.PortConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *PortStore) load() models.PortConfig {
	cfg := models.PortConfig{
		Port:          s.DefaultPort(),
		AutoStartMode: models.AutoStartGUI,
	}

	data, err := readObject(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Debugf("No saved configuration at %s, using port %d", s.path, cfg.Port)
		} else {
			logger.Warnf("Error loading configuration %s: %v, using port %d", s.path, err, cfg.Port)
		}
		return cfg
	}

	if port, ok := portField(data, "port"); ok {
		cfg.Port = port
	} else if gjson.GetBytes(data, "port").Exists() {
		logger.Warnf("Invalid port %s in %s, using %d", gjson.GetBytes(data, "port").Raw, s.path, cfg.Port)
	}
	cfg.AutoStartEnabled = gjson.GetBytes(data, "autoStartEnabled").Bool()
	if mode := models.AutoStartMode(gjson.GetBytes(data, "autoStartMode").String()); mode.Valid() {
		cfg.AutoStartMode = mode
	}
	if delay := gjson.GetBytes(data, "autoStartDelaySeconds"); delay.Type == gjson.Number && delay.Int() >= 0 {
		cfg.AutoStartDelaySeconds = int(delay.Int())
	}
	if fw, ok := portField(data, "firewallPort"); ok {
		cfg.FirewallPort = &fw
	}
	return cfg
}

/**
 * Persist the last-used port
 * @param {int} port - Port in [1, 65535]
 * @returns {error} utils.ErrInvalidPort before any write, *ConfigIOError on write failure
 */
func (s *PortStore) SavePort(port int) error {
	return s.Update(func(cfg *models.PortConfig) {
		cfg.Port = port
	})
}

// Save writes the whole record
func (s *PortStore) Save(cfg models.PortConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(cfg)
}

/**
 * Read-modify-write of the record
 * @param {func(*models.PortConfig)} fn - Mutation applied to the current values
 */
func (s *PortStore) Update(fn func(cfg *models.PortConfig)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg := s.load()
	fn(&cfg)
	return s.save(cfg)
}

func (s *PortStore) save(cfg models.PortConfig) error {
	if err := utils.ValidatePort(cfg.Port); err != nil {
		return err
	}
	if cfg.FirewallPort != nil {
		if err := utils.ValidatePort(*cfg.FirewallPort); err != nil {
			return err
		}
	}
	if !cfg.AutoStartMode.Valid() {
		cfg.AutoStartMode = models.AutoStartGUI
	}

	// 保留文件中未知的字段
	doc, err := readObject(s.path)
	if err != nil {
		doc = []byte("{}")
	}
	fields := []struct {
		key   string
		value interface{}
	}{
		{"port", cfg.Port},
		{"autoStartEnabled", cfg.AutoStartEnabled},
		{"autoStartMode", string(cfg.AutoStartMode)},
		{"autoStartDelaySeconds", cfg.AutoStartDelaySeconds},
	}
	for _, f := range fields {
		if doc, err = sjson.SetBytes(doc, f.key, f.value); err != nil {
			return &ConfigIOError{Op: "encode", Path: s.path, Err: err}
		}
	}
	if cfg.FirewallPort != nil {
		doc, err = sjson.SetBytes(doc, "firewallPort", *cfg.FirewallPort)
	} else {
		doc, err = sjson.SetRawBytes(doc, "firewallPort", []byte("null"))
	}
	if err != nil {
		return &ConfigIOError{Op: "encode", Path: s.path, Err: err}
	}

	if err := writeFileAtomic(s.path, pretty.Pretty(doc)); err != nil {
		return &ConfigIOError{Op: "write", Path: s.path, Err: err}
	}
	logger.Debugf("Configuration saved to %s (port %d)", s.path, cfg.Port)
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".server_config-*.json")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

/**
 * Persist the default port into server_default_config.json
 * @param {int} port - Port in [1, 65535]
 */
func (s *PortStore) SaveDefaultPort(port int) error {
	if err := utils.ValidatePort(port); err != nil {
		return err
	}
	if s.defaultPath == "" {
		return &ConfigIOError{Op: "write", Path: s.defaultPath, Err: os.ErrInvalid}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := readObject(s.defaultPath)
	if err != nil {
		doc = []byte("{}")
	}
	if doc, err = sjson.SetBytes(doc, "default_port", port); err != nil {
		return &ConfigIOError{Op: "encode", Path: s.defaultPath, Err: err}
	}
	if err := writeFileAtomic(s.defaultPath, pretty.Pretty(doc)); err != nil {
		return &ConfigIOError{Op: "write", Path: s.defaultPath, Err: err}
	}
	return nil
}
