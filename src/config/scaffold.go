package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scaffold writes a starter configuration to path. It refuses to
// overwrite an existing file and creates the file with mode 0600 so the
// permission check passes on first load.
func Scaffold(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file %s already exists", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	sample := rawConfig{
		Credentials: []rawCredential{
			{Name: "default", Type: "plain", Value: "default.pwd", Comment: "password file next to this config"},
		},
		Scopes: []rawScope{
			{Name: "home", Includes: "home.includes", Ignores: []string{"*.tmp", ".cache"}},
		},
		Targets: []rawTarget{
			{Name: "usbstick", Kind: "local", Location: "/media/backup", Credentials: "default", Scope: "home", AutoCreate: true},
		},
	}
	data, err := yaml.Marshal(sample)
	if err != nil {
		return fmt.Errorf("encode default config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
