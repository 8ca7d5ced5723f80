package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// GetDefaults returns application default paths, checking environment variables first.
// Environment variables:
//   - CREATORVAULT_CONFIG_PATH: config file location (default: ~/.config/creatorvault.toml)
//   - CREATORVAULT_HOME: base directory for creatorvault data (default: ~/.local/share/creatorvault)
func GetDefaults() (map[string]string, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	baseDir, err := getBaseDir()
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"config_path": configPath,
		"base_dir":    baseDir,
		"log_dir":     filepath.Join(baseDir, "log"),
	}, nil
}

// PassphraseEnv names the variable read before prompting for a passphrase.
const PassphraseEnv = "CREATORVAULT_PASSPHRASE"

func getConfigPath() (string, error) {
	if path := os.Getenv("CREATORVAULT_CONFIG_PATH"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "creatorvault.toml"), nil
}

func getBaseDir() (string, error) {
	if path := os.Getenv("CREATORVAULT_HOME"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "creatorvault"), nil
}
