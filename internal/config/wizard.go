package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard, saves the result to
// path and returns it.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to naflume! Let's configure your server.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Port.
	portPrompt := promptui.Prompt{
		Label:    "HTTP port",
		Default:  strconv.Itoa(cfg.Server.Port),
		Validate: validatePort,
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port: %w", err)
	}
	cfg.Server.Port, _ = strconv.Atoi(portStr)

	// 2. Database location.
	dbPrompt := promptui.Prompt{
		Label:   "SQLite database path",
		Default: cfg.Database.Path,
	}
	if cfg.Database.Path, err = dbPrompt.Run(); err != nil {
		return nil, fmt.Errorf("database path: %w", err)
	}

	// 3. Built web app.
	staticPrompt := promptui.Prompt{
		Label:   "Directory of the built web app",
		Default: cfg.Assets.StaticDir,
	}
	if cfg.Assets.StaticDir, err = staticPrompt.Run(); err != nil {
		return nil, fmt.Errorf("static dir: %w", err)
	}

	// 4. Secondary translation language.
	langPrompt := promptui.Select{
		Label: "Secondary translation",
		Items: []string{
			"id.indonesian - Bahasa Indonesia",
			"ms.basmeih    - Bahasa Melayu",
			"ur.jalandhry  - Urdu",
			"tr.diyanet    - Turkish",
		},
	}
	_, langItem, err := langPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("translation selection: %w", err)
	}
	edition := strings.Fields(langItem)[0]
	cfg.Quran.SecondaryEdition = edition
	cfg.Quran.Translations = []string{cfg.Quran.SearchEdition, edition}

	// 5. Log format.
	logPrompt := promptui.Select{
		Label: "Log format",
		Items: []string{string(LogModeDev), string(LogModeProd)},
	}
	_, logMode, err := logPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("log mode: %w", err)
	}
	cfg.LogMode = LogMode(logMode)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}

func validatePort(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("port must be a number")
	}
	if n <= 0 || n > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}
	return nil
}
