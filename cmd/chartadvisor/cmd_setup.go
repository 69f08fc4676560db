package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/user/chartadvisor/internal/config"
)

func init() {
	rootCmd.AddCommand(setupCmd)
}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive setup wizard",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		scanner := bufio.NewScanner(os.Stdin)

		fmt.Println("ChartAdvisor Setup Wizard")
		fmt.Println("Press Enter to accept the default value shown in brackets.")
		fmt.Println()

		// 1. Data directory
		cfg.DataDir = ask(scanner, "Data directory", cfg.DataDir)

		// 2. Inbox directory for screenshots
		cfg.InboxDir = ask(scanner, "Screenshot inbox directory", cfg.InboxDir)

		// 3. Trading timezone
		cfg.Timezone = ask(scanner, "Trading timezone (IANA name)", cfg.Timezone)

		// 4. Symbol universe
		symbols := ask(scanner, "Symbols (comma separated)", strings.Join(cfg.Symbols, ","))
		cfg.Symbols = splitList(symbols)

		// 5. Calendar currencies
		currencies := ask(scanner, "Calendar currencies (comma separated)", strings.Join(cfg.Calendar.Currencies, ","))
		cfg.Calendar.Currencies = splitList(currencies)

		// 6. Danger window half-width
		windowStr := ask(scanner, "Danger window minutes", strconv.Itoa(cfg.DangerWindowMinutes))
		if n, err := strconv.Atoi(windowStr); err == nil && n > 0 {
			cfg.DangerWindowMinutes = n
		}

		// 7. Telegram bot token (optional)
		cfg.Telegram.Token = ask(scanner, "Telegram bot token (optional)", cfg.Telegram.Token)

		// 8. Telegram chat id (optional)
		chatStr := ""
		if cfg.Telegram.ChatID != 0 {
			chatStr = strconv.FormatInt(cfg.Telegram.ChatID, 10)
		}
		chatStr = ask(scanner, "Telegram chat id (optional)", chatStr)
		if n, err := strconv.ParseInt(chatStr, 10, 64); err == nil {
			cfg.Telegram.ChatID = n
		}

		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := config.Save(cfgPath, cfg); err != nil {
			return fmt.Errorf("save config: %w", err)
		}

		fmt.Println()
		fmt.Println("Configuration saved to", cfgPath)
		return nil
	},
}

// ask displays a labeled prompt with a default value and reads user input.
// If the user enters nothing, the default is returned.
func ask(scanner *bufio.Scanner, label, defaultVal string) string {
	if defaultVal != "" {
		fmt.Printf("%s [%s]: ", label, defaultVal)
	} else {
		fmt.Printf("%s: ", label)
	}
	if scanner.Scan() {
		input := strings.TrimSpace(scanner.Text())
		if input != "" {
			return input
		}
	}
	return defaultVal
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if s := strings.TrimSpace(part); s != "" {
			out = append(out, strings.ToUpper(s))
		}
	}
	return out
}
