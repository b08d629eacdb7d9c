package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"benlowery/agentctl/internal/config"
	"benlowery/agentctl/internal/util"

	"github.com/spf13/cobra"
)

// SetCommand returns the "config set" command.
func SetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: "Set a persistent configuration value.\n\n" +
			config.KeysHelp() +
			"\nExamples:\n" +
			"  agentctl config set api-url https://console.example.com\n" +
			"  agentctl config set concurrency 8",
		Args: cobra.ExactArgs(2),
		Run:  runSet,
	}

	return cmd
}

// validators maps key names to optional pre-save validation functions.
// Keys not present in this map have no extra validation.
var validators = map[string]func(cmd *cobra.Command, value string) error{
	"api-url":         validateAPIURL,
	"default-timeout": validateTimeout,
	"concurrency":     validateConcurrency,
}

func runSet(cmd *cobra.Command, args []string) {
	key := util.NormalizeKey(args[0])
	value := strings.TrimSpace(args[1])

	spec := config.Lookup(key)
	if spec == nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: unknown configuration key %q\n", args[0])
		fmt.Fprintf(cmd.ErrOrStderr(), "Valid keys: %s\n", strings.Join(config.KeyNames(), ", "))
		return
	}

	if validate, ok := validators[spec.Name]; ok {
		if err := validate(cmd, value); err != nil {
			return // validate already printed the error
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return
	}

	spec.Set(cfg, value)
	if err := cfg.Save(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s set to %q\n", spec.Name, value)
}

// validateAPIURL checks that the value parses as an absolute http(s) URL.
func validateAPIURL(cmd *cobra.Command, value string) error {
	u, err := url.Parse(value)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: api-url must be an absolute http(s) URL, got %q\n", value)
		return fmt.Errorf("invalid api-url %q", value)
	}
	return nil
}

// validateTimeout checks that the value parses as a positive Go duration.
func validateTimeout(cmd *cobra.Command, value string) error {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: default-timeout must be a positive duration (e.g. 45s), got %q\n", value)
		return fmt.Errorf("invalid default-timeout %q", value)
	}
	return nil
}

// validateConcurrency checks that the value is a positive integer.
func validateConcurrency(cmd *cobra.Command, value string) error {
	n, err := strconv.Atoi(value)
	if err != nil || n < 1 {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: concurrency must be a positive integer, got %q\n", value)
		return fmt.Errorf("invalid concurrency %q", value)
	}
	return nil
}
