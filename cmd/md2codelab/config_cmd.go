package main

import "fmt"

// runConfig prints the effective configuration after defaults, the config
// file and environment overrides are merged.
func runConfig(args []string, env *Environment) error {
	flags, positional, err := parseConfigFlags(args, env.Stderr)
	if err != nil {
		return err
	}
	if len(positional) > 0 {
		return fmt.Errorf("%w: config takes no arguments, got %q", ErrUsage, positional[0])
	}

	cfg, err := loadConfig(flags.common.config)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	out, err := cfg.Marshal()
	if err != nil {
		return err
	}
	_, err = env.Stdout.Write(out)
	return err
}
