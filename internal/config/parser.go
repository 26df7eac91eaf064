package config

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// Parse reads configuration from an io.Reader.
func Parse(r io.Reader) (*Config, error) {
	cfg := New()
	scanner := bufio.NewScanner(r)

	var currentSection string

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			currentSection = strings.TrimSuffix(strings.TrimPrefix(line, "["), "]")
			continue
		}

		// Parse Key = Value or Key: Value
		var parts []string
		if strings.Contains(line, "=") {
			parts = strings.SplitN(line, "=", 2)
		} else if strings.Contains(line, ":") {
			parts = strings.SplitN(line, ":", 2)
		} else {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if strings.HasPrefix(value, "\"") && strings.HasSuffix(value, "\"") {
			value = value[1 : len(value)-1]
		}

		var err error
		switch currentSection {
		case "":
			err = setRootField(cfg, key, value)
		case "wheel":
			err = setWheelField(&cfg.Wheel, key, value)
		case "pinch":
			err = setPinchField(&cfg.Pinch, key, value)
		case "double_click":
			err = setDoubleClickField(&cfg.DoubleClick, key, value)
		case "panning":
			err = setPanningField(&cfg.Panning, key, value)
		case "notify":
			err = setNotifyField(&cfg.Notify, key, value)
		}
		if err != nil {
			if currentSection == "" {
				return nil, fmt.Errorf("error in root section: %w", err)
			}
			return nil, fmt.Errorf("error in section [%s]: %w", currentSection, err)
		}
	}

	return cfg, scanner.Err()
}

func setRootField(cfg *Config, key, value string) error {
	switch strings.ToLower(key) {
	case "initial_scale":
		return parseFloat(key, value, &cfg.InitialScale)
	case "min_scale":
		return parseFloat(key, value, &cfg.MinScale)
	case "max_scale":
		return parseFloat(key, value, &cfg.MaxScale)
	case "limit_to_bounds":
		return parseBool(key, value, &cfg.LimitToBounds)
	case "center_on_init":
		return parseBool(key, value, &cfg.CenterOnInit)
	case "smooth":
		return parseBool(key, value, &cfg.Smooth)
	case "debug":
		return parseBool(key, value, &cfg.Debug)
	case "debug_addr":
		cfg.DebugAddr = value
	}
	return nil
}

func setWheelField(w *Wheel, key, value string) error {
	switch strings.ToLower(key) {
	case "step":
		return parseFloat(key, value, &w.Step)
	case "disabled":
		return parseBool(key, value, &w.Disabled)
	}
	return nil
}

func setPinchField(p *Pinch, key, value string) error {
	switch strings.ToLower(key) {
	case "step":
		return parseFloat(key, value, &p.Step)
	case "disabled":
		return parseBool(key, value, &p.Disabled)
	}
	return nil
}

func setDoubleClickField(d *DoubleClick, key, value string) error {
	switch strings.ToLower(key) {
	case "step":
		return parseFloat(key, value, &d.Step)
	case "mode":
		mode := strings.ToLower(value)
		if mode != "toggle" && mode != "zoom" {
			return fmt.Errorf("invalid mode %q: want toggle or zoom", value)
		}
		d.Mode = mode
	case "animation_time":
		t, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for key %s: %w", key, err)
		}
		d.AnimationTime = t
	case "disabled":
		return parseBool(key, value, &d.Disabled)
	}
	return nil
}

func setPanningField(p *Panning, key, value string) error {
	if strings.EqualFold(key, "disabled") {
		return parseBool(key, value, &p.Disabled)
	}
	return nil
}

func setNotifyField(n *Notify, key, value string) error {
	switch strings.ToLower(key) {
	case "copy":
		return parseBool(key, value, &n.Copy)
	case "load":
		return parseBool(key, value, &n.Load)
	}
	return nil
}

func parseFloat(key, value string, out *float64) error {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid number for key %s: %w", key, err)
	}
	*out = f
	return nil
}

func parseBool(key, value string, out *bool) error {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("invalid boolean for key %s: %w", key, err)
	}
	*out = b
	return nil
}
