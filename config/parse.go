package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/arsu-cli/arsu/icon"
	"github.com/arsu-cli/arsu/key"
	"github.com/arsu-cli/arsu/player"
	"github.com/arsu-cli/arsu/stream"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

// checks hold the value rules for keys whose type alone is not enough.
var checks = map[string]func(string) error{
	key.APIURL:        checkOrigin,
	key.MetricsListen: checkListen,
	key.PlayerQuality: func(s string) error {
		_, err := stream.ParseQuality(s)
		return err
	},
	key.Player:       oneOf(player.Available()),
	key.IconsVariant: oneOf(icon.AvailableVariants()),
	key.LogsLevel: func(s string) error {
		_, err := logrus.ParseLevel(s)
		return err
	},
}

// Options returns the accepted values of an enum key, nil for free-form keys.
func Options(k string) []string {
	switch k {
	case key.PlayerQuality:
		return lo.Map(stream.Qualities(), func(q stream.Quality, _ int) string { return q.String() })
	case key.Player:
		return player.Available()
	case key.IconsVariant:
		return icon.AvailableVariants()
	case key.LogsLevel:
		return lo.Map(logrus.AllLevels, func(l logrus.Level, _ int) string { return l.String() })
	default:
		return nil
	}
}

// Parse converts raw command-line values into the type of the key's default
// and rejects values the key does not accept.
func Parse(k string, raw []string) (any, error) {
	field, ok := Default[k]
	if !ok {
		return nil, fmt.Errorf("unknown key %q", k)
	}
	if len(raw) == 0 {
		return nil, errors.New("value is required")
	}

	switch field.Value.(type) {
	case string:
		if check, ok := checks[k]; ok {
			if err := check(raw[0]); err != nil {
				return nil, fmt.Errorf("invalid value for %s: %w", k, err)
			}
		}
		if k == key.PlayerQuality {
			q, _ := stream.ParseQuality(raw[0])
			return q.String(), nil
		}
		return raw[0], nil
	case int:
		n, err := strconv.Atoi(raw[0])
		if err != nil {
			return nil, fmt.Errorf("invalid integer value: %s", raw[0])
		}
		if n <= 0 {
			return nil, fmt.Errorf("invalid value for %s: must be positive", k)
		}
		return n, nil
	case bool:
		b, err := strconv.ParseBool(raw[0])
		if err != nil {
			return nil, fmt.Errorf("invalid boolean value: %s", raw[0])
		}
		return b, nil
	case []string:
		return raw, nil
	default:
		return nil, fmt.Errorf("unsupported type for %s", k)
	}
}

// checkOrigin accepts an empty origin or an absolute http(s) URL.
func checkOrigin(s string) error {
	if s == "" {
		return nil
	}
	u, err := url.Parse(s)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("host is missing")
	}
	return nil
}

// checkListen accepts an empty address or host:port.
func checkListen(s string) error {
	if s == "" {
		return nil
	}
	_, port, err := net.SplitHostPort(s)
	if err != nil {
		return err
	}
	if n, err := strconv.Atoi(port); err != nil || n < 0 || n > 65535 {
		return fmt.Errorf("invalid port %q", port)
	}
	return nil
}

func oneOf(options []string) func(string) error {
	return func(s string) error {
		if !lo.Contains(options, s) {
			return fmt.Errorf("%q is not one of %v", s, options)
		}
		return nil
	}
}
