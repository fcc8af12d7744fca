package config

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"text/template"

	"github.com/arsu-cli/arsu/constant"
	"github.com/arsu-cli/arsu/key"
	"github.com/arsu-cli/arsu/style"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

// Field is a single registered configuration entry.
type Field struct {
	Key         string
	Value       any
	Description string
}

// Pretty renders the field with its current and default value for terminal display.
func (f *Field) Pretty() string {
	var b strings.Builder
	lo.Must0(prettyTemplate.Execute(&b, f))
	return b.String()
}

// Env returns the environment variable that overrides this field.
func (f *Field) Env() string {
	env := strings.ToUpper(EnvKeyReplacer.Replace(f.Key))
	prefix := strings.ToUpper(constant.Arsu + "_")
	if strings.HasPrefix(env, prefix) {
		return env
	}
	return prefix + env
}

// MarshalJSON includes the live value next to the default.
func (f *Field) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Key         string `json:"key"`
		Value       any    `json:"value"`
		Default     any    `json:"default"`
		Description string `json:"description"`
		Type        string `json:"type"`
	}{
		Key:         f.Key,
		Value:       viper.Get(f.Key),
		Default:     f.Value,
		Description: f.Description,
		Type:        f.typeName(),
	})
}

func (f *Field) typeName() string {
	switch f.Value.(type) {
	case string:
		return "string"
	case int:
		return "int"
	case bool:
		return "bool"
	case []string:
		return "[]string"
	default:
		return "unknown"
	}
}

// Default holds every registered field keyed by its config key.
var Default = make(map[string]Field)

// EnvExposed lists the keys bound to environment variables.
var EnvExposed []string

func init() {
	register := func(k string, v any, desc string) {
		if _, exists := Default[k]; exists {
			panic("Duplicate config key: " + k)
		}
		Default[k] = Field{Key: k, Value: v, Description: desc}
		EnvExposed = append(EnvExposed, k)
	}

	register(key.APIURL, "http://localhost:8080", "Origin of the ARSU API.\nLeave empty to build origin-relative stream URLs")
	register(key.APIStreamPath, constant.RouteStream, "Path of the stream endpoint, the resource id is appended to it")
	register(key.APITimeout, 60, "Timeout in seconds for API requests")
	register(key.SessionLifetime, 24, "Hours a login stays valid before the session is torn down")
	register(key.Player, "mpv", "Media player used as the playback element")
	register(key.PlayerQuality, "720p", "Default quality tier.\nAvailable options are: 240p, 480p, 720p, 1080p")
	register(key.PlayerAutoplay, true, "Start playback as soon as the stream is ready.\nWhen disabled, playback waits for a manual start")
	register(key.PlayerEngine, true, "Use the built-in segmented-streaming engine when the player supports it")
	register(key.CatalogLifetime, 10, "Minutes the cached video listing stays fresh")
	register(key.HistorySaveOnPlay, true, "Save watched videos to history")
	register(key.MetricsListen, "", "Address to expose prometheus metrics on during playback, e.g. 127.0.0.1:9090")
	register(key.IconsVariant, "plain", "Icons variant.\nAvailable options are: emoji, nerd, plain")
	register(key.LogsWrite, false, "Write logs")
	register(key.LogsLevel, "info", "Available options are: (from less to most verbose)\npanic, fatal, error, warn, info, debug, trace")
	register(key.LogsJson, false, "Use json format for logs")
	register(key.CliColored, true, "Enable colored CLI output")
}

var prettyTemplate = lo.Must(template.New("pretty").Funcs(template.FuncMap{
	"faint":    style.Faint,
	"bold":     style.Bold,
	"purple":   style.Fg(style.Purple),
	"blue":     style.Fg(style.Blue),
	"value":    func(k string) any { return viper.Get(k) },
	"typename": func(v any) string { return reflect.TypeOf(v).String() },
	"hl": func(v any) string {
		switch value := v.(type) {
		case bool:
			b := strconv.FormatBool(value)
			if value {
				return style.Fg(style.Green)(b)
			}
			return style.Fg(style.Red)(b)
		case string:
			return style.Fg(style.Yellow)(value)
		default:
			return fmt.Sprint(value)
		}
	},
}).Parse(`{{ faint .Description }}
{{ blue "Key:" }}     {{ purple .Key }}
{{ blue "Env:" }}     {{ .Env }}
{{ blue "Value:" }}   {{ hl (value .Key) }}
{{ blue "Default:" }} {{ hl (.Value) }}
{{ blue "Type:" }}    {{ typename .Value }}`))
