// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"os"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gobuffalo/envy"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/devblok/vkboot/device"
	"github.com/devblok/vkboot/loader"
)

// Configuration defines a global engine configuration setting
type Configuration struct {
	Time      TimeConfiguration      `toml:"time"`
	Instance  InstanceConfiguration  `toml:"instance"`
	Device    DeviceConfiguration    `toml:"device"`
	Swapchain SwapchainConfiguration `toml:"swapchain"`
	Log       LogConfiguration       `toml:"log"`
}

// TimeConfiguration is used to configure time services
type TimeConfiguration struct {
	// FramesPerSecond caps frames per second that is put out
	// To unlimit, set to 0
	FramesPerSecond int `toml:"frames_per_second"`
	// EventPollDelay is the delay between event polls, in milliseconds
	EventPollDelay int `toml:"event_poll_delay"`
}

// InstanceConfiguration is used to configure instance creation
type InstanceConfiguration struct {
	ApplicationName    string   `toml:"application_name"`
	ApplicationVersion string   `toml:"application_version"`
	Layers             []string `toml:"layers"`
	Extensions         []string `toml:"extensions"`
	// Debug enables the validation layer and forwards driver messages to the log
	Debug bool `toml:"debug"`
}

// DeviceConfiguration is used to select and create the logical device
type DeviceConfiguration struct {
	Extensions []string `toml:"extensions"`
	// Queues lists one capability mask per requested queue, e.g. "graphics|compute"
	Queues   []string `toml:"queues"`
	Features []string `toml:"features"`
}

// SwapchainConfiguration is used to negotiate the swapchain
type SwapchainConfiguration struct {
	PresentMode string `toml:"present_mode"`
	Usage       string `toml:"usage"`
	Transform   string `toml:"transform"`
	Width       uint32 `toml:"width"`
	Height      uint32 `toml:"height"`
}

// LogConfiguration is used to configure the logger
type LogConfiguration struct {
	Level        string `toml:"level"`
	Format       string `toml:"format"`
	ReportCaller bool   `toml:"report_caller"`
}

// ValidationLayer is enabled on debug instances
const ValidationLayer = "VK_LAYER_KHRONOS_validation"

// DefaultConfiguration returns a configuration that runs on any conformant driver
func DefaultConfiguration() Configuration {
	return Configuration{
		Time: TimeConfiguration{
			FramesPerSecond: 60,
			EventPollDelay:  10,
		},
		Instance: InstanceConfiguration{
			ApplicationName:    "Koru3D",
			ApplicationVersion: "1.0.0",
			Extensions:         []string{loader.ExtensionSurface},
		},
		Device: DeviceConfiguration{
			Extensions: []string{loader.ExtensionSwapchain},
			Queues:     []string{"graphics"},
		},
		Swapchain: SwapchainConfiguration{
			PresentMode: "fifo",
			Usage:       "color_attachment",
			Transform:   "identity",
			Width:       800,
			Height:      600,
		},
		Log: LogConfiguration{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfiguration starts from the defaults, applies the TOML file at path
// when path is not empty and then the KORU_* environment variables
func LoadConfiguration(path string) (Configuration, error) {
	cfg := DefaultConfiguration()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Configuration{}, errors.Wrap(err, "read configuration")
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return Configuration{}, errors.Wrapf(err, "parse configuration %s", path)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Configuration{}, err
	}
	return cfg, nil
}

// LoadEnvFile reads .env style files into the environment
func LoadEnvFile(files ...string) error {
	if err := godotenv.Load(files...); err != nil {
		return errors.Wrap(err, "load env file")
	}
	envy.Reload()
	return nil
}

func (c *Configuration) applyEnv() error {
	if v := envy.Get("KORU_APP_NAME", ""); v != "" {
		c.Instance.ApplicationName = v
	}
	if v := envy.Get("KORU_DEBUG", ""); v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrap(err, "KORU_DEBUG")
		}
		c.Instance.Debug = debug
	}
	if err := envUint32("KORU_WIDTH", &c.Swapchain.Width); err != nil {
		return err
	}
	if err := envUint32("KORU_HEIGHT", &c.Swapchain.Height); err != nil {
		return err
	}
	if v := envy.Get("KORU_PRESENT_MODE", ""); v != "" {
		c.Swapchain.PresentMode = v
	}
	if v := envy.Get("KORU_LOG_LEVEL", ""); v != "" {
		c.Log.Level = v
	}
	if v := envy.Get("KORU_FPS", ""); v != "" {
		fps, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrap(err, "KORU_FPS")
		}
		c.Time.FramesPerSecond = fps
	}
	if v := envy.Get("KORU_DEVICE_EXTENSIONS", ""); v != "" {
		c.Device.Extensions = strings.Split(v, ",")
	}
	return nil
}

func envUint32(key string, dst *uint32) error {
	v := envy.Get(key, "")
	if v == "" {
		return nil
	}
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return errors.Wrap(err, key)
	}
	*dst = uint32(n)
	return nil
}

// InstanceLayers returns the configured layers, with validation when debugging
func (c InstanceConfiguration) InstanceLayers() []string {
	if c.Debug {
		return appendUnique(c.Layers, ValidationLayer)
	}
	return c.Layers
}

// Version returns the packed application version
func (c InstanceConfiguration) Version() (uint32, error) {
	if c.ApplicationVersion == "" {
		return 0, nil
	}
	return ParseVersion(c.ApplicationVersion)
}

// QueueMasks parses the configured queue capabilities
func (c DeviceConfiguration) QueueMasks() ([]device.QueueFlags, error) {
	masks := make([]device.QueueFlags, 0, len(c.Queues))
	for _, q := range c.Queues {
		mask, err := ParseQueueFlags(q)
		if err != nil {
			return nil, err
		}
		masks = append(masks, mask)
	}
	return masks, nil
}

// FeatureSet parses the configured feature names
func (c DeviceConfiguration) FeatureSet() (device.Features, error) {
	var set device.Features
	for _, name := range c.Features {
		f, ok := device.FeatureByName(name)
		if !ok {
			return 0, errors.Newf("unknown device feature %q", name)
		}
		set |= f
	}
	return set, nil
}

// Negotiation parses the configured present mode, usage and transform
func (c SwapchainConfiguration) Negotiation() (device.PresentMode, device.ImageUsageFlags, device.SurfaceTransformFlags, error) {
	mode, err := ParsePresentMode(c.PresentMode)
	if err != nil {
		return 0, 0, 0, err
	}
	usage, err := ParseImageUsage(c.Usage)
	if err != nil {
		return 0, 0, 0, err
	}
	transform, err := ParseSurfaceTransform(c.Transform)
	if err != nil {
		return 0, 0, 0, err
	}
	return mode, usage, transform, nil
}
