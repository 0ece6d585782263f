// Package config handles scene configuration loading and management.
package config

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/orbitscene/internal/engine/transform"
	"github.com/Faultbox/orbitscene/pkg/math"
)

// Config holds all application settings.
type Config struct {
	Window     WindowConfig    `yaml:"window"`
	Scene      SceneConfig     `yaml:"scene"`
	Skybox     SkyboxConfig    `yaml:"skybox"`
	Models     []ModelConfig   `yaml:"models"`
	Transforms transform.Table `yaml:"transforms"`
	Tuning     TuningConfig    `yaml:"tuning"`
	Loader     LoaderConfig    `yaml:"loader"`
	Logging    LoggingConfig   `yaml:"logging"`
}

// WindowConfig holds display settings.
type WindowConfig struct {
	Title      string `yaml:"title"`
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	Fullscreen bool   `yaml:"fullscreen"`
	VSync      bool   `yaml:"vsync"`
}

// SceneConfig holds camera, clear color and lighting settings.
type SceneConfig struct {
	Camera     CameraConfig `yaml:"camera"`
	ClearColor [4]float32   `yaml:"clear_color"`
	Light      LightConfig  `yaml:"light"`
	Shininess  float32      `yaml:"shininess"`
}

// CameraConfig holds the orbit camera frame.
type CameraConfig struct {
	Distance float32 `yaml:"distance"`
	Pitch    float32 `yaml:"pitch"`
	FovY     float32 `yaml:"fov"`
	Near     float32 `yaml:"near"`
	Far      float32 `yaml:"far"`
}

// LightConfig holds the single scene light.
type LightConfig struct {
	Position  [3]float32 `yaml:"position"`
	OrbitSign float32    `yaml:"orbit_sign"` // +1 or -1
	Ambient   [4]float32 `yaml:"ambient"`
	Diffuse   [4]float32 `yaml:"diffuse"`
	Specular  [4]float32 `yaml:"specular"`
}

// SkyboxConfig holds the background cube map. Faces are ordered
// +X, -X, +Y, -Y, +Z, -Z.
type SkyboxConfig struct {
	Enabled  bool      `yaml:"enabled"`
	FaceSize int       `yaml:"face_size"`
	Faces    [6]string `yaml:"faces"`
}

// ModelConfig binds a mesh file or URL to a scene alias.
type ModelConfig struct {
	Alias string `yaml:"alias"`
	Path  string `yaml:"path"`
}

// TuningConfig holds the optional live-tuning file.
type TuningConfig struct {
	File string `yaml:"file"`
}

// LoaderConfig holds asset loader settings. Relative model and skybox
// paths resolve against Root.
type LoaderConfig struct {
	Root    string `yaml:"root"`
	Workers int    `yaml:"workers"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config that reproduces the reference scene: a cone on a
// pole, four thin posts, a floor plate and four bobbing cubes.
func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Title:  "orbitscene",
			Width:  1280,
			Height: 720,
			VSync:  true,
		},
		Scene: SceneConfig{
			Camera: CameraConfig{
				Distance: -70,
				Pitch:    30,
				FovY:     45,
				Near:     0.1,
				Far:      1000,
			},
			ClearColor: [4]float32{0.9, 0.9, 0.9, 1},
			Light: LightConfig{
				Position:  [3]float32{-50, 50, -14},
				OrbitSign: -1,
				Ambient:   [4]float32{1, 1, 1, 1},
				Diffuse:   [4]float32{1, 1, 1, 1},
				Specular:  [4]float32{1, 1, 1, 1},
			},
			Shininess: 200,
		},
		Skybox: SkyboxConfig{
			Enabled:  false,
			FaceSize: 512,
			Faces: [6]string{
				"assets/skybox/pos-x.jpg",
				"assets/skybox/neg-x.jpg",
				"assets/skybox/pos-y.jpg",
				"assets/skybox/neg-y.jpg",
				"assets/skybox/pos-z.jpg",
				"assets/skybox/neg-z.jpg",
			},
		},
		Models:     defaultModels(),
		Transforms: defaultTransforms(),
		Loader:     LoaderConfig{Workers: 4},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

func defaultModels() []ModelConfig {
	models := []ModelConfig{{Alias: "cone", Path: "models/cone.json"}}
	for _, a := range []string{"cylinder1", "cylinder2", "cylinder3", "cylinder4", "cylinder5", "cylinder6"} {
		models = append(models, ModelConfig{Alias: a, Path: "models/cylinder.json"})
	}
	for _, a := range []string{"cube1", "cube2", "cube3", "cube4"} {
		models = append(models, ModelConfig{Alias: a, Path: "models/cube-simple.json"})
	}
	return models
}

func defaultTransforms() transform.Table {
	c := transform.Const
	// Cubes bob out of phase with each other around y=2.
	bob := func(phase float32) transform.Value {
		return transform.Wave(2, 1, 0.5, phase)
	}

	return transform.Table{
		"cone":      {transform.Scale(4, 1, 4), transform.Translate(c(3), c(20), c(0))},
		"cylinder1": {transform.Scale(0.3, 2, 0.3)},
		"cylinder2": {transform.Scale(0.1, 1.5, 0.1), transform.Translate(c(180), c(0), c(0))},
		"cylinder3": {transform.Scale(0.1, 1.5, 0.1), transform.Translate(c(-180), c(0), c(0))},
		"cylinder4": {transform.Scale(0.1, 1.5, 0.1), transform.Translate(c(0), c(0), c(180))},
		"cylinder5": {transform.Scale(0.1, 1.5, 0.1), transform.Translate(c(0), c(0), c(-180))},
		"cylinder6": {transform.Scale(4, 0.1, 4), transform.Translate(c(0), c(0), c(0))},
		"cube1":     {transform.Scale(4, 4, 4), transform.Translate(c(0), bob(0), c(4.5))},
		"cube2":     {transform.Scale(4, 4, 4), transform.Translate(c(-4.5), bob(math32.Pi/2), c(0))},
		"cube3":     {transform.Scale(4, 4, 4), transform.Translate(c(0), bob(math32.Pi), c(-4.5))},
		"cube4":     {transform.Scale(4, 4, 4), transform.Translate(c(4.5), bob(3*math32.Pi/2), c(0))},
	}
}

// LightPosition returns the configured light base position.
func (l LightConfig) LightPosition() math.Vec3 {
	return math.V3(l.Position)
}
