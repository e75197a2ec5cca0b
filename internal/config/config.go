package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/annel0/liquidsim/internal/world/block"
	"github.com/annel0/liquidsim/internal/world/liquid"
)

// ErrInvalidConfig возвращается Validate для конфигурации, из которой нельзя
// построить реестр или правила
var ErrInvalidConfig = errors.New("invalid config")

// soundPrefix - каталог звуковых ресурсов
const soundPrefix = "sounds/"

// DefaultLiquidReplaceable - заменяемость жидкости, если она не задана.
// Выше порога: в жидкость можно растечься и она не держит другую жидкость.
const DefaultLiquidReplaceable = 6000

// Config корневая структура конфигурации симулятора
type Config struct {
	Simulation SimulationConfig `yaml:"simulation"`
	Blocks     []BlockConfig    `yaml:"blocks"`
	Liquids    []LiquidConfig   `yaml:"liquids"`
	World      WorldConfig      `yaml:"world"`
	Sources    []SourceConfig   `yaml:"sources"`
	EventBus   EventBusConfig   `yaml:"eventbus"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Storage    StorageConfig    `yaml:"storage"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type SimulationConfig struct {
	ReplaceableThreshold int `yaml:"replaceable_threshold"`
	SearchRadius         int `yaml:"search_radius"`
	MaxTicks             int `yaml:"max_ticks"`
}

// BlockConfig - нежидкий блок (камень, продукты столкновений)
type BlockConfig struct {
	Code        string `yaml:"code"`
	Replaceable int    `yaml:"replaceable"`
}

// LiquidConfig - семейство жидкости и его правила
type LiquidConfig struct {
	Family             string `yaml:"family"`
	Replaceable        int    `yaml:"replaceable"`
	SpreadDelay        int    `yaml:"spread_delay"`
	CollidesWith       string `yaml:"collides_with"`
	SourceReplacement  string `yaml:"source_replacement"`
	FlowingReplacement string `yaml:"flowing_replacement"`
	CollisionSound     string `yaml:"collision_sound"`
}

// WorldConfig - параметры генератора рельефа
type WorldConfig struct {
	Seed       int64  `yaml:"seed"`
	SizeX      int    `yaml:"size_x"`
	SizeZ      int    `yaml:"size_z"`
	FloorBlock string `yaml:"floor_block"`
	TopBlock   string `yaml:"top_block"`
}

// SourceConfig - жидкость, размещаемая при старте. При Surface=true
// координата Y берётся с поверхности рельефа.
type SourceConfig struct {
	Family  string `yaml:"family"`
	Level   int    `yaml:"level"`
	X       int    `yaml:"x"`
	Y       int    `yaml:"y"`
	Z       int    `yaml:"z"`
	Surface bool   `yaml:"surface"`
}

type EventBusConfig struct {
	URL       string `yaml:"url"`
	Stream    string `yaml:"stream"`
	Retention int    `yaml:"retention_hours"`
}

type MetricsConfig struct {
	Port int `yaml:"port"`
}

type StorageConfig struct {
	Path string `yaml:"path"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	Dir   string `yaml:"dir"`
}

// Default возвращает встроенную конфигурацию: вода и лава, взаимно
// превращающиеся при встрече, на небольшом участке рельефа
func Default() *Config {
	return &Config{
		Simulation: SimulationConfig{
			ReplaceableThreshold: liquid.DefaultReplaceableThreshold,
			SearchRadius:         liquid.DefaultSearchRadius,
			MaxTicks:             200000,
		},
		Blocks: []BlockConfig{
			{Code: "stone", Replaceable: 0},
			{Code: "sand", Replaceable: 0},
			{Code: "obsidian", Replaceable: 0},
			{Code: "basalt", Replaceable: 0},
			{Code: "cobblestone", Replaceable: 0},
		},
		Liquids: []LiquidConfig{
			{
				Family:             "lava",
				Replaceable:        DefaultLiquidReplaceable,
				SpreadDelay:        300,
				CollidesWith:       "water",
				SourceReplacement:  "obsidian",
				FlowingReplacement: "basalt",
				CollisionSound:     "effect/extinguish",
			},
			{
				Family:             "water",
				Replaceable:        DefaultLiquidReplaceable,
				SpreadDelay:        150,
				CollidesWith:       "lava",
				SourceReplacement:  "obsidian",
				FlowingReplacement: "cobblestone",
				CollisionSound:     "effect/extinguish",
			},
		},
		World: WorldConfig{
			Seed:       1337,
			SizeX:      32,
			SizeZ:      32,
			FloorBlock: "stone",
			TopBlock:   "sand",
		},
		Sources: []SourceConfig{
			{Family: "water", Level: block.MaxLiquidLevel, X: 10, Z: 10, Surface: true},
			{Family: "lava", Level: block.MaxLiquidLevel, X: 18, Z: 14, Surface: true},
		},
		EventBus: EventBusConfig{
			Stream:    "LIQUID_EVENTS",
			Retention: 24,
		},
		Storage: StorageConfig{Path: "data/snapshots"},
		Logging: LoggingConfig{Level: "INFO"},
	}
}

// Load читает YAML файл конфигурации поверх значений по умолчанию.
// Если path == "", пытается прочитать путь из ENV LIQUID_CONFIG; если и он пуст,
// возвращает Default().
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("LIQUID_CONFIG")
		if path == "" {
			return Default(), nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("чтение конфигурации %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("разбор конфигурации %s: %w", path, err)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults заполняет поля, пропущенные в файле
func (c *Config) applyDefaults() {
	for i := range c.Liquids {
		if c.Liquids[i].Replaceable == 0 {
			c.Liquids[i].Replaceable = DefaultLiquidReplaceable
		}
	}
}

// Validate проверяет, что из конфигурации можно построить реестр и правила.
// Ненайденные блоки замены не считаются ошибкой: такие столкновения
// пропускаются во время симуляции с предупреждением.
func (c *Config) Validate() error {
	if c.Simulation.ReplaceableThreshold < 0 || c.Simulation.SearchRadius < 0 {
		return fmt.Errorf("%w: отрицательные параметры симуляции", ErrInvalidConfig)
	}
	if c.Simulation.MaxTicks <= 0 {
		return fmt.Errorf("%w: max_ticks должен быть положительным", ErrInvalidConfig)
	}
	threshold := c.Settings().ReplaceableThreshold

	codes := map[string]struct{}{"air": {}}
	for _, b := range c.Blocks {
		if b.Code == "" {
			return fmt.Errorf("%w: блок без кода", ErrInvalidConfig)
		}
		if _, dup := codes[b.Code]; dup {
			return fmt.Errorf("%w: повторный код блока %q", ErrInvalidConfig, b.Code)
		}
		codes[b.Code] = struct{}{}
	}

	families := make(map[string]struct{}, len(c.Liquids))
	for _, l := range c.Liquids {
		if l.Family == "" {
			return fmt.Errorf("%w: жидкость без семейства", ErrInvalidConfig)
		}
		if _, dup := families[l.Family]; dup {
			return fmt.Errorf("%w: повторное семейство %q", ErrInvalidConfig, l.Family)
		}
		if l.SpreadDelay <= 0 {
			return fmt.Errorf("%w: %s: spread_delay должен быть положительным", ErrInvalidConfig, l.Family)
		}
		// Жидкость ниже порога не принимает чужую жидкость и держит её как пол
		if l.Replaceable < threshold {
			return fmt.Errorf("%w: %s: replaceable %d ниже порога %d",
				ErrInvalidConfig, l.Family, l.Replaceable, threshold)
		}
		families[l.Family] = struct{}{}
	}

	for _, l := range c.Liquids {
		if l.CollidesWith == "" {
			continue
		}
		if l.CollidesWith == l.Family {
			return fmt.Errorf("%w: %s не может сталкиваться сам с собой", ErrInvalidConfig, l.Family)
		}
		if _, ok := families[l.CollidesWith]; !ok {
			return fmt.Errorf("%w: %s: collides_with ссылается на неизвестное семейство %q",
				ErrInvalidConfig, l.Family, l.CollidesWith)
		}
	}

	for _, s := range c.Sources {
		if _, ok := families[s.Family]; !ok {
			return fmt.Errorf("%w: источник неизвестного семейства %q", ErrInvalidConfig, s.Family)
		}
		if s.Level < 1 || s.Level > block.MaxLiquidLevel {
			return fmt.Errorf("%w: уровень %d вне диапазона 1..%d", ErrInvalidConfig, s.Level, block.MaxLiquidLevel)
		}
	}

	if c.World.SizeX <= 0 || c.World.SizeZ <= 0 {
		return fmt.Errorf("%w: размер мира должен быть положительным", ErrInvalidConfig)
	}
	return nil
}

// BuildRegistry создаёт реестр со всеми блоками и вариантами жидкостей
func (c *Config) BuildRegistry() (*block.Registry, error) {
	reg := block.NewRegistry()
	for _, b := range c.Blocks {
		if _, err := reg.Register(b.Code, b.Replaceable); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}
	for _, l := range c.Liquids {
		if err := reg.RegisterLiquid(block.Family(l.Family), l.Replaceable); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}
	return reg, nil
}

// Rules возвращает правила жидкостей. Звук столкновения получает префикс sounds/.
func (c *Config) Rules() []liquid.Rule {
	rules := make([]liquid.Rule, 0, len(c.Liquids))
	for _, l := range c.Liquids {
		rules = append(rules, liquid.Rule{
			Family:             block.Family(l.Family),
			SpreadDelay:        l.SpreadDelay,
			CollidesWith:       block.Family(l.CollidesWith),
			SourceReplacement:  l.SourceReplacement,
			FlowingReplacement: l.FlowingReplacement,
			CollisionSound:     soundPath(l.CollisionSound),
		})
	}
	return rules
}

// Settings возвращает общие параметры движка
func (c *Config) Settings() liquid.Settings {
	s := liquid.DefaultSettings()
	if c.Simulation.ReplaceableThreshold > 0 {
		s.ReplaceableThreshold = c.Simulation.ReplaceableThreshold
	}
	if c.Simulation.SearchRadius > 0 {
		s.SearchRadius = c.Simulation.SearchRadius
	}
	return s
}

func soundPath(sound string) string {
	if sound == "" || strings.HasPrefix(sound, soundPrefix) {
		return sound
	}
	return soundPrefix + sound
}

// GetPort возвращает порт метрик с поддержкой fallback значений
func (m *MetricsConfig) GetPort() int {
	return getPortWithEnvFallback(m.Port, "LIQUID_METRICS_PORT", 2112)
}

// GetURL возвращает адрес NATS: config -> env LIQUID_NATS_URL. Пустая строка -
// внешняя шина не используется.
func (e *EventBusConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	return os.Getenv("LIQUID_NATS_URL")
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	// Если порт задан в конфиге и больше 0, используем его
	if configPort > 0 {
		return configPort
	}

	// Пробуем прочитать из environment variable
	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	// Используем дефолтное значение
	return defaultPort
}
