package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/annel0/liquidsim/internal/config"
	"github.com/annel0/liquidsim/internal/eventbus"
	"github.com/annel0/liquidsim/internal/logging"
	"github.com/annel0/liquidsim/internal/observability"
	"github.com/annel0/liquidsim/internal/storage"
	"github.com/annel0/liquidsim/internal/vec"
	"github.com/annel0/liquidsim/internal/world"
	"github.com/annel0/liquidsim/internal/world/block"
	"github.com/annel0/liquidsim/internal/world/liquid"
)

func main() {
	var (
		configPath = flag.String("config", "", "Путь к YAML конфигурации (или ENV LIQUID_CONFIG)")
		maxTicks   = flag.Int("ticks", 0, "Предел игровых тиков (0 - из конфигурации)")
		seed       = flag.Int64("seed", 0, "Сид рельефа (0 - из конфигурации)")
		metrics    = flag.Bool("metrics", false, "Поднять HTTP эндпоинт Prometheus /metrics")
		saveName   = flag.String("save", "", "Сохранить итоговый снимок под этим именем")
		loadName   = flag.String("load", "", "Загрузить мир из снимка вместо генерации")
		list       = flag.Bool("list", false, "Вывести сохранённые снимки и выйти")
		exportPath = flag.String("export", "", "Записать итоговый снимок в файл (.json или .json.zst)")
		importPath = flag.String("import", "", "Загрузить мир из файла снимка")
		otlp       = flag.String("otlp", "", "OTLP HTTP endpoint для трассировки (пусто - выключено)")
	)
	flag.Parse()

	if err := logging.InitDefaultLogger("liquidsim"); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}
	if cfg.Logging.Dir != "" {
		logging.SetLogDir(cfg.Logging.Dir)
	}
	logging.SetConsoleLevel(logging.ParseLevel(cfg.Logging.Level))
	if *seed != 0 {
		cfg.World.Seed = *seed
	}
	if *maxTicks > 0 {
		cfg.Simulation.MaxTicks = *maxTicks
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *list {
		if err := listSnapshots(cfg); err != nil {
			log.Fatalf("❌ %v", err)
		}
		return
	}

	if err := run(ctx, cfg, runOptions{
		metrics:    *metrics,
		saveName:   *saveName,
		loadName:   *loadName,
		exportPath: *exportPath,
		importPath: *importPath,
		otlp:       *otlp,
	}); err != nil {
		logging.Error("❌ %v", err)
		os.Exit(1)
	}
}

type runOptions struct {
	metrics    bool
	saveName   string
	loadName   string
	exportPath string
	importPath string
	otlp       string
}

func run(ctx context.Context, cfg *config.Config, opts runOptions) error {
	started := time.Now()
	logging.Info("🌊 Запуск симулятора жидкостей (сид=%d, предел=%d тиков)", cfg.World.Seed, cfg.Simulation.MaxTicks)

	// === ТРАССИРОВКА ===
	if opts.otlp != "" {
		shutdown, err := observability.InitTelemetry(ctx, "liquidsim", opts.otlp)
		if err != nil {
			logging.Warn("OpenTelemetry недоступен: %v", err)
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logging.Warn("Ошибка остановки OpenTelemetry: %v", err)
				}
			}()
		}
	}

	// === РЕЕСТР И ДВИЖОК ===
	reg, err := cfg.BuildRegistry()
	if err != nil {
		return err
	}
	simMetrics := observability.NewSimMetrics(prometheus.DefaultRegisterer)
	if _, err := liquid.NewEngine(reg, cfg.Settings(), cfg.Rules(), liquid.WithMetrics(simMetrics)); err != nil {
		simMetrics.ObserveConfigError()
		return fmt.Errorf("создание движка жидкостей: %w", err)
	}

	// === ШИНА СОБЫТИЙ ===
	bus, err := newEventBus(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := bus.Close(); err != nil {
			logging.Warn("Ошибка закрытия шины событий: %v", err)
		}
	}()

	if _, err := eventbus.StartLoggingListener(bus); err != nil {
		return fmt.Errorf("подписка логгера событий: %w", err)
	}

	exporter := eventbus.NewMetricsExporter(bus, prometheus.DefaultRegisterer)
	if opts.metrics {
		exporter.StartHTTP(fmt.Sprintf(":%d", cfg.Metrics.GetPort()))
	} else {
		exporter.Start()
	}
	defer exporter.Stop()

	effects := eventbus.NewEffectPublisher(bus, "liquidsim")

	// === МИР ===
	var store *storage.WorldStorage
	if opts.loadName != "" || opts.saveName != "" {
		store, err = storage.NewWorldStorage(cfg.Storage.Path)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	var snap *world.Snapshot
	switch {
	case opts.loadName != "":
		loaded, err := store.LoadSnapshot(opts.loadName)
		if err != nil {
			return err
		}
		snap = &loaded
	case opts.importPath != "":
		imported, err := storage.ImportSnapshot(opts.importPath)
		if err != nil {
			return err
		}
		snap = &imported
	}

	w, err := buildWorld(cfg, reg, snap,
		world.WithEffects(effects), world.WithChanges(effects), world.WithMetrics(simMetrics))
	if err != nil {
		return err
	}
	effects.SetTickSource(w)

	// === ПРОГОН ===
	elapsed, err := w.RunUntilIdle(ctx, cfg.Simulation.MaxTicks)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("симуляция остановлена: %w", err)
	}
	if errors.Is(err, context.Canceled) {
		logging.Info("📡 Получен сигнал, симуляция прервана на тике %d", w.CurrentTick())
	}

	logging.Info("✅ Прогон завершён: %d тиков, в очереди %d", elapsed, w.Scheduler().Pending())
	logCensus(w, reg)

	if opts.saveName != "" || opts.exportPath != "" {
		name := opts.saveName
		if name == "" {
			name = filepath.Base(opts.exportPath)
		}
		final, err := w.TakeSnapshot(name)
		if err != nil {
			return err
		}
		if opts.saveName != "" {
			if err := store.SaveSnapshot(final); err != nil {
				return err
			}
			logging.Info("💾 Снимок %q сохранён (%d ячеек)", final.Name, len(final.Cells))
		}
		if opts.exportPath != "" {
			if err := storage.ExportSnapshot(opts.exportPath, final); err != nil {
				return err
			}
			logging.Info("💾 Снимок записан в %s", opts.exportPath)
		}
	}

	report, err := observability.CollectProcessReport(started)
	if err != nil {
		logging.Debug("Метрики процесса недоступны: %v", err)
	}
	logging.Info("📈 Ресурсы: %s", report)
	return nil
}

func newEventBus(cfg *config.Config) (eventbus.EventBus, error) {
	url := cfg.EventBus.GetURL()
	if url == "" {
		logging.Debug("Адрес NATS не задан, используется in-memory шина")
		return eventbus.NewMemoryBus(1024), nil
	}

	retention := time.Duration(cfg.EventBus.Retention) * time.Hour
	bus, err := eventbus.NewJetStreamBus(url, cfg.EventBus.Stream, retention)
	if err != nil {
		return nil, fmt.Errorf("подключение к JetStream: %w", err)
	}
	logging.Info("📨 События публикуются в JetStream %s (стрим %s)", url, cfg.EventBus.Stream)
	return bus, nil
}

// buildWorld восстанавливает мир из снимка или генерирует рельеф и
// размещает стартовые жидкости. Мир ограничен занятой областью: за её краем
// и под ней пустота, так что жидкость не уходит вниз бесконечно.
func buildWorld(cfg *config.Config, reg *block.Registry, snap *world.Snapshot, opts ...world.Option) (*world.World, error) {
	if snap != nil {
		grid, err := world.RestoreGrid(*snap, reg)
		if err != nil {
			return nil, err
		}
		if bounds, ok := grid.Bounds(); ok {
			opts = append(opts, world.WithBounds(bounds))
		}
		w := world.NewWorld(reg, grid, opts...)
		woken := w.WakeAll()
		logging.Info("📂 Мир восстановлен из снимка %q: %d ячеек, %d активных", snap.Name, grid.Len(), woken)
		return w, nil
	}

	floor, ok := reg.ByCode(cfg.World.FloorBlock)
	if !ok {
		return nil, fmt.Errorf("%w: блок основания %q", block.ErrUnknownBlock, cfg.World.FloorBlock)
	}
	top := block.AirBlockID
	if cfg.World.TopBlock != "" {
		t, ok := reg.ByCode(cfg.World.TopBlock)
		if !ok {
			return nil, fmt.Errorf("%w: верхний блок %q", block.ErrUnknownBlock, cfg.World.TopBlock)
		}
		top = t.ID
	}

	gen := world.NewGenerator(cfg.World.Seed, cfg.World.SizeX, cfg.World.SizeZ, floor.ID, top)
	grid := world.NewGrid()
	gen.Generate(grid)
	w := world.NewWorld(reg, grid, append(opts, world.WithBounds(gen.Bounds()))...)
	logging.Info("🗺️ Сгенерирован рельеф %dx%d: %d ячеек", cfg.World.SizeX, cfg.World.SizeZ, grid.Len())

	for _, s := range cfg.Sources {
		id, ok := reg.LiquidVariant(block.Family(s.Family), s.Level)
		if !ok {
			return nil, fmt.Errorf("%w: %s уровня %d", block.ErrUnknownBlock, s.Family, s.Level)
		}
		pos := vec.Vec3{X: s.X, Y: s.Y, Z: s.Z}
		if s.Surface {
			pos = gen.Surface(s.X, s.Z)
		}
		if err := w.PlaceBlock(pos, id); err != nil {
			return nil, fmt.Errorf("размещение %s в %v: %w", s.Family, pos, err)
		}
		logging.Info("💧 %s уровня %d размещена в %v", s.Family, s.Level, pos)
	}
	return w, nil
}

func logCensus(w *world.World, reg *block.Registry) {
	census := w.TakeCensus()
	codes := make([]string, 0, len(census))
	for code := range census {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		logging.Info("   %s: %d", code, census[code])
	}
	for _, family := range reg.Families() {
		logging.Info("   объём %s: %d", family, w.LiquidVolume(family))
	}
}

func listSnapshots(cfg *config.Config) error {
	store, err := storage.NewWorldStorage(cfg.Storage.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	infos, err := store.ListSnapshots()
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		fmt.Println("Снимков нет")
		return nil
	}
	for _, info := range infos {
		fmt.Printf("%s\t%d байт\n", info.Name, info.Size)
	}
	return nil
}
