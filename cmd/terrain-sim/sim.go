package main

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"terrainstream/internal/config"
	"terrainstream/internal/height"
	"terrainstream/internal/loader"
	"terrainstream/internal/terrain"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

const (
	tickRate    = 60
	flightSpeed = 120 // world units per second
	cameraY     = 150
)

type sim struct {
	cfg   *config.Config
	log   *zap.Logger
	world *terrain.World
	close func()

	shows, hides atomic.Int64
	pos          mgl32.Vec3
	heading      float64
	proj         mgl32.Mat4
}

func newSim(cfg *config.Config, log *zap.Logger) (*sim, error) {
	mode, err := terrain.ParseMode(cfg.Worker.Mode)
	if err != nil {
		return nil, err
	}
	delivery, err := terrain.ParseDelivery(cfg.Worker.Delivery)
	if err != nil {
		return nil, err
	}
	policy, err := terrain.ParseAssignPolicy(cfg.Worker.AssignOrder)
	if err != nil {
		return nil, err
	}

	s := &sim{
		cfg:  cfg,
		log:  log,
		proj: mgl32.Perspective(mgl32.DegToRad(60), 16.0/9, 0.1, 4000),
		pos:  mgl32.Vec3{0, cameraY, 0},
	}
	src, closeSrc := buildSource(cfg, log)
	s.close = closeSrc

	s.world, err = terrain.Create(terrain.InitParams{
		BasePatchSize: cfg.Terrain.BasePatchSize,
		Resolution:    cfg.Terrain.Resolution,
		LODLevels:     cfg.Terrain.LODLevels,
		HeightScale:   cfg.Terrain.HeightScale,
		Seed:          cfg.Terrain.Seed,
		View:          s.view(),
		Proj:          s.proj,
		OnEvent:       s.onEvent,
		Logger:        log.Named("terrain"),
		Mode:          mode,
		Delivery:      delivery,
		BusyRate:      cfg.Worker.BusyRate,
		Source:        src,
		Policy:        policy,
	})
	if err != nil {
		closeSrc()
		return nil, fmt.Errorf("create terrain: %w", err)
	}
	return s, nil
}

// buildSource opens the configured height file, falling back to procedural
// generation when it cannot be fetched or read.
func buildSource(cfg *config.Config, log *zap.Logger) (height.Source, func()) {
	h := cfg.Height
	if h.Source != "file" {
		src, err := height.New(h.Source, cfg.Terrain.Seed)
		if err != nil {
			log.Error("unknown height source, using fbm", zap.String("source", h.Source), zap.Error(err))
			src = height.NewFBM(cfg.Terrain.Seed, height.DefaultFBMParams())
		}
		return src, func() {}
	}

	fallback := height.NewFBM(cfg.Terrain.Seed, height.DefaultFBMParams())
	path := h.File
	if h.Fetch != "" {
		ctx, cancel := context.WithTimeout(context.Background(), h.FetchTimeout)
		defer cancel()
		local, err := loader.Fetch(ctx, h.Fetch, h.CacheDir)
		if err != nil {
			log.Error("height file fetch failed, using procedural terrain", zap.String("src", h.Fetch), zap.Error(err))
			return fallback, func() {}
		}
		path = local
	}

	l, err := loader.Open(path)
	if err != nil {
		log.Error("height file open failed, using procedural terrain", zap.String("path", path), zap.Error(err))
		return fallback, func() {}
	}
	l.SetSpan(h.Span)
	log.Info("height file loaded",
		zap.String("path", l.Path()), zap.Int("size", l.Size()), zap.Int("bytes_per_sample", l.BytesPerSample()))
	return l, func() { l.Close() }
}

// onEvent is the host side of the callback. With immediate delivery it runs
// on the worker goroutine.
func (s *sim) onEvent(kind terrain.EventKind, p terrain.PatchView) {
	switch kind {
	case terrain.EventShow:
		s.shows.Add(1)
	case terrain.EventHide:
		s.hides.Add(1)
	}
	s.log.Debug("patch event",
		zap.Stringer("event", kind), zap.Int("patch", p.ID), zap.Int("lod", p.LOD),
		zap.Int("x", p.X), zap.Int("z", p.Z), zap.Uint64("buffer", bufferHandle(p.Buffer)))
}

func bufferHandle(b *terrain.MeshBuffer) uint64 {
	if b == nil {
		return 0
	}
	return b.Handle
}

func (s *sim) view() mgl32.Mat4 {
	dir := mgl32.Vec3{float32(math.Cos(s.heading)), -0.2, float32(math.Sin(s.heading))}
	return mgl32.LookAtV(s.pos, s.pos.Add(dir), mgl32.Vec3{0, 1, 0})
}

// Run advances the camera for n ticks along a slowly weaving path.
func (s *sim) Run(n int) {
	dt := float32(1) / tickRate
	ticker := time.NewTicker(time.Second / tickRate)
	defer ticker.Stop()

	start := time.Now()
	for i := 0; i < n; i++ {
		s.heading = 0.6 * math.Sin(float64(i)*0.01)
		step := mgl32.Vec3{float32(math.Cos(s.heading)), 0, float32(math.Sin(s.heading))}.Mul(flightSpeed * dt)
		s.pos = s.pos.Add(step)

		if err := s.world.Update(terrain.UpdateParams{Dt: dt, View: s.view(), Proj: s.proj}); err != nil {
			s.log.Error("update failed", zap.Error(err))
			return
		}
		if s.cfg.Worker.Mode != "inline" {
			<-ticker.C
		}
	}

	st := s.world.Stats()
	s.log.Info("simulation finished",
		zap.Int("ticks", n),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int64("shows", s.shows.Load()),
		zap.Int64("hides", s.hides.Load()),
		zap.Uint64("passes", st.Passes),
		zap.Uint64("failed_loads", st.FailedLoads))
}

// Close tears the world down and releases the height source.
func (s *sim) Close() {
	s.world.Destroy()
	s.close()
}
