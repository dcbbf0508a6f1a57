package pyroscope

import (
	"context"
	"strings"

	"github.com/flexprice/leasebill/internal/config"
	"github.com/flexprice/leasebill/internal/logger"
	"github.com/grafana/pyroscope-go"
	"go.uber.org/fx"
)

type Service struct {
	cfg      config.PyroscopeConfig
	logger   *logger.Logger
	profiler *pyroscope.Profiler
}

// Module provides fx options for Pyroscope
func Module() fx.Option {
	return fx.Options(
		fx.Provide(NewPyroscopeService),
		fx.Invoke(RegisterHooks),
	)
}

// RegisterHooks registers lifecycle hooks for Pyroscope
func RegisterHooks(lc fx.Lifecycle, svc *Service) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return svc.Start()
		},
		OnStop: func(ctx context.Context) error {
			return svc.Stop()
		},
	})
}

func NewPyroscopeService(cfg *config.Configuration, logger *logger.Logger) *Service {
	return &Service{
		cfg:    cfg.Pyroscope,
		logger: logger,
	}
}

// Start begins continuous profiling, a no-op when disabled
func (s *Service) Start() error {
	if !s.cfg.Enabled {
		s.logger.Debug("pyroscope profiling is disabled")
		return nil
	}

	profileTypes := ProfileTypes(s.cfg.ProfileTypes, s.logger)
	pyroscopeConfig := pyroscope.Config{
		ApplicationName: s.cfg.ApplicationName,
		ServerAddress:   s.cfg.ServerAddress,
		ProfileTypes:    profileTypes,
		SampleRate:      s.cfg.SampleRate,
		Logger:          s,
	}
	if s.cfg.BasicAuthUser != "" {
		pyroscopeConfig.BasicAuthUser = s.cfg.BasicAuthUser
		pyroscopeConfig.BasicAuthPassword = s.cfg.BasicAuthPass
	}

	profiler, err := pyroscope.Start(pyroscopeConfig)
	if err != nil {
		s.logger.Errorw("failed to start pyroscope", "error", err)
		return err
	}
	s.profiler = profiler

	s.logger.Infow("pyroscope profiling started",
		"application_name", s.cfg.ApplicationName,
		"server_address", s.cfg.ServerAddress,
		"profile_types", profileTypes,
		"sample_rate", s.cfg.SampleRate,
	)
	return nil
}

// Stop flushes pending profiles
func (s *Service) Stop() error {
	if s.profiler == nil {
		return nil
	}
	err := s.profiler.Stop()
	s.profiler = nil
	return err
}

func (s *Service) IsEnabled() bool {
	return s.cfg.Enabled
}

// TagWrapper runs fn with profiling labels attached
func (s *Service) TagWrapper(ctx context.Context, labels map[string]string, fn func(context.Context)) {
	if !s.IsEnabled() {
		fn(ctx)
		return
	}
	pyroscope.TagWrapper(ctx, Labels(labels), fn)
}

// Labels converts a label map to a pyroscope label set
func Labels(labels map[string]string) pyroscope.LabelSet {
	pairs := make([]string, 0, len(labels)*2)
	for k, v := range labels {
		pairs = append(pairs, k, v)
	}
	return pyroscope.Labels(pairs...)
}

// pyroscope.Logger

func (s *Service) Debugf(format string, args ...interface{}) {}

func (s *Service) Infof(format string, args ...interface{}) {
	s.logger.Infof("[pyroscope] "+format, args...)
}

func (s *Service) Errorf(format string, args ...interface{}) {
	s.logger.Errorf("[pyroscope] "+format, args...)
}

// ProfileTypes maps configured names to pyroscope profile types. Unknown
// names are logged and dropped, an empty list selects the defaults.
func ProfileTypes(names []string, logger *logger.Logger) []pyroscope.ProfileType {
	if len(names) == 0 {
		return []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileInuseObjects,
			pyroscope.ProfileAllocObjects,
			pyroscope.ProfileInuseSpace,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileGoroutines,
		}
	}

	known := map[string]pyroscope.ProfileType{
		"cpu":            pyroscope.ProfileCPU,
		"inuse_objects":  pyroscope.ProfileInuseObjects,
		"alloc_objects":  pyroscope.ProfileAllocObjects,
		"inuse_space":    pyroscope.ProfileInuseSpace,
		"alloc_space":    pyroscope.ProfileAllocSpace,
		"goroutines":     pyroscope.ProfileGoroutines,
		"mutex_count":    pyroscope.ProfileMutexCount,
		"mutex_duration": pyroscope.ProfileMutexDuration,
		"block_count":    pyroscope.ProfileBlockCount,
		"block_duration": pyroscope.ProfileBlockDuration,
	}

	var out []pyroscope.ProfileType
	for _, name := range names {
		t, ok := known[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			logger.Warnw("unknown pyroscope profile type", "type", name)
			continue
		}
		out = append(out, t)
	}
	return out
}
