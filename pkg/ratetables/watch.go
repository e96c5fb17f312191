package ratetables

import (
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Watch reloads path whenever it changes on disk and publishes the result.
// A document that fails to load or validate is logged and the previous
// snapshot stays current. Watching lasts for the life of the process.
func (s *Store) Watch(path string) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType(formatForPath(path))
	v.OnConfigChange(func(e fsnotify.Event) {
		s.reload(path, e)
	})
	v.WatchConfig()
	s.logger.Info("watching rate tables",
		zap.String("op", "ratetables.Watch"),
		zap.String("path", path),
	)
}

func (s *Store) reload(path string, e fsnotify.Event) {
	if e.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return
	}
	snap, err := s.LoadFile(path)
	if err != nil {
		s.logger.Error("rejected rate table change, keeping previous snapshot",
			zap.String("op", "ratetables.Watch"),
			zap.String("path", path),
			zap.Error(err),
		)
		return
	}
	s.logger.Debug("reloaded rate tables",
		zap.String("op", "ratetables.Watch"),
		zap.String("event", e.String()),
		zap.String("snapshot", snap.ID.String()),
	)
}
