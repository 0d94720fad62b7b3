package cmd

import (
	"log/slog"

	"github.com/dukex/journeys/pkg/actions"
	"github.com/dukex/journeys/pkg/registry"
)

// NewRegistry loads action plugins from pluginsPath, then registers the
// built-in actions over them.
func NewRegistry(log *slog.Logger, pluginsPath string, ports actions.Ports) (*registry.Registry, error) {
	reg := registry.NewRegistry(log)

	if pluginsPath != "" {
		plugins, err := reg.LoadActionPlugins(pluginsPath)
		if err != nil {
			return nil, err
		}

		for _, plugin := range plugins {
			reg.Register(plugin)
		}
	}

	for _, action := range actions.Builtins(ports) {
		reg.Register(action)
	}

	return reg, nil
}
