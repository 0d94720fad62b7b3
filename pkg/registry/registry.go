// Package registry maps step kinds to the actions that execute them.
package registry

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"plugin"
	"sort"
	"strings"

	"github.com/dukex/journeys/pkg/models"
	"github.com/dukex/journeys/pkg/protocol"
)

type Registry struct {
	logger  *slog.Logger
	actions map[models.StepKind]protocol.Action
}

func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		logger:  log,
		actions: make(map[models.StepKind]protocol.Action),
	}
}

// LoadActionPlugins opens every <pluginsPath>/actions/**/*.so and returns
// the exported "Action" symbols.
func (r *Registry) LoadActionPlugins(pluginsPath string) ([]protocol.Action, error) {
	return loadPlugin[protocol.Action](r.logger, pluginsPath, "Action")
}

// Register binds action to its kind, replacing any previous binding.
func (r *Registry) Register(action protocol.Action) {
	r.actions[action.Kind()] = action
}

func (r *Registry) Lookup(kind models.StepKind) (protocol.Action, bool) {
	action, ok := r.actions[kind]

	return action, ok
}

// Kinds returns the registered kinds in lexical order.
func (r *Registry) Kinds() []models.StepKind {
	kinds := make([]models.StepKind, 0, len(r.actions))
	for kind := range r.actions {
		kinds = append(kinds, kind)
	}

	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })

	return kinds
}

// Dispatch runs the action registered for step.Kind. Steps of an unregistered
// kind are logged and reported as not handled; they never fail.
func (r *Registry) Dispatch(ctx context.Context, step *models.Step, actx *protocol.ActionContext) (protocol.Outcome, bool, error) {
	action, ok := r.actions[step.Kind]
	if !ok {
		r.logger.WarnContext(ctx, "Unknown step kind, skipping action",
			slog.String("step_id", step.ID),
			slog.String("step_kind", string(step.Kind)),
		)

		return protocol.Outcome{}, false, nil
	}

	outcome, err := action.Execute(ctx, step, actx)
	if err != nil {
		return protocol.Outcome{}, true, fmt.Errorf("step %s (%s): %w", step.ID, step.Kind, err)
	}

	return outcome, true, nil
}

func loadPlugin[T any](logger *slog.Logger, pluginsPath string, symbolName string) ([]T, error) {
	rootPath := pluginsPath + "/" + strings.ToLower(symbolName) + "s"
	root := os.DirFS(rootPath)

	pluginPathList, err := fs.Glob(root, "**/*.so")
	if err != nil {
		return nil, err
	}

	l := logger.With(slog.String("path", pluginsPath), slog.String("type", symbolName))
	l.Info("Loading plugins")

	pluginList := make([]T, 0, len(pluginPathList))

	for _, p := range pluginPathList {
		plg, err := plugin.Open(rootPath + "/" + p)
		if err != nil {
			return nil, fmt.Errorf("open plugin %s: %w", p, err)
		}

		v, err := plg.Lookup(symbolName)
		if err != nil {
			return nil, fmt.Errorf("lookup %s in %s: %w", symbolName, p, err)
		}

		castV, ok := v.(T)
		if !ok {
			return nil, fmt.Errorf("plugin %s: symbol %s has type %T", p, symbolName, v)
		}

		pluginList = append(pluginList, castV)

		l.Info("Loaded action plugin", slog.String("plugin", p))
	}

	return pluginList, nil
}
