package contact

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/dukex/journeys/pkg/models"
	"github.com/dukex/journeys/pkg/protocol"
)

// TagAction adds or removes tags depending on the kind it was built for.
type TagAction struct {
	kind     models.StepKind
	contacts protocol.ContactStore
}

func NewAddTagAction(contacts protocol.ContactStore) *TagAction {
	return &TagAction{kind: models.StepKindAddTag, contacts: contacts}
}

func NewRemoveTagAction(contacts protocol.ContactStore) *TagAction {
	return &TagAction{kind: models.StepKindRemoveTag, contacts: contacts}
}

func (a *TagAction) Kind() models.StepKind {
	return a.kind
}

func (a *TagAction) Execute(ctx context.Context, step *models.Step, actx *protocol.ActionContext) (protocol.Outcome, error) {
	config, err := protocol.StepConfig[models.TagConfig](step)
	if err != nil {
		return protocol.Outcome{}, err
	}

	var current []string
	if actx.Contact != nil {
		current = actx.Contact.Tags
	}

	var tags []string
	if a.kind == models.StepKindRemoveTag {
		tags = RemoveTags(current, config.Tags)
	} else {
		tags = AddTags(current, config.Tags)
	}

	err = a.contacts.Update(ctx, actx.Execution.ContactID, map[string]any{models.ContactFieldTags: tags})
	if err != nil {
		return protocol.Outcome{}, fmt.Errorf("%s: %w", a.kind, err)
	}

	actx.Logger.InfoContext(ctx, "Contact tags updated", slog.Any("tags", tags))

	return protocol.Outcome{}, nil
}

// AddTags returns the union of current and add, deduplicated and in first-seen order.
func AddTags(current, add []string) []string {
	tags := make([]string, 0, len(current)+len(add))

	for _, tag := range slices.Concat(current, add) {
		tag = strings.TrimSpace(tag)
		if tag == "" || slices.Contains(tags, tag) {
			continue
		}

		tags = append(tags, tag)
	}

	return tags
}

// RemoveTags returns current without any of remove, deduplicated.
func RemoveTags(current, remove []string) []string {
	tags := make([]string, 0, len(current))

	for _, tag := range AddTags(current, nil) {
		if slices.Contains(remove, tag) {
			continue
		}

		tags = append(tags, tag)
	}

	return tags
}
