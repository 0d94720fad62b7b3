package file

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dukex/journeys/pkg/journeydoc"
	"github.com/dukex/journeys/pkg/models"
	"github.com/dukex/journeys/pkg/persistence"
)

var journeyExtensions = []string{".yaml", ".yml", ".json"}

// JourneyRepository handles journey-related file operations.
type JourneyRepository struct {
	root string
}

func NewJourneyRepository(root string) *JourneyRepository {
	return &JourneyRepository{root: root}
}

func (jr *JourneyRepository) dir() string {
	return filepath.Join(jr.root, "journeys")
}

// Journeys returns every stored journey ordered by id.
func (jr *JourneyRepository) Journeys(ctx context.Context) ([]*models.Journey, error) {
	entries, err := os.ReadDir(jr.dir())
	if err != nil {
		if os.IsNotExist(err) {
			return make([]*models.Journey, 0), nil
		}

		return nil, fmt.Errorf("failed to list journey files: %w", err)
	}

	seen := make(map[string]bool)
	journeys := make([]*models.Journey, 0, len(entries))

	for _, entry := range entries {
		id, ok := journeyID(entry)
		if !ok || seen[id] {
			continue
		}

		seen[id] = true

		journey, err := jr.JourneyByID(ctx, id)
		if err != nil {
			return nil, err
		}

		journeys = append(journeys, journey)
	}

	sort.Slice(journeys, func(i, j int) bool { return journeys[i].ID < journeys[j].ID })

	return journeys, nil
}

// JourneyByID reads and validates the journey document of id.
func (jr *JourneyRepository) JourneyByID(_ context.Context, id string) (*models.Journey, error) {
	err := validateID(id)
	if err != nil {
		return nil, persistence.NewJourneyError("JourneyByID", id, err)
	}

	for _, ext := range journeyExtensions {
		filePath := filepath.Join(jr.dir(), id+ext)

		body, err := os.ReadFile(filePath) // #nosec G304 -- id is validated above
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}

			return nil, persistence.NewJourneyError("JourneyByID", id, err)
		}

		journey, err := journeydoc.Decode(body)
		if err != nil {
			return nil, persistence.NewJourneyError("JourneyByID", id, err)
		}

		if journey.ID != id {
			return nil, persistence.NewJourneyError("JourneyByID", id,
				fmt.Errorf("%w: document declares id %q", journeydoc.ErrInvalidDocument, journey.ID))
		}

		return journey, nil
	}

	return nil, persistence.NewJourneyError("JourneyByID", id, persistence.ErrJourneyNotFound)
}

// SaveJourney validates journey and writes it as <id>.yaml, replacing any
// other representation of the same id.
func (jr *JourneyRepository) SaveJourney(_ context.Context, journey *models.Journey) error {
	err := validateID(journey.ID)
	if err != nil {
		return persistence.NewJourneyError("SaveJourney", journey.ID, err)
	}

	err = models.ValidateJourney(journey)
	if err != nil {
		return persistence.NewJourneyError("SaveJourney", journey.ID, err)
	}

	now := time.Now().UTC()
	if journey.CreatedAt.IsZero() {
		journey.CreatedAt = now
	}

	journey.UpdatedAt = now

	data, err := journeydoc.EncodeYAML(journey)
	if err != nil {
		return persistence.NewJourneyError("SaveJourney", journey.ID, err)
	}

	err = writeAtomic(filepath.Join(jr.dir(), journey.ID+".yaml"), data)
	if err != nil {
		return persistence.NewJourneyError("SaveJourney", journey.ID, err)
	}

	for _, ext := range journeyExtensions[1:] {
		_ = os.Remove(filepath.Join(jr.dir(), journey.ID+ext))
	}

	return nil
}

func (jr *JourneyRepository) DeleteJourney(_ context.Context, id string) error {
	err := validateID(id)
	if err != nil {
		return persistence.NewJourneyError("DeleteJourney", id, err)
	}

	removed := false

	for _, ext := range journeyExtensions {
		err := os.Remove(filepath.Join(jr.dir(), id+ext))
		if err == nil {
			removed = true

			continue
		}

		if !os.IsNotExist(err) {
			return persistence.NewJourneyError("DeleteJourney", id, err)
		}
	}

	if !removed {
		return persistence.NewJourneyError("DeleteJourney", id, persistence.ErrJourneyNotFound)
	}

	return nil
}

func journeyID(entry fs.DirEntry) (string, bool) {
	if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
		return "", false
	}

	ext := filepath.Ext(entry.Name())
	for _, known := range journeyExtensions {
		if ext == known {
			return strings.TrimSuffix(entry.Name(), ext), true
		}
	}

	return "", false
}
