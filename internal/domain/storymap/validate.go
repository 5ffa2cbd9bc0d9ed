package storymap

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/Strob0t/StoryForge/internal/domain"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks the document invariants: required fields, enum values,
// non-empty acceptance criteria and effort on every story, and ID uniqueness
// within the epic, feature and story collections.
func (d *Document) Validate() error {
	if err := structValidator().Struct(d); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", domain.ErrValidation, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return d.checkUniqueIDs()
}

func (d *Document) checkUniqueIDs() error {
	epics := make(map[string]struct{}, len(d.Epics))
	features := map[string]struct{}{}
	stories := map[string]struct{}{}

	for i := range d.Epics {
		e := &d.Epics[i]
		if _, dup := epics[e.ID]; dup {
			return fmt.Errorf("%w: duplicate epic id %s", domain.ErrValidation, e.ID)
		}
		epics[e.ID] = struct{}{}
		for j := range e.Features {
			f := &e.Features[j]
			if _, dup := features[f.ID]; dup {
				return fmt.Errorf("%w: duplicate feature id %s", domain.ErrValidation, f.ID)
			}
			features[f.ID] = struct{}{}
			for k := range f.Tasks {
				id := f.Tasks[k].ID
				if _, dup := stories[id]; dup {
					return fmt.Errorf("%w: duplicate story id %s", domain.ErrValidation, id)
				}
				stories[id] = struct{}{}
			}
		}
	}
	return nil
}
