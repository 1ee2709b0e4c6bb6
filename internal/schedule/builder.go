// Package schedule assembles the camp schedule consumed by the export
// renderer. It reads camp, meal, recipe and override documents, joins them
// into one graph of specific meals with their recipes, and orders the result
// by day and meal category.
//
// A Builder serves a single export run. Every stage runs at most once after
// it succeeds and pulls in the stages it depends on; failed stages are not
// remembered and run again on the next call.
package schedule

import (
	"context"
	"fmt"
	"time"

	"camp-export/internal/camp"
	"camp-export/internal/docstore"
	"camp-export/internal/logging"
	"camp-export/internal/textsafe"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"
)

type stage string

const (
	stageUser          stage = "user"
	stageCampMeta      stage = "camp_meta"
	stageSpecificMeals stage = "specific_meals"
	stageMeals         stage = "meals"
	stageRecipes       stage = "recipes"
	stageJoin          stage = "join"
	stageNormalize     stage = "normalize"
)

// Options configures a Builder.
type Options struct {
	CampID string
	UserID string
	// Landscape is passed through to the renderer.
	Landscape bool
	// MealTypes is the ordered list of meal categories. Meals are ranked by
	// the position of their category; a category missing here is an error.
	MealTypes []string
	// Escaper is applied to text that ends up in the typeset document.
	// Defaults to textsafe.Ampersand.
	Escaper textsafe.Sanitizer
	// Location decides which calendar day a timestamp falls on. Defaults to UTC.
	Location *time.Location
	Logger   *zap.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// Builder runs the fetch, join and normalize stages for one camp.
// It is not safe for concurrent use.
type Builder struct {
	store  docstore.Client
	opts   Options
	rank   map[string]int
	logger *zap.Logger
	tracer trace.Tracer

	done map[stage]bool

	user          camp.User
	campMeta      camp.CampMeta
	specificMeals []camp.SpecificMeal
	meals         []camp.Meal
	recipes       []camp.Recipe
	joined        []camp.SpecificMeal
	schedule      *Schedule
}

// New creates a Builder reading from store.
func New(store docstore.Client, opts Options) (*Builder, error) {
	if store == nil {
		return nil, fmt.Errorf("no document store given")
	}
	if opts.CampID == "" {
		return nil, fmt.Errorf("no camp id given")
	}
	b, err := newBuilder(opts)
	if err != nil {
		return nil, err
	}
	b.store = store
	return b, nil
}

// NewFromSnapshot creates a Builder that never touches a store: user, camp and
// the already joined specific meals are taken as given. Build only runs the
// normalize stage on them.
func NewFromSnapshot(user camp.User, meta camp.CampMeta, meals []camp.SpecificMeal, opts Options) (*Builder, error) {
	if opts.CampID == "" {
		opts.CampID = meta.DocID
	}
	if opts.UserID == "" {
		opts.UserID = user.DocID
	}
	b, err := newBuilder(opts)
	if err != nil {
		return nil, err
	}

	b.user = user
	b.campMeta = meta.Clone()
	b.specificMeals = cloneMeals(meals)
	b.joined = cloneMeals(meals)
	b.meals = []camp.Meal{}
	b.recipes = []camp.Recipe{}
	for _, s := range []stage{stageUser, stageCampMeta, stageSpecificMeals, stageMeals, stageRecipes, stageJoin} {
		b.done[s] = true
	}
	return b, nil
}

func newBuilder(opts Options) (*Builder, error) {
	if len(opts.MealTypes) == 0 {
		return nil, fmt.Errorf("no meal types configured")
	}
	rank := make(map[string]int, len(opts.MealTypes))
	for i, t := range opts.MealTypes {
		key := categoryKey(t)
		if _, dup := rank[key]; dup {
			return nil, fmt.Errorf("meal type %q listed twice", t)
		}
		rank[key] = i
	}

	if opts.Escaper == nil {
		opts.Escaper = textsafe.Ampersand
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Builder{
		opts:   opts,
		rank:   rank,
		logger: logging.OrNop(opts.Logger).With(zap.String("camp_id", opts.CampID)),
		tracer: otel.Tracer("camp-export/internal/schedule"),
		done:   make(map[stage]bool),
	}, nil
}

// run executes fn for stage s unless it already succeeded.
func (b *Builder) run(ctx context.Context, s stage, fn func(ctx context.Context) error) error {
	if b.done[s] {
		return nil
	}

	ctx, span := b.tracer.Start(ctx, "schedule."+string(s))
	defer span.End()

	if err := fn(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	b.done[s] = true
	return nil
}

// categoryKey normalizes a category so that "Znüni" matches whether the
// umlaut was stored composed or decomposed.
func categoryKey(category string) string {
	return norm.NFC.String(category)
}

func cloneMeals(meals []camp.SpecificMeal) []camp.SpecificMeal {
	if meals == nil {
		return nil
	}
	out := make([]camp.SpecificMeal, len(meals))
	for i, m := range meals {
		out[i] = m.Clone()
	}
	return out
}
