package dashboard

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/justestif/go-spotify-dashboard/internal/shared"
	"github.com/justestif/go-spotify-dashboard/internal/store"
)

const (
	themeKey          = "theme"
	widgetPositionKey = "widget_position"
)

// Theme values.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// Position is where the floating now-playing widget was last dropped.
type Position struct {
	X int `json:"x" validate:"gte=0,lte=10000"`
	Y int `json:"y" validate:"gte=0,lte=10000"`
}

// Prefs are the persisted display preferences.
type Prefs struct {
	Theme          string    `json:"theme" validate:"omitempty,oneof=light dark"`
	WidgetPosition *Position `json:"widgetPosition,omitempty" validate:"omitempty"`
}

// Preferences persists display preferences in a store. Missing values read
// as the defaults: light theme and no saved position.
type Preferences struct {
	kv       store.Store
	validate *validator.Validate
}

// NewPreferences creates a Preferences over kv.
func NewPreferences(kv store.Store) *Preferences {
	return &Preferences{kv: kv, validate: validator.New()}
}

// Get returns the stored preferences.
func (p *Preferences) Get(ctx context.Context) (Prefs, error) {
	out := Prefs{Theme: ThemeLight}

	theme, err := p.kv.Get(ctx, themeKey)
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		return Prefs{}, fmt.Errorf("reading theme: %w", err)
	default:
		if t := string(theme); t == ThemeLight || t == ThemeDark {
			out.Theme = t
		}
	}

	raw, err := p.kv.Get(ctx, widgetPositionKey)
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		return Prefs{}, fmt.Errorf("reading widget position: %w", err)
	default:
		var pos Position
		if json.Unmarshal(raw, &pos) == nil {
			out.WidgetPosition = &pos
		}
	}

	return out, nil
}

// Update validates in and stores the fields that are set.
func (p *Preferences) Update(ctx context.Context, in Prefs) (Prefs, error) {
	if err := p.validate.Struct(in); err != nil {
		return Prefs{}, fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}

	if in.Theme != "" {
		if err := p.kv.Set(ctx, themeKey, []byte(in.Theme)); err != nil {
			return Prefs{}, fmt.Errorf("saving theme: %w", err)
		}
	}
	if in.WidgetPosition != nil {
		data, err := json.Marshal(in.WidgetPosition)
		if err != nil {
			return Prefs{}, fmt.Errorf("encoding widget position: %w", err)
		}
		if err := p.kv.Set(ctx, widgetPositionKey, data); err != nil {
			return Prefs{}, fmt.Errorf("saving widget position: %w", err)
		}
	}

	return p.Get(ctx)
}
