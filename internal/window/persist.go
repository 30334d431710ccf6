package window

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Dicklesworthstone/battmon/internal/model"
	"github.com/Dicklesworthstone/battmon/internal/store"
)

// StoreKey is where the window lives in the key-value store.
const StoreKey = "battery-window"

// Load returns the persisted window, or nil when none is stored or the stored
// one is incomplete.
func Load(ctx context.Context, st store.Store) (*model.Window, error) {
	raw, err := st.Get(ctx, StoreKey)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load window: %w", err)
	}

	var w model.Window
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("decode window: %w", err)
	}
	if w.Next == nil || w.Latest == nil {
		return nil, nil
	}
	return &w, nil
}

func Save(ctx context.Context, st store.Store, w *model.Window) error {
	if w == nil {
		return nil
	}
	raw, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("encode window: %w", err)
	}
	if err := st.Set(ctx, StoreKey, raw); err != nil {
		return fmt.Errorf("save window: %w", err)
	}
	return nil
}
