package tui

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/freightdash/internal/nav"
)

func TestFormModel_ReturnsOutcome(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		note     string
		outcome  string
		wantNote bool
	}{
		{name: "saved with note", key: "enter", note: "  reefer 2x40 ", outcome: OutcomeSaved, wantNote: true},
		{name: "saved blank note", key: "enter", note: "   ", outcome: OutcomeSaved},
		{name: "cancelled drops note", key: "esc", note: "reefer", outcome: OutcomeCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ch := nav.NewMemoryChannel(RouteDashboard)
			opening := nav.Payload{}
			require.NoError(t, opening.Set(PayloadKeyEntityKey, "MAA"))
			require.NoError(t, ch.NavigateTo(RouteQuotationNew, opening))

			form := NewFormModel(context.Background(), ch, RouteQuotationNew)
			assert.Equal(t, "MAA", form.Field(PayloadKeyEntityKey))

			m := typeText(t, form, tt.note)
			press(t, m, tt.key)

			require.Equal(t, RouteDashboard, ch.Route())
			back, ok := ch.IncomingPayload()
			require.True(t, ok)

			var outcome, key, note string
			_, err := back.Get(PayloadKeyOutcome, &outcome)
			require.NoError(t, err)
			assert.Equal(t, tt.outcome, outcome)
			_, err = back.Get(PayloadKeyEntityKey, &key)
			require.NoError(t, err)
			assert.Equal(t, "MAA", key, "opening payload travels back")

			found, err := back.Get(PayloadKeyNote, &note)
			require.NoError(t, err)
			assert.Equal(t, tt.wantNote, found)
			if tt.wantNote {
				assert.Equal(t, "reefer 2x40", note)
			}
		})
	}
}
