package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"launder/internal/game"
	"launder/internal/laundromat/models"
	dErrors "launder/pkg/domain-errors"
	"launder/pkg/platform/invoke"
)

func TestClient(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/health":
			_, _ = w.Write([]byte(`{"ok":true}`))
		case "/entrypoints/abstract/invoke":
			_, _ = w.Write([]byte(`{"output":{"abstract":"quiet"}}`))
		case "/entrypoints/launder_aggressive/invoke":
			var in invoke.Request[models.LaunderRequest]
			_ = json.NewDecoder(r.Body).Decode(&in)
			assert.Equal(t, "Syndicate2-clean", in.Input.CleanAccountName)
			_, _ = w.Write([]byte(`{"output":{"strategy":"aggressive","amount_clean":0,"amount_lost":25000,"busted":true,"success":true}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	c := New(srv.URL+"/", invoke.New())

	abstract, err := c.Abstract(ctx)
	require.NoError(t, err)
	assert.Equal(t, "quiet", abstract)

	out, err := c.Launder(ctx, game.StrategyAggressive, models.LaunderRequest{BossName: "B", Name: "Syndicate2", CleanAccountName: "Syndicate2-clean"})
	require.NoError(t, err)
	assert.True(t, out.Busted)
	assert.Equal(t, int64(25_000), out.AmountLost)

	require.NoError(t, c.Health(ctx))

	_, err = c.Launder(ctx, game.Strategy("bogus"), models.LaunderRequest{})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnknownStrategy))
	assert.Equal(t, []string{"/entrypoints/abstract/invoke", "/entrypoints/launder_aggressive/invoke", "/health"}, paths)
}
