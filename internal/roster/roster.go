package roster

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/Amund211/lobbytracker/internal/app"
	"github.com/Amund211/lobbytracker/internal/domain"
	"github.com/Amund211/lobbytracker/internal/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"
)

const defaultListConcurrency = 8

type rosterMetricsCollection struct {
	playersAdded   metric.Int64Counter
	playersRemoved metric.Int64Counter
}

func setupRosterMetrics(meter metric.Meter) (rosterMetricsCollection, error) {
	playersAdded, err := meter.Int64Counter("roster/players_added")
	if err != nil {
		return rosterMetricsCollection{}, fmt.Errorf("failed to create players added metric: %w", err)
	}

	playersRemoved, err := meter.Int64Counter("roster/players_removed")
	if err != nil {
		return rosterMetricsCollection{}, fmt.Errorf("failed to create players removed metric: %w", err)
	}

	return rosterMetricsCollection{
		playersAdded:   playersAdded,
		playersRemoved: playersRemoved,
	}, nil
}

// Roster is the ordered set of players in the current lobby, along with the settings
// controlling how lobby events change it.
//
// All state is guarded by mu. Stats are fetched without holding the lock, so two
// concurrent additions of the same username can both pass the presence check and
// both append.
type Roster struct {
	getPlayer       app.GetPlayer
	listConcurrency int

	mu       sync.Mutex
	players  []domain.Player
	settings domain.Settings

	metrics rosterMetricsCollection
}

type Option func(*Roster)

// Max number of concurrent stats fetches when adding the players of a lobby list
func WithListConcurrency(n int) Option {
	return func(r *Roster) {
		r.listConcurrency = n
	}
}

func New(getPlayer app.GetPlayer, settings domain.Settings, opts ...Option) (*Roster, error) {
	metrics, err := setupRosterMetrics(otel.Meter("lobbytracker/roster"))
	if err != nil {
		return nil, fmt.Errorf("failed to set up metrics: %w", err)
	}

	r := &Roster{
		getPlayer:       getPlayer,
		listConcurrency: defaultListConcurrency,
		settings:        settings,
		metrics:         metrics,
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.listConcurrency < 1 {
		return nil, fmt.Errorf("list concurrency must be positive, got %d", r.listConcurrency)
	}

	return r, nil
}

// Apply a parsed log event to the roster
func (r *Roster) Apply(ctx context.Context, event domain.Event) {
	switch e := event.(type) {
	case domain.JoinedLobby:
		r.HandleJoinedLobby(ctx, e.Username)
	case domain.LeftLobby:
		r.HandleLeftLobby(ctx, e.Username)
	case domain.LobbyList:
		r.HandleLobbyList(ctx, e.Usernames)
	case domain.GameStart:
		r.HandleGameStart(ctx)
	case domain.Nothing:
	default:
		logging.FromContext(ctx).WarnContext(ctx, "Unknown event", "event", fmt.Sprintf("%T", event))
	}
}

func (r *Roster) HandleJoinedLobby(ctx context.Context, username string) {
	if !r.Settings().AutoJoin {
		logging.FromContext(ctx).DebugContext(ctx, "Auto join disabled, ignoring join", "username", username)
		return
	}

	_, _ = r.fetchAndAppend(ctx, username, "join")
}

func (r *Roster) HandleLeftLobby(ctx context.Context, username string) {
	if !r.Settings().AutoLeave {
		logging.FromContext(ctx).DebugContext(ctx, "Auto leave disabled, ignoring quit", "username", username)
		return
	}

	r.remove(ctx, username, "quit")
}

func (r *Roster) HandleLobbyList(ctx context.Context, usernames []string) {
	logger := logging.FromContext(ctx)

	r.mu.Lock()
	settings := r.settings
	cleared := 0
	if settings.AutoClearOnList {
		cleared = len(r.players)
		r.players = nil
	}
	r.mu.Unlock()

	if cleared > 0 {
		r.metrics.playersRemoved.Add(ctx, int64(cleared), metric.WithAttributes(attribute.String("source", "list")))
		logger.InfoContext(ctx, "Cleared roster for lobby list", "removed", cleared)
	}

	if !settings.AutoAddOnList {
		return
	}

	var g errgroup.Group
	g.SetLimit(r.listConcurrency)
	for _, username := range usernames {
		g.Go(func() error {
			// A cancelled fetch leaves the player out, the rest of the list is still processed
			_, _ = r.fetchAndAppend(ctx, username, "list")
			return nil
		})
	}
	_ = g.Wait()
}

func (r *Roster) HandleGameStart(ctx context.Context) {
	logging.FromContext(ctx).InfoContext(ctx, "Game has started", "players", len(r.Players()))
}

// AddPlayer adds a player by name regardless of the automation settings.
//
// Returns false if a player with the same name (ignoring case) is already tracked.
// Returns the context error if ctx is done before the player could be added.
func (r *Roster) AddPlayer(ctx context.Context, username string) (bool, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return false, fmt.Errorf("%w: empty username", domain.ErrInvalidUsername)
	}

	added, err := r.fetchAndAppend(ctx, username, "manual")
	if err != nil {
		return false, err
	}
	if added && r.Settings().AutoSort {
		r.SortByRatio()
	}

	return added, nil
}

// RemovePlayer removes the first player with exactly this username
func (r *Roster) RemovePlayer(ctx context.Context, username string) bool {
	return r.remove(ctx, username, "manual")
}

// RemoveAllPlayers empties the roster and returns the number of players removed
func (r *Roster) RemoveAllPlayers(ctx context.Context) int {
	r.mu.Lock()
	removed := len(r.players)
	r.players = nil
	r.mu.Unlock()

	if removed > 0 {
		r.metrics.playersRemoved.Add(ctx, int64(removed), metric.WithAttributes(attribute.String("source", "manual")))
	}
	logging.FromContext(ctx).InfoContext(ctx, "Removed all players", "removed", removed)
	return removed
}

// SortByRatio orders the players by descending final kill/death ratio, keeping the
// current order between equal ratios
func (r *Roster) SortByRatio() {
	r.mu.Lock()
	defer r.mu.Unlock()

	slices.SortStableFunc(r.players, func(a, b domain.Player) int {
		switch {
		case a.FinalsRatio > b.FinalsRatio:
			return -1
		case a.FinalsRatio < b.FinalsRatio:
			return 1
		default:
			return 0
		}
	})
}

// Players returns a copy of the roster in display order
func (r *Roster) Players() []domain.Player {
	r.mu.Lock()
	defer r.mu.Unlock()

	return slices.Clone(r.players)
}

func (r *Roster) Settings() domain.Settings {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.settings
}

func (r *Roster) UpdateSettings(update func(*domain.Settings)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	update(&r.settings)
}

func (r *Roster) Paused() bool {
	return r.Settings().Paused
}

func (r *Roster) containsLocked(username string) bool {
	return slices.ContainsFunc(r.players, func(p domain.Player) bool {
		return p.SameUsername(username)
	})
}

// Fetch and append the player if no player with the same name is tracked.
// The lock is released while fetching and the presence is not checked again before appending.
// Nothing is appended when ctx is done by the time the fetch returns.
func (r *Roster) fetchAndAppend(ctx context.Context, username string, source string) (bool, error) {
	r.mu.Lock()
	present := r.containsLocked(username)
	r.mu.Unlock()

	if present {
		return false, nil
	}

	player := r.getPlayer(ctx, username)
	if err := ctx.Err(); err != nil {
		logging.FromContext(ctx).InfoContext(ctx, "Fetch cancelled, not adding", "username", username, "source", source)
		return false, fmt.Errorf("add %s: %w", username, err)
	}

	r.mu.Lock()
	r.players = append(r.players, player)
	r.mu.Unlock()

	r.metrics.playersAdded.Add(ctx, 1, metric.WithAttributes(
		attribute.String("source", source),
		attribute.Bool("has_data", player.HasData),
	))
	logging.FromContext(ctx).InfoContext(ctx, "Added", "username", username, "source", source, "has_data", player.HasData, "tag", player.Tag().String())

	return true, nil
}

func (r *Roster) remove(ctx context.Context, username string, source string) bool {
	r.mu.Lock()
	index := slices.IndexFunc(r.players, func(p domain.Player) bool {
		return p.Username == username
	})
	if index != -1 {
		r.players = slices.Delete(r.players, index, index+1)
	}
	r.mu.Unlock()

	if index == -1 {
		return false
	}

	r.metrics.playersRemoved.Add(ctx, 1, metric.WithAttributes(attribute.String("source", source)))
	logging.FromContext(ctx).InfoContext(ctx, "Removed", "username", username, "source", source)
	return true
}
