package spotify

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"sync"

	"github.com/AadityaKP/MoodBoard/config"
	"github.com/AadityaKP/MoodBoard/moodboard"
	"github.com/AadityaKP/MoodBoard/util"
	"github.com/google/uuid"
	spot "github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// ErrNotConnected is returned until a user has completed the OAuth flow.
var ErrNotConnected = errors.New("spotify: not connected")

var userScopes = []string{
	spotifyauth.ScopeUserReadPlaybackState,
	spotifyauth.ScopeUserModifyPlaybackState,
	spotifyauth.ScopeUserReadCurrentlyPlaying,
}

func newAuthenticator(cfg config.Config) *spotifyauth.Authenticator {
	return spotifyauth.New(
		spotifyauth.WithClientID(cfg.SpotifyID),
		spotifyauth.WithClientSecret(cfg.SpotifySecret),
		spotifyauth.WithRedirectURL(cfg.SpotifyRedirectURL),
		spotifyauth.WithScopes(userScopes...),
	)
}

// SpotifyClient wraps the Web API client for the single connected user.
// Refreshed tokens are written back to the TokenStore.
type SpotifyClient struct {
	ID     string
	Secret string

	log    *zap.SugaredLogger
	auth   *spotifyauth.Authenticator
	tokens TokenStore
	state  string
	opts   []spot.ClientOption

	mu     sync.RWMutex
	client *spot.Client
	token  *oauth2.Token
}

// NewSpotifyClient builds a client and restores a previously stored token.
func NewSpotifyClient(ctx context.Context, log *zap.SugaredLogger, cfg config.Config, tokens TokenStore, opts ...spot.ClientOption) *SpotifyClient {
	c := &SpotifyClient{
		ID:     cfg.SpotifyID,
		Secret: cfg.SpotifySecret,
		log:    log,
		auth:   newAuthenticator(cfg),
		tokens: tokens,
		state:  uuid.NewString(),
		opts:   opts,
	}

	tok, err := tokens.Load(ctx)
	switch {
	case err == nil:
		c.connect(ctx, tok)
		log.Info("Restored Spotify session")
	case errors.Is(err, ErrNoToken), errors.Is(err, fs.ErrNotExist):
		log.Infow("No stored Spotify token, visit /login to connect")
	default:
		log.Warnw("Failed to load Spotify token", "error", err)
	}
	return c
}

func ProvideSpotify(log *zap.SugaredLogger, cfg config.Config, tokens TokenStore) *SpotifyClient {
	log.Info("setting up spotify client")
	return NewSpotifyClient(context.Background(), log, cfg, tokens)
}

var Options = ProvideSpotify

func (c *SpotifyClient) connect(ctx context.Context, tok *oauth2.Token) {
	// the oauth2 transport refreshes on its own; context.Background keeps it
	// alive beyond the request that created it
	httpClient := c.auth.Client(context.Background(), tok)

	c.mu.Lock()
	c.client = spot.New(httpClient, c.opts...)
	c.token = tok
	c.mu.Unlock()
}

// Connected reports whether a user token is loaded.
func (c *SpotifyClient) Connected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.client != nil
}

// Configured reports whether app credentials are present.
func (c *SpotifyClient) Configured() bool {
	return c.ID != "" && c.Secret != ""
}

// AuthURL is the consent page the user is sent to from /login.
func (c *SpotifyClient) AuthURL() string {
	return c.auth.AuthURL(c.state)
}

// Exchange completes the OAuth callback, stores the token and connects.
func (c *SpotifyClient) Exchange(ctx context.Context, r *http.Request) error {
	tok, err := c.auth.Token(ctx, c.state, r)
	if err != nil {
		return fmt.Errorf("spotify: token exchange: %w", err)
	}
	if err := c.tokens.Save(ctx, tok); err != nil {
		return fmt.Errorf("spotify: store token: %w", err)
	}
	c.connect(ctx, tok)
	return nil
}

func (c *SpotifyClient) api() (*spot.Client, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.client == nil {
		return nil, ErrNotConnected
	}
	return c.client, nil
}

// persistRefreshed saves the token if the transport has refreshed it.
func (c *SpotifyClient) persistRefreshed(ctx context.Context, client *spot.Client) {
	tok, err := client.Token()
	if err != nil || tok == nil {
		return
	}

	c.mu.Lock()
	changed := c.token == nil || c.token.AccessToken != tok.AccessToken
	if changed {
		c.token = tok
	}
	c.mu.Unlock()

	if changed {
		if err := c.tokens.Save(ctx, tok); err != nil {
			c.log.Warnw("Failed to persist refreshed token", "error", err)
		}
	}
}

// CurrentPlayback polls the player. A stopped player yields a sample with
// IsPlaying false.
func (c *SpotifyClient) CurrentPlayback(ctx context.Context) (moodboard.PlaybackSample, error) {
	client, err := c.api()
	if err != nil {
		return moodboard.PlaybackSample{}, err
	}

	state, err := client.PlayerState(ctx)
	if err != nil {
		return moodboard.PlaybackSample{}, fmt.Errorf("spotify: player state: %w", err)
	}
	c.persistRefreshed(ctx, client)

	return ToSample(state), nil
}

// ToSample converts a player state into a PlaybackSample.
func ToSample(state *spot.PlayerState) moodboard.PlaybackSample {
	if state == nil || state.Item == nil {
		return moodboard.PlaybackSample{}
	}
	item := state.Item
	return moodboard.PlaybackSample{
		TrackID:    string(item.ID),
		Title:      item.Name,
		Artists:    ArtistNames(item.Artists),
		ProgressMs: int(state.Progress),
		DurationMs: int(item.Duration),
		IsPlaying:  state.Playing,
		ImageURL:   util.GetImage(item.Album),
	}
}

// Next skips to the next track.
func (c *SpotifyClient) Next(ctx context.Context) error {
	client, err := c.api()
	if err != nil {
		return err
	}
	if err := client.Next(ctx); err != nil {
		return fmt.Errorf("spotify: next: %w", err)
	}
	return nil
}

// Previous goes back one track.
func (c *SpotifyClient) Previous(ctx context.Context) error {
	client, err := c.api()
	if err != nil {
		return err
	}
	if err := client.Previous(ctx); err != nil {
		return fmt.Errorf("spotify: previous: %w", err)
	}
	return nil
}

// Devices lists the user's playback devices.
func (c *SpotifyClient) Devices(ctx context.Context) ([]spot.PlayerDevice, error) {
	client, err := c.api()
	if err != nil {
		return nil, err
	}
	devices, err := client.PlayerDevices(ctx)
	if err != nil {
		return nil, fmt.Errorf("spotify: devices: %w", err)
	}
	return devices, nil
}
