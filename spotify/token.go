package spotify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/AadityaKP/MoodBoard/config"
	"github.com/AadityaKP/MoodBoard/firestore"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// ErrNoToken means nothing has been stored yet.
var ErrNoToken = errors.New("spotify: no stored token")

// TokenStore persists the user's OAuth token between restarts.
type TokenStore interface {
	Load(ctx context.Context) (*oauth2.Token, error)
	Save(ctx context.Context, tok *oauth2.Token) error
}

// SpotifyToken is the persisted form of an oauth2 token.
type SpotifyToken struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	Expiry       int64  `json:"expiry"`
}

func fromOAuth(tok *oauth2.Token) SpotifyToken {
	return SpotifyToken{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		Expiry:       tok.Expiry.Unix(),
	}
}

func (st SpotifyToken) oauth() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  st.AccessToken,
		RefreshToken: st.RefreshToken,
		TokenType:    st.TokenType,
		Expiry:       time.Unix(st.Expiry, 0),
	}
}

// FileTokenStore keeps the token in a JSON file readable only by the owner.
type FileTokenStore struct {
	path string
}

func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{path: path}
}

func (f *FileTokenStore) Load(context.Context) (*oauth2.Token, error) {
	b, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoToken
	}
	if err != nil {
		return nil, fmt.Errorf("spotify: read token: %w", err)
	}
	var st SpotifyToken
	if err := json.Unmarshal(b, &st); err != nil {
		return nil, fmt.Errorf("spotify: decode token: %w", err)
	}
	return st.oauth(), nil
}

func (f *FileTokenStore) Save(_ context.Context, tok *oauth2.Token) error {
	if dir := filepath.Dir(f.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("spotify: token dir: %w", err)
		}
	}
	b, err := json.Marshal(fromOAuth(tok))
	if err != nil {
		return fmt.Errorf("spotify: encode token: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return fmt.Errorf("spotify: write token: %w", err)
	}
	return os.Rename(tmp, f.path)
}

// firestoreTokens adapts the Firestore document store.
type firestoreTokens struct {
	fs *firestore.TokenStore
}

func (t firestoreTokens) Load(ctx context.Context) (*oauth2.Token, error) {
	doc, err := t.fs.Load(ctx)
	if errors.Is(err, firestore.ErrNotFound) {
		return nil, ErrNoToken
	}
	if err != nil {
		return nil, err
	}
	return SpotifyToken(doc).oauth(), nil
}

func (t firestoreTokens) Save(ctx context.Context, tok *oauth2.Token) error {
	return t.fs.Save(ctx, firestore.TokenDoc(fromOAuth(tok)))
}

// ProvideTokenStore uses Firestore when a project is configured and the local
// token file otherwise.
func ProvideTokenStore(log *zap.SugaredLogger, cfg config.Config) (TokenStore, error) {
	if cfg.FirestoreProject == "" {
		return NewFileTokenStore(cfg.TokenFile), nil
	}
	fs, err := firestore.NewTokenStore(context.Background(), cfg.FirestoreProject)
	if err != nil {
		log.Errorw("Failed to create firestore client", "project", cfg.FirestoreProject, "error", err)
		return nil, err
	}
	return firestoreTokens{fs: fs}, nil
}
