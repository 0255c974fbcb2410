package firestore

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	tokenCollection = "spotify_tokens"
	tokenDocument   = "default"
)

// ErrNotFound is returned when the token document does not exist yet.
var ErrNotFound = errors.New("firestore: token not found")

// TokenDoc is the stored OAuth token.
type TokenDoc struct {
	AccessToken  string `json:"access_token" firestore:"accessToken"`
	RefreshToken string `json:"refresh_token" firestore:"refreshToken"`
	TokenType    string `json:"token_type" firestore:"tokenType"`
	Expiry       int64  `json:"expiry" firestore:"expiry"`
}

// TokenStore keeps the single user's Spotify token in one document.
type TokenStore struct {
	client *firestore.Client
}

// NewTokenStore connects to the given project.
func NewTokenStore(ctx context.Context, projectID string) (*TokenStore, error) {
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("firestore: new client: %w", err)
	}
	return &TokenStore{client: client}, nil
}

func (s *TokenStore) doc() *firestore.DocumentRef {
	return s.client.Collection(tokenCollection).Doc(tokenDocument)
}

func (s *TokenStore) Load(ctx context.Context) (TokenDoc, error) {
	snap, err := s.doc().Get(ctx)
	if status.Code(err) == codes.NotFound {
		return TokenDoc{}, ErrNotFound
	}
	if err != nil {
		return TokenDoc{}, fmt.Errorf("firestore: get token: %w", err)
	}

	var t TokenDoc
	if err := snap.DataTo(&t); err != nil {
		return TokenDoc{}, fmt.Errorf("firestore: decode token: %w", err)
	}
	return t, nil
}

func (s *TokenStore) Save(ctx context.Context, t TokenDoc) error {
	if _, err := s.doc().Set(ctx, t); err != nil {
		return fmt.Errorf("firestore: set token: %w", err)
	}
	return nil
}

func (s *TokenStore) Close() error {
	return s.client.Close()
}
