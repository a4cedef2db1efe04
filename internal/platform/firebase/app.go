// Package firebase initializes the Firebase Admin SDK clients the service
// uses: Firestore for lead storage and Auth for the list endpoint.
package firebase

import (
	"context"
	"errors"
	"fmt"
	"os"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

// Config holds Firebase configuration.
type Config struct {
	ProjectID       string
	CredentialsFile string // service account JSON; empty uses ambient credentials
}

// Services selects which clients InitializeClients creates.
type Services uint8

const (
	Auth Services = 1 << iota
	Firestore
)

// Clients holds initialized Firebase clients. Unrequested clients are nil.
type Clients struct {
	Auth      *auth.Client
	Firestore *firestore.Client
}

// InitializeClients creates the requested clients.
func InitializeClients(ctx context.Context, cfg Config, want Services) (*Clients, error) {
	if want == 0 {
		return nil, errors.New("firebase: no services requested")
	}
	if want&Firestore != 0 && cfg.ProjectID == "" {
		return nil, errors.New("firebase: project id is required for firestore")
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		creds, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("firebase: read credentials: %w", err)
		}
		opts = append(opts, option.WithCredentialsJSON(creds))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase: new app: %w", err)
	}

	c := &Clients{}
	if want&Auth != 0 {
		if c.Auth, err = app.Auth(ctx); err != nil {
			return nil, fmt.Errorf("firebase: auth client: %w", err)
		}
	}
	if want&Firestore != 0 {
		if c.Firestore, err = app.Firestore(ctx); err != nil {
			return nil, fmt.Errorf("firebase: firestore client: %w", err)
		}
	}
	return c, nil
}

// Close closes the Firestore client when one was created.
func (c *Clients) Close() error {
	if c == nil || c.Firestore == nil {
		return nil
	}
	return c.Firestore.Close()
}
