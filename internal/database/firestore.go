package database

import (
	"context"
	"fmt"
	"log"

	"go-dashboard/internal/config"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go"
	"go.uber.org/fx"
	"google.golang.org/api/option"
)

// FirestoreDB wraps the Firestore client. Client is nil when the configured
// store driver is not firestore.
type FirestoreDB struct {
	Client *firestore.Client
}

func (f *FirestoreDB) Enabled() bool {
	return f != nil && f.Client != nil
}

// NewFirestore initializes a Firestore client through the Firebase app and
// closes it when the application stops.
func NewFirestore(lc fx.Lifecycle, cfg *config.Config) (*FirestoreDB, error) {
	if cfg.StoreDriver != config.StoreFirestore {
		return &FirestoreDB{}, nil
	}

	ctx := context.Background()

	var opts []option.ClientOption
	if cfg.FirebaseCredentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.FirebaseCredentialsPath))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.FirebaseProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing Firebase app: %w", err)
	}

	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("error initializing Firestore client: %w", err)
	}

	log.Printf("Connected to Firestore project: %s", cfg.FirebaseProjectID)

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Println("Closing Firestore client...")
			return client.Close()
		},
	})

	return &FirestoreDB{Client: client}, nil
}
