// Package workers runs the client's background monitors: record store
// connectivity, bearer token validity and the local upload queue. Each
// monitor fans its signal out to every registered listener, normally one
// sync coordinator per domain.
package workers

import (
	"context"

	"github.com/MKhiriev/wallet-cloud-sync/models"
)

// Worker is a background loop. Run blocks until ctx is done or the worker
// fails.
type Worker interface {
	Run(ctx context.Context) error
}

// ConnectivityListener receives record store reachability changes.
type ConnectivityListener interface {
	ConnectivityChanged(available bool)
}

// CredentialsListener receives bearer token validity changes.
type CredentialsListener interface {
	CredentialsChanged(ok bool)
}

// QueueListener receives upload queue lengths per subkind.
type QueueListener interface {
	QueueCountChanged(sk models.SubKind, count int)
}

// QueueSource is the local store as seen by the queue monitor.
type QueueSource interface {
	// Changes delivers the subkind of every local write.
	Changes() <-chan models.SubKind
	QueueCount(ctx context.Context, sk models.SubKind) (int, error)
}

// TokenHolder keeps the bearer token used for record store calls.
type TokenHolder interface {
	SetToken(token string)
	Token() string
}

// Authenticator obtains a fresh bearer token.
type Authenticator interface {
	Login(ctx context.Context, login, authHash string) (string, error)
}
