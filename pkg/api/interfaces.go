// Package api provides interfaces for dependency injection
package api

import (
	"context"

	"github.com/sirupsen/logrus"
)

// ArchiveStore is a document archive that also owns its resources
type ArchiveStore interface {
	DocumentArchive

	// Close releases the archive
	Close() error
}

// ArchiveFactory opens document archives
type ArchiveFactory interface {
	// OpenArchive opens or creates the archive under dataDir
	OpenArchive(dataDir string, log *logrus.Entry) (ArchiveStore, error)
}

// ServerStarter defines the interface for starting the API server
type ServerStarter interface {
	// StartServer serves the API over archive until ctx is cancelled
	StartServer(ctx context.Context, archive DocumentArchive, config ServerConfig, log *logrus.Entry) error
}

// ServerFactory creates server instances
type ServerFactory interface {
	// CreateServerStarter creates a server starter
	CreateServerStarter() ServerStarter
}
