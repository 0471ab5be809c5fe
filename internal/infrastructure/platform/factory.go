package platform

import (
	"fmt"

	"invochat-core-sync-layer/internal/domain"
	"invochat-core-sync-layer/internal/ports"
)

// Factory holds the closed set of platform clients and selects by the
// integration's platform field.
type Factory struct {
	clients map[domain.Platform]ports.PlatformClient
}

// NewFactory creates a factory over the given clients.
func NewFactory(clients ...ports.PlatformClient) *Factory {
	byPlatform := make(map[domain.Platform]ports.PlatformClient, len(clients))
	for _, c := range clients {
		byPlatform[c.Platform()] = c
	}
	return &Factory{clients: byPlatform}
}

// ClientFor returns the client for a platform.
func (f *Factory) ClientFor(p domain.Platform) (ports.PlatformClient, error) {
	client, ok := f.clients[p]
	if !ok {
		return nil, fmt.Errorf("%w: no client for %q", domain.ErrUnknownPlatform, p)
	}
	return client, nil
}

var _ ports.PlatformClientFactory = (*Factory)(nil)
