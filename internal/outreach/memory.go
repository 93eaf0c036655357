package outreach

import (
	"context"
	"fmt"
	"sync"

	id "holly/pkg/domain"
)

// RecordedSend captures one invocation of the in-memory client.
type RecordedSend struct {
	Channel     id.Channel
	Destination string
	Payload     Payload
}

// MemoryClient records sends instead of calling a provider. Tests script
// failures per channel to exercise backoff paths.
type MemoryClient struct {
	mu       sync.Mutex
	sends    []RecordedSend
	failWith map[id.Channel]error
	next     int
}

func NewMemoryClient() *MemoryClient {
	return &MemoryClient{failWith: make(map[id.Channel]error)}
}

// FailChannel makes every subsequent send on ch return err.
func (c *MemoryClient) FailChannel(ch id.Channel, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failWith[ch] = err
}

func (c *MemoryClient) Send(_ context.Context, ch id.Channel, destination string, payload Payload) (SendResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.failWith[ch]; err != nil {
		return SendResult{}, err
	}
	c.sends = append(c.sends, RecordedSend{Channel: ch, Destination: destination, Payload: payload})
	c.next++
	return SendResult{
		ProviderID: fmt.Sprintf("prov-%d", c.next),
		Status:     StatusQueued,
	}, nil
}

// Sends returns a copy of all recorded sends.
func (c *MemoryClient) Sends() []RecordedSend {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]RecordedSend{}, c.sends...)
}

var _ Client = (*MemoryClient)(nil)
