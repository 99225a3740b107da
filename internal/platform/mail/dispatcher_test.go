// Copyright (c) 2026 Velora Commerce. All rights reserved.
// Author: eng@velora.shop

package mail

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureSender struct {
	mu       sync.Mutex
	messages []Message
}

func (c *captureSender) Send(_ context.Context, msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, msg)
	return nil
}

func (c *captureSender) all() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Message(nil), c.messages...)
}

func TestDispatcherDeliversEnqueuedMessages(t *testing.T) {
	sender := &captureSender{}
	dispatcher := NewDispatcher(sender, slog.New(slog.DiscardHandler))

	dispatcher.Enqueue(Message{To: "a@velora.shop", Subject: "one"})
	dispatcher.Enqueue(Message{To: "b@velora.shop", Subject: "two"})
	dispatcher.Close()

	delivered := sender.all()
	require.Len(t, delivered, 2)

	subjects := []string{delivered[0].Subject, delivered[1].Subject}
	assert.ElementsMatch(t, []string{"one", "two"}, subjects)
}

func TestDispatcherCloseIsIdempotent(t *testing.T) {
	dispatcher := NewDispatcher(&captureSender{}, slog.New(slog.DiscardHandler))

	dispatcher.Close()
	assert.NotPanics(t, func() { dispatcher.Close() })
}

func TestLogSenderNeverFails(t *testing.T) {
	sender := NewLogSender(slog.New(slog.DiscardHandler))

	err := sender.Send(context.Background(), Message{To: "x@velora.shop", Subject: "s", HTMLBody: "<p>hi</p>"})
	assert.NoError(t, err)
}
