// Package cqrs separates state-changing commands from read-only queries and
// dispatches both through an in-memory bus keyed by message name.
package cqrs

import (
	"context"
	"fmt"
	"sync"
)

// Command is a state-changing message.
type Command interface {
	CommandName() string
}

// Query is a read-only message.
type Query interface {
	QueryName() string
}

// CommandHandler executes a command.
type CommandHandler interface {
	Handle(ctx context.Context, cmd Command) error
}

// CommandHandlerFunc adapts a function to CommandHandler.
type CommandHandlerFunc func(ctx context.Context, cmd Command) error

func (f CommandHandlerFunc) Handle(ctx context.Context, cmd Command) error {
	return f(ctx, cmd)
}

// QueryHandler executes a query and returns its result.
type QueryHandler interface {
	Handle(ctx context.Context, q Query) (any, error)
}

// QueryHandlerFunc adapts a function to QueryHandler.
type QueryHandlerFunc func(ctx context.Context, q Query) (any, error)

func (f QueryHandlerFunc) Handle(ctx context.Context, q Query) (any, error) {
	return f(ctx, q)
}

// Bus routes commands and queries to their registered handlers. Each message
// name has exactly one handler; re-registration replaces the previous one.
type Bus struct {
	mu              sync.RWMutex
	commandHandlers map[string]CommandHandler
	queryHandlers   map[string]QueryHandler
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{
		commandHandlers: make(map[string]CommandHandler),
		queryHandlers:   make(map[string]QueryHandler),
	}
}

// RegisterCommand binds a handler to a command name.
func (b *Bus) RegisterCommand(name string, handler CommandHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.commandHandlers[name] = handler
}

// RegisterQuery binds a handler to a query name.
func (b *Bus) RegisterQuery(name string, handler QueryHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.queryHandlers[name] = handler
}

// Dispatch routes a command to its handler.
func (b *Bus) Dispatch(ctx context.Context, cmd Command) error {
	b.mu.RLock()
	handler, ok := b.commandHandlers[cmd.CommandName()]
	b.mu.RUnlock()
	if !ok {
		return fmt.Errorf("no handler registered for command %q", cmd.CommandName())
	}
	return handler.Handle(ctx, cmd)
}

// Ask routes a query to its handler and returns the result.
func (b *Bus) Ask(ctx context.Context, q Query) (any, error) {
	b.mu.RLock()
	handler, ok := b.queryHandlers[q.QueryName()]
	b.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no handler registered for query %q", q.QueryName())
	}
	return handler.Handle(ctx, q)
}
