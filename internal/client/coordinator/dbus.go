package coordinator

import (
	"fmt"
	"sync"

	"github.com/godbus/dbus/v5"
)

const (
	dbusPath      = dbus.ObjectPath("/dev/focusblock/TabBus")
	dbusInterface = "dev.focusblock.TabBus"
	dbusMember    = "Broadcast"
)

// DBusBus broadcasts tab messages as signals on the user session bus, so
// every focusblock process in the login session shares one channel.
type DBusBus struct {
	conn    *dbus.Conn
	signals chan *dbus.Signal

	mu       sync.Mutex
	nextID   int
	handlers map[int]func(Message)
}

func NewDBusBus() (*DBusBus, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("connect session bus: %w", err)
	}

	if err := conn.AddMatchSignal(
		dbus.WithMatchInterface(dbusInterface),
		dbus.WithMatchMember(dbusMember),
	); err != nil {
		conn.Close()
		return nil, fmt.Errorf("add match: %w", err)
	}

	b := &DBusBus{
		conn:     conn,
		signals:  make(chan *dbus.Signal, 16),
		handlers: make(map[int]func(Message)),
	}
	conn.Signal(b.signals)
	go b.dispatch()
	return b, nil
}

func (b *DBusBus) Publish(msg Message) error {
	if err := b.conn.Emit(dbusPath, dbusInterface+"."+dbusMember, msg.Type, msg.TabID); err != nil {
		return fmt.Errorf("emit signal: %w", err)
	}
	return nil
}

func (b *DBusBus) Subscribe(handler func(Message)) (func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	b.handlers[id] = handler
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.handlers, id)
	}, nil
}

func (b *DBusBus) Close() error {
	return b.conn.Close()
}

func (b *DBusBus) dispatch() {
	for signal := range b.signals {
		if signal.Name != dbusInterface+"."+dbusMember || len(signal.Body) != 2 {
			continue
		}
		msgType, ok := signal.Body[0].(string)
		if !ok {
			continue
		}
		tabID, ok := signal.Body[1].(string)
		if !ok {
			continue
		}

		msg := Message{Type: msgType, TabID: tabID}
		b.mu.Lock()
		handlers := make([]func(Message), 0, len(b.handlers))
		for _, handler := range b.handlers {
			handlers = append(handlers, handler)
		}
		b.mu.Unlock()
		for _, handler := range handlers {
			handler(msg)
		}
	}
}
