package websocket

import (
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// socketClient wraps a single upgraded websocket connection. Writes are
// serialised with a mutex as gorilla connections only support one
// concurrent writer.
type socketClient struct {
	id        *uuid.UUID
	socket    *websocket.Conn
	writeLock sync.Mutex
	closed    bool
}

func newClient(id *uuid.UUID, socket *websocket.Conn) *socketClient {
	return &socketClient{id: id, socket: socket}
}

// SendMessage marshals the provided message to JSON and writes it to the
// clients connection.
func (client *socketClient) SendMessage(message *SocketMessage) error {
	client.writeLock.Lock()
	defer client.writeLock.Unlock()

	if client.closed {
		return websocket.ErrCloseSent
	}

	return client.socket.WriteJSON(message)
}

// Read runs the clients read loop, decoding each inbound frame as a
// SocketMessage and forwarding it - tagged with this clients ID - on the
// provided channel. Blocks until the connection errors or closes.
func (client *socketClient) Read(receiveCh chan *SocketMessage) error {
	for {
		var message SocketMessage
		if err := client.socket.ReadJSON(&message); err != nil {
			return err
		}

		message.Origin = client.id
		receiveCh <- &message
	}
}

// Close tears the underlying connection down. Any in-flight SendMessage
// completes first.
func (client *socketClient) Close() {
	client.writeLock.Lock()
	defer client.writeLock.Unlock()

	if client.closed {
		return
	}

	client.closed = true
	client.socket.Close()
}
