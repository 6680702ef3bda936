package chat

import (
	"testing"

	"go.uber.org/mock/gomock"

	"github.com/corvino/roomtalk/internal/mocks"
	"github.com/corvino/roomtalk/internal/protocol"
)

func TestBroadcaster_Delivers_To_Room_Only(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	registry := NewRegistry(4)

	inLobby1 := mocks.NewMockSink(ctrl)
	inLobby2 := mocks.NewMockSink(ctrl)
	inDen := mocks.NewMockSink(ctrl)
	registry.Acquire(inLobby1)
	registry.Acquire(inLobby2)
	h, _, _ := registry.Acquire(inDen)
	registry.Move(h, "den", nil)

	// Given both lobby sinks expect the message once and the den sink never
	msg := []byte("Anon1: hi\n")
	inLobby1.EXPECT().Send(msg).Return(nil).Times(1)
	inLobby2.EXPECT().Send(msg).Return(nil).Times(1)
	inDen.EXPECT().Send(gomock.Any()).Times(0)

	// When the lobby is broadcast to
	NewBroadcaster(registry, discardLogger()).Broadcast(protocol.LobbyName, string(msg))
}

func TestBroadcaster_Failed_Recipient_Does_Not_Stop_Others(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	registry := NewRegistry(4)

	broken := mocks.NewMockSink(ctrl)
	healthy := mocks.NewMockSink(ctrl)
	registry.Acquire(broken)
	registry.Acquire(healthy)

	// Given the first recipient fails
	gomock.InOrder(
		broken.EXPECT().Send(gomock.Any()).Return(errSinkClosed),
		healthy.EXPECT().Send([]byte("x\n")).Return(nil),
	)

	// When broadcasting, the second still receives it and nothing panics
	NewBroadcaster(registry, discardLogger()).Broadcast(protocol.LobbyName, "x\n")
}

func TestBroadcaster_Empty_Room(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	registry := NewRegistry(2)
	sink := mocks.NewMockSink(ctrl)
	registry.Acquire(sink)

	sink.EXPECT().Send(gomock.Any()).Times(0)

	NewBroadcaster(registry, discardLogger()).Broadcast("nowhere", "x\n")
}
