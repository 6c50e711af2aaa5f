package api

import (
	"fmt"

	"github.com/reelhouse/reeld/internal/api/reels"
	"github.com/reelhouse/reeld/internal/api/util"
	"github.com/reelhouse/reeld/internal/event"
	"github.com/reelhouse/reeld/internal/http/websocket"
	"github.com/reelhouse/reeld/internal/reel"
)

const (
	TitleReelUpdate   = "REEL_UPDATE"
	TitleReelProgress = "REEL_PROGRESS"
	TitleReelComplete = "REEL_COMPLETE"
	TitleStorageClear = "STORAGE_CLEAR"
	TitleReelStatus   = "REEL_STATUS"
	TitleReelCancel   = "REEL_CANCEL"
	TitleStatusOk     = "REEL_STATUS_OK"
	TitleCancelOk     = "REEL_CANCEL_OK"
)

type (
	// broadcaster forwards reel activity to all clients connected to the
	// socket hub, furnishing newly connected clients with the current
	// job list so they don't have to wait for the next update.
	broadcaster struct {
		socketHub *websocket.SocketHub
		service   ReelService
	}
)

func newBroadcaster(socketHub *websocket.SocketHub, service ReelService) *broadcaster {
	hub := &broadcaster{socketHub: socketHub, service: service}
	socketHub.WithConnectionCallback(func() map[string]interface{} {
		return map[string]interface{}{
			"jobs": util.ApplyConversion(service.AllJobs(), reels.NewJobDto),
		}
	})

	return hub
}

// broadcastActivity translates a bus event in to the socket message which
// is pushed to all connected clients.
func (gateway *RestGateway) broadcastActivity(message event.HandlerEvent) {
	switch message.Event {
	case event.ReelUpdateEvent:
		gateway.broadcastJobState(TitleReelUpdate, message.Payload)
	case event.ReelProgressEvent:
		gateway.broadcastJobState(TitleReelProgress, message.Payload)
	case event.ReelCompleteEvent:
		if id, ok := message.Payload.(string); ok {
			if model, err := gateway.service.GetReel(id); err == nil {
				gateway.broadcast(TitleReelComplete, reels.NewReelDto(model))
				return
			}

			gateway.broadcast(TitleReelComplete, map[string]interface{}{"id": id})
		}
	case event.StorageClearEvent:
		gateway.broadcast(TitleStorageClear, nil)
	}
}

func (gateway *RestGateway) broadcastJobState(title string, payload event.Payload) {
	id, ok := payload.(string)
	if !ok {
		return
	}

	if job, err := gateway.service.Job(id); err == nil {
		gateway.broadcast(title, reels.NewJobDto(job))
		return
	}

	// The job may already be gone (completed and removed); still let
	// clients know which reel changed
	gateway.broadcast(title, map[string]interface{}{"id": id})
}

func (hub *broadcaster) broadcast(title string, update any) {
	hub.socketHub.Send(&websocket.SocketMessage{
		Title: title,
		Body:  map[string]interface{}{"arguments": update},
		Type:  websocket.Update,
	})
}

// reelCommandArgs are the decoded arguments for the reel-targeted socket
// commands.
type reelCommandArgs struct {
	ReelID string `mapstructure:"reel_id"`
}

// bindSocketCommands attaches the commands clients may send over the
// activity socket: querying the state of an in-flight reel, and
// cancelling one.
func (gateway *RestGateway) bindSocketCommands(service ReelService) {
	gateway.socket.BindCommand(TitleReelStatus, func(hub *websocket.SocketHub, message *websocket.SocketMessage) error {
		var args reelCommandArgs
		if err := message.DecodeArgumentsInto(&args); err != nil {
			return err
		}

		job, err := service.Job(args.ReelID)
		if err != nil {
			return fmt.Errorf("no job found for reel %s", args.ReelID)
		}

		hub.Send(message.FormReply(TitleStatusOk, map[string]interface{}{"job": reels.NewJobDto(job)}, websocket.Response))
		return nil
	})

	gateway.socket.BindCommand(TitleReelCancel, func(hub *websocket.SocketHub, message *websocket.SocketMessage) error {
		var args reelCommandArgs
		if err := message.DecodeArgumentsInto(&args); err != nil {
			return err
		}

		if err := service.CancelJob(args.ReelID); err != nil {
			if err == reel.ErrJobNotFound {
				return fmt.Errorf("no job found for reel %s", args.ReelID)
			}

			return err
		}

		hub.Send(message.FormReply(TitleCancelOk, map[string]interface{}{"reel_id": args.ReelID}, websocket.Response))
		return nil
	})
}
