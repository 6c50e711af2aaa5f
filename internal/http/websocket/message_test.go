package websocket

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_DecodeArgumentsInto_PopulatesTypedArgs(t *testing.T) {
	message := &SocketMessage{
		Title: "REEL_STATUS",
		Type:  Command,
		Body:  map[string]interface{}{"reel_id": "abc123"},
	}

	var args struct {
		ReelID string `mapstructure:"reel_id"`
	}
	require.NoError(t, message.DecodeArgumentsInto(&args))
	assert.Equal(t, "abc123", args.ReelID)
}

func Test_DecodeArgumentsInto_RejectsMissingArgs(t *testing.T) {
	message := &SocketMessage{
		Title: "REEL_STATUS",
		Type:  Command,
		Body:  map[string]interface{}{},
	}

	var args struct {
		ReelID string `mapstructure:"reel_id"`
	}
	assert.Error(t, message.DecodeArgumentsInto(&args))
}

func Test_FormReply_TargetsOriginalSender(t *testing.T) {
	message := &SocketMessage{
		Title: "REEL_CANCEL",
		Type:  Command,
		Id:    7,
		Body:  map[string]interface{}{"reel_id": "abc123"},
	}

	reply := message.FormReply("REEL_CANCEL_OK", map[string]interface{}{"ok": true}, Response)
	assert.Equal(t, 7, reply.Id)
	assert.Equal(t, Response, reply.Type)
	assert.Equal(t, message.Body, reply.Body["command"])
}
