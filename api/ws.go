package api

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/hoshinonyaruko/snake-torus/session"
	"github.com/hoshinonyaruko/snake-torus/structs"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ClientMessage is what a websocket client sends: a direction, "pause" or "restart".
type ClientMessage struct {
	Action string `json:"action"`
}

// WebsocketHandler streams frames of a running game and accepts player actions.
func WebsocketHandler(m *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		runner, ok := lookup(c, m)
		if !ok {
			return
		}
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("[%s] websocket upgrade: %v", runner.ID(), err)
			return
		}
		defer conn.Close()

		frames, cancel := runner.Subscribe()
		defer cancel()

		writerDone := make(chan struct{})
		go func() {
			defer close(writerDone)
			for frame := range frames {
				if err := conn.WriteJSON(frame); err != nil {
					return
				}
			}
			if err := conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "game closed")); err != nil {
				log.Printf("[%s] websocket close: %v", runner.ID(), err)
			}
		}()

		ctx := c.Request.Context()
		for {
			var msg ClientMessage
			if err := conn.ReadJSON(&msg); err != nil {
				break
			}
			if err := handleAction(ctx, runner, msg.Action); err != nil {
				log.Printf("[%s] action %q: %v", runner.ID(), msg.Action, err)
				break
			}
		}
		cancel()
		<-writerDone
	}
}

func handleAction(ctx context.Context, runner *session.Runner, action string) error {
	switch action {
	case "pause":
		_, err := runner.TogglePause(ctx)
		return err
	case "restart":
		return runner.Restart(ctx)
	}
	if d := structs.Direction(action); d.Valid() {
		_, err := runner.SetDirection(ctx, d)
		return err
	}
	// 未知动作忽略
	return nil
}
