package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"arbiter/internal/domain/conflict"

	"github.com/cloudwego/hertz/pkg/app/client"
	"github.com/cloudwego/hertz/pkg/protocol"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

// Channel posts game-master alerts to a webhook (e.g. a Discord-compatible
// endpoint) as JSON. Callers treat failures as best-effort.
type Channel struct {
	url    string
	client *client.Client
}

type alertBody struct {
	ConflictID string            `json:"conflict_id"`
	GuildID    string            `json:"guild_id"`
	Message    string            `json:"message"`
	Conflict   conflict.Conflict `json:"conflict"`
	SentAt     time.Time         `json:"sent_at"`
}

func NewChannel(url string) (*Channel, error) {
	c, err := client.NewClient(client.WithDialTimeout(5 * time.Second))
	if err != nil {
		return nil, fmt.Errorf("build webhook client: %w", err)
	}
	return &Channel{url: url, client: c}, nil
}

func (c *Channel) SendAlert(ctx context.Context, conflictID, guildID, message string, payload conflict.Conflict) error {
	body, err := json.Marshal(alertBody{
		ConflictID: conflictID,
		GuildID:    guildID,
		Message:    message,
		Conflict:   payload,
		SentAt:     time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("encode alert: %w", err)
	}

	req := protocol.AcquireRequest()
	res := protocol.AcquireResponse()
	defer func() {
		protocol.ReleaseRequest(req)
		protocol.ReleaseResponse(res)
	}()

	req.SetMethod(consts.MethodPost)
	req.SetRequestURI(c.url)
	req.Header.SetContentTypeBytes([]byte("application/json"))
	req.SetBody(body)

	if err := c.client.Do(ctx, req, res); err != nil {
		return fmt.Errorf("deliver alert for conflict %s: %w", conflictID, err)
	}
	if res.StatusCode() >= 300 {
		return fmt.Errorf("webhook rejected alert for conflict %s: status %d", conflictID, res.StatusCode())
	}
	return nil
}
