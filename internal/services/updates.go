package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"lms-backend/internal/models"
)

// UserUpdateChannel is the pub/sub channel the websocket hub relays to a user.
func UserUpdateChannel(userID uuid.UUID) string {
	return fmt.Sprintf("user_updates:%s", userID.String())
}

type UpdatePublisher struct {
	redis *redis.Client
}

func NewUpdatePublisher(redisClient *redis.Client) *UpdatePublisher {
	return &UpdatePublisher{redis: redisClient}
}

func (p *UpdatePublisher) PublishUpdate(ctx context.Context, userID uuid.UUID, msg models.WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("failed to encode %s update for user %s: %v", msg.Type, userID, err)
		return
	}
	if err := p.redis.Publish(ctx, UserUpdateChannel(userID), string(data)).Err(); err != nil {
		log.Printf("failed to publish %s update for user %s: %v", msg.Type, userID, err)
	}
}
