package rdx

import (
	"context"
	"fmt"
	"log"
	"time"
)

// Availability responses are cached briefly per (hub, date). Every write
// that can change a day's availability must call InvalidateAvailability.
const availabilityTTL = 60 * time.Second

func availabilityKey(hubName, date string) string {
	return fmt.Sprintf("avail:%s:%s", hubName, date)
}

func GetCachedAvailability(ctx context.Context, hubName, date string) (string, bool) {
	val, err := Conn.Get(ctx, availabilityKey(hubName, date)).Result()
	if err != nil || val == "" {
		return "", false
	}
	return val, true
}

func SetCachedAvailability(ctx context.Context, hubName, date string, payload []byte) {
	if err := Conn.Set(ctx, availabilityKey(hubName, date), payload, availabilityTTL).Err(); err != nil {
		log.Println("Redis set error:", err)
	}
}

func InvalidateAvailability(ctx context.Context, hubName, date string) {
	if err := Conn.Del(ctx, availabilityKey(hubName, date)).Err(); err != nil {
		log.Println("Redis del error:", err)
	}
}
