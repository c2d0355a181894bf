package snapshot

import (
	"context"
	"testing"
	"time"

	goredis "github.com/go-redis/redis/v8"
)

func TestKeys(t *testing.T) {
	p := NewWithClient(goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:1"}), "quantdesk:", time.Minute)
	defer p.Close()

	tests := []struct {
		got, want string
	}{
		{p.Key("currencies"), "quantdesk:latest:currencies"},
		{p.Key("analysis:BTCUSDT"), "quantdesk:latest:analysis:BTCUSDT"},
		{p.Channel(), "quantdesk:updates"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}

func TestNew_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := New(ctx, Config{Addr: "127.0.0.1:1"}); err == nil {
		t.Error("expected ping error for an unreachable server")
	}
}

func TestPublish_EncodeError(t *testing.T) {
	p := NewWithClient(goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:1"}), "", 0)
	defer p.Close()
	if err := p.Publish(context.Background(), "bad", make(chan int)); err == nil {
		t.Error("expected error for a value JSON cannot encode")
	}
}
